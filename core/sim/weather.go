package sim

import (
	"math/rand"

	"github.com/kfranzke/leitstelle/core/events"
	"github.com/kfranzke/leitstelle/core/logger"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/internal/eventbus"
)

// WeatherSweep drifts the weather condition on a fixed interval and
// publishes the change for presentation collaborators.
type WeatherSweep struct {
	log      logger.Logger
	bus      eventbus.EventBus
	rng      *rand.Rand
	interval Interval
}

// NewWeatherSweep creates the sweep. every is the real-time period in
// seconds between drift rolls.
func NewWeatherSweep(log logger.Logger, bus eventbus.EventBus, rng *rand.Rand, every float64) *WeatherSweep {
	if every <= 0 {
		every = 120
	}
	return &WeatherSweep{log: log, bus: bus, rng: rng, interval: Interval{Every: every}}
}

func (w *WeatherSweep) Name() string { return "weather" }

// Step rolls a drift to a neighboring condition. Weather changes are rare
// and move one step through the condition list rather than jumping.
func (w *WeatherSweep) Step(st *State, realDt float64) {
	if !w.interval.Due(st.RealElapsedS) {
		return
	}
	if w.rng.Float64() > 0.3 {
		return
	}
	all := model.AllWeather()
	idx := 0
	for n, c := range all {
		if c == st.Weather {
			idx = n
			break
		}
	}
	if w.rng.Float64() < 0.5 {
		idx--
	} else {
		idx++
	}
	if idx < 0 || idx >= len(all) {
		return
	}
	from := st.Weather
	st.Weather = all[idx]
	st.AppendLog(events.LogSystem, "weather is changing: "+string(st.Weather))
	w.log.Infof("weather drift %s -> %s", from, st.Weather)
	if w.bus != nil {
		w.bus.Publish(events.WeatherChanged{From: from, To: st.Weather})
	}
}
