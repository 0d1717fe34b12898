package sim

import "time"

// Clock is the simulated shift clock. Speed is the game-speed multiplier
// (1x-4x); it divides every real-time-derived duration.
type Clock struct {
	Sim   time.Time
	Speed float64
}

// NewClock starts a clock at the given simulated time of day.
func NewClock(start time.Time, speed float64) Clock {
	if speed <= 0 {
		speed = 1
	}
	return Clock{Sim: start, Speed: speed}
}

// Advance moves the simulated clock by realDt seconds of wall time and
// returns the simulated seconds that passed.
func (c *Clock) Advance(realDt float64) float64 {
	simDt := realDt * c.Speed
	c.Sim = c.Sim.Add(time.Duration(simDt * float64(time.Second)))
	return simDt
}

// SimDt converts a real-time delta to simulated seconds without advancing.
func (c *Clock) SimDt(realDt float64) float64 { return realDt * c.Speed }
