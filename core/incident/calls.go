package incident

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/kfranzke/leitstelle/core/events"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/core/sim"
)

var callTexts = map[model.IncidentType][]string{
	model.IncidentTheft:           {"someone just grabbed my bag", "shoplifter ran off towards the square"},
	model.IncidentBurglary:        {"glass breaking next door, lights are off", "back door of the shop is forced open"},
	model.IncidentDisturbance:     {"loud argument in the courtyard", "group shouting outside the bar"},
	model.IncidentVandalism:       {"kids smashing the bus stop", "someone is spraying the underpass"},
	model.IncidentAssault:         {"two men fighting, one is down", "he hit her, she needs help"},
	model.IncidentTrafficAccident: {"two cars collided at the junction", "cyclist hit by a van, he is not moving"},
	model.IncidentPursuit:         {"driver refused to stop, heading north", "suspect fled on foot through the park"},
	model.IncidentMassCasualty:    {"a bus crashed into the market stalls, many injured"},
}

var callerNames = []string{"M. Weber", "A. Fischer", "K. Schulz", "T. Braun", "S. Hoffman", "J. Krause", "anonymous"}

var generatedTypes = []model.IncidentType{
	model.IncidentTheft, model.IncidentBurglary, model.IncidentDisturbance,
	model.IncidentVandalism, model.IncidentAssault, model.IncidentTrafficAccident,
}

// RandomCall synthesizes a call in the given area. Also used by the patrol
// discovery loop to seed the ordinary call pipeline.
func RandomCall(rng *rand.Rand, area model.Area, weather model.Weather, simTime time.Time, massCasualtyChance float64) *model.Call {
	eff := model.EffectsFor(weather)

	// Weighted type pick honoring the weather's frequency modifiers.
	var total float64
	weights := make([]float64, len(generatedTypes))
	for n, t := range generatedTypes {
		weights[n] = eff.FrequencyFor(t)
		total += weights[n]
	}
	roll := rng.Float64() * total
	picked := generatedTypes[0]
	for n, w := range weights {
		if roll < w {
			picked = generatedTypes[n]
			break
		}
		roll -= w
	}

	prio := model.PriorityLow
	switch picked {
	case model.IncidentAssault, model.IncidentTrafficAccident:
		prio = model.PriorityMedium
	case model.IncidentPursuit:
		prio = model.PriorityHigh
	}

	c := &model.Call{
		ID:         uuid.NewString(),
		Type:       picked,
		Area:       area.Name,
		Location:   area.Center.Offset(rng.Float64()*area.RadiusKm, rng.Float64()*360),
		Priority:   prio,
		CallerName: callerNames[rng.Intn(len(callerNames))],
		ReceivedAt: simTime,
		Status:     model.CallWaiting,
	}
	if texts := callTexts[picked]; len(texts) > 0 {
		c.Text = texts[rng.Intn(len(texts))]
	}
	if rng.Float64() < massCasualtyChance {
		c.Type = model.IncidentMassCasualty
		c.Priority = model.PriorityHigh
		c.MassCasualty = true
		c.InvolvedPersons = 5 + rng.Intn(20)
		c.Text = callTexts[model.IncidentMassCasualty][0]
	}
	// Some callers misread the situation; the real type shows once a unit
	// is on scene.
	if !c.MassCasualty && rng.Float64() < 0.1 {
		c.HiddenType = generatedTypes[rng.Intn(len(generatedTypes))]
	}
	return c
}

// generateCalls produces a new call when the sampled inter-arrival interval
// has elapsed, unless the queue is capped or visible patrol presence
// suppresses the roll.
func (m *Manager) generateCalls(st *sim.State) {
	if m.cfg.Scripted {
		return
	}
	if m.nextCallAtSim.IsZero() {
		m.nextCallAtSim = st.Clock.Sim.Add(m.nextInterval(m.effectiveRate(st)))
		return
	}
	if st.Clock.Sim.Before(m.nextCallAtSim) {
		return
	}
	m.nextCallAtSim = st.Clock.Sim.Add(m.nextInterval(m.effectiveRate(st)))

	if len(st.Calls)+m.activeIncidents(st) >= m.cfg.MaxActive {
		return
	}
	// Visible patrols deter incidents: each actively patrolling vehicle
	// adds a chance to suppress this call entirely.
	patrolling := 0
	for _, v := range st.Vehicles {
		if v.OnPatrol {
			patrolling++
		}
	}
	if suppression := float64(patrolling) * m.cfg.PresenceBonus; suppression > 0 && m.rng.Float64() < suppression {
		m.log.Debugf("call suppressed by patrol presence (%d patrolling)", patrolling)
		return
	}

	area := m.cfg.Areas[m.rng.Intn(len(m.cfg.Areas))]
	call := RandomCall(m.rng, area, st.Weather, st.Clock.Sim, m.cfg.MassCasualtyChance)
	st.Calls = append(st.Calls, call)
	st.Stats.CallsReceived++
	st.AppendLog(events.LogNewCall, fmt.Sprintf("new call: %s in %s", call.Type, call.Area))
	if m.bus != nil {
		m.bus.Publish(*call)
	}
}

// effectiveRate is the configured incidents-per-hour modulated by time of
// day, weather and a uniform jitter.
func (m *Manager) effectiveRate(st *sim.State) float64 {
	rate := m.cfg.IncidentsPerHour
	rate *= hourlyRate[st.Clock.Sim.Hour()]
	rate *= model.EffectsFor(st.Weather).CallRate
	rate *= 0.8 + 0.4*m.rng.Float64()
	return rate
}

func (m *Manager) activeIncidents(st *sim.State) int {
	n := 0
	for _, inc := range st.Incidents {
		if inc.Active() {
			n++
		}
	}
	return n
}

// expireCalls removes calls that sat unanswered past the timeout and calls
// that were already handled.
func (m *Manager) expireCalls(st *sim.State) {
	kept := st.Calls[:0]
	for _, c := range st.Calls {
		switch c.Status {
		case model.CallWaiting:
			if st.Clock.Sim.Sub(c.ReceivedAt).Seconds() >= m.cfg.CallTimeoutS {
				st.Stats.CallsMissed++
				st.AppendLog(events.LogSystem, fmt.Sprintf("call from %s timed out", c.CallerName))
				continue
			}
		case model.CallAnswered, model.CallRejected:
			continue
		}
		kept = append(kept, c)
	}
	st.Calls = kept
}

// AcceptCall promotes a waiting call into an incident. Promotion only ever
// happens through this explicit action.
func (m *Manager) AcceptCall(st *sim.State, callID string) (*model.Incident, error) {
	c := st.Call(callID)
	if c == nil {
		return nil, fmt.Errorf("incident: unknown call %s", callID)
	}
	if c.Status != model.CallWaiting {
		return nil, fmt.Errorf("incident: call %s already %s", callID, c.Status)
	}
	c.Status = model.CallAnswered

	inc := m.promote(st, c)
	st.Incidents = append(st.Incidents, inc)
	st.AppendLog(events.LogNewCall, fmt.Sprintf("call accepted: incident %s (%s, %s)", inc.ID, inc.Type, inc.Priority))
	return inc, nil
}

// RejectCall drops a waiting call without creating an incident.
func (m *Manager) RejectCall(st *sim.State, callID string) error {
	c := st.Call(callID)
	if c == nil {
		return fmt.Errorf("incident: unknown call %s", callID)
	}
	if c.Status != model.CallWaiting {
		return fmt.Errorf("incident: call %s already %s", callID, c.Status)
	}
	c.Status = model.CallRejected
	st.AppendLog(events.LogSystem, fmt.Sprintf("call from %s rejected", c.CallerName))
	return nil
}

// promote builds the incident for an accepted call, rolling escalation
// eligibility and sizing the response.
func (m *Manager) promote(st *sim.State, c *model.Call) *model.Incident {
	t := c.Type
	if c.HiddenType != "" {
		t = c.HiddenType
	}
	inc := &model.Incident{
		ID:                  uuid.NewString(),
		Type:                t,
		Location:            c.Location,
		Area:                c.Area,
		Priority:            c.Priority,
		RequiredVehicles:    requiredVehicles(t, c),
		TimeRemainingS:      timeBudget(c.Priority),
		SpawnedAt:           st.Clock.Sim,
		ProcessingDurationS: processingDuration(t, c, m.rng),
		MassCasualty:        c.MassCasualty,
		InvolvedPersons:     c.InvolvedPersons,
		Status:              model.IncidentActive,
	}
	if canEscalate(t) && m.rng.Float64() < m.cfg.EscalationChance {
		inc.CanEscalate = true
		delay := 60 + m.rng.Intn(31)
		inc.EscalateAt = st.Clock.Sim.Add(time.Duration(delay) * time.Second)
	}
	return inc
}

func canEscalate(t model.IncidentType) bool {
	switch t {
	case model.IncidentPursuit, model.IncidentMassCasualty:
		return false
	}
	return true
}

func requiredVehicles(t model.IncidentType, c *model.Call) int {
	switch t {
	case model.IncidentMassCasualty:
		n := 2 + c.InvolvedPersons/5
		if n > 6 {
			n = 6
		}
		return n
	case model.IncidentAssault, model.IncidentPursuit:
		return 2
	default:
		return 1
	}
}

func timeBudget(p model.Priority) float64 {
	switch p {
	case model.PriorityHigh:
		return 240
	case model.PriorityMedium:
		return 360
	default:
		return 480
	}
}

func processingDuration(t model.IncidentType, c *model.Call, rng *rand.Rand) float64 {
	base := 60 + rng.Float64()*60
	if t == model.IncidentMassCasualty {
		base = 180 + float64(c.InvolvedPersons)*10
	}
	return base
}
