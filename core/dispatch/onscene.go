package dispatch

import (
	"fmt"

	"github.com/kfranzke/leitstelle/core/events"
	"github.com/kfranzke/leitstelle/core/fms"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/core/sim"
)

// Speak request categories, picked by situation.
const (
	SpeakBackup     = "backup"
	SpeakEscalation = "escalation"
	SpeakArrest     = "arrest"
	SpeakReport     = "report"
	SpeakUnclear    = "unclear"
	SpeakInfo       = "info"
)

// processOnScene advances the on-scene work of a vehicle: the one-time
// situation report, a possible speak request and finally the return trip
// once the incident has enough units and the work is done.
func (o *Orchestrator) processOnScene(st *sim.State, v *model.Vehicle, simDt float64) {
	inc := st.Incident(v.AssignedIncidentID)
	if inc == nil || !inc.Active() {
		// Incident failed or was removed underneath us; head home.
		o.startReturn(st, v)
		return
	}

	v.ProcessingElapsedS += simDt

	if !v.SituationReportSent && v.ProcessingElapsedS >= v.ReportDueS {
		v.SituationReportSent = true
		o.situationReport(st, v, inc)
	}

	if o.maybeSpeakRequest(st, v, inc) {
		return
	}

	if v.ProcessingElapsedS >= inc.ProcessingDurationS && inc.ArrivedVehicles >= inc.RequiredVehicles {
		o.startReturn(st, v)
	}
}

func (o *Orchestrator) situationReport(st *sim.State, v *model.Vehicle, inc *model.Incident) {
	text := fmt.Sprintf("situation report: %s under control, %d unit(s) working", inc.Type, inc.ArrivedVehicles)
	if inc.UnderResourced() {
		text = fmt.Sprintf("situation report: %s, more units needed", inc.Type)
	}
	msg := st.AppendRadio(events.RadioMessage{
		VehicleID: v.ID, CallSign: v.CallSign,
		From: fms.StatusOnScene, To: fms.StatusOnScene,
		Text: text,
	})
	if o.bus != nil {
		o.bus.Publish(msg)
	}
}

// maybeSpeakRequest rolls the per-tick chance of a crew raising a speak
// request. Only one speak request per incident is allowed, and only inside
// the 20-70% window of the processing duration.
func (o *Orchestrator) maybeSpeakRequest(st *sim.State, v *model.Vehicle, inc *model.Incident) bool {
	if inc.SpeakRequestDone || inc.ProcessingDurationS <= 0 {
		return false
	}
	frac := v.ProcessingElapsedS / inc.ProcessingDurationS
	if frac < 0.2 || frac > 0.7 {
		return false
	}
	if o.rng.Float64() >= o.cfg.SpeakRequestChance {
		return false
	}
	v.PreviousStatus = v.Status
	if err := o.transition(st, v, fms.StatusSpeakRequest, "requesting to speak"); err != nil {
		return false
	}
	inc.SpeakRequestDone = true
	v.SpeakRequestCategory = o.speakCategory(inc)
	st.AppendLog(events.LogSystem, fmt.Sprintf("%s requests to speak (%s)", v.CallSign, v.SpeakRequestCategory))
	return true
}

// speakCategory picks what the crew wants to talk about. Under-resourced
// incidents push for backup, high-priority ones for escalation topics,
// routine ones for paperwork.
func (o *Orchestrator) speakCategory(inc *model.Incident) string {
	roll := o.rng.Float64()
	switch {
	case inc.UnderResourced():
		if roll < 0.6 {
			return SpeakBackup
		}
		return SpeakEscalation
	case inc.Priority == model.PriorityHigh:
		switch {
		case roll < 0.4:
			return SpeakEscalation
		case roll < 0.7:
			return SpeakArrest
		default:
			return SpeakReport
		}
	default:
		switch {
		case roll < 0.5:
			return SpeakReport
		case roll < 0.8:
			return SpeakUnclear
		default:
			return SpeakInfo
		}
	}
}
