package model

import "time"

// CallStatus tracks the dispatcher's handling of an emergency report.
type CallStatus string

const (
	CallWaiting  CallStatus = "waiting"
	CallAnswered CallStatus = "answered"
	CallRejected CallStatus = "rejected"
)

// Call is an unprocessed emergency report waiting in the queue. Answering a
// call spawns at most one incident; rejected or timed-out calls are removed.
type Call struct {
	ID         string
	Type       IncidentType
	Location   Position
	Area       string
	Priority   Priority
	Text       string
	CallerName string
	ReceivedAt time.Time // sim clock
	Status     CallStatus

	// HiddenType, when set, is what the incident really turns out to be
	// once a unit is on scene. Used for progressively revealed incidents.
	HiddenType IncidentType

	MassCasualty    bool
	InvolvedPersons int
}
