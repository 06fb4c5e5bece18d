// Package lifecycle decides a lead's status in response to CRM events.
//
// Automatic rules only fire for specific event kinds. Manual edits arrive as
// ForceStatus and always win, bypassing every rule.
package lifecycle

import (
	"strings"

	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
)

type Status string

const (
	New               Status = crm.LeadStatusNew
	Contacted         Status = crm.LeadStatusContacted
	Qualified         Status = crm.LeadStatusQualified
	Enrolled          Status = crm.LeadStatusEnrolled
	OptOut            Status = crm.LeadStatusOptOut
	HotLead           Status = crm.LeadStatusHotLead
	ReturningCustomer Status = crm.LeadStatusReturningCustomer
)

// Canonical reports whether s is produced by the engine. HotLead and
// ReturningCustomer are tolerated in storage but not canonical.
func (s Status) Canonical() bool {
	switch s {
	case New, Contacted, Qualified, Enrolled, OptOut:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

type EventKind string

const (
	EventCreated           EventKind = "created"
	EventVoiceCall         EventKind = "voice_call"
	EventEnrollmentCreated EventKind = "enrollment_created"
	EventPaymentConfirmed  EventKind = "payment_confirmed"
	EventOptOut            EventKind = "opt_out"
	EventForceStatus       EventKind = "force_status"
)

// Intents reported by the voice agent.
const (
	IntentInterested = "interested"
	IntentOptOut     = "opt_out"
	IntentDoNotCall  = "do_not_call"
)

type Event struct {
	Kind   EventKind
	Intent string // EventVoiceCall
	Status Status // EventCreated (optional explicit status), EventForceStatus
}

func Created(explicit string) Event {
	return Event{Kind: EventCreated, Status: Status(strings.TrimSpace(explicit))}
}

func VoiceCall(intent string) Event {
	return Event{Kind: EventVoiceCall, Intent: strings.ToLower(strings.TrimSpace(intent))}
}

func EnrollmentCreated() Event { return Event{Kind: EventEnrollmentCreated} }

func PaymentConfirmed() Event { return Event{Kind: EventPaymentConfirmed} }

func OptOutRequested() Event { return Event{Kind: EventOptOut} }

func ForceStatus(s string) Event {
	return Event{Kind: EventForceStatus, Status: Status(strings.TrimSpace(s))}
}

// Transition is the outcome of applying an event. Callers persist To when
// Changed, create an enrollment when CreateEnrollment, and dispatch a
// notification when Notify.
type Transition struct {
	From             Status
	To               Status
	Event            EventKind
	Changed          bool
	Forced           bool
	Notify           bool
	CreateEnrollment bool
}

// Apply is pure: it never touches storage.
func Apply(current Status, ev Event) Transition {
	t := Transition{From: current, To: current, Event: ev.Kind}
	switch ev.Kind {
	case EventCreated:
		t.To = New
		if ev.Status != "" {
			t.To = ev.Status
		}
	case EventVoiceCall:
		t.To = voiceCallTarget(current, ev.Intent)
	case EventEnrollmentCreated:
		t.To = Enrolled
	case EventPaymentConfirmed:
		if current == Qualified {
			t.To = Enrolled
			t.CreateEnrollment = true
		}
	case EventOptOut:
		t.To = OptOut
	case EventForceStatus:
		t.Forced = true
		if ev.Status != "" {
			t.To = ev.Status
		}
	}
	t.Changed = t.To != t.From
	t.Notify = t.Changed && !t.Forced && ev.Kind != EventCreated && (t.To == Qualified || t.To == Enrolled)
	return t
}

func voiceCallTarget(current Status, intent string) Status {
	switch intent {
	case IntentOptOut, IntentDoNotCall:
		return OptOut
	case IntentInterested:
		switch current {
		case Enrolled, OptOut, Qualified:
			return current
		}
		return Qualified
	}
	return Contacted
}
