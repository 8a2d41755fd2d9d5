package claims

import "github.com/google/uuid"

// transitions is the legal transition table keyed by (currentState, event).
// State legality is enforced here in one place; callers never check status
// directly.
var transitions = map[ClaimStatus]map[Event]ClaimStatus{
	StatusDraft: {
		EventSubmit: StatusSubmitted,
	},
	StatusSubmitted: {
		EventPay:  StatusPaid,
		EventDeny: StatusDenied,
	},
}

// NextStatus resolves the target state for an event, or an
// InvalidTransitionError if the event is not legal from the current state.
func NextStatus(claimID uuid.UUID, current ClaimStatus, event Event) (ClaimStatus, error) {
	if next, ok := transitions[current][event]; ok {
		return next, nil
	}
	return "", &InvalidTransitionError{ClaimID: claimID, From: current, Event: event}
}

// CanTransition reports whether the event is legal from the current state.
func CanTransition(current ClaimStatus, event Event) bool {
	_, ok := transitions[current][event]
	return ok
}

// AvailableEvents lists the events legal from the current state, in a
// stable order. API consumers use this to offer only actionable
// transitions.
func AvailableEvents(current ClaimStatus) []Event {
	if current.IsTerminal() {
		return nil
	}
	var events []Event
	for _, ev := range []Event{EventSubmit, EventPay, EventDeny} {
		if CanTransition(current, ev) {
			events = append(events, ev)
		}
	}
	return events
}

// validAppealTransitions gates appeal record status updates.
var validAppealTransitions = map[AppealStatus]map[AppealStatus]bool{
	AppealPending: {AppealSent: true, AppealFailed: true},
	AppealSent:    {AppealCompleted: true, AppealFailed: true},
}

// CanAppealTransition reports whether an appeal status update is legal.
func CanAppealTransition(current, next AppealStatus) bool {
	return validAppealTransitions[current][next]
}
