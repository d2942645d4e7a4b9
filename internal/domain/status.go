package domain

import "errors"

// Status represents the lifecycle state of a shipment
type Status string

const (
	StatusQuote     Status = "quote"
	StatusBooked    Status = "booked"
	StatusGateIn    Status = "gate_in"
	StatusSailed    Status = "sailed"
	StatusArrived   Status = "arrived"
	StatusReleased  Status = "released"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
	StatusOnHold    Status = "on_hold"
)

// ErrInvalidTransition is returned when a requested status change is not
// allowed from the shipment's current state
var ErrInvalidTransition = errors.New("invalid status transition")

// nextStatus maps each forward state to its single successor
var nextStatus = map[Status]Status{
	StatusQuote:    StatusBooked,
	StatusBooked:   StatusGateIn,
	StatusGateIn:   StatusSailed,
	StatusSailed:   StatusArrived,
	StatusArrived:  StatusReleased,
	StatusReleased: StatusDelivered,
}

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusQuote, StatusBooked, StatusGateIn, StatusSailed,
		StatusArrived, StatusReleased, StatusDelivered, StatusCancelled, StatusOnHold:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo validates a status change from the current state.
// heldFrom is the state the shipment was in when it was put on hold,
// nil when the shipment is not on hold.
func (s Status) CanTransitionTo(target Status, heldFrom *Status) bool {
	if !target.IsValid() || s.IsTerminal() || target == s {
		return false
	}

	if s == StatusOnHold {
		// Leaving hold only resumes the remembered state or cancels
		if target == StatusCancelled {
			return true
		}
		return heldFrom != nil && target == *heldFrom
	}

	switch target {
	case StatusCancelled, StatusOnHold:
		return true
	default:
		return nextStatus[s] == target
	}
}
