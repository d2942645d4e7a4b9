package domain

import "errors"

// NotificationKind identifies a customer email that is sent at most once
// per shipment
type NotificationKind string

const (
	// NotificationPending confirms a freshly quoted booking
	NotificationPending NotificationKind = "pending"

	// NotificationDelivered confirms final delivery
	NotificationDelivered NotificationKind = "delivered"
)

// ErrUnknownNotificationKind is returned for a kind outside the known set
var ErrUnknownNotificationKind = errors.New("unknown notification kind")

// NotificationKinds lists every kind the scanner processes, in scan order
func NotificationKinds() []NotificationKind {
	return []NotificationKind{NotificationPending, NotificationDelivered}
}

// IsValid checks if the kind is a known value
func (k NotificationKind) IsValid() bool {
	return k == NotificationPending || k == NotificationDelivered
}

// TriggerStatus returns the shipment status that makes a shipment eligible
// for this notification
func (k NotificationKind) TriggerStatus() Status {
	if k == NotificationDelivered {
		return StatusDelivered
	}
	return StatusQuote
}

// Notifications tracks which emails have already gone out for a shipment.
// Flags only ever move from false to true.
type Notifications struct {
	PendingSent   bool `bson:"pendingSent" json:"pendingSent"`
	DeliveredSent bool `bson:"deliveredSent" json:"deliveredSent"`
}

// Sent reports whether the email for the given kind has been dispatched
func (n Notifications) Sent(kind NotificationKind) bool {
	if kind == NotificationDelivered {
		return n.DeliveredSent
	}
	return n.PendingSent
}
