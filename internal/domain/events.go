package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// ShipmentCreatedEvent is published when a shipment is created
type ShipmentCreatedEvent struct {
	Reference  string    `json:"reference"`
	CustomerID string    `json:"customerId"`
	CargoType  CargoType `json:"cargoType"`
	Mode       Mode      `json:"mode"`
	Origin     string    `json:"origin"`
	Destination string   `json:"destination"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (e *ShipmentCreatedEvent) EventType() string     { return "elx.shipment.created" }
func (e *ShipmentCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// StatusChangedEvent is published on every lifecycle transition
type StatusChangedEvent struct {
	Reference string    `json:"reference"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changedAt"`
}

func (e *StatusChangedEvent) EventType() string     { return "elx.shipment.status-changed" }
func (e *StatusChangedEvent) OccurredAt() time.Time { return e.ChangedAt }

// TrackingAppendedEvent is published when a tracking event is recorded
type TrackingAppendedEvent struct {
	Reference  string    `json:"reference"`
	Code       string    `json:"code"`
	Location   string    `json:"location,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

func (e *TrackingAppendedEvent) EventType() string     { return "elx.shipment.tracking-appended" }
func (e *TrackingAppendedEvent) OccurredAt() time.Time { return e.RecordedAt }

// DocumentAttachedEvent is published when a document is attached to a shipment
type DocumentAttachedEvent struct {
	Reference  string    `json:"reference"`
	DocType    string    `json:"docType"`
	AttachedAt time.Time `json:"attachedAt"`
}

func (e *DocumentAttachedEvent) EventType() string     { return "elx.shipment.document-attached" }
func (e *DocumentAttachedEvent) OccurredAt() time.Time { return e.AttachedAt }
