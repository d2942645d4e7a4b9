package domain

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a shipment does not exist or is
	// soft-deleted
	ErrNotFound = errors.New("shipment not found")

	// ErrConcurrencyConflict is returned when a save loses an optimistic
	// concurrency race
	ErrConcurrencyConflict = errors.New("shipment was modified concurrently")
)

// ShipmentFilter narrows list queries
type ShipmentFilter struct {
	CustomerID     string
	Status         *Status
	CargoType      *CargoType
	IncludeDeleted bool
	Limit          int64
	Offset         int64
}

// ShipmentRepository defines the interface for shipment persistence
type ShipmentRepository interface {
	// Save persists the aggregate with optimistic concurrency control,
	// returning ErrConcurrencyConflict when the stored version moved on
	Save(ctx context.Context, shipment *Shipment) error
	FindByID(ctx context.Context, id string) (*Shipment, error)
	FindByReference(ctx context.Context, reference string) (*Shipment, error)
	Find(ctx context.Context, filter ShipmentFilter) ([]*Shipment, error)
	ExistsReference(ctx context.Context, reference string) (bool, error)

	// FindForNotification returns live shipments sitting in the kind's
	// trigger status whose notification flag is still unset
	FindForNotification(ctx context.Context, kind NotificationKind) ([]*Shipment, error)
	// MarkNotified atomically flips the notification flag for the kind.
	// The flag never returns to false.
	MarkNotified(ctx context.Context, id string, kind NotificationKind) error

	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
}
