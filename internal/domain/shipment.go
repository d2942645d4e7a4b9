package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Party is a contact attached to a shipment (shipper, consignee, notify party)
type Party struct {
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email,omitempty" json:"email,omitempty"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

// Route holds origin and destination details for a shipment
type Route struct {
	Origin             string `bson:"origin" json:"origin"`
	OriginCountry      string `bson:"originCountry,omitempty" json:"originCountry,omitempty"`
	Destination        string `bson:"destination" json:"destination"`
	DestinationCountry string `bson:"destinationCountry,omitempty" json:"destinationCountry,omitempty"`
	PickupLocation     string `bson:"pickupLocation,omitempty" json:"pickupLocation,omitempty"`
}

// ErrInvalidRoute is returned when a route is missing its origin or
// destination port.
var ErrInvalidRoute = errors.New("route requires origin and destination")

// Validate checks that both ports are present
func (r Route) Validate() error {
	if strings.TrimSpace(r.Origin) == "" || strings.TrimSpace(r.Destination) == "" {
		return ErrInvalidRoute
	}
	return nil
}

// Voyage holds carrier and sailing details, set once the shipment is booked
type Voyage struct {
	CarrierName     string     `bson:"carrierName,omitempty" json:"carrierName,omitempty"`
	Vessel          string     `bson:"vessel,omitempty" json:"vessel,omitempty"`
	VoyageNo        string     `bson:"voyageNo,omitempty" json:"voyageNo,omitempty"`
	ETD             *time.Time `bson:"etd,omitempty" json:"etd,omitempty"`
	ETA             *time.Time `bson:"eta,omitempty" json:"eta,omitempty"`
	ActualDeparture *time.Time `bson:"actualDeparture,omitempty" json:"actualDeparture,omitempty"`
	ActualArrival   *time.Time `bson:"actualArrival,omitempty" json:"actualArrival,omitempty"`
}

// Document is a file attached to a shipment (bill of lading, invoice, photos)
type Document struct {
	Type       string    `bson:"type" json:"type"`
	Name       string    `bson:"name,omitempty" json:"name,omitempty"`
	URL        string    `bson:"url" json:"url"`
	UploadedBy string    `bson:"uploadedBy,omitempty" json:"uploadedBy,omitempty"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

// PaymentAttempt records a payment made against the shipment total
type PaymentAttempt struct {
	Provider    string    `bson:"provider" json:"provider"`
	ProviderRef string    `bson:"providerRef,omitempty" json:"providerRef,omitempty"`
	Amount      Money     `bson:"amount" json:"amount"`
	Succeeded   bool      `bson:"succeeded" json:"succeeded"`
	AttemptedAt time.Time `bson:"attemptedAt" json:"attemptedAt"`
}

// TrackingEvent is an append-only entry in the shipment's tracking ledger
type TrackingEvent struct {
	ID          string            `bson:"id" json:"id"`
	Code        string            `bson:"code" json:"code"`
	Description string            `bson:"description,omitempty" json:"description,omitempty"`
	Location    string            `bson:"location,omitempty" json:"location,omitempty"`
	Meta        map[string]string `bson:"meta,omitempty" json:"meta,omitempty"`
	RecordedAt  time.Time         `bson:"recordedAt" json:"recordedAt"`
}

// Shipment is the aggregate root for the shipment lifecycle
type Shipment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Reference     string             `bson:"reference" json:"reference"`
	CustomerID    string             `bson:"customerId" json:"customerId"`
	Cargo         Cargo              `bson:"cargo" json:"cargo"`
	Mode          Mode               `bson:"mode" json:"mode"`
	Route         Route              `bson:"route" json:"route"`
	Voyage        *Voyage            `bson:"voyage,omitempty" json:"voyage,omitempty"`
	Status        Status             `bson:"status" json:"status"`
	HeldFrom      *Status            `bson:"heldFrom,omitempty" json:"heldFrom,omitempty"`
	CancelReason  string             `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	Pricing       Pricing            `bson:"pricing" json:"pricing"`
	Payments      []PaymentAttempt   `bson:"payments,omitempty" json:"payments,omitempty"`
	Shipper       *Party             `bson:"shipper,omitempty" json:"shipper,omitempty"`
	Consignee     *Party             `bson:"consignee,omitempty" json:"consignee,omitempty"`
	NotifyParty   *Party             `bson:"notifyParty,omitempty" json:"notifyParty,omitempty"`
	Documents     []Document         `bson:"documents,omitempty" json:"documents,omitempty"`
	Tracking      []TrackingEvent    `bson:"tracking,omitempty" json:"tracking,omitempty"`
	Notifications Notifications      `bson:"notifications" json:"notifications"`
	IsDeleted     bool               `bson:"isDeleted" json:"-"`
	Version       int64              `bson:"version" json:"version"`
	DeliveredAt   *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
	DomainEvents  []DomainEvent      `bson:"-" json:"-"`
}

// NewShipment creates a new Shipment aggregate in the quote state. The
// reference comes pre-generated, the cargo detail block is validated
// against the declared type and the mode is derived from it.
func NewShipment(reference, customerID string, cargoType CargoType, cargo Cargo, route Route, pricing Pricing) (*Shipment, error) {
	resolved, err := ResolveCargo(cargoType, cargo)
	if err != nil {
		return nil, err
	}
	if err := route.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &Shipment{
		Reference:    reference,
		CustomerID:   customerID,
		Cargo:        resolved,
		Mode:         cargoType.Mode(),
		Route:        route,
		Status:       StatusQuote,
		Pricing:      pricing,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}

	s.AddDomainEvent(&ShipmentCreatedEvent{
		Reference:   reference,
		CustomerID:  customerID,
		CargoType:   cargoType,
		Mode:        s.Mode,
		Origin:      route.Origin,
		Destination: route.Destination,
		CreatedAt:   now,
	})

	return s, nil
}

// AssignReference sets the booking reference. The reference is immutable
// once assigned.
func (s *Shipment) AssignReference(reference string) error {
	if s.Reference != "" {
		return ErrReferenceAssigned
	}
	s.Reference = reference
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateRoute replaces the route, rejecting routes without both ports
func (s *Shipment) UpdateRoute(route Route) error {
	if err := route.Validate(); err != nil {
		return err
	}
	s.Route = route
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateCargo replaces the cargo detail block, revalidating the composition
// and rederiving the transport mode
func (s *Shipment) UpdateCargo(cargoType CargoType, cargo Cargo) error {
	resolved, err := ResolveCargo(cargoType, cargo)
	if err != nil {
		return err
	}
	s.Cargo = resolved
	s.Mode = cargoType.Mode()
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// TransitionTo moves the shipment to the requested status, enforcing the
// lifecycle state machine. Putting a shipment on hold remembers the current
// state; resuming returns to it.
func (s *Shipment) TransitionTo(target Status, reason string) error {
	if !s.Status.CanTransitionTo(target, s.HeldFrom) {
		return ErrInvalidTransition
	}

	now := time.Now().UTC()
	from := s.Status

	switch {
	case target == StatusOnHold:
		held := s.Status
		s.HeldFrom = &held
	case s.Status == StatusOnHold:
		s.HeldFrom = nil
	}

	if target == StatusCancelled {
		s.CancelReason = reason
	}
	if target == StatusDelivered {
		s.DeliveredAt = &now
	}

	s.Status = target
	s.UpdatedAt = now

	s.AddDomainEvent(&StatusChangedEvent{
		Reference: s.Reference,
		From:      from,
		To:        target,
		Reason:    reason,
		ChangedAt: now,
	})

	return nil
}

// AppendTracking records a tracking event in the append-only ledger
func (s *Shipment) AppendTracking(event TrackingEvent) TrackingEvent {
	now := time.Now().UTC()
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.RecordedAt.IsZero() {
		event.RecordedAt = now
	}

	s.Tracking = append(s.Tracking, event)
	s.UpdatedAt = now

	s.AddDomainEvent(&TrackingAppendedEvent{
		Reference:  s.Reference,
		Code:       event.Code,
		Location:   event.Location,
		RecordedAt: event.RecordedAt,
	})

	return event
}

// AttachDocument adds a document to the shipment
func (s *Shipment) AttachDocument(doc Document) Document {
	now := time.Now().UTC()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}

	s.Documents = append(s.Documents, doc)
	s.UpdatedAt = now

	s.AddDomainEvent(&DocumentAttachedEvent{
		Reference:  s.Reference,
		DocType:    doc.Type,
		AttachedAt: doc.UploadedAt,
	})

	return doc
}

// AddSurcharge appends a surcharge to the quote
func (s *Shipment) AddSurcharge(surcharge Surcharge) {
	s.Pricing.Surcharges = append(s.Pricing.Surcharges, surcharge)
	s.UpdatedAt = time.Now().UTC()
}

// RecordPayment appends a payment attempt
func (s *Shipment) RecordPayment(payment PaymentAttempt) {
	if payment.AttemptedAt.IsZero() {
		payment.AttemptedAt = time.Now().UTC()
	}
	s.Payments = append(s.Payments, payment)
	s.UpdatedAt = time.Now().UTC()
}

// SetVoyage sets or replaces the carrier voyage details
func (s *Shipment) SetVoyage(voyage Voyage) {
	s.Voyage = &voyage
	s.UpdatedAt = time.Now().UTC()
}

// MarkDeleted soft-deletes the shipment. Deleted shipments are hidden from
// reads and from the notification scanner.
func (s *Shipment) MarkDeleted() {
	s.IsDeleted = true
	s.UpdatedAt = time.Now().UTC()
}

// AddDomainEvent adds a domain event
func (s *Shipment) AddDomainEvent(event DomainEvent) {
	s.DomainEvents = append(s.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (s *Shipment) ClearDomainEvents() {
	s.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (s *Shipment) GetDomainEvents() []DomainEvent {
	return s.DomainEvents
}
