package application

import (
	"github.com/ellcworth/shipment-service/internal/domain"
)

// CreateShipmentCommand represents the command to create a new shipment
type CreateShipmentCommand struct {
	CustomerID  string
	CargoType   domain.CargoType
	Cargo       domain.Cargo
	Route       domain.Route
	Voyage      *domain.Voyage
	Shipper     *domain.Party
	Consignee   *domain.Party
	NotifyParty *domain.Party
	Pricing     domain.Pricing
}

// UpdateShipmentCommand represents the command to update shipment details.
// Nil fields are left untouched.
type UpdateShipmentCommand struct {
	ShipmentID  string
	CargoType   *domain.CargoType
	Cargo       *domain.Cargo
	Route       *domain.Route
	Voyage      *domain.Voyage
	Shipper     *domain.Party
	Consignee   *domain.Party
	NotifyParty *domain.Party
	Pricing     *domain.Pricing
}

// ChangeStatusCommand represents the command to move a shipment through its
// lifecycle, including hold, resume and cancel
type ChangeStatusCommand struct {
	ShipmentID string
	Target     domain.Status
	Reason     string
}

// AppendTrackingCommand represents the command to record a tracking event
type AppendTrackingCommand struct {
	ShipmentID string
	Event      domain.TrackingEvent
}

// AttachDocumentCommand represents the command to attach a document
type AttachDocumentCommand struct {
	ShipmentID string
	Document   domain.Document
}

// AddSurchargeCommand represents the command to add a pricing surcharge
type AddSurchargeCommand struct {
	ShipmentID string
	Surcharge  domain.Surcharge
}

// RecordPaymentCommand represents the command to record a payment attempt
type RecordPaymentCommand struct {
	ShipmentID string
	Payment    domain.PaymentAttempt
}

// GetShipmentQuery represents the query to get a shipment by ID
type GetShipmentQuery struct {
	ShipmentID string
}

// GetByReferenceQuery represents the query to get a shipment by its booking
// reference
type GetByReferenceQuery struct {
	Reference string
}

// ListShipmentsQuery represents the query to list shipments with filters
type ListShipmentsQuery struct {
	CustomerID string
	Status     string
	CargoType  string
	Limit      int64
	Offset     int64
}

// DeleteShipmentCommand represents the command to delete a shipment. Hard
// deletion removes the record permanently, the default hides it.
type DeleteShipmentCommand struct {
	ShipmentID string
	Hard       bool
}
