package application

import "time"

// ShipmentDTO represents a shipment in responses
type ShipmentDTO struct {
	ID            string              `json:"id"`
	Reference     string              `json:"reference"`
	CustomerID    string              `json:"customerId"`
	Cargo         CargoDTO            `json:"cargo"`
	Mode          string              `json:"mode"`
	Route         RouteDTO            `json:"route"`
	Voyage        *VoyageDTO          `json:"voyage,omitempty"`
	Status        string              `json:"status"`
	HeldFrom      string              `json:"heldFrom,omitempty"`
	CancelReason  string              `json:"cancelReason,omitempty"`
	Pricing       PricingDTO          `json:"pricing"`
	Payments      []PaymentDTO        `json:"payments,omitempty"`
	Shipper       *PartyDTO           `json:"shipper,omitempty"`
	Consignee     *PartyDTO           `json:"consignee,omitempty"`
	NotifyParty   *PartyDTO           `json:"notifyParty,omitempty"`
	Documents     []DocumentDTO       `json:"documents,omitempty"`
	Tracking      []TrackingEventDTO  `json:"tracking,omitempty"`
	Notifications NotificationsDTO    `json:"notifications"`
	Version       int64               `json:"version"`
	DeliveredAt   *time.Time          `json:"deliveredAt,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// CargoDTO represents the polymorphic cargo block
type CargoDTO struct {
	Type      string             `json:"type"`
	Vehicle   *VehicleCargoDTO   `json:"vehicle,omitempty"`
	Container *ContainerCargoDTO `json:"container,omitempty"`
	LCL       *LCLCargoDTO       `json:"lcl,omitempty"`
}

// VehicleCargoDTO represents vehicle cargo details
type VehicleCargoDTO struct {
	VIN       string `json:"vin"`
	Make      string `json:"make"`
	Model     string `json:"model"`
	Year      int    `json:"year,omitempty"`
	BookingNo string `json:"bookingNo,omitempty"`
}

// ContainerCargoDTO represents container cargo details
type ContainerCargoDTO struct {
	ContainerNo string `json:"containerNo"`
	Size        string `json:"size,omitempty"`
	SealNo      string `json:"sealNo,omitempty"`
}

// LCLCargoDTO represents less-than-container-load cargo details
type LCLCargoDTO struct {
	Description string  `json:"description"`
	WeightKg    float64 `json:"weightKg,omitempty"`
	VolumeM3    float64 `json:"volumeM3,omitempty"`
	Pieces      int     `json:"pieces,omitempty"`
}

// RouteDTO represents shipment routing
type RouteDTO struct {
	Origin             string `json:"origin"`
	OriginCountry      string `json:"originCountry,omitempty"`
	Destination        string `json:"destination"`
	DestinationCountry string `json:"destinationCountry,omitempty"`
	PickupLocation     string `json:"pickupLocation,omitempty"`
}

// VoyageDTO represents carrier sailing details
type VoyageDTO struct {
	CarrierName     string     `json:"carrierName,omitempty"`
	Vessel          string     `json:"vessel,omitempty"`
	VoyageNo        string     `json:"voyageNo,omitempty"`
	ETD             *time.Time `json:"etd,omitempty"`
	ETA             *time.Time `json:"eta,omitempty"`
	ActualDeparture *time.Time `json:"actualDeparture,omitempty"`
	ActualArrival   *time.Time `json:"actualArrival,omitempty"`
}

// PartyDTO represents a shipment contact
type PartyDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// PricingDTO represents a quote. Total is computed from the components.
type PricingDTO struct {
	Currency   string         `json:"currency"`
	Base       int64          `json:"base"`
	Surcharges []SurchargeDTO `json:"surcharges,omitempty"`
	Insurance  int64          `json:"insurance"`
	VAT        int64          `json:"vat"`
	Discount   int64          `json:"discount"`
	Total      int64          `json:"total"`
}

// SurchargeDTO represents a named pricing surcharge
type SurchargeDTO struct {
	Code   string `json:"code"`
	Label  string `json:"label,omitempty"`
	Amount int64  `json:"amount"`
}

// PaymentDTO represents a payment attempt
type PaymentDTO struct {
	Provider    string    `json:"provider"`
	ProviderRef string    `json:"providerRef,omitempty"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Succeeded   bool      `json:"succeeded"`
	AttemptedAt time.Time `json:"attemptedAt"`
}

// DocumentDTO represents an attached document
type DocumentDTO struct {
	Type       string    `json:"type"`
	Name       string    `json:"name,omitempty"`
	URL        string    `json:"url"`
	UploadedBy string    `json:"uploadedBy,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// TrackingEventDTO represents an entry in the tracking ledger
type TrackingEventDTO struct {
	ID          string            `json:"id"`
	Code        string            `json:"code"`
	Description string            `json:"description,omitempty"`
	Location    string            `json:"location,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
	RecordedAt  time.Time         `json:"recordedAt"`
}

// NotificationsDTO represents sent-notification flags
type NotificationsDTO struct {
	PendingSent   bool `json:"pendingSent"`
	DeliveredSent bool `json:"deliveredSent"`
}
