package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures
func createTestVehicleCargo() Cargo {
	return Cargo{
		Vehicle: &VehicleCargo{
			VIN:   "1HGBH41JXMN109186",
			Make:  "Toyota",
			Model: "Land Cruiser",
			Year:  2021,
		},
	}
}

func createTestContainerCargo() Cargo {
	return Cargo{
		Container: &ContainerCargo{
			ContainerNo: "MSKU1234567",
			Size:        "40HC",
			SealNo:      "SL-9981",
		},
	}
}

func createTestRoute() Route {
	return Route{
		Origin:             "Southampton",
		OriginCountry:      "GB",
		Destination:        "Mombasa",
		DestinationCountry: "KE",
	}
}

func createTestPricing() Pricing {
	return Pricing{
		Currency: "GBP",
		Base:     120000,
		Surcharges: []Surcharge{
			{Code: "BAF", Label: "Bunker adjustment", Amount: 8500},
		},
		Insurance: 4500,
		VAT:       26600,
		Discount:  5000,
	}
}

func createTestShipment(t *testing.T) *Shipment {
	t.Helper()
	s, err := NewShipment("ELX-2026-000042", "CUST-001", CargoTypeVehicle, createTestVehicleCargo(), createTestRoute(), createTestPricing())
	require.NoError(t, err)
	return s
}

func TestNewShipment(t *testing.T) {
	shipment := createTestShipment(t)

	assert.Equal(t, "ELX-2026-000042", shipment.Reference)
	assert.Equal(t, "CUST-001", shipment.CustomerID)
	assert.Equal(t, StatusQuote, shipment.Status)
	assert.Equal(t, CargoTypeVehicle, shipment.Cargo.Type)
	assert.Equal(t, ModeRoRo, shipment.Mode)
	assert.NotNil(t, shipment.Cargo.Vehicle)
	assert.Nil(t, shipment.Cargo.Container)
	assert.EqualValues(t, 1, shipment.Version)
	assert.False(t, shipment.Notifications.PendingSent)
	assert.False(t, shipment.Notifications.DeliveredSent)
	assert.NotZero(t, shipment.CreatedAt)

	events := shipment.GetDomainEvents()
	require.Len(t, events, 1)
	event, ok := events[0].(*ShipmentCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, "ELX-2026-000042", event.Reference)
	assert.Equal(t, ModeRoRo, event.Mode)
}

func TestNewShipmentInvalidCargo(t *testing.T) {
	tests := []struct {
		name      string
		cargoType CargoType
		cargo     Cargo
	}{
		{name: "no detail block", cargoType: CargoTypeVehicle, cargo: Cargo{}},
		{name: "wrong detail block", cargoType: CargoTypeVehicle, cargo: createTestContainerCargo()},
		{
			name:      "multiple detail blocks",
			cargoType: CargoTypeContainer,
			cargo: Cargo{
				Vehicle:   createTestVehicleCargo().Vehicle,
				Container: createTestContainerCargo().Container,
			},
		},
		{name: "unknown cargo type", cargoType: CargoType("bulk"), cargo: createTestContainerCargo()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShipment("ELX-2026-000001", "CUST-001", tt.cargoType, tt.cargo, createTestRoute(), Pricing{})
			assert.ErrorIs(t, err, ErrInvalidCargoComposition)
		})
	}
}

func TestNewShipmentInvalidRoute(t *testing.T) {
	tests := []struct {
		name  string
		route Route
	}{
		{name: "empty route", route: Route{}},
		{name: "missing origin", route: Route{Destination: "Mombasa"}},
		{name: "missing destination", route: Route{Origin: "Southampton"}},
		{name: "whitespace ports", route: Route{Origin: "  ", Destination: "\t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShipment("ELX-2026-000001", "CUST-001", CargoTypeVehicle, createTestVehicleCargo(), tt.route, Pricing{})
			assert.ErrorIs(t, err, ErrInvalidRoute)
		})
	}
}

func TestUpdateRouteRejectsMissingPorts(t *testing.T) {
	shipment := createTestShipment(t)

	err := shipment.UpdateRoute(Route{Origin: "Southampton"})
	assert.ErrorIs(t, err, ErrInvalidRoute)
	assert.Equal(t, "Mombasa", shipment.Route.Destination)

	require.NoError(t, shipment.UpdateRoute(Route{Origin: "Tilbury", Destination: "Lagos"}))
	assert.Equal(t, "Tilbury", shipment.Route.Origin)
}

func TestShipmentTransitionForwardPath(t *testing.T) {
	shipment := createTestShipment(t)

	path := []Status{StatusBooked, StatusGateIn, StatusSailed, StatusArrived, StatusReleased, StatusDelivered}
	for _, next := range path {
		require.NoError(t, shipment.TransitionTo(next, ""))
		assert.Equal(t, next, shipment.Status)
	}

	assert.NotNil(t, shipment.DeliveredAt)

	// Terminal state rejects everything
	assert.ErrorIs(t, shipment.TransitionTo(StatusCancelled, ""), ErrInvalidTransition)
}

func TestShipmentTransitionSkipRejected(t *testing.T) {
	shipment := createTestShipment(t)

	err := shipment.TransitionTo(StatusSailed, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusQuote, shipment.Status)
}

func TestShipmentHoldAndResume(t *testing.T) {
	shipment := createTestShipment(t)
	require.NoError(t, shipment.TransitionTo(StatusBooked, ""))
	require.NoError(t, shipment.TransitionTo(StatusGateIn, ""))

	require.NoError(t, shipment.TransitionTo(StatusOnHold, "customs query"))
	assert.Equal(t, StatusOnHold, shipment.Status)
	require.NotNil(t, shipment.HeldFrom)
	assert.Equal(t, StatusGateIn, *shipment.HeldFrom)

	// Hold only resumes to the remembered state
	assert.ErrorIs(t, shipment.TransitionTo(StatusSailed, ""), ErrInvalidTransition)

	require.NoError(t, shipment.TransitionTo(StatusGateIn, ""))
	assert.Equal(t, StatusGateIn, shipment.Status)
	assert.Nil(t, shipment.HeldFrom)
}

func TestShipmentCancelFromHold(t *testing.T) {
	shipment := createTestShipment(t)
	require.NoError(t, shipment.TransitionTo(StatusBooked, ""))
	require.NoError(t, shipment.TransitionTo(StatusOnHold, ""))

	require.NoError(t, shipment.TransitionTo(StatusCancelled, "customer withdrew"))
	assert.Equal(t, StatusCancelled, shipment.Status)
	assert.Equal(t, "customer withdrew", shipment.CancelReason)
}

func TestAssignReferenceImmutable(t *testing.T) {
	shipment := createTestShipment(t)

	err := shipment.AssignReference("ELX-2026-000099")
	assert.ErrorIs(t, err, ErrReferenceAssigned)
	assert.Equal(t, "ELX-2026-000042", shipment.Reference)
}

func TestUpdateCargoRederivesMode(t *testing.T) {
	shipment := createTestShipment(t)
	assert.Equal(t, ModeRoRo, shipment.Mode)

	require.NoError(t, shipment.UpdateCargo(CargoTypeContainer, createTestContainerCargo()))
	assert.Equal(t, CargoTypeContainer, shipment.Cargo.Type)
	assert.Equal(t, ModeContainer, shipment.Mode)
	assert.Nil(t, shipment.Cargo.Vehicle)

	err := shipment.UpdateCargo(CargoTypeLCL, createTestContainerCargo())
	assert.ErrorIs(t, err, ErrInvalidCargoComposition)
}

func TestAppendTrackingPreservesOrder(t *testing.T) {
	shipment := createTestShipment(t)

	first := shipment.AppendTracking(TrackingEvent{Code: "GATE_IN", Location: "Southampton"})
	second := shipment.AppendTracking(TrackingEvent{Code: "LOADED", Location: "Southampton"})

	require.Len(t, shipment.Tracking, 2)
	assert.Equal(t, first.ID, shipment.Tracking[0].ID)
	assert.Equal(t, second.ID, shipment.Tracking[1].ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, shipment.Tracking[0].RecordedAt.IsZero())
}

func TestAppendTrackingKeepsProvidedTimestamp(t *testing.T) {
	shipment := createTestShipment(t)
	occurred := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	event := shipment.AppendTracking(TrackingEvent{Code: "SAILED", RecordedAt: occurred})
	assert.Equal(t, occurred, event.RecordedAt)
}

func TestAttachDocument(t *testing.T) {
	shipment := createTestShipment(t)

	doc := shipment.AttachDocument(Document{Type: "bill_of_lading", URL: "https://files.example.com/bl-42.pdf"})
	require.Len(t, shipment.Documents, 1)
	assert.False(t, doc.UploadedAt.IsZero())
}

func TestAddSurchargeAffectsTotal(t *testing.T) {
	shipment := createTestShipment(t)
	before := shipment.Pricing.Total()

	shipment.AddSurcharge(Surcharge{Code: "PORT", Amount: 3000})
	assert.Equal(t, before+3000, shipment.Pricing.Total())
}

func TestShipmentDomainEvents(t *testing.T) {
	shipment := createTestShipment(t)
	require.NoError(t, shipment.TransitionTo(StatusBooked, ""))
	shipment.AppendTracking(TrackingEvent{Code: "BOOKED"})

	assert.Len(t, shipment.GetDomainEvents(), 3)

	shipment.ClearDomainEvents()
	assert.Empty(t, shipment.GetDomainEvents())
}
