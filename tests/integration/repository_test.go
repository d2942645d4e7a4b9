package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellcworth/shipment-service/internal/domain"
	"github.com/ellcworth/shipment-service/internal/infrastructure/mongodb"
	"github.com/ellcworth/shipment-service/pkg/testutil"
)

var refSeq int

func nextReference() string {
	refSeq++
	return fmt.Sprintf("ELX-2026-%06d", refSeq)
}

func createTestShipment(t *testing.T, cargoType domain.CargoType) *domain.Shipment {
	t.Helper()

	candidate := domain.Cargo{}
	switch cargoType {
	case domain.CargoTypeVehicle:
		candidate.Vehicle = &domain.VehicleCargo{
			VIN:   "1HGBH41JXMN109186",
			Make:  "Toyota",
			Model: "Hilux",
			Year:  2022,
		}
	case domain.CargoTypeContainer:
		candidate.Container = &domain.ContainerCargo{
			ContainerNo: "MSCU1234567",
			Size:        "40HC",
		}
	case domain.CargoTypeLCL:
		candidate.LCL = &domain.LCLCargo{
			Description: "Machine parts",
			WeightKg:    820,
			Pieces:      12,
		}
	}

	cargo, err := domain.ResolveCargo(cargoType, candidate)
	require.NoError(t, err)

	shipment, err := domain.NewShipment(
		nextReference(),
		"cust-42",
		cargoType,
		cargo,
		domain.Route{Origin: "Felixstowe", OriginCountry: "GB", Destination: "Tema", DestinationCountry: "GH"},
		domain.Pricing{Currency: "USD", Base: 185000, Insurance: 9000, VAT: 38800},
	)
	require.NoError(t, err)

	shipment.Shipper = &domain.Party{Name: "Harrier Exports", Email: "ops@harrier.example"}
	shipment.Consignee = &domain.Party{Name: "Tema Imports", Email: "imports@tema.example"}
	return shipment
}

func setupTestRepository(t *testing.T) (*mongodb.ShipmentRepository, *mongodb.CounterRepository, func()) {
	ctx := context.Background()

	container, err := testutil.NewMongoDBContainer(ctx)
	require.NoError(t, err)

	client, err := container.GetClient(ctx)
	require.NoError(t, err)

	db := client.Database("test_shipments_db")
	repo := mongodb.NewShipmentRepository(db)
	counters := mongodb.NewCounterRepository(db)

	cleanup := func() {
		if err := client.Disconnect(ctx); err != nil {
			t.Logf("Failed to disconnect MongoDB client: %v", err)
		}
		if err := container.Close(ctx); err != nil {
			t.Logf("Failed to close MongoDB container: %v", err)
		}
	}

	return repo, counters, cleanup
}

func TestShipmentRepository_SaveAndFind(t *testing.T) {
	repo, _, cleanup := setupTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	shipment := createTestShipment(t, domain.CargoTypeVehicle)
	reference := shipment.Reference

	require.NoError(t, repo.Save(ctx, shipment))
	require.False(t, shipment.ID.IsZero())
	assert.Equal(t, int64(1), shipment.Version)
	assert.Empty(t, shipment.GetDomainEvents(), "events should be cleared after save")

	found, err := repo.FindByID(ctx, shipment.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, reference, found.Reference)
	assert.Equal(t, domain.CargoTypeVehicle, found.Cargo.Type)
	assert.Equal(t, domain.ModeRoRo, found.Mode)
	assert.Equal(t, domain.StatusQuote, found.Status)
	require.NotNil(t, found.Cargo.Vehicle)
	assert.Equal(t, "1HGBH41JXMN109186", found.Cargo.Vehicle.VIN)

	byRef, err := repo.FindByReference(ctx, reference)
	require.NoError(t, err)
	require.NotNil(t, byRef)
	assert.Equal(t, shipment.ID, byRef.ID)
}

func TestShipmentRepository_SaveWritesOutboxEvents(t *testing.T) {
	repo, _, cleanup := setupTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	shipment := createTestShipment(t, domain.CargoTypeContainer)
	require.NoError(t, repo.Save(ctx, shipment))

	events, err := repo.GetOutboxRepository().FindByAggregateID(ctx, shipment.Reference)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "elx.shipment.created", events[0].EventType)
	assert.False(t, events[0].IsPublished())
}

func TestShipmentRepository_OptimisticConcurrency(t *testing.T) {
	repo, _, cleanup := setupTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	shipment := createTestShipment(t, domain.CargoTypeVehicle)
	require.NoError(t, repo.Save(ctx, shipment))

	first, err := repo.FindByID(ctx, shipment.ID.Hex())
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, shipment.ID.Hex())
	require.NoError(t, err)

	require.NoError(t, first.TransitionTo(domain.StatusBooked, ""))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.TransitionTo(domain.StatusBooked, ""))
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestShipmentRepository_FindFilters(t *testing.T) {
	repo, _, cleanup := setupTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	vehicle := createTestShipment(t, domain.CargoTypeVehicle)
	container := createTestShipment(t, domain.CargoTypeContainer)
	container.CustomerID = "cust-other"
	require.NoError(t, repo.Save(ctx, vehicle))
	require.NoError(t, repo.Save(ctx, container))

	byCustomer, err := repo.Find(ctx, domain.ShipmentFilter{CustomerID: "cust-42"})
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, vehicle.Reference, byCustomer[0].Reference)

	cargoType := domain.CargoTypeContainer
	byCargo, err := repo.Find(ctx, domain.ShipmentFilter{CargoType: &cargoType})
	require.NoError(t, err)
	require.Len(t, byCargo, 1)
	assert.Equal(t, container.Reference, byCargo[0].Reference)

	status := domain.StatusQuote
	byStatus, err := repo.Find(ctx, domain.ShipmentFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)
}

func TestShipmentRepository_ExistsReference(t *testing.T) {
	repo, _, cleanup := setupTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	shipment := createTestShipment(t, domain.CargoTypeLCL)
	require.NoError(t, repo.Save(ctx, shipment))

	exists, err := repo.ExistsReference(ctx, shipment.Reference)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsReference(ctx, "ELX-2026-999999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestShipmentRepository_SoftDelete(t *testing.T) {
	repo, _, cleanup := setupTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	shipment := createTestShipment(t, domain.CargoTypeVehicle)
	require.NoError(t, repo.Save(ctx, shipment))

	require.NoError(t, repo.SoftDelete(ctx, shipment.ID.Hex()))

	found, err := repo.FindByID(ctx, shipment.ID.Hex())
	require.NoError(t, err)
	assert.Nil(t, found, "soft-deleted shipments are hidden from reads")

	// Deleted shipments never surface to the notification scanner
	pending, err := repo.FindForNotification(ctx, domain.NotificationPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Second soft delete reports not found
	err = repo.SoftDelete(ctx, shipment.ID.Hex())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShipmentRepository_HardDelete(t *testing.T) {
	repo, _, cleanup := setupTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	shipment := createTestShipment(t, domain.CargoTypeVehicle)
	require.NoError(t, repo.Save(ctx, shipment))

	require.NoError(t, repo.HardDelete(ctx, shipment.ID.Hex()))

	exists, err := repo.ExistsReference(ctx, shipment.Reference)
	require.NoError(t, err)
	assert.False(t, exists)

	err = repo.HardDelete(ctx, shipment.ID.Hex())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShipmentRepository_NotificationFlow(t *testing.T) {
	repo, _, cleanup := setupTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	quoted := createTestShipment(t, domain.CargoTypeVehicle)
	booked := createTestShipment(t, domain.CargoTypeContainer)
	require.NoError(t, booked.TransitionTo(domain.StatusBooked, ""))
	require.NoError(t, repo.Save(ctx, quoted))
	require.NoError(t, repo.Save(ctx, booked))

	// Only the shipment in the trigger status is returned
	pending, err := repo.FindForNotification(ctx, domain.NotificationPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, quoted.Reference, pending[0].Reference)

	require.NoError(t, repo.MarkNotified(ctx, quoted.ID.Hex(), domain.NotificationPending))

	// The flag hides it from subsequent scans
	pending, err = repo.FindForNotification(ctx, domain.NotificationPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Marking again is a no-op
	require.NoError(t, repo.MarkNotified(ctx, quoted.ID.Hex(), domain.NotificationPending))

	found, err := repo.FindByID(ctx, quoted.ID.Hex())
	require.NoError(t, err)
	assert.True(t, found.Notifications.PendingSent)
	assert.False(t, found.Notifications.DeliveredSent)
}

func TestShipmentRepository_MarkNotifiedBlocksStaleSave(t *testing.T) {
	repo, _, cleanup := setupTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	shipment := createTestShipment(t, domain.CargoTypeVehicle)
	require.NoError(t, repo.Save(ctx, shipment))

	// A handler loads the shipment before the scanner marks it
	stale, err := repo.FindByID(ctx, shipment.ID.Hex())
	require.NoError(t, err)

	require.NoError(t, repo.MarkNotified(ctx, shipment.ID.Hex(), domain.NotificationPending))

	// The stale copy still carries the pre-mark version and an unset flag,
	// so saving it must conflict instead of erasing the flag
	require.NoError(t, stale.TransitionTo(domain.StatusBooked, ""))
	err = repo.Save(ctx, stale)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	found, err := repo.FindByID(ctx, shipment.ID.Hex())
	require.NoError(t, err)
	assert.True(t, found.Notifications.PendingSent)
	assert.Equal(t, domain.StatusQuote, found.Status)
}

func TestShipmentRepository_SoftDeleteBlocksStaleSave(t *testing.T) {
	repo, _, cleanup := setupTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	shipment := createTestShipment(t, domain.CargoTypeVehicle)
	require.NoError(t, repo.Save(ctx, shipment))

	stale, err := repo.FindByID(ctx, shipment.ID.Hex())
	require.NoError(t, err)

	require.NoError(t, repo.SoftDelete(ctx, shipment.ID.Hex()))

	// A save from before the delete must not resurrect the record
	require.NoError(t, stale.TransitionTo(domain.StatusBooked, ""))
	err = repo.Save(ctx, stale)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	found, err := repo.FindByID(ctx, shipment.ID.Hex())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestShipmentRepository_UniqueReference(t *testing.T) {
	repo, _, cleanup := setupTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	first := createTestShipment(t, domain.CargoTypeVehicle)
	require.NoError(t, repo.Save(ctx, first))

	duplicate := createTestShipment(t, domain.CargoTypeVehicle)
	duplicate.Reference = first.Reference
	err := repo.Save(ctx, duplicate)
	assert.Error(t, err, "unique index rejects duplicate references")
}

func TestCounterRepository_Next(t *testing.T) {
	_, counters, cleanup := setupTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	seq, err := counters.Next(ctx, "shipments-2026")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	seq, err = counters.Next(ctx, "shipments-2026")
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	// Independent counters per key
	seq, err = counters.Next(ctx, "shipments-2027")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
}
