package application

import (
	"context"
	"io"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/ellcworth/shipment-service/pkg/errors"
	"github.com/ellcworth/shipment-service/pkg/logging"
	"github.com/ellcworth/shipment-service/pkg/metrics"

	"github.com/ellcworth/shipment-service/internal/domain"
)

// memoryRepository is an in-memory ShipmentRepository with optimistic
// concurrency semantics matching the Mongo implementation
type memoryRepository struct {
	shipments    map[string]*domain.Shipment
	failSaveWith error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{shipments: make(map[string]*domain.Shipment)}
}

func (r *memoryRepository) Save(ctx context.Context, shipment *domain.Shipment) error {
	if r.failSaveWith != nil {
		return r.failSaveWith
	}
	if shipment.ID.IsZero() {
		shipment.ID = primitive.NewObjectID()
		shipment.Version = 1
	} else {
		stored, ok := r.shipments[shipment.ID.Hex()]
		if !ok || stored.Version != shipment.Version {
			return domain.ErrConcurrencyConflict
		}
		shipment.Version++
	}

	copied := *shipment
	copied.DomainEvents = nil
	r.shipments[shipment.ID.Hex()] = &copied
	shipment.ClearDomainEvents()
	return nil
}

func (r *memoryRepository) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	s, ok := r.shipments[id]
	if !ok || s.IsDeleted {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *memoryRepository) FindByReference(ctx context.Context, reference string) (*domain.Shipment, error) {
	for _, s := range r.shipments {
		if s.Reference == reference && !s.IsDeleted {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryRepository) Find(ctx context.Context, filter domain.ShipmentFilter) ([]*domain.Shipment, error) {
	var out []*domain.Shipment
	for _, s := range r.shipments {
		if s.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		if filter.CustomerID != "" && s.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		if filter.CargoType != nil && s.Cargo.Type != *filter.CargoType {
			continue
		}
		copied := *s
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memoryRepository) ExistsReference(ctx context.Context, reference string) (bool, error) {
	for _, s := range r.shipments {
		if s.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepository) FindForNotification(ctx context.Context, kind domain.NotificationKind) ([]*domain.Shipment, error) {
	var out []*domain.Shipment
	for _, s := range r.shipments {
		if s.IsDeleted || s.Status != kind.TriggerStatus() || s.Notifications.Sent(kind) {
			continue
		}
		copied := *s
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memoryRepository) MarkNotified(ctx context.Context, id string, kind domain.NotificationKind) error {
	s, ok := r.shipments[id]
	if !ok {
		return domain.ErrNotFound
	}
	if kind == domain.NotificationDelivered {
		s.Notifications.DeliveredSent = true
	} else {
		s.Notifications.PendingSent = true
	}
	return nil
}

func (r *memoryRepository) SoftDelete(ctx context.Context, id string) error {
	s, ok := r.shipments[id]
	if !ok || s.IsDeleted {
		return domain.ErrNotFound
	}
	s.IsDeleted = true
	return nil
}

func (r *memoryRepository) HardDelete(ctx context.Context, id string) error {
	if _, ok := r.shipments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.shipments, id)
	return nil
}

type seqStore struct{ n int64 }

func (s *seqStore) Next(ctx context.Context, key string) (int64, error) {
	s.n++
	return s.n, nil
}

func newTestService(t *testing.T) (*ShipmentApplicationService, *memoryRepository) {
	t.Helper()

	repo := newMemoryRepository()
	references := domain.NewReferenceGenerator(&seqStore{}, repo.ExistsReference)
	logger := logging.New(&logging.Config{ServiceName: "shipment-service-test", Output: io.Discard})

	return NewShipmentApplicationService(repo, references, logger, nil), repo
}

func createCommand() CreateShipmentCommand {
	return CreateShipmentCommand{
		CustomerID: "CUST-7",
		CargoType:  domain.CargoTypeVehicle,
		Cargo: domain.Cargo{
			Vehicle: &domain.VehicleCargo{VIN: "JTEBU5JR8E5123456", Make: "Toyota", Model: "Hilux"},
		},
		Route: domain.Route{Origin: "Felixstowe", Destination: "Dar es Salaam"},
		Shipper: &domain.Party{
			Name:  "Acme Exports",
			Email: "ops@acme.example.com",
		},
		Pricing: domain.Pricing{Currency: "GBP", Base: 95000, VAT: 19000},
	}
}

func TestCreateShipment(t *testing.T) {
	service, repo := newTestService(t)

	dto, err := service.CreateShipment(context.Background(), createCommand())
	require.NoError(t, err)

	assert.Regexp(t, `^ELX-\d{4}-\d{6}$`, dto.Reference)
	assert.Equal(t, "quote", dto.Status)
	assert.Equal(t, "RoRo", dto.Mode)
	assert.EqualValues(t, 114000, dto.Pricing.Total)
	assert.Len(t, repo.shipments, 1)
}

func TestCreateShipmentInvalidCargo(t *testing.T) {
	service, _ := newTestService(t)

	cmd := createCommand()
	cmd.Cargo = domain.Cargo{}

	_, err := service.CreateShipment(context.Background(), cmd)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
}

func TestCreateShipmentUniqueReferences(t *testing.T) {
	service, _ := newTestService(t)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		dto, err := service.CreateShipment(context.Background(), createCommand())
		require.NoError(t, err)
		assert.False(t, seen[dto.Reference])
		seen[dto.Reference] = true
	}
}

func TestGetShipmentNotFound(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.GetShipment(context.Background(), GetShipmentQuery{ShipmentID: primitive.NewObjectID().Hex()})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestGetByReference(t *testing.T) {
	service, _ := newTestService(t)

	created, err := service.CreateShipment(context.Background(), createCommand())
	require.NoError(t, err)

	found, err := service.GetByReference(context.Background(), GetByReferenceQuery{Reference: created.Reference})
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestChangeStatus(t *testing.T) {
	service, _ := newTestService(t)

	created, err := service.CreateShipment(context.Background(), createCommand())
	require.NoError(t, err)

	dto, err := service.ChangeStatus(context.Background(), ChangeStatusCommand{ShipmentID: created.ID, Target: domain.StatusBooked})
	require.NoError(t, err)
	assert.Equal(t, "booked", dto.Status)

	// Skipping a state is a validation error
	_, err = service.ChangeStatus(context.Background(), ChangeStatusCommand{ShipmentID: created.ID, Target: domain.StatusSailed})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
}

func TestBusinessMetricsRecorded(t *testing.T) {
	repo := newMemoryRepository()
	references := domain.NewReferenceGenerator(&seqStore{}, repo.ExistsReference)
	logger := logging.New(&logging.Config{ServiceName: "shipment-service-test", Output: io.Discard})
	m := metrics.New(metrics.DefaultConfig("shipment-service-test"))
	service := NewShipmentApplicationService(repo, references, logger, m)

	created, err := service.CreateShipment(context.Background(), createCommand())
	require.NoError(t, err)

	createdCount := promtestutil.ToFloat64(m.ShipmentsCreated.WithLabelValues("shipment-service-test", "vehicle", "RoRo"))
	assert.Equal(t, 1.0, createdCount)

	_, err = service.ChangeStatus(context.Background(), ChangeStatusCommand{ShipmentID: created.ID, Target: domain.StatusBooked})
	require.NoError(t, err)

	transitionCount := promtestutil.ToFloat64(m.StatusTransitions.WithLabelValues("shipment-service-test", "quote", "booked"))
	assert.Equal(t, 1.0, transitionCount)
}

func TestChangeStatusHoldAndResume(t *testing.T) {
	service, _ := newTestService(t)

	created, err := service.CreateShipment(context.Background(), createCommand())
	require.NoError(t, err)

	_, err = service.ChangeStatus(context.Background(), ChangeStatusCommand{ShipmentID: created.ID, Target: domain.StatusBooked})
	require.NoError(t, err)

	held, err := service.ChangeStatus(context.Background(), ChangeStatusCommand{ShipmentID: created.ID, Target: domain.StatusOnHold, Reason: "payment pending"})
	require.NoError(t, err)
	assert.Equal(t, "on_hold", held.Status)
	assert.Equal(t, "booked", held.HeldFrom)

	resumed, err := service.ChangeStatus(context.Background(), ChangeStatusCommand{ShipmentID: created.ID, Target: domain.StatusBooked})
	require.NoError(t, err)
	assert.Equal(t, "booked", resumed.Status)
	assert.Empty(t, resumed.HeldFrom)
}

func TestUpdateShipmentCargoSwap(t *testing.T) {
	service, _ := newTestService(t)

	created, err := service.CreateShipment(context.Background(), createCommand())
	require.NoError(t, err)

	containerType := domain.CargoTypeContainer
	dto, err := service.UpdateShipment(context.Background(), UpdateShipmentCommand{
		ShipmentID: created.ID,
		CargoType:  &containerType,
		Cargo: &domain.Cargo{
			Container: &domain.ContainerCargo{ContainerNo: "TGHU7654321", Size: "40HC"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "container", dto.Cargo.Type)
	assert.Equal(t, "Container", dto.Mode)
	assert.Nil(t, dto.Cargo.Vehicle)
}

func TestAppendTracking(t *testing.T) {
	service, _ := newTestService(t)

	created, err := service.CreateShipment(context.Background(), createCommand())
	require.NoError(t, err)

	dto, err := service.AppendTracking(context.Background(), AppendTrackingCommand{
		ShipmentID: created.ID,
		Event:      domain.TrackingEvent{Code: "BOOKING_CONFIRMED", Location: "Felixstowe"},
	})
	require.NoError(t, err)
	require.Len(t, dto.Tracking, 1)
	assert.Equal(t, "BOOKING_CONFIRMED", dto.Tracking[0].Code)

	_, err = service.AppendTracking(context.Background(), AppendTrackingCommand{ShipmentID: created.ID})
	assert.Error(t, err)
}

func TestAddSurchargeRecomputesTotal(t *testing.T) {
	service, _ := newTestService(t)

	created, err := service.CreateShipment(context.Background(), createCommand())
	require.NoError(t, err)

	dto, err := service.AddSurcharge(context.Background(), AddSurchargeCommand{
		ShipmentID: created.ID,
		Surcharge:  domain.Surcharge{Code: "BAF", Amount: 4200},
	})
	require.NoError(t, err)
	assert.Equal(t, created.Pricing.Total+4200, dto.Pricing.Total)
}

func TestDeleteShipment(t *testing.T) {
	service, repo := newTestService(t)

	created, err := service.CreateShipment(context.Background(), createCommand())
	require.NoError(t, err)

	require.NoError(t, service.DeleteShipment(context.Background(), DeleteShipmentCommand{ShipmentID: created.ID}))

	// Soft-deleted shipments disappear from reads but stay stored
	_, err = service.GetShipment(context.Background(), GetShipmentQuery{ShipmentID: created.ID})
	assert.Error(t, err)
	assert.Len(t, repo.shipments, 1)

	require.NoError(t, service.DeleteShipment(context.Background(), DeleteShipmentCommand{ShipmentID: created.ID, Hard: true}))
	assert.Empty(t, repo.shipments)
}

func TestSaveConflictMapsToConflictError(t *testing.T) {
	service, repo := newTestService(t)

	created, err := service.CreateShipment(context.Background(), createCommand())
	require.NoError(t, err)

	// Another writer got there first
	repo.failSaveWith = domain.ErrConcurrencyConflict

	_, err = service.ChangeStatus(context.Background(), ChangeStatusCommand{ShipmentID: created.ID, Target: domain.StatusBooked})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
}
