package notifier

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ellcworth/shipment-service/internal/domain"
	"github.com/ellcworth/shipment-service/internal/infrastructure/mailer"
	"github.com/ellcworth/shipment-service/pkg/logging"
)

// fakeRepo implements the notification queries of ShipmentRepository
// over an in-memory map
type fakeRepo struct {
	shipments   map[string]*domain.Shipment
	markErr     error
	markedCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{shipments: make(map[string]*domain.Shipment)}
}

func (r *fakeRepo) add(s *domain.Shipment) {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	r.shipments[s.ID.Hex()] = s
}

func (r *fakeRepo) FindForNotification(ctx context.Context, kind domain.NotificationKind) ([]*domain.Shipment, error) {
	var out []*domain.Shipment
	for _, s := range r.shipments {
		if s.IsDeleted || s.Status != kind.TriggerStatus() || s.Notifications.Sent(kind) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeRepo) MarkNotified(ctx context.Context, id string, kind domain.NotificationKind) error {
	r.markedCalls++
	if r.markErr != nil {
		return r.markErr
	}
	s, ok := r.shipments[id]
	if !ok {
		return domain.ErrNotFound
	}
	switch kind {
	case domain.NotificationPending:
		s.Notifications.PendingSent = true
	case domain.NotificationDelivered:
		s.Notifications.DeliveredSent = true
	}
	return nil
}

func (r *fakeRepo) Save(ctx context.Context, s *domain.Shipment) error { return nil }
func (r *fakeRepo) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	return r.shipments[id], nil
}
func (r *fakeRepo) FindByReference(ctx context.Context, reference string) (*domain.Shipment, error) {
	return nil, nil
}
func (r *fakeRepo) Find(ctx context.Context, filter domain.ShipmentFilter) ([]*domain.Shipment, error) {
	return nil, nil
}
func (r *fakeRepo) ExistsReference(ctx context.Context, reference string) (bool, error) {
	return false, nil
}
func (r *fakeRepo) SoftDelete(ctx context.Context, id string) error { return nil }
func (r *fakeRepo) HardDelete(ctx context.Context, id string) error { return nil }

// fakeMailer records dispatched emails. failTo rejects sends to one
// recipient only.
type fakeMailer struct {
	sent     []mailer.Email
	failWith error
	failTo   string
}

func (m *fakeMailer) Send(ctx context.Context, email mailer.Email) error {
	if m.failWith != nil {
		return m.failWith
	}
	if m.failTo != "" && email.To == m.failTo {
		return errors.New("recipient rejected")
	}
	m.sent = append(m.sent, email)
	return nil
}

func newTestLogger() *logging.Logger {
	return logging.New(&logging.Config{
		Level:       logging.LevelError,
		ServiceName: "notifier-test",
		Output:      io.Discard,
	})
}

func createTestShipment(t *testing.T, status domain.Status) *domain.Shipment {
	t.Helper()

	cargo, err := domain.ResolveCargo(domain.CargoTypeVehicle, domain.Cargo{
		Vehicle: &domain.VehicleCargo{
			VIN:   "1HGBH41JXMN109186",
			Make:  "Toyota",
			Model: "Land Cruiser",
			Year:  2021,
		},
	})
	require.NoError(t, err)

	shipment, err := domain.NewShipment(
		"ELX-2026-000042",
		"cust-1",
		domain.CargoTypeVehicle,
		cargo,
		domain.Route{Origin: "Southampton", Destination: "Mombasa"},
		domain.Pricing{Currency: "USD", Base: 150000},
	)
	require.NoError(t, err)

	shipment.ID = primitive.NewObjectID()
	shipment.Status = status
	shipment.Shipper = &domain.Party{Name: "Amara Exports", Email: "shipper@example.com"}
	shipment.Consignee = &domain.Party{Name: "Kintu Motors", Email: "consignee@example.com"}
	shipment.NotifyParty = &domain.Party{Name: "Agent", Email: "agent@example.com"}
	shipment.ClearDomainEvents()
	return shipment
}

func newTestScanner(repo *fakeRepo, m Mailer) *Scanner {
	return NewScanner(repo, m, nil, newTestLogger(), nil, &ScannerConfig{
		SupportEmail: "support@ellcworth.com",
	})
}

func TestTickSendsPendingEmail(t *testing.T) {
	repo := newFakeRepo()
	repo.add(createTestShipment(t, domain.StatusQuote))

	mail := &fakeMailer{}
	scanner := newTestScanner(repo, mail)

	scanner.Tick(context.Background())

	require.Len(t, mail.sent, 1)
	email := mail.sent[0]
	assert.Equal(t, "shipper@example.com", email.To)
	assert.ElementsMatch(t, []string{"consignee@example.com", "agent@example.com"}, email.CC)
	assert.Contains(t, email.Subject, "ELX-2026-000042")
	assert.Contains(t, email.Subject, "Pending")
	assert.Contains(t, email.HTML, "Land Cruiser")
}

func TestTickSendsDeliveredEmail(t *testing.T) {
	repo := newFakeRepo()
	repo.add(createTestShipment(t, domain.StatusDelivered))

	mail := &fakeMailer{}
	scanner := newTestScanner(repo, mail)

	scanner.Tick(context.Background())

	require.Len(t, mail.sent, 1)
	email := mail.sent[0]
	assert.Equal(t, "consignee@example.com", email.To)
	assert.ElementsMatch(t, []string{"shipper@example.com", "agent@example.com"}, email.CC)
	assert.Contains(t, email.Subject, "Delivered")
}

func TestTickIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.add(createTestShipment(t, domain.StatusQuote))

	mail := &fakeMailer{}
	scanner := newTestScanner(repo, mail)

	scanner.Tick(context.Background())
	scanner.Tick(context.Background())
	scanner.Tick(context.Background())

	assert.Len(t, mail.sent, 1)
	assert.Equal(t, 1, repo.markedCalls)
}

func TestTickSkipsNonTriggerStatuses(t *testing.T) {
	repo := newFakeRepo()
	repo.add(createTestShipment(t, domain.StatusSailed))
	repo.add(createTestShipment(t, domain.StatusCancelled))

	mail := &fakeMailer{}
	scanner := newTestScanner(repo, mail)

	scanner.Tick(context.Background())

	assert.Empty(t, mail.sent)
}

func TestTickSkipsSoftDeleted(t *testing.T) {
	repo := newFakeRepo()
	shipment := createTestShipment(t, domain.StatusQuote)
	shipment.IsDeleted = true
	repo.add(shipment)

	mail := &fakeMailer{}
	scanner := newTestScanner(repo, mail)

	scanner.Tick(context.Background())

	assert.Empty(t, mail.sent)
}

func TestMailFailureLeavesFlagUnset(t *testing.T) {
	repo := newFakeRepo()
	shipment := createTestShipment(t, domain.StatusQuote)
	repo.add(shipment)

	mail := &fakeMailer{failWith: errors.New("smtp down")}
	scanner := newTestScanner(repo, mail)

	scanner.Tick(context.Background())

	assert.False(t, shipment.Notifications.PendingSent)
	assert.Zero(t, repo.markedCalls)

	// Next tick retries once the mailer recovers
	mail.failWith = nil
	scanner.Tick(context.Background())

	require.Len(t, mail.sent, 1)
	assert.True(t, shipment.Notifications.PendingSent)
}

func TestMailFailureDoesNotBlockOtherRecords(t *testing.T) {
	repo := newFakeRepo()
	failing := createTestShipment(t, domain.StatusQuote)
	failing.Shipper = &domain.Party{Name: "Unreachable Ltd", Email: "bounce@example.com"}
	healthy := createTestShipment(t, domain.StatusQuote)
	repo.add(failing)
	repo.add(healthy)

	mail := &fakeMailer{failTo: "bounce@example.com"}
	scanner := newTestScanner(repo, mail)

	scanner.Tick(context.Background())

	// The failed record must not stop the rest of the batch
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "shipper@example.com", mail.sent[0].To)
	assert.True(t, healthy.Notifications.PendingSent)
	assert.False(t, failing.Notifications.PendingSent)

	// The failed record stays eligible for the next tick
	mail.failTo = ""
	scanner.Tick(context.Background())
	assert.Len(t, mail.sent, 2)
	assert.True(t, failing.Notifications.PendingSent)
}

func TestBothKindsProcessedInOneTick(t *testing.T) {
	repo := newFakeRepo()
	repo.add(createTestShipment(t, domain.StatusQuote))
	repo.add(createTestShipment(t, domain.StatusDelivered))

	mail := &fakeMailer{}
	scanner := newTestScanner(repo, mail)

	scanner.Tick(context.Background())

	assert.Len(t, mail.sent, 2)
}
