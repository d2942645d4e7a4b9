package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellcworth/shipment-service/internal/domain"
)

func TestComposePendingFallsBackToSupportEmail(t *testing.T) {
	shipment := createTestShipment(t, domain.StatusQuote)
	shipment.Shipper.Email = ""

	composer := NewComposer("support@ellcworth.com")
	email, err := composer.Compose(domain.NotificationPending, shipment)

	require.NoError(t, err)
	assert.Equal(t, "support@ellcworth.com", email.To)
}

func TestComposeNoRecipientAnywhere(t *testing.T) {
	shipment := createTestShipment(t, domain.StatusQuote)
	shipment.Shipper = nil
	shipment.Consignee = nil
	shipment.NotifyParty = nil

	composer := NewComposer("")
	_, err := composer.Compose(domain.NotificationPending, shipment)

	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestComposeDeliveredFallsBackToShipper(t *testing.T) {
	shipment := createTestShipment(t, domain.StatusDelivered)
	shipment.Consignee.Email = ""

	composer := NewComposer("support@ellcworth.com")
	email, err := composer.Compose(domain.NotificationDelivered, shipment)

	require.NoError(t, err)
	assert.Equal(t, "shipper@example.com", email.To)
}

func TestComposeUnknownKind(t *testing.T) {
	shipment := createTestShipment(t, domain.StatusQuote)

	composer := NewComposer("support@ellcworth.com")
	_, err := composer.Compose(domain.NotificationKind("sms"), shipment)

	assert.ErrorIs(t, err, domain.ErrUnknownNotificationKind)
}

func TestComposeRendersVoyageDetails(t *testing.T) {
	shipment := createTestShipment(t, domain.StatusQuote)
	etd := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	eta := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	shipment.Voyage = &domain.Voyage{
		CarrierName: "Grimaldi",
		Vessel:      "Grande Lagos",
		VoyageNo:    "GL-118",
		ETD:         &etd,
		ETA:         &eta,
	}

	composer := NewComposer("support@ellcworth.com")
	email, err := composer.Compose(domain.NotificationPending, shipment)

	require.NoError(t, err)
	assert.Contains(t, email.HTML, "Grande Lagos")
	assert.Contains(t, email.HTML, "14/03/2026")
	assert.Contains(t, email.HTML, "02/04/2026")
}

func TestComposeMissingDatesRenderAsTBA(t *testing.T) {
	shipment := createTestShipment(t, domain.StatusQuote)

	composer := NewComposer("support@ellcworth.com")
	email, err := composer.Compose(domain.NotificationPending, shipment)

	require.NoError(t, err)
	assert.Contains(t, email.HTML, "TBA")
}

func TestComposeDeliveredIncludesDeliveredDate(t *testing.T) {
	shipment := createTestShipment(t, domain.StatusDelivered)
	delivered := time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC)
	shipment.DeliveredAt = &delivered

	composer := NewComposer("support@ellcworth.com")
	email, err := composer.Compose(domain.NotificationDelivered, shipment)

	require.NoError(t, err)
	assert.Contains(t, email.HTML, "20/05/2026")
}
