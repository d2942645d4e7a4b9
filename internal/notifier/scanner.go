package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ellcworth/shipment-service/internal/domain"
	"github.com/ellcworth/shipment-service/internal/infrastructure/mailer"
	"github.com/ellcworth/shipment-service/pkg/kafka"
	"github.com/ellcworth/shipment-service/pkg/logging"
	"github.com/ellcworth/shipment-service/pkg/metrics"
)

// Mailer dispatches a single notification email
type Mailer interface {
	Send(ctx context.Context, email mailer.Email) error
}

// Scanner periodically scans for shipments awaiting a notification,
// dispatches the email and flips the dedup flag. A flag is only set
// after a successful dispatch, so a crashed tick is retried on the
// next one.
type Scanner struct {
	repo      domain.ShipmentRepository
	mailer    Mailer
	composer  *Composer
	producer  *kafka.Producer
	logger    *logging.Logger
	metrics   *metrics.Metrics
	interval  time.Duration
	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// ScannerConfig holds configuration for the notification scanner
type ScannerConfig struct {
	ScanInterval time.Duration
	SupportEmail string
}

// DefaultScannerConfig returns default configuration
func DefaultScannerConfig() *ScannerConfig {
	return &ScannerConfig{
		ScanInterval: 1 * time.Minute,
	}
}

// NewScanner creates a new notification scanner. The producer is
// optional; when set, a notification event is published after each
// successful dispatch.
func NewScanner(
	repo domain.ShipmentRepository,
	m Mailer,
	producer *kafka.Producer,
	logger *logging.Logger,
	metrics *metrics.Metrics,
	config *ScannerConfig,
) *Scanner {
	if config == nil {
		config = DefaultScannerConfig()
	}

	return &Scanner{
		repo:      repo,
		mailer:    m,
		composer:  NewComposer(config.SupportEmail),
		producer:  producer,
		logger:    logger,
		metrics:   metrics,
		interval:  config.ScanInterval,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start starts the scanner loop
func (s *Scanner) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scanner already running")
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("Starting notification scanner", "interval", s.interval)

	go s.run(ctx)
	return nil
}

// Stop stops the scanner loop
func (s *Scanner) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("scanner not running")
	}
	s.mu.Unlock()

	s.logger.Info("Stopping notification scanner")
	close(s.stopCh)
	<-s.stoppedCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Notification scanner stopped")
	return nil
}

func (s *Scanner) run(ctx context.Context) {
	defer close(s.stoppedCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-s.stopCh:
			s.logger.Info("Scanner received stop signal")
			return
		case <-ctx.Done():
			s.logger.Info("Scanner context cancelled")
			return
		}
	}
}

// Tick runs a single scan over all notification kinds. Failures for
// individual shipments are logged and skipped so one bad record never
// blocks the rest of the batch.
func (s *Scanner) Tick(ctx context.Context) {
	start := time.Now()

	for _, kind := range domain.NotificationKinds() {
		s.scanKind(ctx, kind)
	}

	if s.metrics != nil {
		s.metrics.RecordScannerTick(time.Since(start))
	}
}

func (s *Scanner) scanKind(ctx context.Context, kind domain.NotificationKind) {
	shipments, err := s.repo.FindForNotification(ctx, kind)
	if err != nil {
		s.logger.Error("Failed to find shipments for notification",
			"kind", string(kind),
			"error", err,
		)
		return
	}

	if len(shipments) == 0 {
		return
	}

	s.logger.Info("Found shipments awaiting notification",
		"kind", string(kind),
		"count", len(shipments),
	)

	for _, shipment := range shipments {
		if err := s.notify(ctx, kind, shipment); err != nil {
			s.logger.Error("Failed to notify shipment",
				"kind", string(kind),
				"reference", shipment.Reference,
				"error", err,
			)
			if s.metrics != nil {
				s.metrics.RecordEmailSent(string(kind), false)
			}
			continue
		}

		if s.metrics != nil {
			s.metrics.RecordEmailSent(string(kind), true)
			s.metrics.RecordScannerRecord(string(kind))
		}
	}
}

func (s *Scanner) notify(ctx context.Context, kind domain.NotificationKind, shipment *domain.Shipment) error {
	email, err := s.composer.Compose(kind, shipment)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := s.mailer.Send(ctx, email); err != nil {
		s.logger.EmailDispatch(ctx, string(kind), shipment.Reference, email.To, false, time.Since(start))
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}
	s.logger.EmailDispatch(ctx, string(kind), shipment.Reference, email.To, true, time.Since(start))

	// Flip the flag only after the mail went out. A failure here means
	// the email may be sent again next tick, which is preferable to
	// silently losing it.
	if err := s.repo.MarkNotified(ctx, shipment.ID.Hex(), kind); err != nil {
		return fmt.Errorf("failed to mark shipment notified: %w", err)
	}

	s.publishEvent(ctx, kind, shipment, email.To)
	return nil
}

type notificationSentEvent struct {
	Reference string    `json:"reference"`
	Kind      string    `json:"kind"`
	Recipient string    `json:"recipient"`
	SentAt    time.Time `json:"sentAt"`
}

func (s *Scanner) publishEvent(ctx context.Context, kind domain.NotificationKind, shipment *domain.Shipment, recipient string) {
	if s.producer == nil {
		return
	}

	payload, err := json.Marshal(notificationSentEvent{
		Reference: shipment.Reference,
		Kind:      string(kind),
		Recipient: recipient,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("Failed to marshal notification event", "error", err)
		return
	}

	msg := kafka.Message{
		ID:          uuid.New().String(),
		Type:        "elx.notification.sent",
		AggregateID: shipment.Reference,
		Data:        payload,
	}

	if err := s.producer.Publish(ctx, kafka.Topics.NotificationEvents, msg); err != nil {
		// Best effort. The flag is already set, the email is out.
		s.logger.Warn("Failed to publish notification event",
			"reference", shipment.Reference,
			"error", err,
		)
	}
}
