package mailer

import (
	"context"

	"gopkg.in/gomail.v2"

	"github.com/ellcworth/shipment-service/pkg/logging"
	"github.com/ellcworth/shipment-service/pkg/metrics"
	"github.com/ellcworth/shipment-service/pkg/resilience"
)

// Config holds SMTP transport configuration
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// DefaultConfig returns a default SMTP configuration
func DefaultConfig() *Config {
	return &Config{
		Host: "smtp.gmail.com",
		Port: 587,
	}
}

// Email is an outbound message
type Email struct {
	To      string
	CC      []string
	Subject string
	HTML    string
}

// SMTPMailer sends email over SMTP, guarded by a circuit breaker
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(config *Config, logger *logging.Logger, m *metrics.Metrics) *SMTPMailer {
	breakerConfig := resilience.DefaultCircuitBreakerConfig("smtp")
	breaker := resilience.NewCircuitBreaker(breakerConfig, logger.Logger)

	return &SMTPMailer{
		dialer:  gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		from:    config.From,
		breaker: breaker,
		metrics: m,
		logger:  logger,
	}
}

// Send dispatches a single email through the circuit breaker
func (s *SMTPMailer) Send(ctx context.Context, email Email) error {
	_, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		msg := gomail.NewMessage()
		msg.SetHeader("From", s.from)
		msg.SetHeader("To", email.To)
		if len(email.CC) > 0 {
			msg.SetHeader("Cc", email.CC...)
		}
		msg.SetHeader("Subject", email.Subject)
		msg.SetBody("text/html", email.HTML)

		return nil, s.dialer.DialAndSend(msg)
	})

	if s.metrics != nil {
		s.metrics.SetCircuitBreakerState(s.breaker.Name(), int(s.breaker.State()))
	}

	return err
}
