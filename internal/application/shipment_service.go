package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/ellcworth/shipment-service/pkg/errors"
	"github.com/ellcworth/shipment-service/pkg/logging"
	"github.com/ellcworth/shipment-service/pkg/metrics"

	"github.com/ellcworth/shipment-service/internal/domain"
)

// ShipmentApplicationService handles shipment lifecycle use cases
type ShipmentApplicationService struct {
	repo       domain.ShipmentRepository
	references *domain.ReferenceGenerator
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// NewShipmentApplicationService creates a new ShipmentApplicationService.
// metrics may be nil.
func NewShipmentApplicationService(
	repo domain.ShipmentRepository,
	references *domain.ReferenceGenerator,
	logger *logging.Logger,
	m *metrics.Metrics,
) *ShipmentApplicationService {
	return &ShipmentApplicationService{
		repo:       repo,
		references: references,
		logger:     logger,
		metrics:    m,
	}
}

// CreateShipment books a new shipment in the quote state with a freshly
// generated booking reference
func (s *ShipmentApplicationService) CreateShipment(ctx context.Context, cmd CreateShipmentCommand) (*ShipmentDTO, error) {
	reference, err := s.references.Generate(ctx, time.Now().UTC().Year())
	if err != nil {
		s.logger.WithError(err).Error("Failed to generate booking reference", "customerId", cmd.CustomerID)
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	shipment, err := domain.NewShipment(reference, cmd.CustomerID, cmd.CargoType, cmd.Cargo, cmd.Route, cmd.Pricing)
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	shipment.Shipper = cmd.Shipper
	shipment.Consignee = cmd.Consignee
	shipment.NotifyParty = cmd.NotifyParty
	if cmd.Voyage != nil {
		shipment.SetVoyage(*cmd.Voyage)
	}

	if err := s.repo.Save(ctx, shipment); err != nil {
		s.logger.WithError(err).Error("Failed to create shipment", "reference", reference)
		return nil, fmt.Errorf("failed to create shipment: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	if s.metrics != nil {
		s.metrics.RecordShipmentCreated(string(shipment.Cargo.Type), string(shipment.Mode))
	}

	s.logger.Info("Created shipment", "reference", reference, "customerId", cmd.CustomerID, "cargoType", cmd.CargoType)
	return ToShipmentDTO(shipment), nil
}

// GetShipment retrieves a shipment by ID
func (s *ShipmentApplicationService) GetShipment(ctx context.Context, query GetShipmentQuery) (*ShipmentDTO, error) {
	shipment, err := s.findShipment(ctx, query.ShipmentID)
	if err != nil {
		return nil, err
	}
	return ToShipmentDTO(shipment), nil
}

// GetTracking retrieves the ordered tracking ledger for a shipment
func (s *ShipmentApplicationService) GetTracking(ctx context.Context, query GetShipmentQuery) ([]TrackingEventDTO, error) {
	shipment, err := s.findShipment(ctx, query.ShipmentID)
	if err != nil {
		return nil, err
	}

	events := make([]TrackingEventDTO, 0, len(shipment.Tracking))
	for _, e := range shipment.Tracking {
		events = append(events, TrackingEventDTO{
			ID:          e.ID,
			Code:        e.Code,
			Description: e.Description,
			Location:    e.Location,
			Meta:        e.Meta,
			RecordedAt:  e.RecordedAt,
		})
	}
	return events, nil
}

// GetByReference retrieves a shipment by its booking reference
func (s *ShipmentApplicationService) GetByReference(ctx context.Context, query GetByReferenceQuery) (*ShipmentDTO, error) {
	shipment, err := s.repo.FindByReference(ctx, query.Reference)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get shipment by reference", "reference", query.Reference)
		return nil, fmt.Errorf("failed to get shipment by reference: %w", err)
	}

	if shipment == nil {
		return nil, apperrors.ErrNotFound("shipment")
	}

	return ToShipmentDTO(shipment), nil
}

// ListShipments retrieves shipments matching the query filters
func (s *ShipmentApplicationService) ListShipments(ctx context.Context, query ListShipmentsQuery) ([]ShipmentDTO, error) {
	filter := domain.ShipmentFilter{
		CustomerID: query.CustomerID,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}

	if query.Status != "" {
		status := domain.Status(query.Status)
		if !status.IsValid() {
			return nil, apperrors.ErrValidation(fmt.Sprintf("unknown status %q", query.Status))
		}
		filter.Status = &status
	}

	if query.CargoType != "" {
		cargoType := domain.CargoType(query.CargoType)
		if !cargoType.IsValid() {
			return nil, apperrors.ErrValidation(fmt.Sprintf("unknown cargo type %q", query.CargoType))
		}
		filter.CargoType = &cargoType
	}

	shipments, err := s.repo.Find(ctx, filter)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list shipments", "customerId", query.CustomerID)
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}

	return ToShipmentDTOs(shipments), nil
}

// UpdateShipment applies a partial update to shipment details
func (s *ShipmentApplicationService) UpdateShipment(ctx context.Context, cmd UpdateShipmentCommand) (*ShipmentDTO, error) {
	shipment, err := s.findShipment(ctx, cmd.ShipmentID)
	if err != nil {
		return nil, err
	}

	if cmd.CargoType != nil {
		cargo := shipment.Cargo
		if cmd.Cargo != nil {
			cargo = *cmd.Cargo
		}
		if err := shipment.UpdateCargo(*cmd.CargoType, cargo); err != nil {
			return nil, apperrors.ErrValidation(err.Error())
		}
	} else if cmd.Cargo != nil {
		if err := shipment.UpdateCargo(shipment.Cargo.Type, *cmd.Cargo); err != nil {
			return nil, apperrors.ErrValidation(err.Error())
		}
	}

	if cmd.Route != nil {
		if err := shipment.UpdateRoute(*cmd.Route); err != nil {
			return nil, apperrors.ErrValidation(err.Error())
		}
	}
	if cmd.Voyage != nil {
		shipment.SetVoyage(*cmd.Voyage)
	}
	if cmd.Shipper != nil {
		shipment.Shipper = cmd.Shipper
	}
	if cmd.Consignee != nil {
		shipment.Consignee = cmd.Consignee
	}
	if cmd.NotifyParty != nil {
		shipment.NotifyParty = cmd.NotifyParty
	}
	if cmd.Pricing != nil {
		shipment.Pricing = *cmd.Pricing
	}

	if err := s.saveShipment(ctx, shipment); err != nil {
		return nil, err
	}

	s.logger.Info("Updated shipment", "reference", shipment.Reference)
	return ToShipmentDTO(shipment), nil
}

// ChangeStatus moves a shipment to the requested lifecycle state
func (s *ShipmentApplicationService) ChangeStatus(ctx context.Context, cmd ChangeStatusCommand) (*ShipmentDTO, error) {
	if !cmd.Target.IsValid() {
		return nil, apperrors.ErrValidation(fmt.Sprintf("unknown status %q", cmd.Target))
	}

	shipment, err := s.findShipment(ctx, cmd.ShipmentID)
	if err != nil {
		return nil, err
	}

	from := shipment.Status
	if err := shipment.TransitionTo(cmd.Target, cmd.Reason); err != nil {
		return nil, apperrors.ErrValidation(err.Error()).
			WithDetail("from", string(from)).
			WithDetail("to", string(cmd.Target))
	}

	if err := s.saveShipment(ctx, shipment); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordStatusTransition(string(from), string(cmd.Target))
	}

	s.logger.Info("Changed shipment status", "reference", shipment.Reference, "from", from, "to", cmd.Target)
	return ToShipmentDTO(shipment), nil
}

// AppendTracking records a tracking event on the shipment's ledger
func (s *ShipmentApplicationService) AppendTracking(ctx context.Context, cmd AppendTrackingCommand) (*ShipmentDTO, error) {
	if cmd.Event.Code == "" {
		return nil, apperrors.ErrValidation("tracking event code is required")
	}

	shipment, err := s.findShipment(ctx, cmd.ShipmentID)
	if err != nil {
		return nil, err
	}

	event := shipment.AppendTracking(cmd.Event)

	if err := s.saveShipment(ctx, shipment); err != nil {
		return nil, err
	}

	s.logger.Info("Appended tracking event", "reference", shipment.Reference, "code", event.Code)
	return ToShipmentDTO(shipment), nil
}

// AttachDocument attaches a document to the shipment
func (s *ShipmentApplicationService) AttachDocument(ctx context.Context, cmd AttachDocumentCommand) (*ShipmentDTO, error) {
	if cmd.Document.Type == "" || cmd.Document.URL == "" {
		return nil, apperrors.ErrValidation("document type and url are required")
	}

	shipment, err := s.findShipment(ctx, cmd.ShipmentID)
	if err != nil {
		return nil, err
	}

	shipment.AttachDocument(cmd.Document)

	if err := s.saveShipment(ctx, shipment); err != nil {
		return nil, err
	}

	s.logger.Info("Attached document", "reference", shipment.Reference, "docType", cmd.Document.Type)
	return ToShipmentDTO(shipment), nil
}

// AddSurcharge adds a surcharge to the shipment quote
func (s *ShipmentApplicationService) AddSurcharge(ctx context.Context, cmd AddSurchargeCommand) (*ShipmentDTO, error) {
	if cmd.Surcharge.Code == "" {
		return nil, apperrors.ErrValidation("surcharge code is required")
	}

	shipment, err := s.findShipment(ctx, cmd.ShipmentID)
	if err != nil {
		return nil, err
	}

	shipment.AddSurcharge(cmd.Surcharge)

	if err := s.saveShipment(ctx, shipment); err != nil {
		return nil, err
	}

	s.logger.Info("Added surcharge", "reference", shipment.Reference, "code", cmd.Surcharge.Code, "amount", cmd.Surcharge.Amount)
	return ToShipmentDTO(shipment), nil
}

// RecordPayment records a payment attempt against the shipment
func (s *ShipmentApplicationService) RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (*ShipmentDTO, error) {
	if cmd.Payment.Provider == "" {
		return nil, apperrors.ErrValidation("payment provider is required")
	}

	shipment, err := s.findShipment(ctx, cmd.ShipmentID)
	if err != nil {
		return nil, err
	}

	shipment.RecordPayment(cmd.Payment)

	if err := s.saveShipment(ctx, shipment); err != nil {
		return nil, err
	}

	s.logger.Info("Recorded payment", "reference", shipment.Reference, "provider", cmd.Payment.Provider, "succeeded", cmd.Payment.Succeeded)
	return ToShipmentDTO(shipment), nil
}

// DeleteShipment soft-deletes a shipment, or removes it permanently when
// cmd.Hard is set
func (s *ShipmentApplicationService) DeleteShipment(ctx context.Context, cmd DeleteShipmentCommand) error {
	var err error
	if cmd.Hard {
		err = s.repo.HardDelete(ctx, cmd.ShipmentID)
	} else {
		err = s.repo.SoftDelete(ctx, cmd.ShipmentID)
	}

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperrors.ErrNotFoundWithID("shipment", cmd.ShipmentID)
		}
		s.logger.WithError(err).Error("Failed to delete shipment", "shipmentId", cmd.ShipmentID, "hard", cmd.Hard)
		return fmt.Errorf("failed to delete shipment: %w", err)
	}

	s.logger.Info("Deleted shipment", "shipmentId", cmd.ShipmentID, "hard", cmd.Hard)
	return nil
}

func (s *ShipmentApplicationService) findShipment(ctx context.Context, id string) (*domain.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get shipment", "shipmentId", id)
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}

	if shipment == nil {
		return nil, apperrors.ErrNotFoundWithID("shipment", id)
	}

	return shipment, nil
}

func (s *ShipmentApplicationService) saveShipment(ctx context.Context, shipment *domain.Shipment) error {
	if err := s.repo.Save(ctx, shipment); err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			return apperrors.ErrConflict("shipment was modified concurrently, retry the request")
		}
		s.logger.WithError(err).Error("Failed to save shipment", "reference", shipment.Reference)
		return fmt.Errorf("failed to save shipment: %w", err)
	}
	return nil
}
