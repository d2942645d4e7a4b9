package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ellcworth/shipment-service/internal/application"
	"github.com/ellcworth/shipment-service/internal/domain"
	"github.com/ellcworth/shipment-service/pkg/errors"
	"github.com/ellcworth/shipment-service/pkg/logging"
	"github.com/ellcworth/shipment-service/pkg/middleware"
)

// ShipmentHandler handles HTTP requests for shipments
type ShipmentHandler struct {
	service *application.ShipmentApplicationService
	logger  *logging.Logger
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(service *application.ShipmentApplicationService, logger *logging.Logger) *ShipmentHandler {
	return &ShipmentHandler{
		service: service,
		logger:  logger,
	}
}

// CreateShipmentRequest is the request body for creating a shipment
type CreateShipmentRequest struct {
	CustomerID  string         `json:"customerId" binding:"required"`
	CargoType   string         `json:"cargoType" binding:"required,cargo_type"`
	Cargo       domain.Cargo   `json:"cargo" binding:"required"`
	Route       domain.Route   `json:"route" binding:"required"`
	Voyage      *domain.Voyage `json:"voyage,omitempty"`
	Shipper     *domain.Party  `json:"shipper,omitempty"`
	Consignee   *domain.Party  `json:"consignee,omitempty"`
	NotifyParty *domain.Party  `json:"notifyParty,omitempty"`
	Pricing     PricingRequest `json:"pricing" binding:"required"`
}

// PricingRequest is the pricing block of a create or update request.
// All amounts are minor units of the currency.
type PricingRequest struct {
	Currency   string             `json:"currency" binding:"required,currency"`
	Base       int64              `json:"base" binding:"gte=0"`
	Surcharges []domain.Surcharge `json:"surcharges,omitempty"`
	Insurance  int64              `json:"insurance" binding:"gte=0"`
	VAT        int64              `json:"vat" binding:"gte=0"`
	Discount   int64              `json:"discount" binding:"gte=0"`
}

func (r PricingRequest) toDomain() domain.Pricing {
	return domain.Pricing{
		Currency:   r.Currency,
		Base:       r.Base,
		Surcharges: r.Surcharges,
		Insurance:  r.Insurance,
		VAT:        r.VAT,
		Discount:   r.Discount,
	}
}

// UpdateShipmentRequest is the request body for a partial shipment update
type UpdateShipmentRequest struct {
	CargoType   *string         `json:"cargoType,omitempty" binding:"omitempty,cargo_type"`
	Cargo       *domain.Cargo   `json:"cargo,omitempty"`
	Route       *domain.Route   `json:"route,omitempty"`
	Voyage      *domain.Voyage  `json:"voyage,omitempty"`
	Shipper     *domain.Party   `json:"shipper,omitempty"`
	Consignee   *domain.Party   `json:"consignee,omitempty"`
	NotifyParty *domain.Party   `json:"notifyParty,omitempty"`
	Pricing     *PricingRequest `json:"pricing,omitempty"`
}

// ChangeStatusRequest is the request body for a status transition
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,shipment_status"`
	Reason string `json:"reason,omitempty"`
}

// AppendTrackingRequest is the request body for recording a tracking event
type AppendTrackingRequest struct {
	Code        string            `json:"code" binding:"required"`
	Description string            `json:"description,omitempty"`
	Location    string            `json:"location,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
	RecordedAt  *time.Time        `json:"recordedAt,omitempty"`
}

// AttachDocumentRequest is the request body for attaching a document
type AttachDocumentRequest struct {
	Type       string `json:"type" binding:"required"`
	Name       string `json:"name,omitempty"`
	URL        string `json:"url" binding:"required,url"`
	UploadedBy string `json:"uploadedBy,omitempty"`
}

// AddSurchargeRequest is the request body for adding a surcharge
type AddSurchargeRequest struct {
	Code   string `json:"code" binding:"required"`
	Label  string `json:"label,omitempty"`
	Amount int64  `json:"amount" binding:"required"`
}

// RecordPaymentRequest is the request body for recording a payment attempt
type RecordPaymentRequest struct {
	Provider    string `json:"provider" binding:"required"`
	ProviderRef string `json:"providerRef,omitempty"`
	Amount      int64  `json:"amount" binding:"gte=0"`
	Currency    string `json:"currency" binding:"required,currency"`
	Succeeded   bool   `json:"succeeded"`
}

// CreateShipment handles POST /api/v1/shipments
func (h *ShipmentHandler) CreateShipment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req CreateShipmentRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.CreateShipmentCommand{
		CustomerID:  req.CustomerID,
		CargoType:   domain.CargoType(req.CargoType),
		Cargo:       req.Cargo,
		Route:       req.Route,
		Voyage:      req.Voyage,
		Shipper:     req.Shipper,
		Consignee:   req.Consignee,
		NotifyParty: req.NotifyParty,
		Pricing:     req.Pricing.toDomain(),
	}

	result, err := h.service.CreateShipment(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// GetShipment handles GET /api/v1/shipments/:shipmentId
func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	query := application.GetShipmentQuery{ShipmentID: c.Param("shipmentId")}

	result, err := h.service.GetShipment(c.Request.Context(), query)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetTracking handles GET /api/v1/shipments/:shipmentId/tracking
func (h *ShipmentHandler) GetTracking(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	query := application.GetShipmentQuery{ShipmentID: c.Param("shipmentId")}

	result, err := h.service.GetTracking(c.Request.Context(), query)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetByReference handles GET /api/v1/shipments/reference/:reference
func (h *ShipmentHandler) GetByReference(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	query := application.GetByReferenceQuery{Reference: c.Param("reference")}

	result, err := h.service.GetByReference(c.Request.Context(), query)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ListShipments handles GET /api/v1/shipments
func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)

	query := application.ListShipmentsQuery{
		CustomerID: c.Query("customerId"),
		Status:     c.Query("status"),
		CargoType:  c.Query("cargoType"),
		Limit:      limit,
		Offset:     offset,
	}

	result, err := h.service.ListShipments(c.Request.Context(), query)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result, "count": len(result)})
}

// UpdateShipment handles PATCH /api/v1/shipments/:shipmentId
func (h *ShipmentHandler) UpdateShipment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req UpdateShipmentRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.UpdateShipmentCommand{
		ShipmentID:  c.Param("shipmentId"),
		Cargo:       req.Cargo,
		Route:       req.Route,
		Voyage:      req.Voyage,
		Shipper:     req.Shipper,
		Consignee:   req.Consignee,
		NotifyParty: req.NotifyParty,
	}
	if req.CargoType != nil {
		cargoType := domain.CargoType(*req.CargoType)
		cmd.CargoType = &cargoType
	}
	if req.Pricing != nil {
		pricing := req.Pricing.toDomain()
		cmd.Pricing = &pricing
	}

	result, err := h.service.UpdateShipment(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ChangeStatus handles PUT /api/v1/shipments/:shipmentId/status
func (h *ShipmentHandler) ChangeStatus(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req ChangeStatusRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.ChangeStatusCommand{
		ShipmentID: c.Param("shipmentId"),
		Target:     domain.Status(req.Status),
		Reason:     req.Reason,
	}

	result, err := h.service.ChangeStatus(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// AppendTracking handles POST /api/v1/shipments/:shipmentId/tracking
func (h *ShipmentHandler) AppendTracking(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req AppendTrackingRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	event := domain.TrackingEvent{
		Code:        req.Code,
		Description: req.Description,
		Location:    req.Location,
		Meta:        req.Meta,
	}
	if req.RecordedAt != nil {
		event.RecordedAt = *req.RecordedAt
	}

	cmd := application.AppendTrackingCommand{
		ShipmentID: c.Param("shipmentId"),
		Event:      event,
	}

	result, err := h.service.AppendTracking(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// AttachDocument handles POST /api/v1/shipments/:shipmentId/documents
func (h *ShipmentHandler) AttachDocument(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req AttachDocumentRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.AttachDocumentCommand{
		ShipmentID: c.Param("shipmentId"),
		Document: domain.Document{
			Type:       req.Type,
			Name:       req.Name,
			URL:        req.URL,
			UploadedBy: req.UploadedBy,
		},
	}

	result, err := h.service.AttachDocument(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// AddSurcharge handles POST /api/v1/shipments/:shipmentId/surcharges
func (h *ShipmentHandler) AddSurcharge(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req AddSurchargeRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.AddSurchargeCommand{
		ShipmentID: c.Param("shipmentId"),
		Surcharge: domain.Surcharge{
			Code:   req.Code,
			Label:  req.Label,
			Amount: req.Amount,
		},
	}

	result, err := h.service.AddSurcharge(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// RecordPayment handles POST /api/v1/shipments/:shipmentId/payments
func (h *ShipmentHandler) RecordPayment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req RecordPaymentRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.RecordPaymentCommand{
		ShipmentID: c.Param("shipmentId"),
		Payment: domain.PaymentAttempt{
			Provider:    req.Provider,
			ProviderRef: req.ProviderRef,
			Amount:      domain.Money{Amount: req.Amount, Currency: req.Currency},
			Succeeded:   req.Succeeded,
		},
	}

	result, err := h.service.RecordPayment(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// DeleteShipment handles DELETE /api/v1/shipments/:shipmentId. The
// default is a soft delete; pass ?hard=true to remove the document.
func (h *ShipmentHandler) DeleteShipment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	hard, _ := strconv.ParseBool(c.DefaultQuery("hard", "false"))

	cmd := application.DeleteShipmentCommand{
		ShipmentID: c.Param("shipmentId"),
		Hard:       hard,
	}

	if err := h.service.DeleteShipment(c.Request.Context(), cmd); err != nil {
		h.respondError(responder, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ShipmentHandler) respondError(responder *middleware.ErrorResponder, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		responder.RespondWithAppError(appErr)
		return
	}
	responder.RespondInternalError(err)
}
