package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/tour-confirmation/internal/application/service"
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/garyjia/tour-confirmation/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	confirmationService service.ConfirmationService
	itineraryService    service.ItinerarySyncService
	health              HealthFunc
	logger              Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	confirmationService service.ConfirmationService,
	itineraryService service.ItinerarySyncService,
	logger Logger,
) *Handlers {
	return &Handlers{
		confirmationService: confirmationService,
		itineraryService:    itineraryService,
		logger:              logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Components interface{} `json:"components,omitempty"`
}

// ItinerarySyncRequest is the body of POST /api/v1/quotes/:id/itinerary-sync
type ItinerarySyncRequest struct {
	Days []entity.ItineraryDay `json:"days" binding:"required,dive"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}
	healthy := true
	if h.health != nil {
		healthy, resp.Components = h.health(c.Request.Context())
	}

	code := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, Response{Success: healthy, Data: resp})
}

// PreviewChanges handles GET /api/v1/sheets/:id/changes
func (h *Handlers) PreviewChanges(c *gin.Context) {
	h.runSheet(c, "could not preview changes", h.confirmationService.PreviewChanges)
}

// RegenerateSheet handles POST /api/v1/sheets/:id/regenerate
func (h *Handlers) RegenerateSheet(c *gin.Context) {
	h.runSheet(c, "could not regenerate confirmation sheet", h.confirmationService.RegenerateSheet)
}

// ReconcileSheet handles POST /api/v1/sheets/:id/reconcile
func (h *Handlers) ReconcileSheet(c *gin.Context) {
	h.runSheet(c, "could not reconcile confirmation sheet", h.confirmationService.ReconcileSheet)
}

func (h *Handlers) runSheet(c *gin.Context, failure string, op func(context.Context, int64) (*service.ReconcileReport, error)) {
	id, ok := h.parseID(c, "invalid sheet ID")
	if !ok {
		return
	}

	report, err := op(c.Request.Context(), id)
	if err != nil {
		h.logger.Error(failure, "sheet_id", id, "error", err)
		c.JSON(statusFor(err), Response{
			Success: false,
			Error:   failure,
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    report,
	})
}

// SyncItinerary handles POST /api/v1/quotes/:id/itinerary-sync
func (h *Handlers) SyncItinerary(c *gin.Context) {
	id, ok := h.parseID(c, "invalid quote ID")
	if !ok {
		return
	}

	var req ItinerarySyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid itinerary body", "quote_id", id, "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid itinerary",
		})
		return
	}

	report, err := h.itineraryService.SyncItinerary(c.Request.Context(), id, sanitizeDays(req.Days))
	if err != nil {
		h.logger.Error("could not sync itinerary", "quote_id", id, "error", err)
		c.JSON(statusFor(err), Response{
			Success: false,
			Error:   "could not sync itinerary",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    report,
	})
}

func sanitizeDays(days []entity.ItineraryDay) []entity.ItineraryDay {
	for i := range days {
		d := &days[i]
		d.Breakfast = utils.SanitizeString(d.Breakfast)
		d.Lunch = utils.SanitizeString(d.Lunch)
		d.Dinner = utils.SanitizeString(d.Dinner)
		d.Hotel = utils.SanitizeString(d.Hotel)
	}
	return days
}

func (h *Handlers) parseID(c *gin.Context, message string) (int64, bool) {
	idStr := c.Param("id")
	id, err := utils.ParseID("id", idStr)
	if err != nil {
		h.logger.Error(message, "id", idStr, "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   message,
		})
		return 0, false
	}
	return id, true
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSheetNotFound), errors.Is(err, service.ErrQuoteNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrLockNotObtained):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidItinerary):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
