package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskora/models"
	"taskora/services/booking"
)

// BookingHandler exposes the engine to HTTP callers. Thin plumbing: request
// shaping and status-code mapping only.
type BookingHandler struct {
	Engine booking.BookingEngine
	Logger *zap.Logger
}

func NewBookingHandler(engine booking.BookingEngine, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Engine: engine, Logger: logger}
}

// respondError maps engine error codes to HTTP statuses. Conflicts get their
// own status so clients know to trigger the refund path.
func (h *BookingHandler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch booking.ErrorCode(err) {
	case booking.CodeValidation:
		status = http.StatusBadRequest
	case booking.CodeNotFound:
		status = http.StatusNotFound
	case booking.CodeConflict:
		status = http.StatusConflict
	case booking.CodeState:
		status = http.StatusUnprocessableEntity
	case booking.CodeVerification:
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		h.Logger.Error("unexpected engine error", zap.Error(err))
		c.JSON(status, gin.H{"code": "internalError", "message": "something went wrong"})
		return
	}
	c.JSON(status, gin.H{"code": booking.ErrorCode(err), "message": err.Error()})
}

// GetAvailability handles GET /api/providers/:id/availability?date=YYYY-MM-DD.
func (h *BookingHandler) GetAvailability(c *gin.Context) {
	day, err := h.Engine.ResolveAvailability(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// UpdateAvailability handles PUT /api/providers/:id/availability.
func (h *BookingHandler) UpdateAvailability(c *gin.Context) {
	var av models.Availability
	if err := c.ShouldBindJSON(&av); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validationError", "message": err.Error()})
		return
	}
	if err := h.Engine.UpdateAvailability(c.Request.Context(), c.Param("id"), av); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// GenerateSlots handles POST /api/slots.
func (h *BookingHandler) GenerateSlots(c *gin.Context) {
	var q models.SlotQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validationError", "message": err.Error()})
		return
	}
	slots, err := h.Engine.GenerateSlots(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": slots})
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validationError", "message": err.Error()})
		return
	}
	id, err := h.Engine.CreateBooking(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bookingId": id})
}

// Transition handles POST /api/bookings/:id/transition.
func (h *BookingHandler) Transition(c *gin.Context) {
	var req booking.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validationError", "message": err.Error()})
		return
	}
	req.BookingID = c.Param("id")
	result, err := h.Engine.Transition(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SubmitReview handles POST /api/bookings/:id/review.
func (h *BookingHandler) SubmitReview(c *gin.Context) {
	var body struct {
		Rating  float64 `json:"rating" binding:"required"`
		Comment string  `json:"comment"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validationError", "message": err.Error()})
		return
	}
	if err := h.Engine.SubmitReview(c.Request.Context(), c.Param("id"), body.Rating, body.Comment); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reviewed"})
}

// Settle handles GET /api/settlement?amount=&categoryId=&providerId=.
func (h *BookingHandler) Settle(c *gin.Context) {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validationError", "message": "amount must be a number"})
		return
	}
	s, err := h.Engine.Settle(c.Request.Context(), amount, c.Query("categoryId"), c.Query("providerId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
