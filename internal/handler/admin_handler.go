package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/eventdesk/service-booking/internal/application"
	"github.com/eventdesk/service-booking/internal/response"
)

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service *application.BookingService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes behind the given guards.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, guards ...gin.HandlerFunc) {
	admin := r.Group("/api/admin/bookings")
	admin.Use(guards...)
	{
		admin.GET("", h.ListBookings)
		admin.GET("/meta/dates/all", h.BookedDates)
		admin.GET("/meta/time-slots", h.TimeSlots)
		admin.GET("/meta/stats", h.BookingStats)
		admin.GET("/:id", h.GetBooking)
		admin.PATCH("/:id/status", h.UpdateStatus)
		admin.DELETE("/:id", h.DeleteBooking)
	}
}

// ListBookings handles GET /api/admin/bookings?status=.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	result, err := h.service.ListBookings(c.Request.Context(), application.ListBookingsQuery{
		Status: c.Query("status"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /api/admin/bookings/:id.
func (h *AdminBookingHandler) GetBooking(c *gin.Context) {
	getBooking(c, h.service)
}

// UpdateStatus handles PATCH /api/admin/bookings/:id/status.
func (h *AdminBookingHandler) UpdateStatus(c *gin.Context) {
	updateStatus(c, h.service)
}

// DeleteBooking handles DELETE /api/admin/bookings/:id.
func (h *AdminBookingHandler) DeleteBooking(c *gin.Context) {
	deleteBooking(c, h.service)
}

// BookedDates handles GET /api/admin/bookings/meta/dates/all.
func (h *AdminBookingHandler) BookedDates(c *gin.Context) {
	bookedDates(c, h.service)
}

// TimeSlots handles GET /api/admin/bookings/meta/time-slots?date=.
func (h *AdminBookingHandler) TimeSlots(c *gin.Context) {
	timeSlots(c, h.service)
}

// BookingStats handles GET /api/admin/bookings/meta/stats.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
