package handler

import (
	"strconv"

	"github.com/eventdesk/service-booking/internal/application"
	"github.com/eventdesk/service-booking/internal/response"
	"github.com/gin-gonic/gin"
)

// BookingHandler handles the public booking API used by the website.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all public booking routes on the given router
// group. createMW runs in front of booking creation only.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, createMW ...gin.HandlerFunc) {
	bookings := r.Group("/api/bookings")
	{
		bookings.POST("", append(append([]gin.HandlerFunc{}, createMW...), h.CreateBooking)...)
		bookings.GET("", h.ListBookings)
		bookings.GET("/meta/dates", h.BookedDates)
		bookings.GET("/meta/time-slots", h.TimeSlots)
		bookings.GET("/upcoming", h.UpcomingBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/status", h.UpdateStatus)
		bookings.DELETE("/:id", h.DeleteBooking)
	}
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || fields == nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), fields)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/bookings?email=&date=&status=.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	result, err := h.service.ListBookings(c.Request.Context(), application.ListBookingsQuery{
		Email:  c.Query("email"),
		Date:   c.Query("date"),
		Status: c.Query("status"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /api/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	getBooking(c, h.service)
}

// BookedDates handles GET /api/bookings/meta/dates.
func (h *BookingHandler) BookedDates(c *gin.Context) {
	bookedDates(c, h.service)
}

// TimeSlots handles GET /api/bookings/meta/time-slots?date=.
func (h *BookingHandler) TimeSlots(c *gin.Context) {
	timeSlots(c, h.service)
}

// UpcomingBookings handles GET /api/bookings/upcoming?days=.
func (h *BookingHandler) UpcomingBookings(c *gin.Context) {
	result, err := h.service.UpcomingBookings(c.Request.Context(), parseDays(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateStatus handles PATCH /api/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	updateStatus(c, h.service)
}

// DeleteBooking handles DELETE /api/bookings/:id.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	deleteBooking(c, h.service)
}

// --- Shared by the public and admin surfaces ---

type statusRequest struct {
	Status string `json:"status"`
}

func getBooking(c *gin.Context, service *application.BookingService) {
	result, err := service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func bookedDates(c *gin.Context, service *application.BookingService) {
	result, err := service.BookedDates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func timeSlots(c *gin.Context, service *application.BookingService) {
	result, err := service.TimeSlots(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func updateStatus(c *gin.Context, service *application.BookingService) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Status updated", result)
}

func deleteBooking(c *gin.Context, service *application.BookingService) {
	if err := service.DeleteBooking(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Booking deleted", nil)
}

// parseDays reads the look-ahead window, falling back to the default when
// the parameter is absent or not a number.
func parseDays(c *gin.Context) int {
	days, err := strconv.Atoi(c.Query("days"))
	if err != nil {
		return application.DefaultUpcomingDays
	}
	return days
}
