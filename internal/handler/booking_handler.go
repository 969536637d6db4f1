package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/staybook/service-stays/internal/application"
	"github.com/staybook/service-stays/internal/auth"
	"github.com/staybook/service-stays/internal/response"
)

const dateLayout = "2006-01-02"

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := auth.Middleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", auth.RequireRole(auth.RoleGuest), h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.DELETE("/:id", h.CancelBooking)
	}

	listings := r.Group("/api/v1/listings")
	listings.Use(authMW)
	{
		listings.GET("/:id/bookings", auth.RequireRole(auth.RoleHost), h.ListListingBookings)
	}
}

type createBookingBody struct {
	ListingID string `json:"listing_id" binding:"required"`
	CheckIn   string `json:"check_in" binding:"required"`
	CheckOut  string `json:"check_out" binding:"required"`
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body createBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	listingID, err := uuid.Parse(body.ListingID)
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	checkIn, err := time.Parse(dateLayout, body.CheckIn)
	if err != nil {
		response.BadRequest(c, "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse(dateLayout, body.CheckOut)
	if err != nil {
		response.BadRequest(c, "check_out must be YYYY-MM-DD")
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, application.CreateBookingRequest{
		ListingID: listingID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. Returns the caller's bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetGuestBookings(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}

// CancelBooking handles DELETE /api/v1/bookings/:id.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.CancelBooking(c.Request.Context(), userID, bookingID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListListingBookings handles GET /api/v1/listings/:id/bookings. Only the
// listing's host may see its bookings.
func (h *BookingHandler) ListListingBookings(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing ID")
		return
	}

	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetListingBookings(c.Request.Context(), userID, listingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}
