package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/staybook/service-stays/internal/application"
	"github.com/staybook/service-stays/internal/auth"
	"github.com/staybook/service-stays/internal/response"
)

// maxPhotoSize caps a single uploaded listing photo.
const maxPhotoSize = 10 << 20

// ListingHandler handles HTTP requests for listing management and
// availability search.
type ListingHandler struct {
	service *application.ListingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(service *application.ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// RegisterRoutes registers listing and search routes on the given router
// group. Search is public; listing management requires the host role.
func (h *ListingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := auth.Middleware(jwtManager)

	listings := r.Group("/api/v1/listings")
	listings.Use(authMW, auth.RequireRole(auth.RoleHost))
	{
		listings.POST("", h.CreateListing)
		listings.GET("", h.ListListings)
		listings.DELETE("/:id", h.DeleteListing)
	}

	r.GET("/api/v1/search", h.Search)
}

// CreateListing handles POST /api/v1/listings. Accepts a multipart form
// with listing fields plus zero or more "photos" file parts.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "expected multipart form")
		return
	}

	capacity, err := strconv.Atoi(c.PostForm("capacity"))
	if err != nil || capacity < 1 {
		response.BadRequest(c, "capacity must be a positive integer")
		return
	}

	req := application.CreateListingRequest{
		Name:        c.PostForm("name"),
		Address:     c.PostForm("address"),
		Description: c.PostForm("description"),
		Capacity:    capacity,
	}
	if req.Name == "" || req.Address == "" {
		response.BadRequest(c, "name and address are required")
		return
	}

	for _, fh := range form.File["photos"] {
		if fh.Size > maxPhotoSize {
			response.BadRequest(c, "photo too large")
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, "unreadable photo upload")
			return
		}
		defer f.Close()
		req.Photos = append(req.Photos, application.PhotoUpload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Reader:      f,
		})
	}

	result, err := h.service.CreateListing(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListListings handles GET /api/v1/listings. Returns the caller's listings.
func (h *ListingHandler) ListListings(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetHostListings(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteListing handles DELETE /api/v1/listings/:id.
func (h *ListingHandler) DeleteListing(c *gin.Context) {
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

	if err := h.service.DeleteListing(c.Request.Context(), userID, listingID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Search handles GET /api/v1/search. Query parameters: lat, lon, radius
// (meters), check_in, check_out (YYYY-MM-DD) and optional capacity.
func (h *ListingHandler) Search(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		response.BadRequest(c, "lat must be a number")
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		response.BadRequest(c, "lon must be a number")
		return
	}
	radius, err := strconv.ParseFloat(c.Query("radius"), 64)
	if err != nil {
		response.BadRequest(c, "radius must be a number")
		return
	}

	checkIn, err := time.Parse(dateLayout, c.Query("check_in"))
	if err != nil {
		response.BadRequest(c, "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse(dateLayout, c.Query("check_out"))
	if err != nil {
		response.BadRequest(c, "check_out must be YYYY-MM-DD")
		return
	}

	capacity := 1
	if raw := c.Query("capacity"); raw != "" {
		capacity, err = strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "capacity must be an integer")
			return
		}
	}

	result, err := h.service.SearchAvailability(c.Request.Context(), application.SearchRequest{
		Lat:          lat,
		Lon:          lon,
		RadiusMeters: radius,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		MinCapacity:  capacity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}
