package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/staybook/service-stays/internal/application"
	"github.com/staybook/service-stays/internal/auth"
	"github.com/staybook/service-stays/internal/response"
)

// PlaceHandler handles HTTP requests for curated hot places.
type PlaceHandler struct {
	service *application.PlaceService
}

// NewPlaceHandler creates a new PlaceHandler.
func NewPlaceHandler(service *application.PlaceService) *PlaceHandler {
	return &PlaceHandler{service: service}
}

// RegisterRoutes registers place routes on the given router group.
// Listing is public like search; creation requires authentication.
func (h *PlaceHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	places := r.Group("/api/v1/places")
	{
		places.GET("", h.ListByDistrict)
		places.POST("", auth.Middleware(jwtManager), h.CreatePlace)
	}
}

type createPlaceBody struct {
	Name         string `json:"name" binding:"required"`
	Address      string `json:"address" binding:"required"`
	DistrictCode int64  `json:"district_code" binding:"required"`
}

// CreatePlace handles POST /api/v1/places.
func (h *PlaceHandler) CreatePlace(c *gin.Context) {
	var body createPlaceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreatePlace(c.Request.Context(), application.CreatePlaceRequest{
		Name:         body.Name,
		Address:      body.Address,
		DistrictCode: body.DistrictCode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListByDistrict handles GET /api/v1/places?district=<code>.
func (h *PlaceHandler) ListByDistrict(c *gin.Context) {
	districtCode, err := strconv.ParseInt(c.Query("district"), 10, 64)
	if err != nil {
		response.BadRequest(c, "district must be an integer code")
		return
	}

	result, err := h.service.GetPlacesByDistrict(c.Request.Context(), districtCode)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}
