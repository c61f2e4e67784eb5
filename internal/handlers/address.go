package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"civicserve-backend/internal/errors"
	"civicserve-backend/internal/services"
)

type AddressHandler struct {
	resolver *services.AddressResolver
}

func NewAddressHandler(resolver *services.AddressResolver) *AddressHandler {
	return &AddressHandler{resolver: resolver}
}

// SearchAddress handles GET /api/address/search?q=<text>.
func (h *AddressHandler) SearchAddress(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"message": "query parameter 'q' is required",
			"code":    errors.ErrCodeInvalidRequest,
		}})
		return
	}

	results, err := h.resolver.Search(c.Request.Context(), query)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ReverseGeocode handles GET /api/address/reverse?lat=<lat>&lng=<lng>.
func (h *AddressHandler) ReverseGeocode(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"message": "query parameters 'lat' and 'lng' must be numbers",
			"code":    errors.ErrCodeInvalidRequest,
		}})
		return
	}

	result, err := h.resolver.ReverseGeocode(c.Request.Context(), lat, lng)
	if err != nil {
		c.Error(err)
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
			"message": errors.MsgAddressNotFound,
			"code":    errors.ErrCodeAddressNotFound,
		}})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetUnits handles GET /api/buildings/:id/units.
func (h *AddressHandler) GetUnits(c *gin.Context) {
	units, err := h.resolver.LookupUnits(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"units": units})
}
