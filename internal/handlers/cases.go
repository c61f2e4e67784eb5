package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"civicserve-backend/internal/errors"
	"civicserve-backend/internal/models"
	"civicserve-backend/internal/services"
)

type CaseHandler struct {
	caseService *services.CaseLookupService
}

func NewCaseHandler(caseService *services.CaseLookupService) *CaseHandler {
	return &CaseHandler{caseService: caseService}
}

// GetCase handles GET /api/cases/:id.
func (h *CaseHandler) GetCase(c *gin.Context) {
	serviceCase, err := h.caseService.Case(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	if serviceCase == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
			"message": errors.MsgCaseNotFound,
			"code":    errors.ErrCodeCaseNotFound,
		}})
		return
	}
	c.JSON(http.StatusOK, serviceCase)
}

// SearchCases handles GET /api/cases?q=<text>&minLat=&minLng=&maxLat=&maxLng=.
// Text and bounding box are both optional; a partial bounding box is a 400.
func (h *CaseHandler) SearchCases(c *gin.Context) {
	bbox, err := parseBoundingBox(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"message": err.Error(),
			"code":    errors.ErrCodeInvalidRequest,
		}})
		return
	}

	results, err := h.caseService.SearchCases(c.Request.Context(), c.Query("q"), bbox)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": results})
}

func parseBoundingBox(c *gin.Context) (*models.BoundingBox, error) {
	raw := [4]string{c.Query("minLat"), c.Query("minLng"), c.Query("maxLat"), c.Query("maxLng")}
	if raw[0] == "" && raw[1] == "" && raw[2] == "" && raw[3] == "" {
		return nil, nil
	}

	var vals [4]float64
	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.NewValidationError("bounding box requires numeric minLat, minLng, maxLat, and maxLng")
		}
		vals[i] = v
	}
	return &models.BoundingBox{MinLat: vals[0], MinLng: vals[1], MaxLat: vals[2], MaxLng: vals[3]}, nil
}

// CreateCase handles POST /api/cases.
func (h *CaseHandler) CreateCase(c *gin.Context) {
	var args models.CreateCaseArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"message": errors.MsgInvalidRequest,
			"code":    errors.ErrCodeInvalidRequest,
		}})
		return
	}

	created, err := h.caseService.CreateCase(c.Request.Context(), &args)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetServices handles GET /api/services.
func (h *CaseHandler) GetServices(c *gin.Context) {
	services, err := h.caseService.Services(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// GetService handles GET /api/services/:code, returning the service type
// together with its attribute form when one is defined.
func (h *CaseHandler) GetService(c *gin.Context) {
	code := c.Param("code")

	service, err := h.caseService.Service(c.Request.Context(), code)
	if err != nil {
		c.Error(err)
		return
	}
	if service == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
			"message": "service not found",
			"code":    errors.ErrCodeInvalidRequest,
		}})
		return
	}

	response := gin.H{"service": service}
	if service.HasMetadata {
		metadata, err := h.caseService.ServiceMetadata(c.Request.Context(), code)
		if err != nil {
			c.Error(err)
			return
		}
		response["metadata"] = metadata
	}
	c.JSON(http.StatusOK, response)
}
