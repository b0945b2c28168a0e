package handler

import (
	"net/http"

	"deliveryops-backend/internal/domains/location/service"
	"deliveryops-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// Handler exposes location reference maintenance over HTTP.
type Handler struct {
	refs service.ReferenceServiceInterface
}

// NewHandler creates the location handler.
func NewHandler(refs service.ReferenceServiceInterface) *Handler {
	return &Handler{refs: refs}
}

// Refresh handles POST /locations/refresh: drops the cached governorate
// and city lists and refetches them, for when the backend's reference data
// changed inside the cache TTL.
func (h *Handler) Refresh(c *gin.Context) {
	if err := h.refs.Invalidate(c.Request.Context()); err != nil {
		response.ErrorResponse(c, http.StatusBadGateway, "cache_error", err.Error())
		return
	}

	governorates, cities, err := h.refs.ReferenceData(c.Request.Context())
	if err != nil {
		response.ErrorResponse(c, http.StatusBadGateway, "reference_fetch_failed", err.Error())
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"governorates": len(governorates),
		"cities":       len(cities),
	})
}
