package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/services"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// TaskAnalytics returns the rollup over the caller's company
func (h *AnalyticsHandler) TaskAnalytics(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	report, err := h.analyticsService.CompanyAnalytics(c.Request.Context(), principal)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Stats returns counts over the tasks visible to the caller
func (h *AnalyticsHandler) Stats(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	stats, err := h.analyticsService.Stats(c.Request.Context(), principal)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
