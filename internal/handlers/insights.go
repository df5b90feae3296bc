package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ritualhq/ritual/backend/internal/apierror"
	"github.com/ritualhq/ritual/backend/internal/logger"
	"github.com/ritualhq/ritual/backend/internal/service"
)

type InsightsHandler struct {
	insightsService service.InsightsService
	streakService   service.StreakService
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(insightsService service.InsightsService, streakService service.StreakService) *InsightsHandler {
	return &InsightsHandler{
		insightsService: insightsService,
		streakService:   streakService,
	}
}

// GetMonthlyInsights handles GET /api/v1/insights/monthly
func (h *InsightsHandler) GetMonthlyInsights(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	insights, err := h.insightsService.GetMonthlyInsights(c.Request.Context(), userID)
	if err != nil {
		logger.Ctx(c.Request.Context()).Error("monthly insights failed", logger.Err(err))
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewInternalError(requestID))
		return
	}

	c.JSON(http.StatusOK, insights)
}

// GetStreaks handles GET /api/v1/insights/streaks
func (h *InsightsHandler) GetStreaks(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	state, err := h.streakService.Compute(c.Request.Context(), userID)
	if err != nil {
		logger.Ctx(c.Request.Context()).Error("streak computation failed", logger.Err(err))
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewInternalError(requestID))
		return
	}

	c.JSON(http.StatusOK, state)
}
