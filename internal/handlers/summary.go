package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ritualhq/ritual/backend/internal/apierror"
	"github.com/ritualhq/ritual/backend/internal/logger"
	"github.com/ritualhq/ritual/backend/internal/service"
)

type SummaryHandler struct {
	summaryService service.SummaryService
}

// NewSummaryHandler creates a new weekly summary handler
func NewSummaryHandler(summaryService service.SummaryService) *SummaryHandler {
	return &SummaryHandler{
		summaryService: summaryService,
	}
}

// GetWeeklySummary handles GET /api/v1/summary/weekly
func (h *SummaryHandler) GetWeeklySummary(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	summary, err := h.summaryService.GetWeeklySummary(c.Request.Context(), userID)
	if err != nil {
		logger.Ctx(c.Request.Context()).Error("weekly summary failed", logger.Err(err))
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewInternalError(requestID))
		return
	}

	c.JSON(http.StatusOK, summary)
}
