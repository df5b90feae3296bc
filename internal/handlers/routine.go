package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ritualhq/ritual/backend/internal/apierror"
	"github.com/ritualhq/ritual/backend/internal/logger"
	"github.com/ritualhq/ritual/backend/internal/models"
	"github.com/ritualhq/ritual/backend/internal/service"
)

type RoutineHandler struct {
	routineService service.RoutineService
}

// NewRoutineHandler creates a new routine event handler
func NewRoutineHandler(routineService service.RoutineService) *RoutineHandler {
	return &RoutineHandler{
		routineService: routineService,
	}
}

func authedUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewUnauthorizedError(requestID))
		return "", false
	}
	return userID.(string), true
}

func validDate(date string) bool {
	_, err := time.Parse(models.DateLayout, date)
	return err == nil
}

func writeServiceError(c *gin.Context, err error) {
	requestID := apierror.GetRequestID(c)
	switch {
	case errors.Is(err, service.ErrUnknownStep):
		apierror.WriteProblem(c, apierror.NewNotFoundError(requestID, "step", c.Param("stepID")))
	case errors.Is(err, service.ErrInvalidInput):
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid request"))
	default:
		logger.Ctx(c.Request.Context()).Error("routine operation failed", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewInternalError(requestID))
	}
}

// CompleteStep handles POST /api/v1/routine/steps/:stepID/complete
func (h *RoutineHandler) CompleteStep(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	var req models.CompleteStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewValidationError(requestID, []apierror.FieldError{
			{Field: "date", Message: "is required", Code: "required"},
		}))
		return
	}
	if !validDate(req.Date) {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewInvalidDateError(requestID, "date", req.Date))
		return
	}

	record, err := h.routineService.CompleteStep(c.Request.Context(), userID, c.Param("stepID"), req.Date)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// UncompleteStep handles POST /api/v1/routine/steps/:stepID/uncomplete
func (h *RoutineHandler) UncompleteStep(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	var req models.CompleteStepRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validDate(req.Date) {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewInvalidDateError(requestID, "date", req.Date))
		return
	}

	record, err := h.routineService.UncompleteStep(c.Request.Context(), userID, c.Param("stepID"), req.Date)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// CompleteSession handles POST /api/v1/routine/sessions/:section/complete
func (h *RoutineHandler) CompleteSession(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	section := models.Section(c.Param("section"))
	switch section {
	case models.SectionMorning, models.SectionEvening, models.SectionExercises:
	default:
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID,
			"unknown section "+c.Param("section"), "Section must be morning, evening, or exercises"))
		return
	}

	var req models.CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validDate(req.Date) {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewInvalidDateError(requestID, "date", req.Date))
		return
	}

	record, err := h.routineService.CompleteSession(c.Request.Context(), userID, section, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// RecordSkip handles POST /api/v1/routine/skips
func (h *RoutineHandler) RecordSkip(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	var req models.RecordSkipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid skip event"))
		return
	}

	recorded, err := h.routineService.RecordSkip(c.Request.Context(), userID, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	// recorded=false means an already-completed step; the request is
	// acknowledged either way so client retries stay simple
	c.JSON(http.StatusAccepted, gin.H{"recorded": recorded})
}
