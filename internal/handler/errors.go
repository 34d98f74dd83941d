package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/novatix/novatix-backend/internal/domain"
	"github.com/novatix/novatix-backend/pkg/logger"
	"github.com/novatix/novatix-backend/pkg/response"
	"go.uber.org/zap"
)

// writeDomainError maps a service error onto the response envelope. Every
// expected business rejection carries structured detail; anything
// unrecognized surfaces as a generic internal error without leaking state.
func writeDomainError(c *gin.Context, err error) {
	var (
		notFound     *domain.NotFoundError
		validation   *domain.ValidationError
		authz        *domain.AuthorizationError
		state        *domain.StateConflictError
		capErr       *domain.CapExceededError
		duplicate    *domain.DuplicateTargetError
		insufficient *domain.InsufficientCreditsError
		plan         *domain.PlanInsufficientError
		generation   *domain.GenerationFailedError
	)

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, response.NotFound(err.Error()))
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeValidationFailed, err.Error()))
	case errors.As(err, &authz):
		c.JSON(http.StatusForbidden, response.Forbidden(err.Error()))
	case errors.As(err, &state):
		c.JSON(http.StatusConflict, response.StateConflict(err.Error()))
	case errors.As(err, &capErr):
		c.JSON(http.StatusUnprocessableEntity, response.ErrorWithDetails(
			response.ErrCodeCapExceeded, err.Error(),
			map[string]string{
				"attempted": strconv.Itoa(capErr.Attempted),
				"allowed":   strconv.Itoa(capErr.Allowed),
			},
		))
	case errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, response.ErrorWithDetails(
			response.ErrCodeDuplicateEntry, err.Error(),
			map[string]string{"organization_id": duplicate.OrganizationID},
		))
	case errors.As(err, &insufficient):
		c.JSON(http.StatusPaymentRequired, response.ErrorWithDetails(
			response.ErrCodeInsufficientCredits, err.Error(),
			map[string]string{
				"required":  strconv.Itoa(insufficient.Required),
				"available": strconv.Itoa(insufficient.Available),
			},
		))
	case errors.As(err, &plan):
		c.JSON(http.StatusForbidden, response.ErrorWithDetails(
			response.ErrCodePlanRequired, err.Error(),
			map[string]string{
				"operation":    plan.Operation,
				"minimum_plan": string(plan.MinimumPlan),
			},
		))
	case errors.As(err, &generation):
		c.JSON(http.StatusBadGateway, response.GenerationFailed(err.Error()))
	case errors.Is(err, domain.ErrVersionConflict):
		c.JSON(http.StatusConflict, response.StateConflict("The resource was modified concurrently, please retry"))
	default:
		// Unrecognized errors carry infrastructure detail (SQL, DSNs) that
		// must not reach the client; log it and answer with a fixed message
		logger.Get().ErrorContext(c.Request.Context(), "unhandled error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, response.InternalError("An unexpected error occurred"))
	}
}
