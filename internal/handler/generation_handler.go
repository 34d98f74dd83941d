package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/novatix/novatix-backend/internal/domain"
	"github.com/novatix/novatix-backend/internal/dto"
	"github.com/novatix/novatix-backend/internal/service"
	"github.com/novatix/novatix-backend/pkg/middleware"
	"github.com/novatix/novatix-backend/pkg/response"
)

// GenerationHandler handles metered AI generation HTTP requests
type GenerationHandler struct {
	generationService service.GenerationService
	ledgerService     service.LedgerService
}

// NewGenerationHandler creates a new GenerationHandler
func NewGenerationHandler(generationService service.GenerationService, ledgerService service.LedgerService) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		ledgerService:     ledgerService,
	}
}

// callerIdentity extracts the authenticated user and plan from the context
func callerIdentity(c *gin.Context) (string, domain.Plan, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return "", "", false
	}
	planStr, _ := middleware.GetPlan(c)
	plan := domain.Plan(planStr)
	if !plan.IsValid() {
		plan = domain.PlanFree
	}
	return userID, plan, true
}

// Generate handles one metered generation operation
// POST /api/v1/ai/generate
func (h *GenerationHandler) Generate(c *gin.Context) {
	userID, plan, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	result, err := h.generationService.Generate(c.Request.Context(), userID, plan, &req)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// ListOperations handles retrieving the operation catalog
// GET /api/v1/ai/operations
func (h *GenerationHandler) ListOperations(c *gin.Context) {
	_, plan, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	c.JSON(http.StatusOK, response.Success(h.generationService.ListOperations(c.Request.Context(), plan)))
}

// Credits handles retrieving the caller's credit balance and history
// GET /api/v1/ai/credits
func (h *GenerationHandler) Credits(c *gin.Context) {
	userID, plan, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	result, err := h.ledgerService.Balance(c.Request.Context(), userID, plan)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// TopUpRequest adds credits to an account outside the monthly cycle
type TopUpRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
	Amount  int    `json:"amount" binding:"required"`
	Reason  string `json:"reason"`
}

// TopUp handles adding credits to an account. Admin only.
// POST /api/v1/ai/credits/topup
func (h *GenerationHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	account, err := h.ledgerService.AddCredits(c.Request.Context(), req.OwnerID, req.Amount, req.Reason)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.NewCreditBalanceResponse(account)))
}

// ResetRequest restores an account to its plan allowance
type ResetRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
	Plan    string `json:"plan" binding:"required"`
}

// Reset handles the monthly allowance reset for one account. Admin only;
// the monthly boundary is an external trigger, not self-scheduled.
// POST /api/v1/ai/credits/reset
func (h *GenerationHandler) Reset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	plan := domain.Plan(req.Plan)
	if !plan.IsValid() {
		c.JSON(http.StatusBadRequest, response.BadRequest("Unknown plan: "+req.Plan))
		return
	}

	account, err := h.ledgerService.ResetMonthly(c.Request.Context(), req.OwnerID, plan)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.NewCreditBalanceResponse(account)))
}
