package service

import (
	"context"
	"time"

	"github.com/novatix/novatix-backend/internal/domain"
	"github.com/novatix/novatix-backend/internal/dto"
	"github.com/novatix/novatix-backend/internal/gateway"
	"github.com/novatix/novatix-backend/pkg/logger"
	"github.com/novatix/novatix-backend/pkg/telemetry"
	"go.uber.org/zap"
)

// systemContexts sets the tone per operation. The event name and caller
// prompt carry the specifics.
var systemContexts = map[string]string{
	OperationEventDescription: "You write compelling, factual event descriptions for an event ticketing platform. Keep it under 300 words.",
	OperationSocialPost:       "You write short, energetic social media posts promoting events. Include a call to action.",
	OperationSEOMetadata:      "You produce SEO titles and meta descriptions for event pages. Title under 60 characters, description under 160.",
	OperationEmailCampaign:    "You write marketing email copy for event announcements: subject line plus body.",
	OperationSponsorshipPitch: "You write persuasive sponsorship pitch letters for event organizers seeking corporate sponsors.",
}

// maxTokensPerOperation bounds provider spend per call
var maxTokensPerOperation = map[string]int{
	OperationEventDescription: 600,
	OperationSocialPost:       300,
	OperationSEOMetadata:      300,
	OperationEmailCampaign:    900,
	OperationSponsorshipPitch: 1200,
}

// GenerationService gates metered AI operations behind the operation
// catalog and the credit ledger
type GenerationService interface {
	// Generate performs one metered generation operation. Credits are
	// spent only when the provider returns content.
	Generate(ctx context.Context, ownerID string, plan domain.Plan, req *dto.GenerateRequest) (*dto.GenerateResponse, error)
	// ListOperations returns the catalog resolved against the caller's plan
	ListOperations(ctx context.Context, plan domain.Plan) *dto.OperationListResponse
}

// generationService implements GenerationService
type generationService struct {
	ledger         LedgerService
	provider       gateway.GenerationGateway
	log            *logger.Logger
	requestTimeout time.Duration
	generations    *telemetry.Counter
}

// NewGenerationService creates a new GenerationService
func NewGenerationService(
	ledger LedgerService,
	provider gateway.GenerationGateway,
	log *logger.Logger,
	requestTimeout time.Duration,
) GenerationService {
	generations, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ai_generations_total",
		Description: "Completed AI generation operations",
		Unit:        "1",
	})
	if err != nil {
		log.Warn("failed to create generation counter", zap.Error(err))
	}
	return &generationService{
		ledger:         ledger,
		provider:       provider,
		log:            log,
		requestTimeout: requestTimeout,
		generations:    generations,
	}
}

// Generate performs one metered generation operation.
//
// Ordering is the load-bearing contract: reserve first (no provider call
// without credits), commit only after the provider succeeds, release on any
// provider failure. A crash between reserve and commit leaves the
// reservation to the expiry reclaim worker.
func (s *generationService) Generate(ctx context.Context, ownerID string, plan domain.Plan, req *dto.GenerateRequest) (*dto.GenerateResponse, error) {
	if valid, errMsg := req.Validate(); !valid {
		return nil, &domain.ValidationError{Message: errMsg}
	}

	ctx, span := telemetry.StartSpan(ctx, "generation.generate")
	defer span.End()
	telemetry.SetSpanAttributes(ctx,
		telemetry.OperationAttr(req.Operation),
		telemetry.PlanAttr(string(plan)),
	)

	desc := LookupOperation(req.Operation)
	if !plan.AtLeast(desc.MinimumPlan) {
		return nil, &domain.PlanInsufficientError{Operation: req.Operation, MinimumPlan: desc.MinimumPlan}
	}

	reservation, err := s.ledger.Reserve(ctx, ownerID, plan, req.Operation, desc.CreditCost)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	result, err := s.provider.Generate(genCtx, &gateway.GenerationRequest{
		Prompt:        s.buildPrompt(req),
		SystemContext: systemContexts[req.Operation],
		MaxTokens:     s.maxTokens(req.Operation),
		Temperature:   0.7,
	})
	if err != nil {
		if releaseErr := s.ledger.Release(ctx, reservation.ID); releaseErr != nil {
			// The expiry worker reclaims it if the release itself failed
			s.log.ErrorContext(ctx, "failed to release reservation after provider failure",
				zap.String("reservation_id", reservation.ID),
				zap.Error(releaseErr),
			)
		}
		telemetry.SetSpanError(ctx, err)
		s.log.WarnContext(ctx, "generation failed",
			zap.String("operation", req.Operation),
			zap.Error(err),
		)
		return nil, &domain.GenerationFailedError{Err: err}
	}

	account, err := s.ledger.Commit(ctx, reservation, ownerID)
	if err != nil {
		return nil, err
	}

	if s.generations != nil {
		s.generations.Inc(ctx,
			telemetry.OperationAttr(req.Operation),
			telemetry.PlanAttr(string(plan)),
		)
	}
	s.log.InfoContext(ctx, "generation completed",
		zap.String("operation", req.Operation),
		zap.Int("credits_charged", desc.CreditCost),
		zap.Int("tokens_used", result.TokensUsed),
	)

	return &dto.GenerateResponse{
		Operation:        req.Operation,
		Content:          result.Text,
		CreditsCharged:   desc.CreditCost,
		CreditsRemaining: account.Remaining,
	}, nil
}

// ListOperations returns the catalog resolved against the caller's plan
func (s *generationService) ListOperations(ctx context.Context, plan domain.Plan) *dto.OperationListResponse {
	return ListOperations(plan)
}

func (s *generationService) buildPrompt(req *dto.GenerateRequest) string {
	prompt := req.Prompt
	for key, value := range req.Params {
		prompt += "\n" + key + ": " + value
	}
	return prompt
}

func (s *generationService) maxTokens(operation string) int {
	if tokens, ok := maxTokensPerOperation[operation]; ok {
		return tokens
	}
	return 600
}
