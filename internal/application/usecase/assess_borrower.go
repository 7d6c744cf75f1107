package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/dto"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/event"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/port"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/service"
)

// AssessBorrowerUseCase classifies a borrower's composite risk score.
type AssessBorrowerUseCase struct {
	provider  port.AssessmentProvider
	engine    *service.CreditDecisionEngine
	publisher port.EventPublisher
	metrics   port.Metrics
	clock     func() time.Time
	logger    *slog.Logger
}

// NewAssessBorrowerUseCase wires dependencies. Nil publisher, metrics,
// clock and logger fall back to defaults.
func NewAssessBorrowerUseCase(
	provider port.AssessmentProvider,
	engine *service.CreditDecisionEngine,
	publisher port.EventPublisher,
	metrics port.Metrics,
	clock func() time.Time,
	logger *slog.Logger,
) *AssessBorrowerUseCase {
	if publisher == nil {
		publisher = port.NopPublisher{}
	}
	if clock == nil {
		clock = time.Now
	}
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AssessBorrowerUseCase{
		provider:  provider,
		engine:    engine,
		publisher: publisher,
		metrics:   metrics,
		clock:     clock,
		logger:    logger,
	}
}

// Execute fetches the assessment, classifies it and announces the decision.
func (uc *AssessBorrowerUseCase) Execute(ctx context.Context, req dto.AssessBorrowerRequest) (dto.AssessmentResponse, error) {
	if req.BorrowerID == "" {
		return dto.AssessmentResponse{}, ErrBorrowerRequired
	}

	// 1. Obtain the composite assessment.
	assessment, err := uc.provider.Assess(ctx, req.BorrowerID)
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("assess borrower: %w", err)
	}

	// 2. Classify.
	decision, err := uc.engine.Classify(assessment.Score)
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("classify score: %w", err)
	}
	uc.metrics.DecisionMade(ctx, decision.Band.String())

	// 3. Publish the decision (best effort).
	evt := event.NewCreditDecisionMade(req.BorrowerID, decision.Score,
		decision.Band.String(), decision.Status, decision.RateClass, uc.clock())
	if err := uc.publisher.Publish(ctx, evt); err != nil {
		uc.logger.WarnContext(ctx, "publish credit decision failed",
			"borrower_id", req.BorrowerID,
			"error", err,
		)
	}

	return dto.ToAssessmentResponse(assessment, decision), nil
}
