package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/dto"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/wizard"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/port"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/service"
)

// StartConfigurationUseCase gates a borrower on their credit decision and
// opens (or resumes) their wizard session.
type StartConfigurationUseCase struct {
	registry *wizard.Registry
	provider port.AssessmentProvider
	engine   *service.CreditDecisionEngine
	logger   *slog.Logger
}

// NewStartConfigurationUseCase wires dependencies.
func NewStartConfigurationUseCase(
	registry *wizard.Registry,
	provider port.AssessmentProvider,
	engine *service.CreditDecisionEngine,
	logger *slog.Logger,
) *StartConfigurationUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &StartConfigurationUseCase{
		registry: registry,
		provider: provider,
		engine:   engine,
		logger:   logger,
	}
}

// Execute returns the session's current snapshot.
func (uc *StartConfigurationUseCase) Execute(ctx context.Context, req dto.StartConfigurationRequest) (dto.ConfigurationResponse, error) {
	if req.BorrowerID == "" {
		return dto.ConfigurationResponse{}, ErrBorrowerRequired
	}

	// 1. Gate on the credit decision.
	assessment, err := uc.provider.Assess(ctx, req.BorrowerID)
	if err != nil {
		return dto.ConfigurationResponse{}, fmt.Errorf("assess borrower: %w", err)
	}
	decision, err := uc.engine.Classify(assessment.Score)
	if err != nil {
		return dto.ConfigurationResponse{}, fmt.Errorf("classify score: %w", err)
	}
	if !decision.AllowsConfiguration() {
		uc.logger.InfoContext(ctx, "loan configuration declined",
			"borrower_id", req.BorrowerID,
			"band", decision.Band.String(),
		)
		return dto.ConfigurationResponse{}, fmt.Errorf("%w: band %s", ErrConfigurationNotPermitted, decision.Band)
	}

	// 2. Open or resume the session.
	m, err := uc.registry.Start(ctx, req.BorrowerID)
	if err != nil {
		return dto.ConfigurationResponse{}, fmt.Errorf("start session: %w", err)
	}

	return dto.ToConfigurationResponse(m.Snapshot()), nil
}
