package usecase

import (
	"context"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/dto"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/wizard"
)

// GetConfigurationUseCase returns a session's current snapshot.
type GetConfigurationUseCase struct {
	registry *wizard.Registry
}

// NewGetConfigurationUseCase wires dependencies.
func NewGetConfigurationUseCase(registry *wizard.Registry) *GetConfigurationUseCase {
	return &GetConfigurationUseCase{registry: registry}
}

// Execute looks up the borrower's session.
func (uc *GetConfigurationUseCase) Execute(_ context.Context, req dto.GetConfigurationRequest) (dto.ConfigurationResponse, error) {
	m, err := lookup(uc.registry, req.BorrowerID)
	if err != nil {
		return dto.ConfigurationResponse{}, err
	}
	return dto.ToConfigurationResponse(m.Snapshot()), nil
}
