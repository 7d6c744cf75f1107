package usecase

import (
	"context"
	"fmt"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/dto"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/wizard"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/valueobject"
)

// GoBackUseCase moves a session back to an earlier step.
type GoBackUseCase struct {
	registry *wizard.Registry
}

// NewGoBackUseCase wires dependencies.
func NewGoBackUseCase(registry *wizard.Registry) *GoBackUseCase {
	return &GoBackUseCase{registry: registry}
}

// Execute revisits req.Target.
func (uc *GoBackUseCase) Execute(_ context.Context, req dto.GoBackRequest) (dto.ConfigurationResponse, error) {
	m, err := lookup(uc.registry, req.BorrowerID)
	if err != nil {
		return dto.ConfigurationResponse{}, err
	}

	target, err := valueobject.NewWizardStep(req.Target)
	if err != nil {
		return dto.ConfigurationResponse{}, fmt.Errorf("%w: %v", wizard.ErrInvalidBackTarget, err)
	}
	if err := m.GoBack(target); err != nil {
		return dto.ToConfigurationResponse(m.Snapshot()), err
	}
	return dto.ToConfigurationResponse(m.Snapshot()), nil
}
