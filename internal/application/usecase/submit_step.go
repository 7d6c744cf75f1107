package usecase

import (
	"context"
	"fmt"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/dto"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/wizard"
)

// SubmitStepUseCase feeds one step of input into a borrower's session.
type SubmitStepUseCase struct {
	registry *wizard.Registry
}

// NewSubmitStepUseCase wires dependencies.
func NewSubmitStepUseCase(registry *wizard.Registry) *SubmitStepUseCase {
	return &SubmitStepUseCase{registry: registry}
}

// Execute submits the input and returns the resulting snapshot. The snapshot
// is returned on rejection too so callers can show the notice.
func (uc *SubmitStepUseCase) Execute(ctx context.Context, req dto.SubmitStepRequest) (dto.ConfigurationResponse, error) {
	m, err := lookup(uc.registry, req.BorrowerID)
	if err != nil {
		return dto.ConfigurationResponse{}, err
	}

	err = m.Submit(ctx, wizard.Input{
		Amount:        req.Amount,
		Months:        req.Months,
		SalaryDay:     req.SalaryDay,
		RepaymentDate: req.RepaymentDate,
	})
	resp := dto.ToConfigurationResponse(m.Snapshot())
	if err != nil {
		return resp, fmt.Errorf("submit step: %w", err)
	}
	return resp, nil
}

func lookup(registry *wizard.Registry, borrowerID string) (*wizard.Machine, error) {
	if borrowerID == "" {
		return nil, ErrBorrowerRequired
	}
	m, ok := registry.Get(borrowerID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return m, nil
}
