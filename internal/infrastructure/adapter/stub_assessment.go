package adapter

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/port"
)

// categoryTemplate describes one weighted display category of the stub
// assessment and the metric names shown under it.
type categoryTemplate struct {
	label   string
	weight  int
	metrics [3]string
}

var categoryTemplates = [...]categoryTemplate{
	{label: "Credit Profile", weight: 40, metrics: [3]string{"Bureau Score", "Utilization", "Adverse"}},
	{label: "Affordability", weight: 30, metrics: [3]string{"Stability", "DTI Ratio", "Cashflows"}},
	{label: "Stability", weight: 15, metrics: [3]string{"Tenure", "Employer", "Contract"}},
	{label: "Behavioral", weight: 15, metrics: [3]string{"AlgoHive", "Repayment", "App Behavior"}},
}

// StubAssessmentProvider is a development/test adapter that returns a
// deterministic assessment derived from the borrower ID.
// It implements port.AssessmentProvider.
type StubAssessmentProvider struct {
	now func() time.Time
}

var _ port.AssessmentProvider = (*StubAssessmentProvider)(nil)

// NewStubAssessmentProvider creates a new stub adapter.
func NewStubAssessmentProvider() *StubAssessmentProvider {
	return &StubAssessmentProvider{now: time.Now}
}

// Assess hashes the borrower ID into category sub-scores in [0, 100]. The
// composite score is their weighted mean, so the same borrower always lands
// in the same band.
func (p *StubAssessmentProvider) Assess(ctx context.Context, borrowerID string) (model.RiskAssessment, error) {
	if borrowerID == "" {
		return model.RiskAssessment{}, fmt.Errorf("borrower ID is required")
	}
	if err := ctx.Err(); err != nil {
		return model.RiskAssessment{}, err
	}

	h := sha256.Sum256([]byte(borrowerID))
	cats := make([]model.RiskCategory, 0, len(categoryTemplates))
	weighted := 0
	for i, tmpl := range categoryTemplates {
		base := h[i*4 : i*4+4]
		value := int(base[0]) % 101

		metrics := make([]model.RiskMetric, 0, len(tmpl.metrics))
		for j, name := range tmpl.metrics {
			metrics = append(metrics, model.RiskMetric{
				Name:  name,
				Value: fmt.Sprintf("%d/100", int(base[j+1])%101),
			})
		}

		cats = append(cats, model.RiskCategory{
			Label:   tmpl.label,
			Value:   value,
			Weight:  tmpl.weight,
			Metrics: metrics,
		})
		weighted += value * tmpl.weight
	}

	return model.RiskAssessment{
		BorrowerID: borrowerID,
		Score:      (weighted + 50) / 100,
		Categories: cats,
		AssessedAt: p.now().UTC(),
	}, nil
}
