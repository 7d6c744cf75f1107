package service

import (
	"errors"
	"fmt"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/valueobject"
)

// ErrScoreOutOfRange is returned for scores outside 0..100.
var ErrScoreOutOfRange = errors.New("risk score out of range")

// Decision is the classification of a composite risk score.
type Decision struct {
	Score     int
	Band      valueobject.RiskBand
	Status    string
	Label     string
	RateClass string
}

// AllowsConfiguration reports whether the borrower may configure a loan.
func (d Decision) AllowsConfiguration() bool {
	return d.Band.AllowsConfiguration()
}

// CreditDecisionEngine maps a risk score onto an approval band.
type CreditDecisionEngine struct{}

// NewCreditDecisionEngine returns a new engine instance.
func NewCreditDecisionEngine() *CreditDecisionEngine {
	return &CreditDecisionEngine{}
}

// Classify returns the decision for score.
//
// Bands (inclusive lower bounds, first match wins):
//
//	score >= 80  -> A, Auto-Approved, Prime + 8%
//	score >= 70  -> B, Approved,      Prime + 10%
//	score >= 50  -> C, Manual Review, Prime + 12%
//	otherwise    -> D, Declined
func (e *CreditDecisionEngine) Classify(score int) (Decision, error) {
	if score < 0 || score > 100 {
		return Decision{}, fmt.Errorf("%w: %d", ErrScoreOutOfRange, score)
	}

	d := Decision{Score: score}
	switch {
	case score >= 80:
		d.Band = valueobject.RiskBandA
		d.Status = "Auto-Approved"
		d.Label = "PRE APPROVED"
		d.RateClass = "Prime + 8%"
	case score >= 70:
		d.Band = valueobject.RiskBandB
		d.Status = "Approved"
		d.Label = "PRE APPROVED"
		d.RateClass = "Prime + 10%"
	case score >= 50:
		d.Band = valueobject.RiskBandC
		d.Status = "Manual Review"
		d.Label = "MANUAL REVIEW"
		d.RateClass = "Prime + 12%"
	default:
		d.Band = valueobject.RiskBandD
		d.Status = "Declined"
		d.Label = "DECLINED"
		d.RateClass = "N/A"
	}
	return d, nil
}
