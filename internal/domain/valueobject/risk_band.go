package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// RiskBand – immutable value object
// ---------------------------------------------------------------------------

// RiskBand is the approval band a composite risk score falls into.
type RiskBand struct {
	value string
}

const (
	riskBandA = "A"
	riskBandB = "B"
	riskBandC = "C"
	riskBandD = "D"
)

var (
	RiskBandA = RiskBand{value: riskBandA}
	RiskBandB = RiskBand{value: riskBandB}
	RiskBandC = RiskBand{value: riskBandC}
	RiskBandD = RiskBand{value: riskBandD}
)

var validRiskBands = map[string]RiskBand{
	riskBandA: RiskBandA,
	riskBandB: RiskBandB,
	riskBandC: RiskBandC,
	riskBandD: RiskBandD,
}

// NewRiskBand creates a RiskBand from a raw string.
func NewRiskBand(s string) (RiskBand, error) {
	v, ok := validRiskBands[s]
	if !ok {
		return RiskBand{}, fmt.Errorf("invalid risk band: %q", s)
	}
	return v, nil
}

// String returns the string representation of the band.
func (b RiskBand) String() string { return b.value }

// IsZero returns true if the band has not been initialised.
func (b RiskBand) IsZero() bool { return b.value == "" }

// Equal returns true when both bands carry the same value.
func (b RiskBand) Equal(other RiskBand) bool {
	return b.value == other.value
}

// AllowsConfiguration reports whether a borrower in this band may proceed
// to loan configuration.
func (b RiskBand) AllowsConfiguration() bool {
	switch b.value {
	case riskBandA, riskBandB, riskBandC:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// CapRationale – immutable value object
// ---------------------------------------------------------------------------

// CapRationale records how a borrowing cap was derived.
type CapRationale struct {
	value string
}

var (
	CapRationaleIncomeDerived = CapRationale{value: "income-derived"}
	CapRationaleDefault       = CapRationale{value: "default"}
)

// String returns the string representation of the rationale.
func (r CapRationale) String() string { return r.value }

// IsIncomeDerived reports whether the cap came from an income signal.
func (r CapRationale) IsIncomeDerived() bool {
	return r == CapRationaleIncomeDerived
}
