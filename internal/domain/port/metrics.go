package port

import "context"

// Metrics records credit engine business counters.
type Metrics interface {
	StepAccepted(ctx context.Context, step string)
	StepRejected(ctx context.Context, step, reason string)
	CapResolved(ctx context.Context, rationale string)
	DecisionMade(ctx context.Context, band string)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) StepAccepted(context.Context, string)         {}
func (NopMetrics) StepRejected(context.Context, string, string) {}
func (NopMetrics) CapResolved(context.Context, string)          {}
func (NopMetrics) DecisionMade(context.Context, string)         {}
