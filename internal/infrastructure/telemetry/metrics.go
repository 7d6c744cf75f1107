package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/port"
)

const meterName = "github.com/MpumeleloTheAlgoHiver/onboardingmint/credit-engine"

// Metrics implements port.Metrics with OpenTelemetry counters.
type Metrics struct {
	transitions metric.Int64Counter
	rejections  metric.Int64Counter
	caps        metric.Int64Counter
	decisions   metric.Int64Counter
}

var _ port.Metrics = (*Metrics)(nil)

// NewMetrics registers the credit engine counters with provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)

	transitions, err := meter.Int64Counter("wizard_transitions_total",
		metric.WithDescription("Wizard steps accepted, by step."))
	if err != nil {
		return nil, fmt.Errorf("create transitions counter: %w", err)
	}
	rejections, err := meter.Int64Counter("wizard_rejections_total",
		metric.WithDescription("Wizard submissions rejected, by step and reason."))
	if err != nil {
		return nil, fmt.Errorf("create rejections counter: %w", err)
	}
	caps, err := meter.Int64Counter("borrowing_cap_resolutions_total",
		metric.WithDescription("Borrowing caps resolved, by rationale."))
	if err != nil {
		return nil, fmt.Errorf("create caps counter: %w", err)
	}
	decisions, err := meter.Int64Counter("credit_decisions_total",
		metric.WithDescription("Credit decisions made, by risk band."))
	if err != nil {
		return nil, fmt.Errorf("create decisions counter: %w", err)
	}

	return &Metrics{
		transitions: transitions,
		rejections:  rejections,
		caps:        caps,
		decisions:   decisions,
	}, nil
}

func (m *Metrics) StepAccepted(ctx context.Context, step string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
}

func (m *Metrics) StepRejected(ctx context.Context, step, reason string) {
	m.rejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("reason", reason),
	))
}

func (m *Metrics) CapResolved(ctx context.Context, rationale string) {
	m.caps.Add(ctx, 1, metric.WithAttributes(attribute.String("rationale", rationale)))
}

func (m *Metrics) DecisionMade(ctx context.Context, band string) {
	m.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("band", band)))
}
