package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/event"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/port"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/service"
)

// DefaultIncomeFetchTimeout bounds the income signal lookup.
const DefaultIncomeFetchTimeout = 3 * time.Second

// ResolveCapUseCase looks up a borrower's latest income snapshot and derives
// their borrowing cap. It never fails: any lookup problem yields the default.
type ResolveCapUseCase struct {
	income    port.IncomeSignalSource
	resolver  *service.BorrowingCapResolver
	publisher port.EventPublisher
	metrics   port.Metrics
	timeout   time.Duration
	clock     func() time.Time
	logger    *slog.Logger
}

// NewResolveCapUseCase wires dependencies. A non-positive timeout uses
// DefaultIncomeFetchTimeout. A nil publisher, metrics, clock or logger falls
// back to a no-op or default; pass an untyped nil, since a nil pointer
// wrapped in the interface is called as-is.
func NewResolveCapUseCase(
	income port.IncomeSignalSource,
	resolver *service.BorrowingCapResolver,
	publisher port.EventPublisher,
	metrics port.Metrics,
	timeout time.Duration,
	clock func() time.Time,
	logger *slog.Logger,
) *ResolveCapUseCase {
	if timeout <= 0 {
		timeout = DefaultIncomeFetchTimeout
	}
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
	return &ResolveCapUseCase{
		income:    income,
		resolver:  resolver,
		publisher: publisher,
		metrics:   metrics,
		timeout:   timeout,
		clock:     clock,
		logger:    logger,
	}
}

// Default returns the cap that applies before (or instead of) resolution.
func (uc *ResolveCapUseCase) Default() service.CapResolution {
	return uc.resolver.Default()
}

// Execute resolves the borrower's cap.
func (uc *ResolveCapUseCase) Execute(ctx context.Context, borrowerID string) service.CapResolution {
	// 1. Fetch the latest income snapshot within the timeout.
	fetchCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := uc.resolver.Default()
	snapshot, err := uc.income.LatestIncomeSnapshot(fetchCtx, borrowerID)
	switch {
	case err != nil:
		uc.logger.WarnContext(ctx, "income snapshot lookup failed, using default cap",
			"borrower_id", borrowerID,
			"error", err,
		)
	case snapshot == nil:
		uc.logger.DebugContext(ctx, "no income snapshot, using default cap", "borrower_id", borrowerID)
	default:
		// 2. Derive the cap from income.
		res = uc.resolver.Resolve(snapshot)
	}

	// 3. Record the outcome.
	uc.metrics.CapResolved(ctx, res.Rationale.String())
	evt := event.NewBorrowingCapResolved(borrowerID, res.Cap, res.Rationale.String(), uc.clock())
	if err := uc.publisher.Publish(ctx, evt); err != nil {
		uc.logger.WarnContext(ctx, "publish cap resolution failed",
			"borrower_id", borrowerID,
			"error", err,
		)
	}

	uc.logger.InfoContext(ctx, "borrowing cap resolved",
		"borrower_id", borrowerID,
		"cap", res.Cap.String(),
		"rationale", res.Rationale.String(),
	)
	return res
}
