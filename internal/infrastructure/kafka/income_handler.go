package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pkgkafka "github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/kafka"
)

// Invalidator drops cached income data for a borrower.
type Invalidator interface {
	Invalidate(ctx context.Context, borrowerID string) error
}

// snapshotCaptured is published by onboarding whenever a fresh bank
// snapshot is stored.
type snapshotCaptured struct {
	UserID string `json:"user_id"`
}

// NewIncomeSnapshotHandler returns a consumer handler that evicts the cached
// snapshot of the borrower named in each message. The borrower is taken
// from the payload, falling back to the message key.
func NewIncomeSnapshotHandler(cache Invalidator, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, msg pkgkafka.Message) error {
		var body snapshotCaptured
		if len(msg.Value) > 0 {
			if err := json.Unmarshal(msg.Value, &body); err != nil {
				logger.WarnContext(ctx, "skipping malformed bank snapshot message", "error", err)
				return nil
			}
		}
		borrowerID := body.UserID
		if borrowerID == "" {
			borrowerID = string(msg.Key)
		}
		if borrowerID == "" {
			logger.WarnContext(ctx, "skipping bank snapshot message without borrower")
			return nil
		}

		if err := cache.Invalidate(ctx, borrowerID); err != nil {
			return fmt.Errorf("invalidate income for %s: %w", borrowerID, err)
		}
		logger.DebugContext(ctx, "income snapshot invalidated", "borrower_id", borrowerID)
		return nil
	}
}
