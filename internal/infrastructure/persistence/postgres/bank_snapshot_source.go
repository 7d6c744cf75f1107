package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
)

// BankSnapshotSource implements port.IncomeSignalSource over the bank
// snapshots captured during onboarding.
type BankSnapshotSource struct {
	pool *pgxpool.Pool
}

// NewBankSnapshotSource creates a snapshot reader backed by PostgreSQL.
func NewBankSnapshotSource(pool *pgxpool.Pool) *BankSnapshotSource {
	return &BankSnapshotSource{pool: pool}
}

// LatestIncomeSnapshot returns the most recently captured snapshot, or nil
// when the borrower has none.
func (s *BankSnapshotSource) LatestIncomeSnapshot(ctx context.Context, borrowerID string) (*model.IncomeSnapshot, error) {
	query := `
		SELECT net_monthly_income, avg_monthly_income, avg_monthly_expenses, captured_at
		FROM truid_bank_snapshots
		WHERE user_id = $1
		ORDER BY captured_at DESC
		LIMIT 1
	`
	var snap model.IncomeSnapshot
	err := s.pool.QueryRow(ctx, query, borrowerID).Scan(
		&snap.NetMonthlyIncome, &snap.AvgMonthlyIncome, &snap.AvgMonthlyExpenses, &snap.CapturedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query bank snapshot: %w", err)
	}
	return &snap, nil
}
