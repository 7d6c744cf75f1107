package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/valueobject"
	pgutil "github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/postgres"
)

const configurationColumns = `
	id, borrower_id, principal_amount, number_of_months, salary_day,
	first_repayment_date, amount_repayable, monthly_repayment, effective_rate,
	step_number, version, created_at, updated_at, completed_at`

// LoanConfigurationRepo implements port.LoanConfigurationRepository.
type LoanConfigurationRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewLoanConfigurationRepo creates a new repository backed by PostgreSQL.
func NewLoanConfigurationRepo(pool *pgxpool.Pool) *LoanConfigurationRepo {
	return &LoanConfigurationRepo{pool: pool, now: time.Now}
}

// FindOrCreate inserts an empty record for the borrower unless one exists,
// then returns the stored row. Concurrent callers converge on the same row.
func (r *LoanConfigurationRepo) FindOrCreate(ctx context.Context, borrowerID string) (model.LoanConfiguration, error) {
	fresh, err := model.NewLoanConfiguration(borrowerID, r.now().UTC())
	if err != nil {
		return model.LoanConfiguration{}, err
	}

	var out model.LoanConfiguration
	err = pgutil.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		insert := `
			INSERT INTO loan_configurations (
				id, borrower_id, step_number, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (borrower_id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, insert,
			fresh.ID(), fresh.BorrowerID(), fresh.StepNumber(), fresh.Version(),
			fresh.CreatedAt(), fresh.UpdatedAt(),
		); err != nil {
			return fmt.Errorf("insert loan configuration: %w", err)
		}

		cfg, err := findByBorrower(ctx, tx, borrowerID)
		if err != nil {
			return err
		}
		out = cfg
		return nil
	})
	if err != nil {
		return model.LoanConfiguration{}, fmt.Errorf("find or create loan configuration: %w", err)
	}
	return out, nil
}

// FindByBorrowerID retrieves the borrower's record.
func (r *LoanConfigurationRepo) FindByBorrowerID(ctx context.Context, borrowerID string) (model.LoanConfiguration, error) {
	cfg, err := findByBorrower(ctx, r.pool, borrowerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LoanConfiguration{}, model.ErrConfigurationNotFound
	}
	return cfg, err
}

// Update applies the non-nil patch fields under optimistic locking. The step
// number only ever moves forward and completed_at is set once.
func (r *LoanConfigurationRepo) Update(ctx context.Context, id string, expectedVersion int, patch model.ConfigurationPatch) (model.LoanConfiguration, error) {
	query := `
		UPDATE loan_configurations SET
			principal_amount     = COALESCE($3, principal_amount),
			number_of_months     = COALESCE($4, number_of_months),
			salary_day           = COALESCE($5, salary_day),
			first_repayment_date = COALESCE($6, first_repayment_date),
			amount_repayable     = COALESCE($7, amount_repayable),
			monthly_repayment    = COALESCE($8, monthly_repayment),
			effective_rate       = COALESCE($9, effective_rate),
			step_number          = GREATEST(step_number, $10),
			completed_at         = CASE
				WHEN completed_at IS NULL AND GREATEST(step_number, $10) >= $11 THEN $12
				ELSE completed_at
			END,
			version              = version + 1,
			updated_at           = $12
		WHERE id = $1 AND version = $2
		RETURNING ` + configurationColumns

	row := r.pool.QueryRow(ctx, query,
		id, expectedVersion,
		patch.PrincipalAmount, patch.NumberOfMonths, patch.SalaryDay,
		dateParam(patch.FirstRepaymentDate),
		patch.AmountRepayable, patch.MonthlyRepayment, patch.EffectiveRate,
		patch.StepNumber, valueobject.StepNumberComplete, r.now().UTC(),
	)
	cfg, err := scanConfiguration(row)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.LoanConfiguration{}, fmt.Errorf("update loan configuration: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM loan_configurations WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return model.LoanConfiguration{}, fmt.Errorf("check loan configuration: %w", err)
	}
	if !exists {
		return model.LoanConfiguration{}, model.ErrConfigurationNotFound
	}
	return model.LoanConfiguration{}, model.ErrVersionConflict
}

// ---------------------------------------------------------------------------
// scan helpers
// ---------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...any) error
}

func findByBorrower(ctx context.Context, q pgutil.Querier, borrowerID string) (model.LoanConfiguration, error) {
	row := q.QueryRow(ctx, `SELECT `+configurationColumns+`
		FROM loan_configurations WHERE borrower_id = $1`, borrowerID)
	return scanConfiguration(row)
}

func scanConfiguration(s scannable) (model.LoanConfiguration, error) {
	var (
		id, borrowerID       string
		principal            decimal.NullDecimal
		months, salaryDay    *int
		firstDate            pgtype.Date
		repayable, monthly   decimal.NullDecimal
		rate                 decimal.NullDecimal
		stepNumber, version  int
		createdAt, updatedAt time.Time
		completedAt          *time.Time
	)

	err := s.Scan(
		&id, &borrowerID, &principal, &months, &salaryDay,
		&firstDate, &repayable, &monthly, &rate,
		&stepNumber, &version, &createdAt, &updatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.LoanConfiguration{}, err
		}
		return model.LoanConfiguration{}, fmt.Errorf("scan loan configuration: %w", err)
	}

	var date civil.Date
	if firstDate.Valid {
		date = civil.DateOf(firstDate.Time)
	}

	return model.ReconstructLoanConfiguration(
		id, borrowerID,
		principal.Decimal,
		deref(months), deref(salaryDay),
		date,
		repayable.Decimal, monthly.Decimal, rate.Decimal,
		stepNumber, version,
		createdAt, updatedAt, completedAt,
	), nil
}

func dateParam(d *civil.Date) pgtype.Date {
	if d == nil || !d.IsValid() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.In(time.UTC), Valid: true}
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
