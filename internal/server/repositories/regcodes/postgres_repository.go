package regcodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/astepanovs/gatehouse/internal/common"
	"github.com/astepanovs/gatehouse/internal/dbx"
	"github.com/astepanovs/gatehouse/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, code *models.RegistrationCode) error {

	query :=
		`INSERT INTO registration_codes (code, status, created_at)
         VALUES ($1, $2, $3)
		 `

	_, err := r.db.ExecContext(ctx, query, code.Code, code.Status, code.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, code string) (*models.RegistrationCode, error) {
	query :=
		`SELECT code, status, created_at, used_at, used_by_user_id FROM registration_codes
		 WHERE code = $1
		 `

	rc := &models.RegistrationCode{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(&rc.Code, &rc.Status, &rc.CreatedAt, &rc.UsedAt, &rc.UsedByUserID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rc, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.RegistrationCode, error) {
	query :=
		`SELECT code, status, created_at, used_at, used_by_user_id FROM registration_codes
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var codes []models.RegistrationCode
	for rows.Next() {
		var rc models.RegistrationCode
		if err := rows.Scan(&rc.Code, &rc.Status, &rc.CreatedAt, &rc.UsedAt, &rc.UsedByUserID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		codes = append(codes, rc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return codes, nil
}

// Consume transitions a code from unused to used in one conditional update.
// The WHERE clause is the compare half of the compare-and-swap: a code that
// is already used or disabled matches zero rows, so two registrations racing
// on the same code can never both succeed.
func (r *PostgresRepository) Consume(ctx context.Context, code string, userID string, usedAt time.Time) error {

	query :=
		`UPDATE registration_codes
		 SET status = $2, used_at = $3, used_by_user_id = $4
		 WHERE code = $1 AND status = $5
		 `

	res, err := r.db.ExecContext(ctx, query, code, models.CodeStatusUsed, usedAt, userID, models.CodeStatusUnused)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if affected == 0 {
		// Either the code does not exist or it is no longer unused.
		if _, err := r.Get(ctx, code); err != nil {
			return err
		}
		return common.ErrCodeNotAvailable
	}

	return nil
}

// SetStatus toggles a code between unused and disabled. Used codes are
// terminal; attempting to touch one yields ErrInvalidTransition.
func (r *PostgresRepository) SetStatus(ctx context.Context, code string, status models.CodeStatus) error {

	query :=
		`UPDATE registration_codes
		 SET status = $2
		 WHERE code = $1 AND status <> $3
		 `

	res, err := r.db.ExecContext(ctx, query, code, status, models.CodeStatusUsed)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if affected == 0 {
		if _, err := r.Get(ctx, code); err != nil {
			return err
		}
		return common.ErrInvalidTransition
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, code string) error {

	query :=
		`DELETE FROM registration_codes
		 WHERE code = $1
		 `

	res, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}
