package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/astepanovs/gatehouse/internal/common"
	"github.com/astepanovs/gatehouse/internal/server/models"
	"github.com/astepanovs/gatehouse/internal/server/repositories/repomanager"
)

// maxCodesPerBatch caps how many codes a single Generate call may create.
const maxCodesPerBatch = 100

// CodeService manages the registration code ledger on behalf of the admin
// API: generating, listing, enabling/disabling, and deleting codes.
type CodeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCodeService(db *sql.DB, m repomanager.RepositoryManager) *CodeService {
	return &CodeService{db: db, repomanager: m}
}

// Generate creates n fresh unused codes and returns them.
func (s *CodeService) Generate(ctx context.Context, n int) ([]models.RegistrationCode, error) {
	if n < 1 || n > maxCodesPerBatch {
		return nil, common.ErrInvalidCodeFormat
	}

	repo := s.repomanager.RegistrationCodes(s.db)

	codes := make([]models.RegistrationCode, 0, n)
	for i := 0; i < n; i++ {
		c := models.RegistrationCode{
			Code:      uuid.NewString(),
			Status:    models.CodeStatusUnused,
			CreatedAt: time.Now(),
		}
		if err := repo.Create(ctx, &c); err != nil {
			return nil, fmt.Errorf("error creating registration code: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, nil
}

// List returns every registration code in the ledger.
func (s *CodeService) List(ctx context.Context) ([]models.RegistrationCode, error) {
	return s.repomanager.RegistrationCodes(s.db).List(ctx)
}

// SetStatus switches a code between unused and disabled. Consumed codes are
// terminal, and "used" cannot be assigned by hand; both yield
// ErrInvalidTransition.
func (s *CodeService) SetStatus(ctx context.Context, code string, status models.CodeStatus) error {
	if status != models.CodeStatusUnused && status != models.CodeStatusDisabled {
		return common.ErrInvalidTransition
	}
	return s.repomanager.RegistrationCodes(s.db).SetStatus(ctx, code, status)
}

// Delete removes a code from the ledger regardless of its state.
func (s *CodeService) Delete(ctx context.Context, code string) error {
	return s.repomanager.RegistrationCodes(s.db).Delete(ctx, code)
}
