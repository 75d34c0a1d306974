package regcodes

import (
	"context"
	"sync"
	"time"

	"github.com/astepanovs/gatehouse/internal/common"
	"github.com/astepanovs/gatehouse/internal/server/models"
)

// InMemoryRepository is a map-backed Repository used in tests. The mutex
// makes Consume an atomic check-and-transition, matching the conditional
// UPDATE of the postgres implementation.
type InMemoryRepository struct {
	mu    sync.Mutex
	codes map[string]models.RegistrationCode
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{codes: make(map[string]models.RegistrationCode)}
}

func (r *InMemoryRepository) Create(ctx context.Context, code *models.RegistrationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.codes[code.Code] = *code
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, code string) (*models.RegistrationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rc, ok := r.codes[code]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rc, nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]models.RegistrationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes := make([]models.RegistrationCode, 0, len(r.codes))
	for _, rc := range r.codes {
		codes = append(codes, rc)
	}
	return codes, nil
}

func (r *InMemoryRepository) Consume(ctx context.Context, code string, userID string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rc, ok := r.codes[code]
	if !ok {
		return common.ErrorNotFound
	}
	if rc.Status != models.CodeStatusUnused {
		return common.ErrCodeNotAvailable
	}

	rc.Status = models.CodeStatusUsed
	rc.UsedAt = &usedAt
	rc.UsedByUserID = &userID
	r.codes[code] = rc
	return nil
}

func (r *InMemoryRepository) SetStatus(ctx context.Context, code string, status models.CodeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rc, ok := r.codes[code]
	if !ok {
		return common.ErrorNotFound
	}
	if rc.Status == models.CodeStatusUsed {
		return common.ErrInvalidTransition
	}

	rc.Status = status
	r.codes[code] = rc
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[code]; !ok {
		return common.ErrorNotFound
	}
	delete(r.codes, code)
	return nil
}
