package regcodes

import (
	"context"
	"time"

	"github.com/astepanovs/gatehouse/internal/server/models"
)

// Repository persists registration codes. Consume must be atomic: under
// concurrent calls racing on the same code exactly one succeeds.
type Repository interface {
	Create(ctx context.Context, code *models.RegistrationCode) error
	Get(ctx context.Context, code string) (*models.RegistrationCode, error)
	List(ctx context.Context) ([]models.RegistrationCode, error)
	Consume(ctx context.Context, code string, userID string, usedAt time.Time) error
	SetStatus(ctx context.Context, code string, status models.CodeStatus) error
	Delete(ctx context.Context, code string) error
}
