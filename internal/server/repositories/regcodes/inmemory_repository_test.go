package regcodes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/astepanovs/gatehouse/internal/common"
	"github.com/astepanovs/gatehouse/internal/server/models"
)

func newUnusedCode(t *testing.T, repo *InMemoryRepository, code string) {
	t.Helper()
	err := repo.Create(context.Background(), &models.RegistrationCode{
		Code:      code,
		Status:    models.CodeStatusUnused,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

// Exactly one of N concurrent Consume calls on the same code may succeed;
// every other caller must observe the conflict.
func TestConsume_ConcurrentSingleWinner(t *testing.T) {
	repo := NewInMemoryRepository()
	newUnusedCode(t, repo, "contested")

	const n = 64

	var wg sync.WaitGroup
	results := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.Consume(context.Background(), "contested", "alice1", time.Now())
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, common.ErrCodeNotAvailable):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", wins)
	}
	if conflicts != n-1 {
		t.Fatalf("expected %d conflicts, got %d", n-1, conflicts)
	}

	rc, err := repo.Get(context.Background(), "contested")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rc.Status != models.CodeStatusUsed || rc.UsedAt == nil || rc.UsedByUserID == nil {
		t.Fatalf("expected used code with used_at/used_by set, got %+v", rc)
	}
}

func TestConsume_SetsFieldsOnce(t *testing.T) {
	repo := NewInMemoryRepository()
	newUnusedCode(t, repo, "code-1")

	if err := repo.Consume(context.Background(), "code-1", "alice1", time.Now()); err != nil {
		t.Fatalf("Consume error: %v", err)
	}

	first, err := repo.Get(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}

	// further attempts fail and change nothing
	if err := repo.Consume(context.Background(), "code-1", "mallory", time.Now()); !errors.Is(err, common.ErrCodeNotAvailable) {
		t.Fatalf("expected ErrCodeNotAvailable, got %v", err)
	}

	second, err := repo.Get(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if *second.UsedByUserID != "alice1" || !second.UsedAt.Equal(*first.UsedAt) {
		t.Fatalf("used fields changed after failed consume: %+v", second)
	}
}

func TestSetStatus_Transitions(t *testing.T) {
	repo := NewInMemoryRepository()
	newUnusedCode(t, repo, "code-1")

	if err := repo.SetStatus(context.Background(), "code-1", models.CodeStatusDisabled); err != nil {
		t.Fatalf("disable error: %v", err)
	}

	// disabled codes cannot be consumed
	if err := repo.Consume(context.Background(), "code-1", "alice1", time.Now()); !errors.Is(err, common.ErrCodeNotAvailable) {
		t.Fatalf("expected ErrCodeNotAvailable for disabled code, got %v", err)
	}

	if err := repo.SetStatus(context.Background(), "code-1", models.CodeStatusUnused); err != nil {
		t.Fatalf("enable error: %v", err)
	}

	// used is terminal
	if err := repo.Consume(context.Background(), "code-1", "alice1", time.Now()); err != nil {
		t.Fatalf("Consume error: %v", err)
	}
	if err := repo.SetStatus(context.Background(), "code-1", models.CodeStatusUnused); !errors.Is(err, common.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := NewInMemoryRepository()
	newUnusedCode(t, repo, "code-1")

	if err := repo.Delete(context.Background(), "code-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := repo.Delete(context.Background(), "code-1"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}
