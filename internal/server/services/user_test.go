package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astepanovs/gatehouse/internal/common"
	"github.com/astepanovs/gatehouse/internal/server/auth"
	"github.com/astepanovs/gatehouse/internal/server/config"
	"github.com/astepanovs/gatehouse/internal/server/models"
	"github.com/astepanovs/gatehouse/internal/server/repositories/repomanager"
)

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func seedCode(t *testing.T, m repomanager.RepositoryManager, code string, status models.CodeStatus) {
	t.Helper()
	err := m.RegistrationCodes(nil).Create(context.Background(), &models.RegistrationCode{
		Code:      code,
		Status:    status,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success consumes the code", func(t *testing.T) {
		m := repomanager.NewInMemoryRepositoryManager()
		seedCode(t, m, "code1", models.CodeStatusUnused)
		s := NewUserService(nil, m, newTestConfig())

		user, err := s.Register(ctx, "alice1", "password123", "code1")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice1", user.UserName)
		assert.NotEmpty(t, user.ID)
		assert.NotEqual(t, "password123", user.PasswordHash)

		rc, err := m.RegistrationCodes(nil).Get(ctx, "code1")
		require.NoError(t, err)
		assert.Equal(t, models.CodeStatusUsed, rc.Status)
		require.NotNil(t, rc.UsedAt)
		require.NotNil(t, rc.UsedByUserID)
		assert.Equal(t, "alice1", *rc.UsedByUserID)
	})

	t.Run("validation", func(t *testing.T) {
		m := repomanager.NewInMemoryRepositoryManager()
		seedCode(t, m, "code1", models.CodeStatusUnused)
		s := NewUserService(nil, m, newTestConfig())

		tests := []struct {
			name     string
			username string
			password string
			code     string
			want     error
		}{
			{"username too short", "ab", "password123", "code1", common.ErrInvalidUsernameFormat},
			{"username too long", strings.Repeat("a", 21), "password123", "code1", common.ErrInvalidUsernameFormat},
			{"username bad chars", "alice!", "password123", "code1", common.ErrInvalidUsernameFormat},
			{"password too short", "alice1", "12345", "code1", common.ErrInvalidPasswordFormat},
			{"password too long", "alice1", strings.Repeat("p", 129), "code1", common.ErrInvalidPasswordFormat},
			{"empty code", "alice1", "password123", "", common.ErrInvalidCodeFormat},
			{"code too long", "alice1", "password123", strings.Repeat("c", 129), common.ErrInvalidCodeFormat},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := s.Register(ctx, tt.username, tt.password, tt.code)
				assert.ErrorIs(t, err, tt.want)
			})
		}

		// nothing consumed by rejected attempts
		rc, err := m.RegistrationCodes(nil).Get(ctx, "code1")
		require.NoError(t, err)
		assert.Equal(t, models.CodeStatusUnused, rc.Status)
	})

	t.Run("unknown code", func(t *testing.T) {
		m := repomanager.NewInMemoryRepositoryManager()
		s := NewUserService(nil, m, newTestConfig())

		_, err := s.Register(ctx, "alice1", "password123", "nosuchcode")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("used code", func(t *testing.T) {
		m := repomanager.NewInMemoryRepositoryManager()
		seedCode(t, m, "code1", models.CodeStatusUsed)
		s := NewUserService(nil, m, newTestConfig())

		_, err := s.Register(ctx, "alice1", "password123", "code1")
		assert.ErrorIs(t, err, common.ErrCodeNotAvailable)
	})

	t.Run("disabled code", func(t *testing.T) {
		m := repomanager.NewInMemoryRepositoryManager()
		seedCode(t, m, "code1", models.CodeStatusDisabled)
		s := NewUserService(nil, m, newTestConfig())

		_, err := s.Register(ctx, "alice1", "password123", "code1")
		assert.ErrorIs(t, err, common.ErrCodeNotAvailable)
	})

	t.Run("duplicate username", func(t *testing.T) {
		m := repomanager.NewInMemoryRepositoryManager()
		seedCode(t, m, "code1", models.CodeStatusUnused)
		seedCode(t, m, "code2", models.CodeStatusUnused)
		s := NewUserService(nil, m, newTestConfig())

		_, err := s.Register(ctx, "alice1", "password123", "code1")
		require.NoError(t, err)

		_, err = s.Register(ctx, "alice1", "password123", "code2")
		assert.ErrorIs(t, err, common.ErrUserAlreadyExists)

		// the second code survives the rejected attempt
		rc, err := m.RegistrationCodes(nil).Get(ctx, "code2")
		require.NoError(t, err)
		assert.Equal(t, models.CodeStatusUnused, rc.Status)
	})
}

func TestUserService_Register_ConcurrentSameCode(t *testing.T) {
	ctx := context.Background()
	m := repomanager.NewInMemoryRepositoryManager()
	seedCode(t, m, "contested", models.CodeStatusUnused)
	s := NewUserService(nil, m, newTestConfig())

	const workers = 32

	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			username := fmt.Sprintf("user%02d", i)
			_, errs[i] = s.Register(ctx, username, "password123", "contested")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, common.ErrCodeNotAvailable)
		}
	}
	assert.Equal(t, 1, winners, "exactly one registration must win the code")
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig()
	m := repomanager.NewInMemoryRepositoryManager()
	seedCode(t, m, "code1", models.CodeStatusUnused)
	s := NewUserService(nil, m, cfg)

	registered, err := s.Register(ctx, "alice1", "password123", "code1")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		token, user, err := s.Login(ctx, "alice1", "password123")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, registered.ID, user.ID)

		claims, err := auth.ParseToken(token, []byte(cfg.SecretKey))
		require.NoError(t, err)
		assert.Equal(t, registered.ID, claims.UserID)
		assert.False(t, claims.IsAdmin)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := s.Login(ctx, "alice1", "wrongpassword")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := s.Login(ctx, "nobody", "password123")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})
}
