// Package services contains server-side business logic. This file implements
// UserService, which handles code-gated registration, login, and issuing
// session JWTs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/astepanovs/gatehouse/internal/common"
	"github.com/astepanovs/gatehouse/internal/cryptox"
	"github.com/astepanovs/gatehouse/internal/dbx"
	"github.com/astepanovs/gatehouse/internal/server/auth"
	"github.com/astepanovs/gatehouse/internal/server/config"
	"github.com/astepanovs/gatehouse/internal/server/models"
	"github.com/astepanovs/gatehouse/internal/server/repositories/repomanager"
)

var usernameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

const (
	minPasswordLen = 6
	maxPasswordLen = 128
	maxCodeLen     = 128
)

// UserService provides account-related operations:
// - Register: validate input, consume a registration code, create the user
// - Login: verify credentials and mint a session token
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register validates the username, password, and registration code, then
// consumes the code and creates the user atomically. Either both the code
// transition and the user row land, or neither does.
//
// Errors: ErrInvalidUsernameFormat, ErrInvalidPasswordFormat,
// ErrInvalidCodeFormat, ErrUserAlreadyExists, ErrorNotFound (unknown code),
// ErrCodeNotAvailable (code already used or disabled).
func (s *UserService) Register(ctx context.Context, username, password, code string) (*models.User, error) {
	if !usernameRegexp.MatchString(username) {
		return nil, common.ErrInvalidUsernameFormat
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return nil, common.ErrInvalidPasswordFormat
	}
	if code == "" || len(code) > maxCodeLen {
		return nil, common.ErrInvalidCodeFormat
	}

	exists, err := s.repomanager.Users(s.db).Exists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}
	if exists {
		return nil, common.ErrUserAlreadyExists
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     username,
		PasswordHash: hash,
	}

	var created *models.User
	err = s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RegistrationCodes(tx).Consume(ctx, code, username, time.Now()); err != nil {
			return err
		}
		var createErr error
		created, createErr = s.repomanager.Users(tx).Create(ctx, user)
		return createErr
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrCodeNotAvailable) {
			return nil, err
		}
		return nil, fmt.Errorf("error registering user: %w", err)
	}
	return created, nil
}

// Login verifies the username and password and, on success, returns a signed
// session token together with the user. Unknown users and wrong passwords
// both yield ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrorUnauthorized
		}
		return "", nil, common.ErrorInternal
	}

	if !cryptox.VerifyPassword(password, user.PasswordHash) {
		return "", nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, user.IsAdmin, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", nil, common.ErrorInternal
	}
	return token, user, nil
}

// withTx runs fn inside a transaction when a real database handle is
// configured. With in-memory repositories there is no handle, so fn runs
// directly; those repositories guarantee atomic consumption on their own.
func (s *UserService) withTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}
