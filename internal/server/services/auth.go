package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/invkeeper/internal/common"
	"github.com/dmitrijs2005/invkeeper/internal/dbx"
	"github.com/dmitrijs2005/invkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/invkeeper/internal/server/models"
	"github.com/dmitrijs2005/invkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/invkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/invkeeper/internal/server/sessions"
)

// LoginResult is what a successful login hands back to the transport layer.
type LoginResult struct {
	Token    string
	UserID   int64
	Username string
	IsAdmin  bool
}

// AuthService composes the credential store, the session registry and the
// users repository into registration, login, logout and privilege checks.
// It never logs; callers decide what to record.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	credentials credentials.Hasher
	sessions    sessions.Registry
	throttle    *LoginThrottle
}

// NewAuthService wires the gateway. throttle may be nil.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher credentials.Hasher,
	registry sessions.Registry, throttle *LoginThrottle) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		credentials: hasher,
		sessions:    registry,
		throttle:    throttle,
	}
}

// Register creates a user after checking that neither the username nor the
// email is taken, in that order. The checks and the insert share one
// transaction, so a failed insert leaves nothing behind.
func (s *AuthService) Register(ctx context.Context, username, email, password string, isAdmin bool) (*models.User, error) {
	if err := checkUsername(username); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, validationError("email and password are required")
	}

	hash := s.credentials.Hash(password)

	user, err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.repomanager.Users(tx)
		if err := ensureAvailable(ctx, repo, username, email); err != nil {
			return nil, err
		}
		return repo.Create(ctx, &models.User{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			IsAdmin:      isAdmin,
		})
	})
	if err != nil {
		return nil, storageError(err)
	}
	return user, nil
}

// Login checks the credentials and opens a session carrying a snapshot of
// the user's id, username and admin flag. Unknown users and wrong passwords
// both yield common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if s.throttle.Blocked(username) {
		return nil, common.ErrTooManyAttempts
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, storageError(err)
		}
		// unknown users cost one hash, like a wrong password
		_ = s.credentials.Hash(password)
		s.throttle.Fail(username)
		return nil, common.ErrInvalidCredentials
	}

	if !s.credentials.Verify(password, user.PasswordHash) {
		s.throttle.Fail(username)
		return nil, common.ErrInvalidCredentials
	}
	s.throttle.Reset(username)

	token, err := s.sessions.Issue(ctx, user.ID, user.Username, user.IsAdmin)
	if err != nil {
		if errors.Is(err, common.ErrStorageFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	return &LoginResult{Token: token, UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}, nil
}

// Logout revokes the token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, token)
}

// CurrentUser returns the session snapshot bound to token, or
// common.ErrTokenInvalidOrExpired.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*sessions.Session, error) {
	if token == "" {
		return nil, common.ErrTokenInvalidOrExpired
	}
	return s.sessions.Validate(ctx, token)
}

// AuthorizeAdmin returns the session when token belongs to an admin session.
// Missing, expired and non-admin tokens all yield common.ErrForbidden.
func (s *AuthService) AuthorizeAdmin(ctx context.Context, token string) (*sessions.Session, error) {
	sess, err := s.CurrentUser(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrTokenInvalidOrExpired) {
			return nil, common.ErrForbidden
		}
		return nil, err
	}
	if !sess.IsAdmin {
		return nil, common.ErrForbidden
	}
	return sess, nil
}

// RequireAdmin reports whether token belongs to a live admin session. The
// admin flag is the one captured at login.
func (s *AuthService) RequireAdmin(ctx context.Context, token string) bool {
	_, err := s.AuthorizeAdmin(ctx, token)
	return err == nil
}

// EnsureAdmin creates an admin account unless username already exists. The
// boolean reports whether a user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, bool, error) {
	existing, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, false, storageError(err)
	}

	user, err := s.Register(ctx, username, email, password, true)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func ensureAvailable(ctx context.Context, repo users.Repository, username, email string) error {
	if _, err := repo.GetByUsername(ctx, username); err == nil {
		return common.ErrDuplicateUsername
	} else if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return nil
}
