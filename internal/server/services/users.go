package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/invkeeper/internal/common"
	"github.com/dmitrijs2005/invkeeper/internal/dbx"
	"github.com/dmitrijs2005/invkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/invkeeper/internal/server/models"
	"github.com/dmitrijs2005/invkeeper/internal/server/repositories/repomanager"
)

// UserService is the administrative view over user accounts.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	credentials credentials.Hasher
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher credentials.Hasher) *UserService {
	return &UserService{db: db, repomanager: m, credentials: hasher}
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return list, nil
}

func (s *UserService) ListAdmins(ctx context.Context) ([]*models.User, error) {
	return s.listByRole(ctx, true)
}

func (s *UserService) ListRegular(ctx context.Context) ([]*models.User, error) {
	return s.listByRole(ctx, false)
}

func (s *UserService) listByRole(ctx context.Context, isAdmin bool) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).ListByRole(ctx, isAdmin)
	if err != nil {
		return nil, storageError(err)
	}
	return list, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return u, nil
}

// Update replaces the username, email and admin flag of user id. Uniqueness
// is checked only for the fields that change, username before email.
// Sessions already issued keep the admin flag they were created with.
func (s *UserService) Update(ctx context.Context, id int64, username, email string, isAdmin bool) (*models.User, error) {
	if err := checkUsername(username); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, validationError("email is required")
	}

	user, err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.repomanager.Users(tx)

		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if username != current.Username {
			if _, err := repo.GetByUsername(ctx, username); err == nil {
				return nil, common.ErrDuplicateUsername
			} else if !errors.Is(err, common.ErrorNotFound) {
				return nil, err
			}
		}
		if email != current.Email {
			if _, err := repo.GetByEmail(ctx, email); err == nil {
				return nil, common.ErrDuplicateEmail
			} else if !errors.Is(err, common.ErrorNotFound) {
				return nil, err
			}
		}

		current.Username = username
		current.Email = email
		current.IsAdmin = isAdmin
		if err := repo.Update(ctx, current); err != nil {
			return nil, err
		}
		return current, nil
	})
	if err != nil {
		return nil, storageError(err)
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id int64, password string) error {
	if password == "" {
		return validationError("password is required")
	}
	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, id, s.credentials.Hash(password)); err != nil {
		return storageError(err)
	}
	return nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return storageError(err)
	}
	return nil
}
