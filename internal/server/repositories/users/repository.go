// Package users declares the user persistence contract and its PostgreSQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/invkeeper/internal/server/models"
)

// Repository persists user accounts. Lookups return common.ErrorNotFound when
// no row matches; Create and Update return common.ErrDuplicateUsername or
// common.ErrDuplicateEmail when a unique constraint rejects the row.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	ListByRole(ctx context.Context, isAdmin bool) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}
