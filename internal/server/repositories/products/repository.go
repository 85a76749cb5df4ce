// Package products declares the product persistence contract and its
// PostgreSQL implementation.
package products

import (
	"context"

	"github.com/dmitrijs2005/invkeeper/internal/server/models"
)

// Repository persists inventory products. Get, Update and Delete return
// common.ErrorNotFound for unknown ids.
type Repository interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id int64) error

	// SearchByCategory and SearchByBrand match case-insensitive substrings.
	SearchByCategory(ctx context.Context, category string) ([]*models.Product, error)
	SearchByBrand(ctx context.Context, brand string) ([]*models.Product, error)

	// LowStock lists products whose quantity is at most limit.
	LowStock(ctx context.Context, limit int) ([]*models.Product, error)
}
