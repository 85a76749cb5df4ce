package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/invkeeper/internal/server/models"
	"github.com/dmitrijs2005/invkeeper/internal/server/repositories/repomanager"
)

// DefaultLowStockLimit is used when the caller does not supply a threshold.
const DefaultLowStockLimit = 5

// ProductService manages the inventory catalogue.
type ProductService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewProductService(db *sql.DB, m repomanager.RepositoryManager) *ProductService {
	return &ProductService{db: db, repomanager: m}
}

func validateProduct(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return validationError("nombre is required")
	}
	if p.Quantity < 0 {
		return validationError("cantidad must not be negative")
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	created, err := s.repomanager.Products(s.db).Create(ctx, p)
	if err != nil {
		return nil, storageError(err)
	}
	return created, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.repomanager.Products(s.db).Get(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context) ([]*models.Product, error) {
	return s.many(s.repomanager.Products(s.db).List(ctx))
}

// Update overwrites every field of product p.ID.
func (s *ProductService) Update(ctx context.Context, p *models.Product) (*models.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.repomanager.Products(s.db).Update(ctx, p); err != nil {
		return nil, storageError(err)
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.repomanager.Products(s.db).Delete(ctx, id); err != nil {
		return storageError(err)
	}
	return nil
}

func (s *ProductService) SearchByCategory(ctx context.Context, category string) ([]*models.Product, error) {
	return s.many(s.repomanager.Products(s.db).SearchByCategory(ctx, category))
}

func (s *ProductService) SearchByBrand(ctx context.Context, brand string) ([]*models.Product, error) {
	return s.many(s.repomanager.Products(s.db).SearchByBrand(ctx, brand))
}

// LowStock lists products with at most limit units left.
func (s *ProductService) LowStock(ctx context.Context, limit int) ([]*models.Product, error) {
	if limit < 0 {
		return nil, validationError("limite must not be negative")
	}
	return s.many(s.repomanager.Products(s.db).LowStock(ctx, limit))
}

func (s *ProductService) many(list []*models.Product, err error) ([]*models.Product, error) {
	if err != nil {
		return nil, storageError(err)
	}
	return list, nil
}
