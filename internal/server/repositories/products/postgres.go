package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/invkeeper/internal/common"
	"github.com/dmitrijs2005/invkeeper/internal/dbx"
	"github.com/dmitrijs2005/invkeeper/internal/server/models"
)

const selectProductColumns = `SELECT id, nombre, cantidad, descripcion, marca, categoria, imagen_url FROM productos`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	query :=
		`INSERT INTO productos (nombre, cantidad, descripcion, marca, categoria, imagen_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.Quantity, p.Description, p.Brand, p.Category, p.ImageURL).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Product, error) {
	p := &models.Product{}
	err := r.db.QueryRowContext(ctx, selectProductColumns+` WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Quantity, &p.Description, &p.Brand, &p.Category, &p.ImageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Product, error) {
	return r.getMany(ctx, selectProductColumns+` ORDER BY id`)
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Product) error {
	query :=
		`UPDATE productos
		 SET nombre = $1, cantidad = $2, descripcion = $3, marca = $4, categoria = $5, imagen_url = $6
		 WHERE id = $7
		 `

	res, err := r.db.ExecContext(ctx, query,
		p.Name, p.Quantity, p.Description, p.Brand, p.Category, p.ImageURL, p.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM productos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) SearchByCategory(ctx context.Context, category string) ([]*models.Product, error) {
	return r.getMany(ctx, selectProductColumns+` WHERE categoria ILIKE $1 ORDER BY id`, likePattern(category))
}

func (r *PostgresRepository) SearchByBrand(ctx context.Context, brand string) ([]*models.Product, error) {
	return r.getMany(ctx, selectProductColumns+` WHERE marca ILIKE $1 ORDER BY id`, likePattern(brand))
}

func (r *PostgresRepository) LowStock(ctx context.Context, limit int) ([]*models.Product, error) {
	return r.getMany(ctx, selectProductColumns+` WHERE cantidad <= $1 ORDER BY cantidad, id`, limit)
}

func (r *PostgresRepository) getMany(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Product, 0)
	for rows.Next() {
		p := &models.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity, &p.Description, &p.Brand, &p.Category, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// likePattern wraps s in % after escaping LIKE metacharacters.
func likePattern(s string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + escaped + "%"
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
