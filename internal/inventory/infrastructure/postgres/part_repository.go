package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	inventory "medequip-cloud/internal/inventory/domain"
)

const defaultPartsTable = "inventory_parts"

// PartRepository is a Postgres implementation for spare parts.
type PartRepository struct {
	db    *sql.DB
	table string
}

// NewPartRepository constructs a repository.
func NewPartRepository(db *sql.DB, opts ...PartOption) *PartRepository {
	repo := &PartRepository{db: db, table: defaultPartsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// PartOption configures the repository.
type PartOption func(*PartRepository)

// WithPartTable overrides the default table name.
func WithPartTable(table string) PartOption {
	return func(repo *PartRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a part by id.
func (r *PartRepository) Get(ctx context.Context, id string) (*inventory.Part, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("part repo: nil db")
	}
	if id == "" {
		return nil, errors.New("part repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, category, stock, min_stock, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var part inventory.Part
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&part.ID,
		&part.Name,
		&part.Category,
		&part.Stock,
		&part.MinStock,
		&part.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, inventory.ErrNotFound
		}
		return nil, err
	}
	part.UpdatedAt = part.UpdatedAt.UTC()
	return &part, nil
}

// List returns all parts ordered by id.
func (r *PartRepository) List(ctx context.Context) ([]inventory.Part, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("part repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, name, category, stock, min_stock, updated_at
FROM %s
ORDER BY id`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []inventory.Part
	for rows.Next() {
		var part inventory.Part
		if err := rows.Scan(&part.ID, &part.Name, &part.Category, &part.Stock, &part.MinStock, &part.UpdatedAt); err != nil {
			return nil, err
		}
		part.UpdatedAt = part.UpdatedAt.UTC()
		result = append(result, part)
	}
	return result, rows.Err()
}

// Save upserts a part.
func (r *PartRepository) Save(ctx context.Context, part *inventory.Part) error {
	if r == nil || r.db == nil {
		return errors.New("part repo: nil db")
	}
	if part == nil {
		return errors.New("part repo: nil part")
	}
	if err := part.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, name, category, stock, min_stock)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	category = EXCLUDED.category,
	stock = EXCLUDED.stock,
	min_stock = EXCLUDED.min_stock,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(ctx, query, part.ID, part.Name, part.Category, part.Stock, part.MinStock)
	if err != nil {
		return err
	}
	part.UpdatedAt = time.Now().UTC()
	return nil
}

// AdjustStock changes stock by delta atomically, flooring at zero.
func (r *PartRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("part repo: nil db")
	}

	query := fmt.Sprintf(`
UPDATE %s
SET stock = GREATEST(stock + $2, 0), updated_at = NOW()
WHERE id = $1
RETURNING stock`, r.table)

	var stock int
	if err := r.db.QueryRowContext(ctx, query, id, delta).Scan(&stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, inventory.ErrNotFound
		}
		return 0, err
	}
	return stock, nil
}
