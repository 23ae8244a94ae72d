package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	masterdata "medequip-cloud/internal/masterdata/domain"
)

const defaultTechniciansTable = "technicians"

// TechnicianRepository is a Postgres implementation for technicians.
type TechnicianRepository struct {
	db    *sql.DB
	table string
}

// NewTechnicianRepository constructs a repository.
func NewTechnicianRepository(db *sql.DB, opts ...TechnicianOption) *TechnicianRepository {
	repo := &TechnicianRepository{db: db, table: defaultTechniciansTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// TechnicianOption configures the repository.
type TechnicianOption func(*TechnicianRepository)

// WithTechnicianTable overrides the default table name.
func WithTechnicianTable(table string) TechnicianOption {
	return func(repo *TechnicianRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a technician by id.
func (r *TechnicianRepository) Get(ctx context.Context, id string) (*masterdata.Technician, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("technician repo: nil db")
	}
	if id == "" {
		return nil, errors.New("technician repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, location_id, phone, active, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var technician masterdata.Technician
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&technician.ID,
		&technician.Name,
		&technician.LocationID,
		&technician.Phone,
		&technician.Active,
		&technician.CreatedAt,
		&technician.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, masterdata.ErrNotFound
		}
		return nil, err
	}
	technician.CreatedAt = technician.CreatedAt.UTC()
	technician.UpdatedAt = technician.UpdatedAt.UTC()
	return &technician, nil
}

// ListActive returns active technicians ordered by id.
func (r *TechnicianRepository) ListActive(ctx context.Context) ([]masterdata.Technician, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("technician repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, name, location_id, phone, active, created_at, updated_at
FROM %s
WHERE active
ORDER BY id`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []masterdata.Technician
	for rows.Next() {
		var technician masterdata.Technician
		if err := rows.Scan(
			&technician.ID,
			&technician.Name,
			&technician.LocationID,
			&technician.Phone,
			&technician.Active,
			&technician.CreatedAt,
			&technician.UpdatedAt,
		); err != nil {
			return nil, err
		}
		technician.CreatedAt = technician.CreatedAt.UTC()
		technician.UpdatedAt = technician.UpdatedAt.UTC()
		result = append(result, technician)
	}
	return result, rows.Err()
}

// Save upserts a technician.
func (r *TechnicianRepository) Save(ctx context.Context, technician *masterdata.Technician) error {
	if r == nil || r.db == nil {
		return errors.New("technician repo: nil db")
	}
	if technician == nil {
		return errors.New("technician repo: nil technician")
	}
	if err := technician.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, name, location_id, phone, active)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	location_id = EXCLUDED.location_id,
	phone = EXCLUDED.phone,
	active = EXCLUDED.active,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(ctx, query, technician.ID, technician.Name, technician.LocationID, technician.Phone, technician.Active)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if technician.CreatedAt.IsZero() {
		technician.CreatedAt = now
	}
	technician.UpdatedAt = now
	return nil
}
