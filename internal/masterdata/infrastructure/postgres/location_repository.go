package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	masterdata "medequip-cloud/internal/masterdata/domain"
)

const defaultLocationsTable = "locations"

// LocationRepository is a Postgres implementation for locations.
type LocationRepository struct {
	db    *sql.DB
	table string
}

// NewLocationRepository constructs a repository.
func NewLocationRepository(db *sql.DB, opts ...LocationOption) *LocationRepository {
	repo := &LocationRepository{db: db, table: defaultLocationsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// LocationOption configures the repository.
type LocationOption func(*LocationRepository)

// WithLocationTable overrides the default table name.
func WithLocationTable(table string) LocationOption {
	return func(repo *LocationRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a location by id.
func (r *LocationRepository) Get(ctx context.Context, id string) (*masterdata.Location, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("location repo: nil db")
	}
	if id == "" {
		return nil, errors.New("location repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, department, floor
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var location masterdata.Location
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&location.ID, &location.Name, &location.Department, &location.Floor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, masterdata.ErrNotFound
		}
		return nil, err
	}
	return &location, nil
}

// List returns all locations ordered by id.
func (r *LocationRepository) List(ctx context.Context) ([]masterdata.Location, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("location repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, name, department, floor
FROM %s
ORDER BY id`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []masterdata.Location
	for rows.Next() {
		var location masterdata.Location
		if err := rows.Scan(&location.ID, &location.Name, &location.Department, &location.Floor); err != nil {
			return nil, err
		}
		result = append(result, location)
	}
	return result, rows.Err()
}

// Save upserts a location.
func (r *LocationRepository) Save(ctx context.Context, location *masterdata.Location) error {
	if r == nil || r.db == nil {
		return errors.New("location repo: nil db")
	}
	if location == nil {
		return errors.New("location repo: nil location")
	}
	if err := location.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, name, department, floor)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	department = EXCLUDED.department,
	floor = EXCLUDED.floor`, r.table)

	_, err := r.db.ExecContext(ctx, query, location.ID, location.Name, location.Department, location.Floor)
	return err
}
