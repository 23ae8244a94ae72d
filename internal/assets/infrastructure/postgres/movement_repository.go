package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	assets "medequip-cloud/internal/assets/domain"
)

const defaultMovementsTable = "movement_logs"

// MovementRepository is a Postgres implementation for movement logs.
type MovementRepository struct {
	db    *sql.DB
	table string
}

// NewMovementRepository constructs a repository.
func NewMovementRepository(db *sql.DB, opts ...MovementOption) *MovementRepository {
	repo := &MovementRepository{db: db, table: defaultMovementsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// MovementOption configures the repository.
type MovementOption func(*MovementRepository)

// WithMovementTable overrides the default table name.
func WithMovementTable(table string) MovementOption {
	return func(repo *MovementRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Append records a relocation event.
func (r *MovementRepository) Append(ctx context.Context, entry *assets.MovementLog) error {
	if r == nil || r.db == nil {
		return errors.New("movement repo: nil db")
	}
	if entry == nil {
		return errors.New("movement repo: nil entry")
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	if entry.ID == "" {
		entry.ID = newMovementID()
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, asset_ref, from_location_id, to_location_id, recorded_at)
VALUES ($1, $2, $3, $4, $5)`, r.table)

	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.AssetRef, entry.FromLocationID, entry.ToLocationID, entry.RecordedAt.UTC())
	return err
}

// List returns all movement entries ordered by time.
func (r *MovementRepository) List(ctx context.Context) ([]assets.MovementLog, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("movement repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, asset_ref, from_location_id, to_location_id, recorded_at
FROM %s
ORDER BY recorded_at, id`, r.table)

	return r.queryEntries(ctx, query)
}

// ListByAsset returns entries whose asset ref matches any of refs.
func (r *MovementRepository) ListByAsset(ctx context.Context, refs []string) ([]assets.MovementLog, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("movement repo: nil db")
	}
	if len(refs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
SELECT id, asset_ref, from_location_id, to_location_id, recorded_at
FROM %s
WHERE asset_ref = ANY($1)
ORDER BY recorded_at, id`, r.table)

	return r.queryEntries(ctx, query, refsArray(refs))
}

func (r *MovementRepository) queryEntries(ctx context.Context, query string, args ...any) ([]assets.MovementLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []assets.MovementLog
	for rows.Next() {
		var entry assets.MovementLog
		if err := rows.Scan(&entry.ID, &entry.AssetRef, &entry.FromLocationID, &entry.ToLocationID, &entry.RecordedAt); err != nil {
			return nil, err
		}
		entry.RecordedAt = entry.RecordedAt.UTC()
		result = append(result, entry)
	}
	return result, rows.Err()
}

// refsArray formats refs as a Postgres text array literal; the pgx
// stdlib driver maps it without a typed array dependency.
func refsArray(refs []string) string {
	out := "{"
	for i, ref := range refs {
		if i > 0 {
			out += ","
		}
		out += `"` + ref + `"`
	}
	return out + "}"
}

func newMovementID() string {
	var buf [6]byte
	_, _ = rand.Read(buf[:])
	return "mv-" + hex.EncodeToString(buf[:])
}
