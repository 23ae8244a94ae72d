package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	alerts "medequip-cloud/internal/alerts/domain"
)

const defaultAlertsTable = "risk_alerts"

const alertColumns = "id, asset_id, model, location_id, department, score, threshold, status, raised_at, acked_at, resolved_at, created_at, updated_at"

// AlertRepository is a Postgres implementation for risk alerts.
type AlertRepository struct {
	db    *sql.DB
	table string
}

// NewAlertRepository constructs a repository.
func NewAlertRepository(db *sql.DB, opts ...AlertOption) *AlertRepository {
	repo := &AlertRepository{db: db, table: defaultAlertsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// AlertOption configures the repository.
type AlertOption func(*AlertRepository)

// WithAlertTable overrides the default table name.
func WithAlertTable(table string) AlertOption {
	return func(repo *AlertRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads an alert by id.
func (r *AlertRepository) Get(ctx context.Context, id string) (*alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	if id == "" {
		return nil, errors.New("alert repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, alertColumns, r.table)

	alert, err := scanAlert(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, alerts.ErrNotFound
		}
		return nil, err
	}
	return alert, nil
}

// GetOpenByAsset returns the active or acknowledged alert for an asset,
// or nil when no alert is open.
func (r *AlertRepository) GetOpenByAsset(ctx context.Context, assetID string) (*alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	if assetID == "" {
		return nil, errors.New("alert repo: empty asset id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE asset_id = $1 AND status IN ($2, $3)
ORDER BY raised_at DESC
LIMIT 1`, alertColumns, r.table)

	alert, err := scanAlert(r.db.QueryRowContext(ctx, query, assetID, alerts.StatusActive, alerts.StatusAcknowledged))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return alert, nil
}

// List returns alerts filtered by status, newest first.
func (r *AlertRepository) List(ctx context.Context, status string) ([]alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE ($1 = '' OR status = $1)
ORDER BY raised_at DESC, id`, alertColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []alerts.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *alert)
	}
	return result, rows.Err()
}

// Save upserts an alert.
func (r *AlertRepository) Save(ctx context.Context, alert *alerts.Alert) error {
	if r == nil || r.db == nil {
		return errors.New("alert repo: nil db")
	}
	if alert == nil {
		return errors.New("alert repo: nil alert")
	}
	if alert.ID == "" {
		return errors.New("alert repo: empty id")
	}

	now := time.Now().UTC()
	createdAt := alert.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
	score = EXCLUDED.score,
	threshold = EXCLUDED.threshold,
	status = EXCLUDED.status,
	acked_at = EXCLUDED.acked_at,
	resolved_at = EXCLUDED.resolved_at,
	updated_at = EXCLUDED.updated_at`, r.table, alertColumns)

	_, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.AssetID,
		alert.Model,
		alert.LocationID,
		alert.Department,
		alert.Score,
		alert.Threshold,
		alert.Status,
		alert.RaisedAt.UTC(),
		nullableTime(alert.AckedAt),
		nullableTime(alert.ResolvedAt),
		createdAt,
		now,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*alerts.Alert, error) {
	var alert alerts.Alert
	var ackedAt, resolvedAt sql.NullTime
	if err := row.Scan(
		&alert.ID,
		&alert.AssetID,
		&alert.Model,
		&alert.LocationID,
		&alert.Department,
		&alert.Score,
		&alert.Threshold,
		&alert.Status,
		&alert.RaisedAt,
		&ackedAt,
		&resolvedAt,
		&alert.CreatedAt,
		&alert.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if ackedAt.Valid {
		alert.AckedAt = ackedAt.Time.UTC()
	}
	if resolvedAt.Valid {
		alert.ResolvedAt = resolvedAt.Time.UTC()
	}
	alert.RaisedAt = alert.RaisedAt.UTC()
	alert.CreatedAt = alert.CreatedAt.UTC()
	alert.UpdatedAt = alert.UpdatedAt.UTC()
	return &alert, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
