package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	assets "medequip-cloud/internal/assets/domain"
)

const defaultAssetsTable = "assets"

// AssetRepository is a Postgres implementation for assets.
type AssetRepository struct {
	db    *sql.DB
	table string
}

// NewAssetRepository constructs a repository.
func NewAssetRepository(db *sql.DB, opts ...AssetOption) *AssetRepository {
	repo := &AssetRepository{db: db, table: defaultAssetsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// AssetOption configures the repository.
type AssetOption func(*AssetRepository)

// WithAssetTable overrides the default table name.
func WithAssetTable(table string) AssetOption {
	return func(repo *AssetRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

const assetColumns = `id, tag_id, name, model, manufacturer, location_id, status, purchase_date, operating_hours, risk_score, created_at, updated_at`

// Get loads an asset by primary id.
func (r *AssetRepository) Get(ctx context.Context, id string) (*assets.Asset, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("asset repo: nil db")
	}
	if id == "" {
		return nil, errors.New("asset repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, assetColumns, r.table)

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByRef loads an asset by primary id or tag id.
func (r *AssetRepository) GetByRef(ctx context.Context, ref string) (*assets.Asset, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("asset repo: nil db")
	}
	if ref == "" {
		return nil, errors.New("asset repo: empty ref")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1 OR tag_id = $1
LIMIT 1`, assetColumns, r.table)

	return r.scanOne(r.db.QueryRowContext(ctx, query, ref))
}

// List returns all assets ordered by id.
func (r *AssetRepository) List(ctx context.Context) ([]assets.Asset, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("asset repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
ORDER BY id`, assetColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []assets.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *asset)
	}
	return result, rows.Err()
}

// Save upserts an asset.
func (r *AssetRepository) Save(ctx context.Context, asset *assets.Asset) error {
	if r == nil || r.db == nil {
		return errors.New("asset repo: nil db")
	}
	if asset == nil {
		return errors.New("asset repo: nil asset")
	}
	if err := asset.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id, tag_id, name, model, manufacturer, location_id, status,
	purchase_date, operating_hours, risk_score
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
ON CONFLICT (id)
DO UPDATE SET
	tag_id = EXCLUDED.tag_id,
	name = EXCLUDED.name,
	model = EXCLUDED.model,
	manufacturer = EXCLUDED.manufacturer,
	location_id = EXCLUDED.location_id,
	status = EXCLUDED.status,
	purchase_date = EXCLUDED.purchase_date,
	operating_hours = EXCLUDED.operating_hours,
	risk_score = EXCLUDED.risk_score,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		asset.ID,
		asset.TagID,
		asset.Name,
		asset.Model,
		asset.Manufacturer,
		asset.LocationID,
		string(asset.Status),
		nullableTime(asset.PurchaseDate),
		asset.OperatingHours,
		asset.RiskScore,
	)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now
	}
	asset.UpdatedAt = now
	return nil
}

// UpdateStatus changes the operational status of an asset.
func (r *AssetRepository) UpdateStatus(ctx context.Context, id string, status assets.Status) error {
	if r == nil || r.db == nil {
		return errors.New("asset repo: nil db")
	}
	if !status.IsValid() {
		return errors.New("asset repo: invalid status")
	}

	query := fmt.Sprintf(`
UPDATE %s
SET status = $2, updated_at = NOW()
WHERE id = $1`, r.table)

	res, err := r.db.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateRiskScore writes the engine-computed risk score.
func (r *AssetRepository) UpdateRiskScore(ctx context.Context, id string, score int) error {
	if r == nil || r.db == nil {
		return errors.New("asset repo: nil db")
	}
	if score < 0 || score > 100 {
		return errors.New("asset repo: score out of range")
	}

	query := fmt.Sprintf(`
UPDATE %s
SET risk_score = $2, updated_at = NOW()
WHERE id = $1`, r.table)

	res, err := r.db.ExecContext(ctx, query, id, score)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *AssetRepository) scanOne(row rowScanner) (*assets.Asset, error) {
	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, assets.ErrNotFound
		}
		return nil, err
	}
	return asset, nil
}

func scanAsset(row rowScanner) (*assets.Asset, error) {
	var asset assets.Asset
	var status string
	var purchaseDate sql.NullTime
	if err := row.Scan(
		&asset.ID,
		&asset.TagID,
		&asset.Name,
		&asset.Model,
		&asset.Manufacturer,
		&asset.LocationID,
		&status,
		&purchaseDate,
		&asset.OperatingHours,
		&asset.RiskScore,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	); err != nil {
		return nil, err
	}
	asset.Status = assets.Status(status)
	if purchaseDate.Valid {
		asset.PurchaseDate = purchaseDate.Time.UTC()
	}
	asset.CreatedAt = asset.CreatedAt.UTC()
	asset.UpdatedAt = asset.UpdatedAt.UTC()
	return &asset, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return assets.ErrNotFound
	}
	return nil
}
