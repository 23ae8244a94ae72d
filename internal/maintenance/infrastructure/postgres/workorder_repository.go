package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	maintenance "medequip-cloud/internal/maintenance/domain"
)

const defaultWorkOrdersTable = "work_orders"

// WorkOrderRepository is a Postgres implementation for work orders.
// Parts used are stored as a JSONB document on the order row.
type WorkOrderRepository struct {
	db    *sql.DB
	table string
}

// NewWorkOrderRepository constructs a repository.
func NewWorkOrderRepository(db *sql.DB, opts ...WorkOrderOption) *WorkOrderRepository {
	repo := &WorkOrderRepository{db: db, table: defaultWorkOrdersTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// WorkOrderOption configures the repository.
type WorkOrderOption func(*WorkOrderRepository)

// WithWorkOrderTable overrides the default table name.
func WithWorkOrderTable(table string) WorkOrderOption {
	return func(repo *WorkOrderRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

const workOrderColumns = `id, asset_ref, type, priority, status, fault_text, assignee_id, reported_by, resolution, parts_used, created_at, started_at, closed_at, updated_at`

// Get loads a work order by id.
func (r *WorkOrderRepository) Get(ctx context.Context, id string) (*maintenance.WorkOrder, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("workorder repo: nil db")
	}
	if id == "" {
		return nil, errors.New("workorder repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, workOrderColumns, r.table)

	order, err := scanWorkOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, maintenance.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

// List returns all work orders ordered by creation time.
func (r *WorkOrderRepository) List(ctx context.Context) ([]maintenance.WorkOrder, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("workorder repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
ORDER BY created_at, id`, workOrderColumns, r.table)

	return r.queryOrders(ctx, query)
}

// ListByAssignee returns work orders assigned to the technician.
func (r *WorkOrderRepository) ListByAssignee(ctx context.Context, assigneeID string) ([]maintenance.WorkOrder, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("workorder repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE assignee_id = $1
ORDER BY created_at, id`, workOrderColumns, r.table)

	return r.queryOrders(ctx, query, assigneeID)
}

// Save upserts a work order.
func (r *WorkOrderRepository) Save(ctx context.Context, order *maintenance.WorkOrder) error {
	if r == nil || r.db == nil {
		return errors.New("workorder repo: nil db")
	}
	if order == nil {
		return errors.New("workorder repo: nil order")
	}
	if err := order.Validate(); err != nil {
		return err
	}

	parts, err := json.Marshal(order.PartsUsed)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id, asset_ref, type, priority, status, fault_text, assignee_id,
	reported_by, resolution, parts_used, created_at, started_at, closed_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
)
ON CONFLICT (id)
DO UPDATE SET
	asset_ref = EXCLUDED.asset_ref,
	type = EXCLUDED.type,
	priority = EXCLUDED.priority,
	status = EXCLUDED.status,
	fault_text = EXCLUDED.fault_text,
	assignee_id = EXCLUDED.assignee_id,
	reported_by = EXCLUDED.reported_by,
	resolution = EXCLUDED.resolution,
	parts_used = EXCLUDED.parts_used,
	started_at = EXCLUDED.started_at,
	closed_at = EXCLUDED.closed_at,
	updated_at = NOW()`, r.table)

	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(
		ctx,
		query,
		order.ID,
		order.AssetRef,
		string(order.Type),
		string(order.Priority),
		string(order.Status),
		order.FaultText,
		order.AssigneeID,
		order.ReportedBy,
		order.Resolution,
		parts,
		createdAt.UTC(),
		nullableTime(order.StartedAt),
		nullableTime(order.ClosedAt),
	)
	if err != nil {
		return err
	}
	order.CreatedAt = createdAt.UTC()
	order.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *WorkOrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]maintenance.WorkOrder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []maintenance.WorkOrder
	for rows.Next() {
		order, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkOrder(row rowScanner) (*maintenance.WorkOrder, error) {
	var order maintenance.WorkOrder
	var orderType, priority, status string
	var parts []byte
	var startedAt, closedAt sql.NullTime
	if err := row.Scan(
		&order.ID,
		&order.AssetRef,
		&orderType,
		&priority,
		&status,
		&order.FaultText,
		&order.AssigneeID,
		&order.ReportedBy,
		&order.Resolution,
		&parts,
		&order.CreatedAt,
		&startedAt,
		&closedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}
	order.Type = maintenance.Type(orderType)
	order.Priority = maintenance.Priority(priority)
	order.Status = maintenance.Status(status)
	if len(parts) > 0 {
		if err := json.Unmarshal(parts, &order.PartsUsed); err != nil {
			return nil, err
		}
	}
	if startedAt.Valid {
		order.StartedAt = startedAt.Time.UTC()
	}
	if closedAt.Valid {
		order.ClosedAt = closedAt.Time.UTC()
	}
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	return &order, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
