package maintenance

import (
	"context"
	"errors"
	"time"
)

// Type classifies a work order.
type Type string

const (
	TypeCorrective  Type = "corrective"
	TypePreventive  Type = "preventive"
	TypeCalibration Type = "calibration"
)

// IsValid reports whether the type is a known value.
func (t Type) IsValid() bool {
	switch t {
	case TypeCorrective, TypePreventive, TypeCalibration:
		return true
	default:
		return false
	}
}

// Priority orders work by urgency.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// IsValid reports whether the priority is a known value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// Status describes the work-order lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
	StatusCancelled  Status = "cancelled"
)

// IsValid reports whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusAssigned, StatusInProgress, StatusClosed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the order still counts against a technician's
// workload.
func (s Status) IsOpen() bool {
	return s == StatusOpen || s == StatusAssigned || s == StatusInProgress
}

// PartUsage records a spare part consumed by a work order.
type PartUsage struct {
	PartID   string
	Quantity int
}

// WorkOrder represents a maintenance task on an asset.
//
// AssetRef may hold the asset's primary id or its tag id; StartedAt and
// ClosedAt are zero when unknown, and ClosedAt is only meaningful once
// Status is closed.
type WorkOrder struct {
	ID         string
	AssetRef   string
	Type       Type
	Priority   Priority
	Status     Status
	FaultText  string
	AssigneeID string
	ReportedBy string
	Resolution string
	PartsUsed  []PartUsage
	CreatedAt  time.Time
	StartedAt  time.Time
	ClosedAt   time.Time
	UpdatedAt  time.Time
}

// Validate checks work-order invariants.
func (w WorkOrder) Validate() error {
	if w.ID == "" {
		return errors.New("workorder: empty id")
	}
	if w.AssetRef == "" {
		return errors.New("workorder: empty asset ref")
	}
	if !w.Type.IsValid() {
		return errors.New("workorder: invalid type")
	}
	if !w.Priority.IsValid() {
		return errors.New("workorder: invalid priority")
	}
	if !w.Status.IsValid() {
		return errors.New("workorder: invalid status")
	}
	if w.Status == StatusClosed && !w.ClosedAt.IsZero() && !w.StartedAt.IsZero() && !w.ClosedAt.After(w.StartedAt) {
		return errors.New("workorder: closed before started")
	}
	return nil
}

// RepairDuration returns the start-to-close duration when both
// timestamps are present and ordered; ok is false otherwise.
func (w WorkOrder) RepairDuration() (time.Duration, bool) {
	if w.StartedAt.IsZero() || w.ClosedAt.IsZero() {
		return 0, false
	}
	if !w.ClosedAt.After(w.StartedAt) {
		return 0, false
	}
	return w.ClosedAt.Sub(w.StartedAt), true
}

// WorkOrderRepository manages work-order persistence.
type WorkOrderRepository interface {
	Get(ctx context.Context, id string) (*WorkOrder, error)
	List(ctx context.Context) ([]WorkOrder, error)
	ListByAssignee(ctx context.Context, assigneeID string) ([]WorkOrder, error)
	Save(ctx context.Context, order *WorkOrder) error
}
