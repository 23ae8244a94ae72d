package events

import (
	"time"

	maintenance "medequip-cloud/internal/maintenance/domain"
)

// FaultReported is emitted when a nurse reports an equipment fault and
// a corrective work order is opened.
type FaultReported struct {
	WorkOrderID string               `json:"work_order_id"`
	AssetID     string               `json:"asset_id"`
	AssetRef    string               `json:"asset_ref"`
	Priority    maintenance.Priority `json:"priority"`
	FaultText   string               `json:"fault_text"`
	ReportedBy  string               `json:"reported_by"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

// WorkOrderAssigned is emitted when a work order is handed to a
// technician.
type WorkOrderAssigned struct {
	WorkOrderID string    `json:"work_order_id"`
	AssetID     string    `json:"asset_id"`
	AssigneeID  string    `json:"assignee_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// WorkOrderClosed is emitted when a work order is completed.
type WorkOrderClosed struct {
	WorkOrderID string                  `json:"work_order_id"`
	AssetID     string                  `json:"asset_id"`
	AssetRef    string                  `json:"asset_ref"`
	Type        maintenance.Type        `json:"type"`
	PartsUsed   []maintenance.PartUsage `json:"parts_used,omitempty"`
	OccurredAt  time.Time               `json:"occurred_at"`
}
