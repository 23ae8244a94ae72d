package events

import "time"

// AssetRelocated is emitted when a movement-log entry is recorded.
type AssetRelocated struct {
	AssetID        string    `json:"asset_id"`
	AssetRef       string    `json:"asset_ref"`
	FromLocationID string    `json:"from_location_id"`
	ToLocationID   string    `json:"to_location_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// RiskScoreUpdated is emitted when the scoring engine writes a changed
// risk score back onto an asset.
type RiskScoreUpdated struct {
	AssetID       string    `json:"asset_id"`
	Model         string    `json:"model"`
	LocationID    string    `json:"location_id"`
	PreviousScore int       `json:"previous_score"`
	Score         int       `json:"score"`
	OccurredAt    time.Time `json:"occurred_at"`
}
