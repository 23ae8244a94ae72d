package interfaces

import (
	"context"
	"errors"

	alertapp "medequip-cloud/internal/alerts/application"
	assetevents "medequip-cloud/internal/assets/application/events"
	"medequip-cloud/internal/eventing/eventbus"
	masterdata "medequip-cloud/internal/masterdata/domain"
)

// RiskEvaluator checks a score change against alert thresholds.
type RiskEvaluator interface {
	Evaluate(ctx context.Context, change alertapp.RiskChange, lookup masterdata.DepartmentLookup) error
}

// RiskScoreConsumer raises and resolves alerts as risk scores move.
type RiskScoreConsumer struct {
	evaluator RiskEvaluator
	lookup    masterdata.DepartmentLookup
}

// NewRiskScoreConsumer constructs a consumer.
func NewRiskScoreConsumer(evaluator RiskEvaluator, lookup masterdata.DepartmentLookup) (*RiskScoreConsumer, error) {
	if evaluator == nil {
		return nil, errors.New("alerts consumer: nil evaluator")
	}
	return &RiskScoreConsumer{evaluator: evaluator, lookup: lookup}, nil
}

// HandleRiskScoreUpdated evaluates the new score against thresholds.
func (c *RiskScoreConsumer) HandleRiskScoreUpdated(ctx context.Context, event any) error {
	evt, ok := event.(assetevents.RiskScoreUpdated)
	if !ok {
		return eventbus.ErrInvalidEventType
	}
	return c.evaluator.Evaluate(ctx, alertapp.RiskChange{
		AssetID:    evt.AssetID,
		Model:      evt.Model,
		LocationID: evt.LocationID,
		Score:      evt.Score,
	}, c.lookup)
}
