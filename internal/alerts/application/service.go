package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	alerts "medequip-cloud/internal/alerts/domain"
	masterdata "medequip-cloud/internal/masterdata/domain"
)

// AlertEvent describes an alert lifecycle change handed to notifiers.
type AlertEvent struct {
	Type  string       `json:"type"` // raised, resolved, acknowledged
	Alert alerts.Alert `json:"alert"`
}

// AlertNotifier receives alert lifecycle events.
type AlertNotifier interface {
	Notify(ctx context.Context, event AlertEvent)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// Service evaluates risk-score changes against thresholds and manages
// alert lifecycle.
type Service struct {
	repo     alerts.AlertRepository
	config   Config
	notifier AlertNotifier
	clock    Clock
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithNotifier attaches a notifier.
func WithNotifier(notifier AlertNotifier) ServiceOption {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// NewService constructs an alert service.
func NewService(repo alerts.AlertRepository, config Config, clock Clock, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("alert service: nil repository")
	}
	if clock == nil {
		return nil, errors.New("alert service: nil clock")
	}
	service := &Service{repo: repo, config: config, clock: clock}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// RiskChange describes a score transition on one asset.
type RiskChange struct {
	AssetID    string
	Model      string
	LocationID string
	Score      int
}

// Evaluate raises an alert when the score reaches the department
// threshold and resolves any open alert when it drops back below.
func (s *Service) Evaluate(ctx context.Context, change RiskChange, lookup masterdata.DepartmentLookup) error {
	if change.AssetID == "" {
		return errors.New("alert service: empty asset id")
	}

	department := ""
	if lookup != nil {
		department = lookup(change.LocationID)
	}
	threshold := s.config.ThresholdFor(department)

	open, err := s.repo.GetOpenByAsset(ctx, change.AssetID)
	if err != nil && !errors.Is(err, alerts.ErrNotFound) {
		return err
	}

	now := s.clock.Now().UTC()
	if change.Score >= threshold {
		if open != nil {
			open.Score = change.Score
			open.Threshold = threshold
			return s.repo.Save(ctx, open)
		}
		alert := &alerts.Alert{
			ID:         newAlertID(),
			AssetID:    change.AssetID,
			Model:      change.Model,
			LocationID: change.LocationID,
			Department: department,
			Score:      change.Score,
			Threshold:  threshold,
			Status:     alerts.StatusActive,
			RaisedAt:   now,
			CreatedAt:  now,
		}
		if err := s.repo.Save(ctx, alert); err != nil {
			return err
		}
		s.notify(ctx, AlertEvent{Type: "raised", Alert: *alert})
		return nil
	}

	if open == nil {
		return nil
	}
	open.Score = change.Score
	open.Status = alerts.StatusResolved
	open.ResolvedAt = now
	if err := s.repo.Save(ctx, open); err != nil {
		return err
	}
	s.notify(ctx, AlertEvent{Type: "resolved", Alert: *open})
	return nil
}

// Acknowledge marks an active alert as seen by a supervisor.
func (s *Service) Acknowledge(ctx context.Context, alertID string) (*alerts.Alert, error) {
	alert, err := s.repo.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert.Status != alerts.StatusActive {
		return nil, errors.New("alert service: alert not active")
	}

	alert.Status = alerts.StatusAcknowledged
	alert.AckedAt = s.clock.Now().UTC()
	if err := s.repo.Save(ctx, alert); err != nil {
		return nil, err
	}
	s.notify(ctx, AlertEvent{Type: "acknowledged", Alert: *alert})
	return alert, nil
}

// List returns alerts filtered by status; empty status means all.
func (s *Service) List(ctx context.Context, status string) ([]alerts.Alert, error) {
	return s.repo.List(ctx, status)
}

func (s *Service) notify(ctx context.Context, event AlertEvent) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, event)
	}
}

func newAlertID() string {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	return "alert-" + hex.EncodeToString(buf[:])
}
