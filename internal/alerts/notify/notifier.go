package notify

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"
	"time"

	alertapp "medequip-cloud/internal/alerts/application"
	alerts "medequip-cloud/internal/alerts/domain"
	assets "medequip-cloud/internal/assets/domain"
)

// AssetReader loads asset metadata.
type AssetReader interface {
	Get(ctx context.Context, id string) (*assets.Asset, error)
}

// AlertReader loads alert records.
type AlertReader interface {
	Get(ctx context.Context, id string) (*alerts.Alert, error)
}

// Clock provides time for scheduling.
type Clock interface {
	Now() time.Time
}

type sendRecord struct {
	at   time.Time
	hash string
}

// Notifier sends risk-alert notifications via a channel and escalates
// alerts that stay unacknowledged.
type Notifier struct {
	assets         AssetReader
	alerts         AlertReader
	channel        Channel
	template       *Template
	escalation     time.Duration
	clock          Clock
	mu             sync.Mutex
	timers         map[string]*time.Timer
	sent           map[string]sendRecord
	cooldown       time.Duration
	dedupeWindow   time.Duration
	requestTimeout time.Duration
}

// Option configures the notifier.
type Option func(*Notifier)

// WithEscalation configures escalation delay.
func WithEscalation(after time.Duration) Option {
	return func(n *Notifier) {
		if after > 0 {
			n.escalation = after
		}
	}
}

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(n *Notifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithRequestTimeout overrides the default timeout for escalation checks.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(n *Notifier) {
		if timeout > 0 {
			n.requestTimeout = timeout
		}
	}
}

// WithCooldown sets a minimum interval between notifications for the same alert and event.
func WithCooldown(interval time.Duration) Option {
	return func(n *Notifier) {
		if interval > 0 {
			n.cooldown = interval
		}
	}
}

// WithDedupeWindow suppresses identical notifications within the window.
func WithDedupeWindow(window time.Duration) Option {
	return func(n *Notifier) {
		if window > 0 {
			n.dedupeWindow = window
		}
	}
}

// NewNotifier constructs a risk-alert notifier.
func NewNotifier(assetReader AssetReader, alertReader AlertReader, channel Channel, template *Template, opts ...Option) (*Notifier, error) {
	if alertReader == nil {
		return nil, errors.New("alert notifier: nil alert reader")
	}
	if channel == nil {
		return nil, errors.New("alert notifier: nil channel")
	}
	if template == nil {
		defaultTemplate, err := NewTemplate("")
		if err != nil {
			return nil, err
		}
		template = defaultTemplate
	}
	n := &Notifier{
		assets:         assetReader,
		alerts:         alertReader,
		channel:        channel,
		template:       template,
		escalation:     0,
		clock:          systemClock{},
		timers:         make(map[string]*time.Timer),
		sent:           make(map[string]sendRecord),
		requestTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify implements AlertNotifier.
func (n *Notifier) Notify(ctx context.Context, event alertapp.AlertEvent) {
	if n == nil || n.channel == nil {
		return
	}
	asset := n.lookup(ctx, event.Alert)
	n.dispatch(ctx, event.Type, event.Alert, asset)

	switch event.Type {
	case "raised":
		n.scheduleEscalation(event.Alert)
	case "acknowledged", "resolved":
		n.cancelEscalation(event.Alert.ID)
	}
}

// Close stops all pending escalation timers.
func (n *Notifier) Close() {
	if n == nil {
		return
	}
	n.mu.Lock()
	timers := n.timers
	n.timers = make(map[string]*time.Timer)
	n.mu.Unlock()
	for _, timer := range timers {
		if timer != nil {
			timer.Stop()
		}
	}
}

func (n *Notifier) lookup(ctx context.Context, alert alerts.Alert) *assets.Asset {
	if n.assets == nil {
		return nil
	}
	asset, err := n.assets.Get(ctx, alert.AssetID)
	if err != nil {
		return nil
	}
	return asset
}

func (n *Notifier) dispatch(ctx context.Context, eventType string, alert alerts.Alert, asset *assets.Asset) {
	data := buildTemplateData(eventType, alert, asset)
	content, err := n.template.Render(data)
	if err != nil {
		return
	}
	if !n.shouldSend(alert.ID, eventType, content) {
		return
	}
	if err := n.channel.Send(ctx, content); err != nil {
		return
	}
	n.markSent(alert.ID, eventType, content)
}

func (n *Notifier) scheduleEscalation(alert alerts.Alert) {
	if n == nil || n.escalation <= 0 || alert.ID == "" {
		return
	}
	n.mu.Lock()
	if existing, ok := n.timers[alert.ID]; ok {
		if existing != nil {
			existing.Stop()
		}
	}
	timer := time.AfterFunc(n.escalation, func() {
		n.runEscalation(alert.ID)
	})
	n.timers[alert.ID] = timer
	n.mu.Unlock()
}

func (n *Notifier) cancelEscalation(alertID string) {
	if n == nil || alertID == "" {
		return
	}
	n.mu.Lock()
	timer := n.timers[alertID]
	delete(n.timers, alertID)
	n.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
}

func (n *Notifier) runEscalation(alertID string) {
	if n == nil || alertID == "" {
		return
	}
	n.mu.Lock()
	delete(n.timers, alertID)
	n.mu.Unlock()

	ctx := context.Background()
	if n.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.requestTimeout)
		defer cancel()
	}

	alert, err := n.alerts.Get(ctx, alertID)
	if err != nil || alert == nil {
		return
	}
	if alert.Status != alerts.StatusActive {
		return
	}
	asset := n.lookup(ctx, *alert)
	n.dispatch(ctx, "escalated", *alert, asset)
}

func buildTemplateData(eventType string, alert alerts.Alert, asset *assets.Asset) TemplateData {
	assetName := alert.AssetID
	model := alert.Model
	if asset != nil {
		if asset.Name != "" {
			assetName = asset.Name
		}
		if model == "" {
			model = asset.Model
		}
	}
	department := alert.Department
	if department == "" {
		department = alert.LocationID
	}
	raisedAt := alert.RaisedAt
	if raisedAt.IsZero() {
		raisedAt = alert.CreatedAt
	}

	return TemplateData{
		Asset:      assetName,
		AssetID:    alert.AssetID,
		Model:      model,
		Department: department,
		Score:      strconv.Itoa(alert.Score),
		Threshold:  strconv.Itoa(alert.Threshold),
		RaisedAt:   raisedAt.UTC().Format(time.RFC3339),
		Status:     alert.Status,
		Suggestion: suggestionFor(alert),
		Event:      eventType,
		EventLabel: eventLabel(eventType),
	}
}

func eventLabel(event string) string {
	switch event {
	case "raised":
		return "Raised"
	case "acknowledged":
		return "Acknowledged"
	case "resolved":
		return "Resolved"
	case "escalated":
		return "Escalated"
	default:
		return event
	}
}

func suggestionFor(alert alerts.Alert) string {
	switch {
	case alert.Status == alerts.StatusResolved:
		return "No action required."
	case alert.Score >= 90:
		return "Take the equipment out of service and inspect immediately."
	case alert.Score >= alert.Threshold:
		return "Schedule a preventive inspection as soon as possible."
	default:
		return "Monitor the equipment condition."
	}
}

func (n *Notifier) shouldSend(alertID, eventType, content string) bool {
	if n == nil {
		return false
	}
	if n.cooldown <= 0 && n.dedupeWindow <= 0 {
		return true
	}
	key := notificationKey(alertID, eventType)
	now := n.clock.Now().UTC()
	hash := hashContent(content)

	n.mu.Lock()
	record, ok := n.sent[key]
	n.mu.Unlock()
	if !ok {
		return true
	}
	if n.cooldown > 0 && now.Sub(record.at) < n.cooldown {
		return false
	}
	if n.dedupeWindow > 0 && record.hash == hash && now.Sub(record.at) < n.dedupeWindow {
		return false
	}
	return true
}

func (n *Notifier) markSent(alertID, eventType, content string) {
	if n == nil {
		return
	}
	key := notificationKey(alertID, eventType)
	n.mu.Lock()
	n.sent[key] = sendRecord{
		at:   n.clock.Now().UTC(),
		hash: hashContent(content),
	}
	n.mu.Unlock()
}

func notificationKey(alertID, eventType string) string {
	return alertID + "|" + eventType
}

func hashContent(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:8])
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
