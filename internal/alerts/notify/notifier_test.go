package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	alertapp "medequip-cloud/internal/alerts/application"
	alerts "medequip-cloud/internal/alerts/domain"
	assets "medequip-cloud/internal/assets/domain"
)

type stubAssetReader struct {
	asset *assets.Asset
}

func (s stubAssetReader) Get(_ context.Context, _ string) (*assets.Asset, error) {
	return s.asset, nil
}

type stubAlertReader struct {
	alert *alerts.Alert
}

func (s stubAlertReader) Get(_ context.Context, _ string) (*alerts.Alert, error) {
	return s.alert, nil
}

func TestWebhookNotifierPayload(t *testing.T) {
	payloadCh := make(chan webhookPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var payload webhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		payloadCh <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL)
	if err != nil {
		t.Fatalf("new webhook channel: %v", err)
	}
	tpl, err := NewTemplate("")
	if err != nil {
		t.Fatalf("new template: %v", err)
	}

	asset := &assets.Asset{ID: "asset-1", TagID: "TAG-0001", Name: "Ventilator 3", Model: "Servo-U"}
	alert := &alerts.Alert{
		ID:         "alert-1",
		AssetID:    "asset-1",
		Model:      "Servo-U",
		LocationID: "icu-1",
		Department: "ICU",
		Score:      85,
		Threshold:  70,
		Status:     alerts.StatusActive,
		RaisedAt:   time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		CreatedAt:  time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}

	notifier, err := NewNotifier(
		stubAssetReader{asset: asset},
		stubAlertReader{alert: alert},
		channel,
		tpl,
		WithEscalation(0),
	)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	notifier.Notify(context.Background(), alertapp.AlertEvent{Type: "raised", Alert: *alert})

	select {
	case payload := <-payloadCh:
		if payload.MsgType != "text" {
			t.Fatalf("expected msgtype text, got %s", payload.MsgType)
		}
		content := payload.Text.Content
		checks := []string{
			"[Risk Alert Raised]",
			"Asset: Ventilator 3",
			"Model: Servo-U",
			"Department: ICU",
			"Risk Score: 85",
			"Threshold: 70",
			"Raised At: 2026-03-10T08:00:00Z",
			"Current Status: active",
			"Suggestion:",
		}
		for _, expected := range checks {
			if !strings.Contains(content, expected) {
				t.Fatalf("expected content to include %q, got %s", expected, content)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for webhook payload")
	}
}

type recordingChannel struct {
	mu       sync.Mutex
	contents []string
}

func (r *recordingChannel) Send(_ context.Context, content string) error {
	r.mu.Lock()
	r.contents = append(r.contents, content)
	r.mu.Unlock()
	return nil
}

func (r *recordingChannel) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.contents)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Add(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestNotifierCooldown(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)}
	channel := &recordingChannel{}
	tpl, err := NewTemplate("")
	if err != nil {
		t.Fatalf("new template: %v", err)
	}
	asset := &assets.Asset{ID: "asset-1", Name: "Infusion Pump", Model: "Alaris 8100"}
	alert := &alerts.Alert{
		ID:        "alert-1",
		AssetID:   "asset-1",
		Model:     "Alaris 8100",
		Score:     78,
		Threshold: 70,
		Status:    alerts.StatusActive,
		RaisedAt:  clock.Now(),
	}

	notifier, err := NewNotifier(
		stubAssetReader{asset: asset},
		stubAlertReader{alert: alert},
		channel,
		tpl,
		WithEscalation(0),
		WithClock(clock),
		WithCooldown(10*time.Minute),
	)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	event := alertapp.AlertEvent{Type: "raised", Alert: *alert}
	notifier.Notify(context.Background(), event)
	notifier.Notify(context.Background(), event)
	if channel.Count() != 1 {
		t.Fatalf("expected cooldown to suppress repeat, got %d sends", channel.Count())
	}

	clock.Add(11 * time.Minute)
	notifier.Notify(context.Background(), event)
	if channel.Count() != 2 {
		t.Fatalf("expected send after cooldown elapsed, got %d sends", channel.Count())
	}
}

func TestNotifierEscalatesUnacknowledged(t *testing.T) {
	channel := &recordingChannel{}
	tpl, err := NewTemplate("")
	if err != nil {
		t.Fatalf("new template: %v", err)
	}
	alert := &alerts.Alert{
		ID:        "alert-1",
		AssetID:   "asset-1",
		Model:     "Servo-U",
		Score:     92,
		Threshold: 70,
		Status:    alerts.StatusActive,
		RaisedAt:  time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}

	notifier, err := NewNotifier(
		stubAssetReader{},
		stubAlertReader{alert: alert},
		channel,
		tpl,
		WithEscalation(20*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	defer notifier.Close()

	notifier.Notify(context.Background(), alertapp.AlertEvent{Type: "raised", Alert: *alert})

	deadline := time.Now().Add(2 * time.Second)
	for channel.Count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected escalation send, got %d sends", channel.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
