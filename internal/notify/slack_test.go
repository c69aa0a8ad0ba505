package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/miradorstack/teleops-rca/internal/models"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(rt roundTripFunc) *http.Client {
	return &http.Client{Transport: rt}
}

func testIncident() models.Incident {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return models.Incident{
		ID:              "fiber_20240601_100000_beef",
		Tag:             "fiber",
		StartTime:       start,
		EndTime:         start.Add(3 * time.Minute),
		Severity:        models.SeverityCritical,
		Summary:         "Correlated incident for tag: fiber",
		RelatedAlertIDs: []string{"a", "b", "c"},
	}
}

func TestMessage(t *testing.T) {
	want := "Incident fiber_20240601_100000_beef opened: Correlated incident for tag: fiber (3 alerts)"
	if got := Message(testIncident()); got != want {
		t.Fatalf("message = %q", got)
	}
}

func TestIncidentOpenedPostsWebhook(t *testing.T) {
	var payload map[string]any
	notifier := NewSlackNotifier("https://hooks.example.com/services/T/B/X", 0, nil)
	notifier.httpClient = newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Host != "hooks.example.com" {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL)
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString("ok")),
			Header:     make(http.Header),
		}, nil
	})

	if err := notifier.IncidentOpened(context.Background(), testIncident()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload["text"] != Message(testIncident()) {
		t.Fatalf("unexpected text %v", payload["text"])
	}
}

func TestIncidentOpenedReportsFailure(t *testing.T) {
	notifier := NewSlackNotifier("https://hooks.example.com/services/T/B/X", time.Second, nil)
	notifier.httpClient = newTestClient(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       io.NopCloser(bytes.NewBufferString("boom")),
			Header:     make(http.Header),
		}, nil
	})
	if err := notifier.IncidentOpened(context.Background(), testIncident()); err == nil {
		t.Fatalf("expected error on 500 response")
	}
}
