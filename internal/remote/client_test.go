package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dayplan/internal/domain"
)

func fixedClient(baseURL string) *Client {
	c := New(baseURL)
	c.Now = func() time.Time { return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestFromWireDefaults(t *testing.T) {
	got := FromWire(WireTask{ID: "r-1", Text: "no dates"}, "2026-08-23")
	if got.DueDate != "2026-08-23" {
		t.Fatalf("missing due date should default to today, got %q", got.DueDate)
	}
	if got.Timeframe != domain.TimeframeToday {
		t.Fatalf("missing timeframe should default to today, got %q", got.Timeframe)
	}

	got = FromWire(WireTask{ID: "r-2", Text: "weird", Timeframe: "someday"}, "2026-08-23")
	if got.Timeframe != domain.TimeframeToday {
		t.Fatalf("unknown timeframe should default to today, got %q", got.Timeframe)
	}
}

func TestToWireDropsSelection(t *testing.T) {
	w := ToWire(domain.Task{ID: "l-1", Text: "picked", Selected: true})
	b, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	if _, ok := m["selected"]; ok {
		t.Fatal("selection flag must not cross the wire")
	}
}

func TestCreateTaskClearsLocalID(t *testing.T) {
	var gotBody WireTask
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		gotBody.ID = "server-assigned"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(gotBody)
	}))
	defer srv.Close()

	c := fixedClient(srv.URL)
	created, err := c.CreateTask(context.Background(), domain.Task{
		ID: "local-uuid", Text: "hello", DueDate: "2026-08-23", Timeframe: domain.TimeframeToday,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if gotBody.Text != "hello" {
		t.Fatalf("bad upload body: %+v", gotBody)
	}
	if created.ID != "server-assigned" {
		t.Fatalf("expected the server id, got %q", created.ID)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var authz string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"tasks": []WireTask{}, "total": 0})
	}))
	defer srv.Close()

	c := fixedClient(srv.URL)
	c.Token = "tok-123"
	if _, err := c.ListTasks(context.Background(), ListFilter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if authz != "Bearer tok-123" {
		t.Fatalf("bearer token not attached, got %q", authz)
	}
}

func TestListFilterQuery(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{"tasks": []WireTask{}, "total": 0})
	}))
	defer srv.Close()

	archived := true
	c := fixedClient(srv.URL)
	if _, err := c.ListTasks(context.Background(), ListFilter{Timeframe: domain.TimeframeLater, Archived: &archived}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if query != "archived=true&timeframe=later" {
		t.Fatalf("unexpected query %q", query)
	}
}

func TestNon2xxSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"not_found","message":"task not found"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := fixedClient(srv.URL)
	err := c.DeleteTask(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", apiErr.StatusCode)
	}
}
