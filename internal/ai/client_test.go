package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func modelServer(t *testing.T, content string) (*httptest.Server, *http.Request) {
	t.Helper()
	var captured http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
	return srv, &captured
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(ProviderOpenAI, "test-key", baseURL, "test-model")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.Now = func() time.Time { return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestParseTextProposals(t *testing.T) {
	srv, req := modelServer(t, `{"items": [
		{"text": "develop the app", "dueDate": "2026-08-23", "category": "today", "isArchived": false},
		{"text": "dentist", "dueDate": "2026-08-25", "category": "future2", "isArchived": false}
	]}`)
	defer srv.Close()

	c := testClient(t, srv.URL)
	items, err := c.ParseText(context.Background(), "develop the app today, dentist in two days")
	if err != nil {
		t.Fatalf("parse text: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 proposals, got %d", len(items))
	}
	if items[0].Text != "develop the app" || items[0].Category != "today" {
		t.Fatalf("unexpected first proposal: %+v", items[0])
	}
	if got := req.Header.Get("Authorization"); got != "Bearer test-key" {
		t.Fatalf("missing bearer auth, got %q", got)
	}
}

func TestParseTextStripsCodeFences(t *testing.T) {
	srv, _ := modelServer(t, "```json\n{\"items\": [{\"text\": \"one\", \"dueDate\": \"2026-08-23\", \"category\": \"today\", \"isArchived\": false}]}\n```")
	defer srv.Close()

	c := testClient(t, srv.URL)
	items, err := c.ParseText(context.Background(), "one")
	if err != nil {
		t.Fatalf("parse text: %v", err)
	}
	if len(items) != 1 || items[0].Text != "one" {
		t.Fatalf("fenced output not handled: %+v", items)
	}
}

func TestParseTextBadJSON(t *testing.T) {
	srv, _ := modelServer(t, "sorry, I cannot help with that")
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.ParseText(context.Background(), "anything"); err == nil {
		t.Fatal("expected error on non-JSON model output")
	}
}

func TestPlanTasks(t *testing.T) {
	srv, _ := modelServer(t, `{"analysis": "split into two steps", "items": [
		{"text": "outline", "dueDate": "2026-08-23", "category": "today", "isArchived": false},
		{"text": "draft", "dueDate": "2026-08-26", "category": "later", "isArchived": false}
	]}`)
	defer srv.Close()

	c := testClient(t, srv.URL)
	plan, err := c.PlanTasks(context.Background(), "write a report this week")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Analysis != "split into two steps" || len(plan.Items) != 2 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestNewRequiresKeyAndKnownProvider(t *testing.T) {
	if _, err := New(ProviderDeepSeek, "", "", ""); err == nil {
		t.Fatal("expected error without api key")
	}
	if _, err := New(Provider("mystery"), "key", "", ""); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	c, err := New(ProviderSiliconFlow, "key", "", "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.BaseURL == "" || c.Model == "" {
		t.Fatalf("preset defaults not applied: %+v", c)
	}
}
