package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"dayplan/internal/db"
	"dayplan/internal/migrate"
	"dayplan/internal/repo"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace, Name: "api.db"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	handler, err := New(Config{
		Repo: repo.Repo{DB: conn},
		Auth: AuthConfig{JWTSecret: "test-secret"},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func registerUser(t *testing.T, srv *testServer, email string) (string, map[string]string) {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/auth/register", map[string]any{
		"email":    email,
		"password": "secret123",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d: %s", res.StatusCode, string(data))
	}
	var tok TokenResponse
	if err := json.Unmarshal(data, &tok); err != nil {
		t.Fatalf("unmarshal token: %v", err)
	}
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Fatalf("bad token response: %s", string(data))
	}
	return tok.User.ID, map[string]string{"Authorization": "Bearer " + tok.AccessToken}
}

func TestTaskCRUDLifecycle(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, auth := registerUser(t, srv, "crud@example.com")

	createRes, data := doJSON(t, client, http.MethodPost, srv.URL+"/tasks", map[string]any{
		"text":      "buy milk",
		"due_date":  "2026-08-23",
		"timeframe": "today",
	}, auth)
	if createRes.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", createRes.StatusCode, string(data))
	}
	var created TaskResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}
	if created.ID == "" || created.Text != "buy milk" {
		t.Fatalf("unexpected task: %+v", created)
	}

	res, body := doJSON(t, client, http.MethodPut, srv.URL+"/tasks/"+created.ID, map[string]any{
		"archived": true,
	}, auth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update status %d: %s", res.StatusCode, string(body))
	}
	var updated TaskResponse
	_ = json.Unmarshal(body, &updated)
	if !updated.Archived || updated.Text != "buy milk" {
		t.Fatalf("partial update lost fields: %+v", updated)
	}

	listRes, listBody := doJSON(t, client, http.MethodGet, srv.URL+"/tasks?archived=true", nil, auth)
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", listRes.StatusCode, string(listBody))
	}
	var list TaskListResponse
	_ = json.Unmarshal(listBody, &list)
	if list.Total != 1 {
		t.Fatalf("expected 1 archived task, got %d", list.Total)
	}

	delRes, delBody := doJSON(t, client, http.MethodDelete, srv.URL+"/tasks/"+created.ID, nil, auth)
	if delRes.StatusCode != http.StatusOK {
		t.Fatalf("delete status %d: %s", delRes.StatusCode, string(delBody))
	}
	missRes, _ := doJSON(t, client, http.MethodGet, srv.URL+"/tasks/"+created.ID, nil, auth)
	if missRes.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", missRes.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/tasks", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.StatusCode)
	}
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/tasks", nil, map[string]string{"Authorization": "Bearer bogus"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", res.StatusCode)
	}
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health should be open, got %d", res.StatusCode)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	registerUser(t, srv, "dup@example.com")

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/auth/register", map[string]any{
		"email":    "dup@example.com",
		"password": "secret123",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate email, got %d: %s", res.StatusCode, string(data))
	}
}

func TestLoginAndPasswordChange(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	userID, auth := registerUser(t, srv, "pw@example.com")

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/auth/me", nil, auth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me status %d: %s", res.StatusCode, string(data))
	}
	var me UserResponse
	_ = json.Unmarshal(data, &me)
	if me.ID != userID {
		t.Fatalf("me returned wrong user: %+v", me)
	}

	res, data = doJSON(t, client, http.MethodPut, srv.URL+"/auth/password", map[string]any{
		"old_password": "wrong",
		"new_password": "changed123",
	}, auth)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 on wrong old password, got %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPut, srv.URL+"/auth/password", map[string]any{
		"old_password": "secret123",
		"new_password": "changed123",
	}, auth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("password change status %d: %s", res.StatusCode, string(data))
	}

	res, _ = doJSON(t, client, http.MethodPost, srv.URL+"/auth/login", map[string]any{
		"email":    "pw@example.com",
		"password": "secret123",
	}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("old password should be rejected, got %d", res.StatusCode)
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/auth/login", map[string]any{
		"email":    "pw@example.com",
		"password": "changed123",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("new password login status %d: %s", res.StatusCode, string(data))
	}
}

func TestSyncMergeDeduplicates(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, auth := registerUser(t, srv, "sync@example.com")

	// Pre-existing server task that also lives in the local batch.
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/tasks", map[string]any{
		"text":     "pay rent",
		"due_date": "2026-09-01",
	}, auth)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("seed task status %d: %s", res.StatusCode, string(data))
	}
	var seeded TaskResponse
	_ = json.Unmarshal(data, &seeded)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/tasks/sync", map[string]any{
		"merge_strategy": "merge",
		"tasks": []map[string]any{
			{"id": "local-1", "text": "pay rent", "due_date": "2026-09-01"},
			{"id": "local-2", "text": "call dentist", "due_date": "2026-08-24"},
		},
	}, auth)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("sync status %d: %s", res.StatusCode, string(data))
	}
	var synced BatchResponse
	if err := json.Unmarshal(data, &synced); err != nil {
		t.Fatalf("unmarshal sync: %v", err)
	}
	if len(synced.TaskIDs) != 2 {
		t.Fatalf("expected 2 reported ids, got %v", synced.TaskIDs)
	}
	if synced.TaskIDs[0] != seeded.ID {
		t.Fatalf("content match should report the existing id, got %s want %s", synced.TaskIDs[0], seeded.ID)
	}
	if synced.TaskIDs[1] == "local-2" {
		t.Fatalf("short client id should be replaced with a server uuid")
	}

	listRes, listBody := doJSON(t, client, http.MethodGet, srv.URL+"/tasks", nil, auth)
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", listRes.StatusCode, string(listBody))
	}
	var list TaskListResponse
	_ = json.Unmarshal(listBody, &list)
	if list.Total != 2 {
		t.Fatalf("merge should not duplicate, want 2 tasks got %d", list.Total)
	}
}

func TestSyncReplaceWipesFirst(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, auth := registerUser(t, srv, "replace@example.com")

	for _, text := range []string{"old one", "old two"} {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/tasks", map[string]any{"text": text}, auth)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("seed status %d: %s", res.StatusCode, string(data))
		}
	}

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/tasks/sync", map[string]any{
		"merge_strategy": "replace",
		"tasks": []map[string]any{
			{"text": "the only one", "due_date": "2026-08-25"},
		},
	}, auth)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("sync status %d: %s", res.StatusCode, string(data))
	}

	listRes, listBody := doJSON(t, client, http.MethodGet, srv.URL+"/tasks", nil, auth)
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", listRes.StatusCode, string(listBody))
	}
	var list TaskListResponse
	_ = json.Unmarshal(listBody, &list)
	if list.Total != 1 || list.Tasks[0].Text != "the only one" {
		t.Fatalf("replace should leave only the uploaded batch: %+v", list)
	}
}

func TestTaskOwnershipIsolated(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, authA := registerUser(t, srv, "a@example.com")
	_, authB := registerUser(t, srv, "b@example.com")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/tasks", map[string]any{"text": "mine"}, authA)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	var created TaskResponse
	_ = json.Unmarshal(data, &created)

	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/tasks/"+created.ID, nil, authB)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("other user's task should be invisible, got %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodDelete, srv.URL+"/tasks/"+created.ID, nil, authB)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("other user's task should not be deletable, got %d", res.StatusCode)
	}
}
