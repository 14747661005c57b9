package router

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"dayplan/internal/db"
	"dayplan/internal/domain"
	"dayplan/internal/localstore"
	"dayplan/internal/migrate"
	"dayplan/internal/remote"
	"dayplan/internal/repo"
	"dayplan/internal/server"
)

func startAPI(t *testing.T) (string, func()) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir(), Name: "api.db"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	handler, err := server.New(server.Config{
		Repo: repo.Repo{DB: conn},
		Auth: server.AuthConfig{JWTSecret: "test-secret"},
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
	return "http://" + ln.Addr().String(), func() {
		srv.Shutdown(context.Background())
		ln.Close()
		conn.Close()
	}
}

// Guest creates a task locally, then registers: the local batch is
// uploaded, the refetched set becomes authoritative and the task comes
// back under a server-assigned id with its content intact.
func TestGuestToCloudTransition(t *testing.T) {
	baseURL, stop := startAPI(t)
	defer stop()
	ctx := context.Background()

	store := localstore.NewMemory()
	rt := New(store, remote.New(baseURL))

	today := domain.Today(time.Now())
	guestTask := domain.Task{
		ID:        "local-short",
		Text:      "water the plants",
		DueDate:   today,
		Timeframe: domain.TimeframeToday,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := rt.AddTask(ctx, guestTask); err != nil {
		t.Fatalf("guest add: %v", err)
	}
	if rt.Mode() != ModeLocal {
		t.Fatalf("expected local mode before login, got %s", rt.Mode())
	}

	creds, err := rt.Remote.Register(ctx, "scenario@example.com", "secret123", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	rt.SetAuthState(domain.Session{
		LoggedIn: true,
		UserID:   creds.User.ID,
		Email:    creds.User.Email,
		Token:    creds.AccessToken,
	})

	synced, err := rt.Sync.LoginSync(ctx)
	if err != nil {
		t.Fatalf("login sync: %v", err)
	}
	if len(synced) != 1 {
		t.Fatalf("expected exactly the one uploaded task, got %d", len(synced))
	}
	got := synced[0]
	if got.Text != guestTask.Text || got.DueDate != guestTask.DueDate {
		t.Fatalf("task content lost in sync: %+v", got)
	}
	if got.ID == guestTask.ID {
		t.Fatal("short local id should have been replaced by a server id")
	}
	if len(got.ID) != 36 {
		t.Fatalf("expected a canonical server uuid, got %q", got.ID)
	}

	// Cloud-mode reads now come from the server.
	fromCloud, err := rt.AllTasks(ctx)
	if err != nil {
		t.Fatalf("cloud list: %v", err)
	}
	if len(fromCloud) != 1 || fromCloud[0].ID != got.ID {
		t.Fatalf("cloud read disagrees with sync result: %+v", fromCloud)
	}

	// And the local store now mirrors the authoritative set.
	mirror, err := store.AllTasks(ctx)
	if err != nil {
		t.Fatalf("mirror read: %v", err)
	}
	if len(mirror) != 1 || mirror[0].ID != got.ID {
		t.Fatalf("local mirror not replaced: %+v", mirror)
	}
}

// Logging in with an empty local store uploads nothing but still
// adopts whatever the server has.
func TestLoginWithEmptyLocalAdoptsRemote(t *testing.T) {
	baseURL, stop := startAPI(t)
	defer stop()
	ctx := context.Background()

	rt := New(localstore.NewMemory(), remote.New(baseURL))
	creds, err := rt.Remote.Register(ctx, "empty@example.com", "secret123", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	rt.SetAuthState(domain.Session{LoggedIn: true, UserID: creds.User.ID, Token: creds.AccessToken})

	seeded, err := rt.Remote.CreateTask(ctx, domain.Task{
		Text: "already on server", DueDate: "2026-08-30", Timeframe: domain.TimeframeLater,
	})
	if err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	synced, err := rt.Sync.LoginSync(ctx)
	if err != nil {
		t.Fatalf("login sync: %v", err)
	}
	if len(synced) != 1 || synced[0].ID != seeded.ID {
		t.Fatalf("expected the server's set, got %+v", synced)
	}
}
