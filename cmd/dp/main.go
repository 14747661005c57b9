package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dayplan/internal/ai"
	"dayplan/internal/config"
	"dayplan/internal/db"
	"dayplan/internal/domain"
	"dayplan/internal/localstore"
	"dayplan/internal/migrate"
	"dayplan/internal/remote"
	"dayplan/internal/repo"
	"dayplan/internal/router"
	"dayplan/internal/server"
	"dayplan/internal/sync"
)

var rootCmd = &cobra.Command{
	Use:   "dp",
	Short: "Dayplan CLI",
	Long: `Dayplan is a local-first task manager with optional cloud sync.
- Guest mode: tasks live in a local SQLite store under .dayplan; no account needed.
- Logged in: tasks live on the server; logging in uploads your local tasks once
  and from then on the server's copy is the truth.
- Timeframes: every task lands in history / today / future2 / later based on
  how far its due date is from today.
- AI: 'dp ai parse' and 'dp ai plan' turn free text into proposed tasks.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("DAYPLAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(aiCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

// app bundles everything a command needs: config, the local store and
// the storage router with its session restored from settings.
type app struct {
	Config *config.Config
	Store  localstore.Store
	Router *router.Router
}

const (
	settingSessionToken  = "session.token"
	settingSessionUserID = "session.user_id"
	settingSessionEmail  = "session.email"
)

func withApp(ctx context.Context, fn func(context.Context, *app) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	var store localstore.Store
	sq, err := localstore.Open(workspace)
	if err != nil {
		// Guest data won't survive the process, but every command still works.
		log.Printf("local store unavailable (%v); using in-memory store for this run", err)
		store = localstore.NewMemory()
	} else {
		store = sq
	}
	defer store.Close()

	rt := router.New(store, remote.New(cfg.API.BaseURL))
	if err := restoreSession(ctx, store, rt); err != nil {
		return err
	}
	return fn(ctx, &app{Config: cfg, Store: store, Router: rt})
}

func restoreSession(ctx context.Context, store localstore.Store, rt *router.Router) error {
	token, ok, err := store.GetSetting(ctx, settingSessionToken)
	if err != nil {
		return err
	}
	if !ok || token == "" {
		return nil
	}
	userID, _, _ := store.GetSetting(ctx, settingSessionUserID)
	email, _, _ := store.GetSetting(ctx, settingSessionEmail)
	rt.SetAuthState(domain.Session{LoggedIn: true, UserID: userID, Email: email, Token: token})
	return nil
}

func persistSession(ctx context.Context, store localstore.Store, s domain.Session) error {
	if !s.LoggedIn {
		for _, key := range []string{settingSessionToken, settingSessionUserID, settingSessionEmail} {
			if err := store.DeleteSetting(ctx, key); err != nil {
				return err
			}
		}
		return nil
	}
	if err := store.SetSetting(ctx, settingSessionToken, s.Token); err != nil {
		return err
	}
	if err := store.SetSetting(ctx, settingSessionUserID, s.UserID); err != nil {
		return err
	}
	return store.SetSetting(ctx, settingSessionEmail, s.Email)
}

// --- task commands ---

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "Manage tasks"}
	cmd.AddCommand(taskAddCmd())
	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskEditCmd())
	cmd.AddCommand(taskArchiveCmd())
	cmd.AddCommand(taskDeleteCmd())
	return cmd
}

func taskAddCmd() *cobra.Command {
	var due, details, start string
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				now := time.Now()
				today := domain.Today(now)
				if due == "" {
					due = today
				}
				tf, err := domain.Classify(due, today)
				if err != nil {
					return err
				}
				t := domain.Task{
					ID:        uuid.NewString(),
					Text:      strings.Join(args, " "),
					Details:   details,
					StartDate: start,
					DueDate:   due,
					Timeframe: tf,
					CreatedAt: now.UTC().Format(time.RFC3339),
				}
				created, err := a.Router.AddTask(ctx, t)
				if err != nil {
					return err
				}
				return printJSONOrTasks([]domain.Task{created})
			})
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&details, "details", "", "task details")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	return cmd
}

func taskListCmd() *cobra.Command {
	var timeframe string
	var archived, all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				tasks, err := a.Router.AllTasks(ctx)
				if err != nil {
					return err
				}
				var filtered []domain.Task
				for _, t := range tasks {
					if timeframe != "" && string(t.Timeframe) != timeframe {
						continue
					}
					if !all && t.Archived != archived {
						continue
					}
					filtered = append(filtered, t)
				}
				return printJSONOrTasks(filtered)
			})
		},
	}
	cmd.Flags().StringVar(&timeframe, "timeframe", "", "filter by timeframe (history, today, future2, later)")
	cmd.Flags().BoolVar(&archived, "archived", false, "show archived instead of active tasks")
	cmd.Flags().BoolVar(&all, "all", false, "show both active and archived tasks")
	return cmd
}

func taskEditCmd() *cobra.Command {
	var text, details, due, start string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				t, err := findTask(ctx, a.Router, args[0])
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("text") {
					t.Text = text
				}
				if cmd.Flags().Changed("details") {
					t.Details = details
				}
				if cmd.Flags().Changed("start") {
					t.StartDate = start
				}
				if cmd.Flags().Changed("due") {
					t.DueDate = due
					// A due-date change moves the task to its new bucket.
					tf, err := domain.Classify(due, domain.Today(time.Now()))
					if err != nil {
						return err
					}
					t.Timeframe = tf
				}
				t.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
				if err := a.Router.UpdateTask(ctx, t); err != nil {
					return err
				}
				return printJSONOrTasks([]domain.Task{t})
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "task text")
	cmd.Flags().StringVar(&details, "details", "", "task details")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	return cmd
}

func taskArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <id>",
		Short: "Toggle a task's archived flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				t, err := findTask(ctx, a.Router, args[0])
				if err != nil {
					return err
				}
				t.Archived = !t.Archived
				t.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
				if err := a.Router.UpdateTask(ctx, t); err != nil {
					return err
				}
				return printJSONOrTasks([]domain.Task{t})
			})
		},
	}
	return cmd
}

func taskDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if err := a.Router.DeleteTasks(ctx, args); err != nil {
					return err
				}
				fmt.Printf("deleted %d task(s)\n", len(args))
				return nil
			})
		},
	}
	return cmd
}

// findTask resolves an id, accepting a unique prefix for convenience.
func findTask(ctx context.Context, rt *router.Router, id string) (domain.Task, error) {
	tasks, err := rt.AllTasks(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	var match *domain.Task
	for i := range tasks {
		if tasks[i].ID == id {
			return tasks[i], nil
		}
		if strings.HasPrefix(tasks[i].ID, id) {
			if match != nil {
				return domain.Task{}, fmt.Errorf("task id %q is ambiguous", id)
			}
			match = &tasks[i]
		}
	}
	if match == nil {
		return domain.Task{}, fmt.Errorf("task %q not found", id)
	}
	return *match, nil
}

// --- auth commands ---

func authCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "auth", Short: "Account and session"}
	cmd.AddCommand(authRegisterCmd())
	cmd.AddCommand(authLoginCmd())
	cmd.AddCommand(authLogoutCmd())
	cmd.AddCommand(authWhoamiCmd())
	return cmd
}

func authRegisterCmd() *cobra.Command {
	var email, password, nickname string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				creds, err := a.Router.Remote.Register(ctx, email, password, nickname)
				if err != nil {
					return err
				}
				return adoptSession(ctx, a, creds)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&nickname, "nickname", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func authLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and sync local tasks to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				creds, err := a.Router.Remote.Login(ctx, email, password)
				if err != nil {
					return err
				}
				return adoptSession(ctx, a, creds)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// adoptSession switches the router to cloud mode, runs the one-time
// login sync and persists the session for later invocations.
func adoptSession(ctx context.Context, a *app, creds remote.Credentials) error {
	session := domain.Session{
		LoggedIn: true,
		UserID:   creds.User.ID,
		Email:    creds.User.Email,
		Token:    creds.AccessToken,
	}
	a.Router.SetAuthState(session)
	a.Router.Sync.OnState = func(s sync.State) {
		fmt.Printf("sync: %s\n", s)
	}
	tasks, err := a.Router.Sync.LoginSync(ctx)
	if err != nil {
		return fmt.Errorf("logged in, but sync failed: %w", err)
	}
	if err := persistSession(ctx, a.Store, session); err != nil {
		return err
	}
	fmt.Printf("logged in as %s; %d tasks on the server\n", session.Email, len(tasks))
	return nil
}

func authLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out",
		Long:  "Drops the session. Server tasks stay on the server; the local view keeps the last synced mirror.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				a.Router.SetAuthState(domain.Session{})
				if err := persistSession(ctx, a.Store, domain.Session{}); err != nil {
					return err
				}
				fmt.Println("logged out")
				return nil
			})
		},
	}
	return cmd
}

func authWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				s := a.Router.Session()
				if !s.LoggedIn {
					fmt.Println("guest mode (not logged in)")
					return nil
				}
				u, err := a.Router.Remote.Me(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(u)
				}
				fmt.Printf("%s (%s), mode: %s\n", u.Email, u.ID, a.Router.Mode())
				return nil
			})
		},
	}
	return cmd
}

// --- sync / export / import ---

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refetch the server's task list and mirror it locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if a.Router.Mode() != router.ModeCloud {
					return errors.New("not logged in; nothing to sync")
				}
				tasks, err := a.Router.Sync.Refresh(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("synced %d tasks\n", len(tasks))
				return nil
			})
		},
	}
	return cmd
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the local store to a JSON snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				snap, err := a.Store.ExportAll(ctx)
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return err
				}
				if out == "" {
					fmt.Println(string(data))
					return nil
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return err
				}
				fmt.Printf("exported %d tasks to %s\n", len(snap.Tasks), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the local store with a JSON snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				var snap domain.Snapshot
				if err := json.Unmarshal(data, &snap); err != nil {
					return fmt.Errorf("invalid snapshot: %w", err)
				}
				if err := a.Store.ImportAll(ctx, snap); err != nil {
					return err
				}
				fmt.Printf("imported %d tasks\n", len(snap.Tasks))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "snapshot file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// --- settings ---

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "settings", Short: "Local settings (never synced)"}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Read a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				v, ok, err := a.Router.GetSetting(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("setting %q not set", args[0])
				}
				fmt.Println(v)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return a.Router.SetSetting(ctx, args[0], args[1])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "unset <key>",
		Short: "Delete a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return a.Router.DeleteSetting(ctx, args[0])
			})
		},
	})
	return cmd
}

// --- ai ---

func aiCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "ai", Short: "AI task assistant"}
	cmd.AddCommand(aiParseCmd())
	cmd.AddCommand(aiPlanCmd())
	return cmd
}

func aiClient(cfg *config.Config) (*ai.Client, error) {
	key := cfg.AI.APIKey
	if env := viper.GetString("ai-api-key"); env != "" {
		key = env
	}
	return ai.New(ai.Provider(cfg.AI.Provider), key, cfg.AI.BaseURL, cfg.AI.Model)
}

func aiParseCmd() *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "parse <text>",
		Short: "Extract tasks from free text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				text := strings.Join(args, " ")
				client, err := aiClient(a.Config)
				if err != nil {
					return err
				}
				today := domain.Today(time.Now())
				proposals, err := client.ParseText(ctx, text)
				if err != nil {
					// Degrade to a literal task for today rather than losing the input.
					log.Printf("ai parse failed (%v); falling back to a literal task", err)
					proposals = []domain.Proposal{{Text: text, DueDate: today, Category: "today"}}
				}
				if !apply {
					return printProposals(proposals)
				}
				created, err := applyProposals(ctx, a, proposals)
				if err != nil {
					return err
				}
				return printJSONOrTasks(created)
			})
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "create the proposed tasks")
	return cmd
}

func aiPlanCmd() *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "plan <request>",
		Short: "Plan tasks for a broader request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				client, err := aiClient(a.Config)
				if err != nil {
					return err
				}
				plan, err := client.PlanTasks(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				// Keep the last analysis around for dp settings get ai.last_analysis.
				_ = a.Store.SetSetting(ctx, "ai.last_analysis", plan.Analysis)
				fmt.Println(plan.Analysis)
				if !apply {
					return printProposals(plan.Items)
				}
				created, err := applyProposals(ctx, a, plan.Items)
				if err != nil {
					return err
				}
				return printJSONOrTasks(created)
			})
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "create the proposed tasks")
	return cmd
}

// applyProposals creates proposed tasks through the router as one
// batch. The proposals' categories are kept as-is.
func applyProposals(ctx context.Context, a *app, proposals []domain.Proposal) ([]domain.Task, error) {
	now := time.Now()
	today := domain.Today(now)
	createdAt := now.UTC().Format(time.RFC3339)
	tasks := make([]domain.Task, 0, len(proposals))
	for _, p := range proposals {
		tasks = append(tasks, p.Task(uuid.NewString(), createdAt, today))
	}
	return a.Router.AddTasks(ctx, tasks)
}

// --- config ---

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Manage dayplan.yml"}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default dayplan.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	})
	return cmd
}

// --- serve ---

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the task API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace, Name: "api.db"})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("DAYPLAN_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("DAYPLAN_JWT_SECRET is required for bearer auth")
			}
			if cfg.Server.TokenTTL != "" {
				ttl, err := time.ParseDuration(cfg.Server.TokenTTL)
				if err != nil {
					return fmt.Errorf("invalid server.token_ttl: %w", err)
				}
				authCfg.TokenTTL = ttl
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			handler, err := server.New(server.Config{Repo: repo.Repo{DB: conn}, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Dayplan API on http://%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// --- helpers ---

func printJSONOrTasks(tasks []domain.Task) error {
	if viper.GetBool("json") {
		return printJSON(tasks)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Text", "Due", "Timeframe", "Archived"})
	for _, t := range tasks {
		tw.AppendRow(table.Row{shortID(t.ID), t.Text, t.DueDate, t.Timeframe, t.Archived})
	}
	tw.Render()
	return nil
}

func printProposals(proposals []domain.Proposal) error {
	if viper.GetBool("json") {
		return printJSON(proposals)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Text", "Due", "Category", "Done"})
	for _, p := range proposals {
		tw.AppendRow(table.Row{p.Text, p.DueDate, p.Category, p.IsArchived})
	}
	tw.Render()
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
