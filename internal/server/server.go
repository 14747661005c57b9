// Package server exposes the task/auth HTTP API consumed by the remote
// client: JSON over HTTP, bearer-token authenticated, per-user task
// ownership.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dayplan/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Repo repo.Repo
	Auth AuthConfig
	// BasePath defaults to "" (routes at the root, matching the wire
	// contract: /auth/..., /tasks).
	BasePath string
	Now      func() time.Time
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"task not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrEmailTaken) {
		return newAPIError(http.StatusBadRequest, "email_taken", err.Error(), nil)
	}
	msg := err.Error()
	if strings.Contains(strings.ToLower(msg), "invalid") || strings.Contains(strings.ToLower(msg), "required") {
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
}

// New returns an HTTP handler exposing the Dayplan API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(cfg.BasePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Dayplan API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := api
	if cfg.BasePath != "" {
		group = huma.NewGroup(api, cfg.BasePath)
	}

	registerHealth(group)
	registerAuth(group, cfg)
	registerTasks(group, cfg)

	return router, nil
}

func (c Config) now() string {
	return c.Now().UTC().Format(time.RFC3339)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerAuth(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/auth/register",
		Summary:       "Register a new account",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body RegisterRequest `json:"body"`
	}) (*struct {
		Body TokenResponse `json:"body"`
	}, error) {
		hash, err := hashPassword(input.Body.Password)
		if err != nil {
			return nil, handleError(err)
		}
		u := repo.User{
			ID:           uuid.NewString(),
			Email:        input.Body.Email,
			PasswordHash: hash,
			Nickname:     input.Body.Nickname,
			CreatedAt:    cfg.now(),
		}
		if err := cfg.Repo.InsertUser(ctx, u); err != nil {
			return nil, handleError(err)
		}
		return tokenResponse(u, cfg)
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Log in with email and password",
	}, func(ctx context.Context, input *struct {
		Body LoginRequest `json:"body"`
	}) (*struct {
		Body TokenResponse `json:"body"`
	}, error) {
		u, err := cfg.Repo.GetUserByEmail(ctx, input.Body.Email)
		if err != nil || !verifyPassword(input.Body.Password, u.PasswordHash) {
			return nil, newAPIError(http.StatusUnauthorized, "invalid_credentials", "wrong email or password", nil)
		}
		return tokenResponse(u, cfg)
	})

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Summary:     "Current user",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		u, err := cfg.Repo.GetUser(ctx, userID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(u)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-me",
		Method:      http.MethodPut,
		Path:        "/auth/me",
		Summary:     "Update profile",
	}, func(ctx context.Context, input *struct {
		Body UpdateUserRequest `json:"body"`
	}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := cfg.Repo.UpdateUserProfile(ctx, userID, input.Body.Nickname, input.Body.AvatarURL); err != nil {
			return nil, handleError(err)
		}
		u, err := cfg.Repo.GetUser(ctx, userID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(u)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-password",
		Method:      http.MethodPut,
		Path:        "/auth/password",
		Summary:     "Change password",
	}, func(ctx context.Context, input *struct {
		Body PasswordChangeRequest `json:"body"`
	}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		u, err := cfg.Repo.GetUser(ctx, userID)
		if err != nil {
			return nil, handleError(err)
		}
		if !verifyPassword(input.Body.OldPassword, u.PasswordHash) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "wrong old password", nil)
		}
		hash, err := hashPassword(input.Body.NewPassword)
		if err != nil {
			return nil, handleError(err)
		}
		if err := cfg.Repo.UpdateUserPassword(ctx, userID, hash); err != nil {
			return nil, handleError(err)
		}
		return messageResponse("password changed")
	})

	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/auth/logout",
		Summary:     "Log out",
		Description: "Tokens are stateless; clients drop their stored token.",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		if _, authErr := userIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		return messageResponse("logged out")
	})
}

func tokenResponse(u repo.User, cfg Config) (*struct {
	Body TokenResponse `json:"body"`
}, error) {
	token, err := createAccessToken(u.ID, cfg.Auth.JWTSecret, cfg.Auth.ttl(), cfg.Now())
	if err != nil {
		return nil, handleError(err)
	}
	return &struct {
		Body TokenResponse `json:"body"`
	}{Body: TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        userResponse(u),
	}}, nil
}

func messageResponse(msg string) (*struct {
	Body MessageResponse `json:"body"`
}, error) {
	return &struct {
		Body MessageResponse `json:"body"`
	}{Body: MessageResponse{Message: msg, Success: true}}, nil
}

func registerTasks(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List the user's tasks",
	}, func(ctx context.Context, input *struct {
		Timeframe string `query:"timeframe"`
		Archived  *bool  `query:"archived"`
	}) (*struct {
		Body TaskListResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tasks, err := cfg.Repo.ListTasks(ctx, repo.TaskFilters{
			UserID:    userID,
			Timeframe: input.Timeframe,
			Archived:  input.Archived,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := TaskListResponse{Tasks: make([]TaskResponse, 0, len(tasks)), Total: len(tasks)}
		for _, t := range tasks {
			resp.Tasks = append(resp.Tasks, taskResponse(t))
		}
		return &struct {
			Body TaskListResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create a task",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		now := cfg.now()
		t := repoTask(input.Body)
		t.ID = uuid.NewString() // the server owns id assignment on direct create
		t.UserID = userID
		t.CreatedAt = now
		t.UpdatedAt = now
		if err := cfg.Repo.InsertTask(ctx, t); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: taskResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{task_id}",
		Summary:     "Get one task",
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := cfg.Repo.GetTask(ctx, userID, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: taskResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{task_id}",
		Summary:     "Update task fields",
	}, func(ctx context.Context, input *struct {
		TaskID string            `path:"task_id"`
		Body   UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := cfg.Repo.UpdateTask(ctx, userID, input.TaskID, repo.TaskPatch{
			Text:      input.Body.Text,
			Details:   input.Body.Details,
			StartDate: input.Body.StartDate,
			DueDate:   input.Body.DueDate,
			Timeframe: input.Body.Timeframe,
			Archived:  input.Body.Archived,
		}, cfg.now())
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: taskResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{task_id}",
		Summary:     "Delete a task",
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := cfg.Repo.DeleteTask(ctx, userID, input.TaskID); err != nil {
			return nil, handleError(err)
		}
		return messageResponse("task deleted")
	})

	huma.Register(api, huma.Operation{
		OperationID:   "batch-create-tasks",
		Method:        http.MethodPost,
		Path:          "/tasks/batch",
		Summary:       "Create several tasks at once",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body BatchCreateRequest `json:"body"`
	}) (*struct {
		Body BatchResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		now := cfg.now()
		ids := make([]string, 0, len(input.Body.Tasks))
		for _, in := range input.Body.Tasks {
			t := repoTask(in)
			t.ID = uuid.NewString()
			t.UserID = userID
			t.CreatedAt = now
			t.UpdatedAt = now
			if err := cfg.Repo.InsertTask(ctx, t); err != nil {
				return nil, handleError(err)
			}
			ids = append(ids, t.ID)
		}
		return batchResponse(ids)
	})

	huma.Register(api, huma.Operation{
		OperationID:   "sync-tasks",
		Method:        http.MethodPost,
		Path:          "/tasks/sync",
		Summary:       "Sync a local batch",
		Description:   "Used after login to upload guest-mode tasks. Strategy merge keeps both sides and deduplicates; replace wipes the server set first.",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body SyncRequest `json:"body"`
	}) (*struct {
		Body BatchResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		strategy := input.Body.MergeStrategy
		if strategy == "" {
			strategy = "merge"
		}
		incoming := make([]repo.Task, 0, len(input.Body.Tasks))
		for _, in := range input.Body.Tasks {
			incoming = append(incoming, repoTask(in))
		}
		ids, err := cfg.Repo.SyncTasks(ctx, userID, incoming, strategy, cfg.now())
		if err != nil {
			return nil, handleError(err)
		}
		return batchResponse(ids)
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-all-tasks",
		Method:      http.MethodDelete,
		Path:        "/tasks",
		Summary:     "Delete every task of the user",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		n, err := cfg.Repo.DeleteAllTasks(ctx, userID)
		if err != nil {
			return nil, handleError(err)
		}
		return messageResponse(fmt.Sprintf("deleted %d tasks", n))
	})
}

func batchResponse(ids []string) (*struct {
	Body BatchResponse `json:"body"`
}, error) {
	return &struct {
		Body BatchResponse `json:"body"`
	}{Body: BatchResponse{
		Success:      true,
		CreatedCount: len(ids),
		TaskIDs:      ids,
	}}, nil
}
