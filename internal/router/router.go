// Package router decides, per operation, whether reads and writes go to
// the local store or the remote client. The mode is a pure function of
// the session; SetAuthState is the only place the session changes.
package router

import (
	"context"

	"dayplan/internal/domain"
	"dayplan/internal/localstore"
	"dayplan/internal/remote"
	"dayplan/internal/sync"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeCloud Mode = "cloud"
)

type Router struct {
	Local  localstore.Store
	Remote *remote.Client
	Sync   *sync.Engine

	session domain.Session
}

func New(local localstore.Store, client *remote.Client) *Router {
	return &Router{
		Local:  local,
		Remote: client,
		Sync:   sync.New(local, client),
	}
}

// Mode projects the current session onto a storage mode.
func (r *Router) Mode() Mode {
	if r.session.LoggedIn {
		return ModeCloud
	}
	return ModeLocal
}

func (r *Router) Session() domain.Session { return r.session }

// SetAuthState is the sole session mutator. Logging in routes all
// subsequent task operations to the remote store. Logging out routes
// back to local and deliberately migrates nothing in either direction:
// remote data stays on the server, and local data from before the login
// is not restored; the last mirror written by a sync is what remains.
func (r *Router) SetAuthState(s domain.Session) {
	r.session = s
	r.Remote.Token = s.Token
}

// AllTasks reads the full task set from the active backend.
func (r *Router) AllTasks(ctx context.Context) ([]domain.Task, error) {
	if r.Mode() == ModeCloud {
		return r.Remote.ListTasks(ctx, remote.ListFilter{})
	}
	return r.Local.AllTasks(ctx)
}

// AddTask creates one task. In cloud mode the server assigns the id and
// the returned task carries it; the locally generated id is discarded.
func (r *Router) AddTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	if r.Mode() == ModeCloud {
		return r.Remote.CreateTask(ctx, t)
	}
	if err := r.Local.AddTask(ctx, t); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// AddTasks creates a batch, routed in its entirety to one backend. In
// cloud mode the batch goes through the sync engine's upload+refetch so
// the id space stays server-assigned; the returned list is the
// authoritative set after the operation.
func (r *Router) AddTasks(ctx context.Context, tasks []domain.Task) ([]domain.Task, error) {
	if r.Mode() == ModeCloud {
		return r.Sync.PushBatch(ctx, tasks)
	}
	if err := r.Local.AddTasks(ctx, tasks); err != nil {
		return nil, err
	}
	return r.Local.AllTasks(ctx)
}

func (r *Router) UpdateTask(ctx context.Context, t domain.Task) error {
	if r.Mode() == ModeCloud {
		_, err := r.Remote.UpdateTask(ctx, t)
		return err
	}
	return r.Local.UpdateTask(ctx, t)
}

func (r *Router) UpdateTasks(ctx context.Context, tasks []domain.Task) error {
	if r.Mode() == ModeCloud {
		for _, t := range tasks {
			if _, err := r.Remote.UpdateTask(ctx, t); err != nil {
				return err
			}
		}
		return nil
	}
	return r.Local.UpdateTasks(ctx, tasks)
}

func (r *Router) DeleteTask(ctx context.Context, id string) error {
	if r.Mode() == ModeCloud {
		return r.Remote.DeleteTask(ctx, id)
	}
	return r.Local.DeleteTask(ctx, id)
}

func (r *Router) DeleteTasks(ctx context.Context, ids []string) error {
	if r.Mode() == ModeCloud {
		for _, id := range ids {
			if err := r.Remote.DeleteTask(ctx, id); err != nil {
				return err
			}
		}
		return nil
	}
	return r.Local.DeleteTasks(ctx, ids)
}

// Settings are local-only regardless of mode; they are never synced.
func (r *Router) GetSetting(ctx context.Context, key string) (string, bool, error) {
	return r.Local.GetSetting(ctx, key)
}

func (r *Router) SetSetting(ctx context.Context, key, value string) error {
	return r.Local.SetSetting(ctx, key, value)
}

func (r *Router) DeleteSetting(ctx context.Context, key string) error {
	return r.Local.DeleteSetting(ctx, key)
}
