// Package sync implements the login-time reconciliation between the
// local task set and the remote store: upload the local batch under the
// server's merge policy, then refetch and adopt the remote set as
// authoritative.
package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"dayplan/internal/domain"
	"dayplan/internal/localstore"
	"dayplan/internal/remote"
)

// State is the externally observable progress of a sync run. Callers
// rely on it to communicate in-progress status; it is not telemetry.
type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

type Engine struct {
	Store   localstore.Store
	Remote  *remote.Client
	OnState func(State)
	Logger  *log.Logger
	Now     func() time.Time
}

func New(store localstore.Store, client *remote.Client) *Engine {
	return &Engine{
		Store:  store,
		Remote: client,
		Now:    time.Now,
	}
}

func (e *Engine) setState(s State) {
	if e.OnState != nil {
		e.OnState(s)
	}
}

func (e *Engine) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// LoginSync runs the one-time protocol at the guest-to-authenticated
// transition. The upload is best-effort; the refetch is not: its result
// replaces the task list, and on refetch failure nothing is replaced.
// The returned list is the new authoritative in-memory set; locally
// generated ids do not survive it, so callers holding an id from before
// the sync must re-resolve against the result.
func (e *Engine) LoginSync(ctx context.Context) ([]domain.Task, error) {
	e.setState(StateSyncing)
	local, err := e.Store.AllTasks(ctx)
	if err != nil {
		// Nothing to upload, but the remote set may still be worth having.
		e.logf("sync: read local tasks: %v", err)
		local = nil
	}
	if len(local) > 0 {
		if _, err := e.Remote.SyncTasks(ctx, local, remote.MergeStrategyMerge); err != nil {
			e.logf("sync: upload %d local tasks: %v", len(local), err)
		}
	}
	tasks, err := e.refetchAndMirror(ctx)
	if err != nil {
		e.setState(StateFailed)
		return nil, err
	}
	e.setState(StateDone)
	return tasks, nil
}

// PushBatch uploads a batch created while authenticated and returns the
// refreshed remote set, so client-side ids never drift from the
// server-assigned ones. Unlike the login upload this one is
// user-initiated and its failure is fatal.
func (e *Engine) PushBatch(ctx context.Context, tasks []domain.Task) ([]domain.Task, error) {
	if len(tasks) == 0 {
		return e.Refresh(ctx)
	}
	e.setState(StateSyncing)
	if _, err := e.Remote.SyncTasks(ctx, tasks, remote.MergeStrategyMerge); err != nil {
		e.setState(StateFailed)
		return nil, fmt.Errorf("upload batch: %w", err)
	}
	res, err := e.refetchAndMirror(ctx)
	if err != nil {
		e.setState(StateFailed)
		return nil, err
	}
	e.setState(StateDone)
	return res, nil
}

// Refresh refetches the remote set and mirrors it locally without
// uploading anything.
func (e *Engine) Refresh(ctx context.Context) ([]domain.Task, error) {
	e.setState(StateSyncing)
	tasks, err := e.refetchAndMirror(ctx)
	if err != nil {
		e.setState(StateFailed)
		return nil, err
	}
	e.setState(StateDone)
	return tasks, nil
}

func (e *Engine) refetchAndMirror(ctx context.Context) ([]domain.Task, error) {
	tasks, err := e.Remote.ListTasks(ctx, remote.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("fetch remote tasks: %w", err)
	}
	// Mirror failure must not undo a successful fetch.
	if err := e.Store.SaveAllTasks(ctx, tasks); err != nil {
		e.logf("sync: mirror remote tasks locally: %v", err)
	}
	return tasks, nil
}
