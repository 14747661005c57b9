package localstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dayplan/internal/domain"
)

// Memory is the non-persistent fallback used when the durable store
// cannot be opened. Data lives for the process lifetime only.
type Memory struct {
	mu       sync.Mutex
	order    []string
	tasks    map[string]domain.Task
	settings map[string]string
	Now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		tasks:    map[string]domain.Task{},
		settings: map[string]string{},
		Now:      time.Now,
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) AllTasks(_ context.Context) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]domain.Task, 0, len(m.order))
	for _, id := range m.order {
		res = append(res, m.tasks[id])
	}
	return res, nil
}

func (m *Memory) AddTask(_ context.Context, t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(t)
}

func (m *Memory) add(t domain.Task) error {
	if _, ok := m.tasks[t.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
	}
	m.tasks[t.ID] = t
	m.order = append(m.order, t.ID)
	return nil
}

// AddTasks is all-or-nothing: a duplicate anywhere in the batch leaves
// the store untouched.
func (m *Memory) AddTasks(_ context.Context, tasks []domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	for _, t := range tasks {
		if _, ok := m.tasks[t.ID]; ok || seen[t.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = true
	}
	for _, t := range tasks {
		if err := m.add(t); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) UpdateTask(_ context.Context, t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsert(t)
	return nil
}

func (m *Memory) upsert(t domain.Task) {
	if _, ok := m.tasks[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.tasks[t.ID] = t
}

func (m *Memory) UpdateTasks(_ context.Context, tasks []domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tasks {
		m.upsert(t)
	}
	return nil
}

func (m *Memory) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delete(id)
	return nil
}

func (m *Memory) delete(id string) {
	if _, ok := m.tasks[id]; !ok {
		return
	}
	delete(m.tasks, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Memory) DeleteTasks(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.delete(id)
	}
	return nil
}

func (m *Memory) SaveAllTasks(_ context.Context, tasks []domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = map[string]domain.Task{}
	m.order = nil
	for _, t := range tasks {
		m.upsert(t)
	}
	return nil
}

func (m *Memory) ExportAll(ctx context.Context) (domain.Snapshot, error) {
	tasks, _ := m.AllTasks(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	settings := make(map[string]string, len(m.settings))
	for k, v := range m.settings {
		settings[k] = v
	}
	return domain.Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: m.Now().UTC().Format(time.RFC3339),
		Tasks:      tasks,
		Settings:   settings,
	}, nil
}

func (m *Memory) ImportAll(_ context.Context, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = map[string]domain.Task{}
	m.order = nil
	for _, t := range snap.Tasks {
		m.upsert(t)
	}
	m.settings = map[string]string{}
	for k, v := range snap.Settings {
		m.settings[k] = v
	}
	return nil
}

func (m *Memory) GetSetting(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.settings[key]
	return v, ok, nil
}

func (m *Memory) SetSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *Memory) DeleteSetting(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.settings, key)
	return nil
}
