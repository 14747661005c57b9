package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
)

const taskColumns = `id,user_id,text,details,start_date,due_date,timeframe,archived,created_at,updated_at`

func scanTask(scan func(dest ...any) error) (Task, error) {
	var t Task
	var details, startDate, dueDate, timeframe sql.NullString
	err := scan(&t.ID, &t.UserID, &t.Text, &details, &startDate, &dueDate, &timeframe, &t.Archived, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	if details.Valid {
		t.Details = details.String
	}
	if startDate.Valid {
		t.StartDate = startDate.String
	}
	if dueDate.Valid {
		t.DueDate = dueDate.String
	}
	if timeframe.Valid {
		t.Timeframe = timeframe.String
	}
	return t, nil
}

func (r Repo) InsertTask(ctx context.Context, t Task) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.UserID, t.Text, nullable(t.Details), nullable(t.StartDate), nullable(t.DueDate), nullable(t.Timeframe), t.Archived, t.CreatedAt, t.UpdatedAt)
	return err
}

func insertTaskTx(ctx context.Context, tx *sql.Tx, t Task) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.UserID, t.Text, nullable(t.Details), nullable(t.StartDate), nullable(t.DueDate), nullable(t.Timeframe), t.Archived, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r Repo) GetTask(ctx context.Context, userID, id string) (Task, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=? AND user_id=?`, id, userID)
	return scanTask(row.Scan)
}

type TaskFilters struct {
	UserID    string
	Timeframe string
	Archived  *bool
}

// ListTasks returns the user's tasks newest-first.
func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]Task, error) {
	clauses := []string{"user_id=?"}
	args := []any{f.UserID}
	if f.Timeframe != "" {
		clauses = append(clauses, "timeframe=?")
		args = append(args, f.Timeframe)
	}
	if f.Archived != nil {
		clauses = append(clauses, "archived=?")
		args = append(args, *f.Archived)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	rows, err := r.DB.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// TaskPatch carries the fields of a partial update; nil means untouched.
type TaskPatch struct {
	Text      *string
	Details   *string
	StartDate *string
	DueDate   *string
	Timeframe *string
	Archived  *bool
}

// UpdateTask applies a partial update and returns the new record.
func (r Repo) UpdateTask(ctx context.Context, userID, id string, p TaskPatch, now string) (Task, error) {
	var (
		fields = []string{"updated_at=?"}
		args   = []any{now}
	)
	if p.Text != nil {
		fields = append(fields, "text=?")
		args = append(args, *p.Text)
	}
	if p.Details != nil {
		fields = append(fields, "details=?")
		args = append(args, nullable(*p.Details))
	}
	if p.StartDate != nil {
		fields = append(fields, "start_date=?")
		args = append(args, nullable(*p.StartDate))
	}
	if p.DueDate != nil {
		fields = append(fields, "due_date=?")
		args = append(args, nullable(*p.DueDate))
	}
	if p.Timeframe != nil {
		fields = append(fields, "timeframe=?")
		args = append(args, nullable(*p.Timeframe))
	}
	if p.Archived != nil {
		fields = append(fields, "archived=?")
		args = append(args, *p.Archived)
	}
	args = append(args, id, userID)
	res, err := r.DB.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(fields, ",")+` WHERE id=? AND user_id=?`, args...)
	if err != nil {
		return Task{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Task{}, ErrNotFound
	}
	return r.GetTask(ctx, userID, id)
}

func (r Repo) DeleteTask(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteAllTasks(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE user_id=?`, userID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SyncTasks reconciles an uploaded batch with the user's existing set in
// one transaction. Strategy replace wipes the set first. Dedup order:
// an id match wins; in merge mode a content match (text, due date,
// archived) also counts as existing. Matched tasks are reported by id
// and never duplicated. Client ids are honored only when they look like
// canonical uuids; anything else gets a fresh server id.
func (r Repo) SyncTasks(ctx context.Context, userID string, incoming []Task, strategy, now string) ([]string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if strategy == "replace" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE user_id=?`, userID); err != nil {
			return nil, err
		}
	}

	var taskIDs []string
	for _, in := range incoming {
		existingID, err := findExisting(ctx, tx, userID, in, strategy)
		if err != nil {
			return nil, err
		}
		if existingID != "" {
			taskIDs = append(taskIDs, existingID)
			continue
		}
		id := in.ID
		if len(id) != 36 {
			id = uuid.NewString()
		}
		t := in
		t.ID = id
		t.UserID = userID
		t.CreatedAt = now
		t.UpdatedAt = now
		if in.CreatedAt != "" {
			t.CreatedAt = in.CreatedAt
		}
		if err := insertTaskTx(ctx, tx, t); err != nil {
			return nil, err
		}
		taskIDs = append(taskIDs, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return taskIDs, nil
}

func findExisting(ctx context.Context, tx *sql.Tx, userID string, in Task, strategy string) (string, error) {
	var id string
	if in.ID != "" {
		err := tx.QueryRowContext(ctx, `SELECT id FROM tasks WHERE id=? AND user_id=?`, in.ID, userID).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return "", err
		}
	}
	if strategy != "merge" {
		return "", nil
	}
	err := tx.QueryRowContext(ctx, `SELECT id FROM tasks WHERE user_id=? AND text=? AND due_date IS ? AND archived=?`,
		userID, in.Text, nullable(in.DueDate), in.Archived).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}
