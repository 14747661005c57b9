// Package repo is the server-side data access layer: per-user task
// ownership over the shared API database.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when registering an already-used email.
var ErrEmailTaken = errors.New("email already registered")

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Nickname     string
	AvatarURL    string
	SettingsJSON string
	CreatedAt    string
}

// Task is the server-side record; field names follow the wire shape.
type Task struct {
	ID        string
	UserID    string
	Text      string
	Details   string
	StartDate string
	DueDate   string
	Timeframe string
	Archived  bool
	CreatedAt string
	UpdatedAt string
}

func (r Repo) InsertUser(ctx context.Context, u User) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO users(id,email,password_hash,nickname,avatar_url,settings_json,created_at) VALUES (?,?,?,?,?,?,?)`,
		u.ID, u.Email, u.PasswordHash, nullable(u.Nickname), nullable(u.AvatarURL), nullable(u.SettingsJSON), u.CreatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") {
		return ErrEmailTaken
	}
	return err
}

func scanUser(scan func(dest ...any) error) (User, error) {
	var u User
	var nickname, avatar, settings sql.NullString
	err := scan(&u.ID, &u.Email, &u.PasswordHash, &nickname, &avatar, &settings, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	if nickname.Valid {
		u.Nickname = nickname.String
	}
	if avatar.Valid {
		u.AvatarURL = avatar.String
	}
	if settings.Valid {
		u.SettingsJSON = settings.String
	}
	return u, nil
}

const userColumns = `id,email,password_hash,nickname,avatar_url,settings_json,created_at`

func (r Repo) GetUser(ctx context.Context, id string) (User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row.Scan)
}

func (r Repo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=?`, email)
	return scanUser(row.Scan)
}

func (r Repo) UpdateUserPassword(ctx context.Context, id, hash string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET password_hash=? WHERE id=?`, hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpdateUserProfile(ctx context.Context, id string, nickname, avatarURL *string) error {
	var (
		fields []string
		args   []any
	)
	if nickname != nil {
		fields = append(fields, "nickname=?")
		args = append(args, nullable(*nickname))
	}
	if avatarURL != nil {
		fields = append(fields, "avatar_url=?")
		args = append(args, nullable(*avatarURL))
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET `+strings.Join(fields, ",")+` WHERE id=?`, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
