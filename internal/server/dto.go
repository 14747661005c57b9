package server

import "dayplan/internal/repo"

// Request payloads

type RegisterRequest struct {
	Email    string `json:"email" format:"email"`
	Password string `json:"password" minLength:"6" maxLength:"100"`
	Nickname string `json:"nickname,omitempty" maxLength:"50"`
}

type LoginRequest struct {
	Email    string `json:"email" format:"email"`
	Password string `json:"password"`
}

type PasswordChangeRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" minLength:"6" maxLength:"100"`
}

type UpdateUserRequest struct {
	Nickname  *string `json:"nickname,omitempty" maxLength:"50"`
	AvatarURL *string `json:"avatar_url,omitempty" maxLength:"500"`
}

type CreateTaskRequest struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text" minLength:"1" maxLength:"1000"`
	Details   string `json:"details,omitempty" maxLength:"5000"`
	StartDate string `json:"start_date,omitempty" pattern:"^\\d{4}-\\d{2}-\\d{2}$"`
	DueDate   string `json:"due_date,omitempty" pattern:"^\\d{4}-\\d{2}-\\d{2}$"`
	Timeframe string `json:"timeframe,omitempty" enum:"history,today,future2,later"`
	Archived  bool   `json:"archived,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type UpdateTaskRequest struct {
	Text      *string `json:"text,omitempty" minLength:"1" maxLength:"1000"`
	Details   *string `json:"details,omitempty" maxLength:"5000"`
	StartDate *string `json:"start_date,omitempty"`
	DueDate   *string `json:"due_date,omitempty"`
	Timeframe *string `json:"timeframe,omitempty"`
	Archived  *bool   `json:"archived,omitempty"`
}

type BatchCreateRequest struct {
	Tasks []CreateTaskRequest `json:"tasks" minItems:"1" maxItems:"100"`
}

type SyncRequest struct {
	Tasks         []CreateTaskRequest `json:"tasks"`
	MergeStrategy string              `json:"merge_strategy,omitempty" enum:"merge,replace"`
}

// Response payloads

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type TaskResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Details   string `json:"details,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	DueDate   string `json:"due_date,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	Archived  bool   `json:"archived"`
	CreatedAt string `json:"created_at" format:"date-time"`
	UpdatedAt string `json:"updated_at" format:"date-time"`
}

type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

type BatchResponse struct {
	Success      bool     `json:"success"`
	CreatedCount int      `json:"created_count"`
	TaskIDs      []string `json:"task_ids"`
}

func userResponse(u repo.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Nickname:  u.Nickname,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

func taskResponse(t repo.Task) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		Text:      t.Text,
		Details:   t.Details,
		StartDate: t.StartDate,
		DueDate:   t.DueDate,
		Timeframe: t.Timeframe,
		Archived:  t.Archived,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func repoTask(in CreateTaskRequest) repo.Task {
	return repo.Task{
		ID:        in.ID,
		Text:      in.Text,
		Details:   in.Details,
		StartDate: in.StartDate,
		DueDate:   in.DueDate,
		Timeframe: in.Timeframe,
		Archived:  in.Archived,
		CreatedAt: in.CreatedAt,
	}
}
