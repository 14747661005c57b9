package domain

// Timeframe buckets a task by how far its due date is from today.
type Timeframe string

const (
	TimeframeHistory Timeframe = "history"
	TimeframeToday   Timeframe = "today"
	TimeframeFuture2 Timeframe = "future2"
	TimeframeLater   Timeframe = "later"
)

// Valid reports whether tf is one of the four known buckets.
func (tf Timeframe) Valid() bool {
	switch tf {
	case TimeframeHistory, TimeframeToday, TimeframeFuture2, TimeframeLater:
		return true
	}
	return false
}

type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Details   string    `json:"details,omitempty"`
	StartDate string    `json:"start_date,omitempty" format:"date"`
	DueDate   string    `json:"due_date" format:"date"`
	Timeframe Timeframe `json:"timeframe"`
	Archived  bool      `json:"archived"`
	// Selected is a session-only flag for batch operations. It is never
	// persisted remotely and never survives a reload of remote data.
	Selected  bool   `json:"-"`
	CreatedAt string `json:"created_at" format:"date-time"`
	UpdatedAt string `json:"updated_at,omitempty" format:"date-time"`
}

// Session is the authentication state held by the storage router.
// It changes only through router.SetAuthState.
type Session struct {
	LoggedIn bool   `json:"logged_in"`
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Token    string `json:"-"`
}

// Snapshot is a full export of the local store, used for backup/restore.
type Snapshot struct {
	Version    int               `json:"version"`
	ExportedAt string            `json:"exported_at" format:"date-time"`
	Tasks      []Task            `json:"tasks"`
	Settings   map[string]string `json:"settings"`
}

// Proposal is a task suggested by the AI collaborator. Its Category is
// trusted verbatim and not re-derived from the due date; the collaborator
// may file a task under history to mean "already done".
type Proposal struct {
	Text       string `json:"text"`
	DueDate    string `json:"dueDate"`
	Category   string `json:"category"`
	IsArchived bool   `json:"isArchived"`
}

// Task converts a proposal into a task, keeping the AI-chosen category.
// An unknown category falls back to today's bucket.
func (p Proposal) Task(id, createdAt, today string) Task {
	tf := Timeframe(p.Category)
	if !tf.Valid() {
		tf = TimeframeToday
	}
	due := p.DueDate
	if due == "" {
		due = today
	}
	return Task{
		ID:        id,
		Text:      p.Text,
		DueDate:   due,
		Timeframe: tf,
		Archived:  p.IsArchived,
		CreatedAt: createdAt,
	}
}
