package domain

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Classify maps a due date onto a timeframe bucket relative to today.
// Both arguments are date-only strings (YYYY-MM-DD); time-of-day never
// participates. Every user-entered due date goes through this rule;
// AI-proposed categories bypass it by design.
func Classify(dueDate, today string) (Timeframe, error) {
	due, err := time.Parse(dateLayout, dueDate)
	if err != nil {
		return "", fmt.Errorf("invalid due date %q: %w", dueDate, err)
	}
	now, err := time.Parse(dateLayout, today)
	if err != nil {
		return "", fmt.Errorf("invalid today %q: %w", today, err)
	}
	diffDays := int(due.Sub(now).Hours() / 24)
	switch {
	case diffDays < 0:
		return TimeframeHistory, nil
	case diffDays == 0:
		return TimeframeToday, nil
	case diffDays <= 2:
		return TimeframeFuture2, nil
	default:
		return TimeframeLater, nil
	}
}

// Today returns the current date in the classifier's layout.
func Today(now time.Time) string {
	return now.Format(dateLayout)
}
