package domain

import "testing"

func TestClassify(t *testing.T) {
	today := "2024-06-10"
	cases := []struct {
		due  string
		want Timeframe
	}{
		{"2024-06-01", TimeframeHistory},
		{"2024-06-09", TimeframeHistory},
		{"2024-06-10", TimeframeToday},
		{"2024-06-11", TimeframeFuture2},
		{"2024-06-12", TimeframeFuture2},
		{"2024-06-13", TimeframeLater},
		{"2025-01-01", TimeframeLater},
	}
	for _, c := range cases {
		got, err := Classify(c.due, today)
		if err != nil {
			t.Fatalf("classify %s: %v", c.due, err)
		}
		if got != c.want {
			t.Errorf("classify(%s, %s) = %s, want %s", c.due, today, got, c.want)
		}
	}
}

func TestClassifyAcrossMonthBoundary(t *testing.T) {
	got, err := Classify("2024-07-01", "2024-06-30")
	if err != nil {
		t.Fatal(err)
	}
	if got != TimeframeFuture2 {
		t.Errorf("expected future2 across month boundary, got %s", got)
	}
}

func TestClassifyRejectsBadDates(t *testing.T) {
	if _, err := Classify("June 10th", "2024-06-10"); err == nil {
		t.Fatal("expected error for unparseable due date")
	}
	if _, err := Classify("2024-06-10", ""); err == nil {
		t.Fatal("expected error for empty today")
	}
}

func TestProposalTaskKeepsCategory(t *testing.T) {
	p := Proposal{Text: "pay rent", DueDate: "2024-06-20", Category: "history", IsArchived: true}
	task := p.Task("t1", "2024-06-10T08:00:00Z", "2024-06-10")
	if task.Timeframe != TimeframeHistory {
		t.Errorf("expected AI category kept verbatim, got %s", task.Timeframe)
	}
	if !task.Archived {
		t.Error("expected archived flag carried over")
	}
}

func TestProposalTaskDefaults(t *testing.T) {
	p := Proposal{Text: "call mom", Category: "someday"}
	task := p.Task("t2", "2024-06-10T08:00:00Z", "2024-06-10")
	if task.Timeframe != TimeframeToday {
		t.Errorf("unknown category should fall back to today, got %s", task.Timeframe)
	}
	if task.DueDate != "2024-06-10" {
		t.Errorf("missing due date should default to today, got %s", task.DueDate)
	}
}
