package schedule

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAddValidSpecs(t *testing.T) {
	s := New(testLogger())

	for _, spec := range []string{"0 9 * * *", "0 20 * * *"} {
		if err := s.Add(spec, func() {}); err != nil {
			t.Fatalf("Add(%q): %v", spec, err)
		}
	}

	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("entries = %d, want 2", got)
	}
}

func TestAddInvalidSpec(t *testing.T) {
	s := New(testLogger())

	if err := s.Add("9am daily", func() {}); err == nil {
		t.Fatal("Expected error for a malformed spec")
	}
}

func TestMorningTriggerNextRun(t *testing.T) {
	s := New(testLogger())
	if err := s.Add("0 9 * * *", func() {}); err != nil {
		t.Fatal(err)
	}

	from := time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local)
	next := s.cron.Entries()[0].Schedule.Next(from)

	want := time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local)
	if !next.Equal(want) {
		t.Errorf("next run = %v, want %v", next, want)
	}
}
