package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/bgmx/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testRun() *models.SyncRun {
	started := time.Date(2024, 4, 6, 9, 0, 0, 0, time.UTC)
	return &models.SyncRun{
		Username:     "sai",
		Today:        "2024-04-06",
		PagesFetched: 2,
		EntriesSeen:  5,
		Updated:      2,
		Failed:       1,
		StopReason:   "past_entry",
		StartedAt:    started,
		FinishedAt:   started.Add(1500 * time.Millisecond),
		Events: []models.SyncEvent{
			{SubjectID: "1", Action: models.ActionUpdated},
			{SubjectID: "2", Action: models.ActionUpdated},
			{SubjectID: "3", Action: models.ActionFailed},
			{SubjectID: "4", Action: models.ActionNotToday},
		},
	}
}

func TestCollector(t *testing.T) {
	t.Run("ObserveRun", func(t *testing.T) {
		c := NewCollector()
		c.ObserveRun(testRun())
		c.ObserveRun(testRun())

		if got := testutil.ToFloat64(c.pagesFetched); got != 4 {
			t.Errorf("pages_fetched_total = %v, want 4", got)
		}
		if got := testutil.ToFloat64(c.entriesSeen); got != 10 {
			t.Errorf("entries_seen_total = %v, want 10", got)
		}
		if got := testutil.ToFloat64(c.entryActions.WithLabelValues("updated")); got != 4 {
			t.Errorf("entry_actions_total{action=updated} = %v, want 4", got)
		}
		if got := testutil.ToFloat64(c.entryActions.WithLabelValues("failed")); got != 2 {
			t.Errorf("entry_actions_total{action=failed} = %v, want 2", got)
		}
		if got := testutil.ToFloat64(c.runs.WithLabelValues("past_entry", "false")); got != 2 {
			t.Errorf("runs_total = %v, want 2", got)
		}
		if got := testutil.ToFloat64(c.lastDuration); got != 1.5 {
			t.Errorf("last_run_duration_seconds = %v, want 1.5", got)
		}
		if got := testutil.ToFloat64(c.lastUpdated); got != 2 {
			t.Errorf("last_run_updated = %v, want 2", got)
		}
		if got := testutil.ToFloat64(c.lastRun); got != float64(testRun().FinishedAt.Unix()) {
			t.Errorf("last_run_timestamp_seconds = %v", got)
		}
	})

	t.Run("WriteTextfile", func(t *testing.T) {
		c := NewCollector()
		c.ObserveRun(testRun())

		path := filepath.Join(t.TempDir(), "bgmx.prom")
		if err := c.WriteTextfile(path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read textfile: %v", err)
		}
		out := string(data)
		for _, want := range []string{
			"bgmx_pages_fetched_total 2",
			`bgmx_runs_total{dry_run="false",stop_reason="past_entry"} 1`,
			`bgmx_entry_actions_total{action="not_today"} 1`,
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in textfile:\n%s", want, out)
			}
		}
	})

	t.Run("WriteTextfile Bad Path", func(t *testing.T) {
		c := NewCollector()
		path := filepath.Join(t.TempDir(), "missing", "bgmx.prom")
		if err := c.WriteTextfile(path); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
