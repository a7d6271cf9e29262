package repositories

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/bgmx/internal/models"
	"github.com/desertthunder/bgmx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if _, err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newTestRun(today string, events ...models.SyncEvent) *models.SyncRun {
	started := time.Date(2024, 4, 6, 9, 0, 0, 0, time.UTC)
	return &models.SyncRun{
		Username:     "sai",
		Today:        today,
		PagesFetched: 1,
		EntriesSeen:  len(events),
		StopReason:   "past_entry",
		StartedAt:    started,
		FinishedAt:   started.Add(2 * time.Second),
		Events:       events,
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "sync_runs")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without sequence")
	}
}

func TestSyncRunRepository(t *testing.T) {
	t.Run("Create & Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		created := time.Date(2024, 4, 6, 9, 0, 1, 0, time.UTC)
		run := newTestRun("2024-04-06",
			models.SyncEvent{SubjectID: "400602", Date: "2024-04-06", Action: models.ActionUpdated, Success: true, CreatedAt: created},
			models.SyncEvent{SubjectID: "400603", Date: "2024-04-06", Action: models.ActionFailed, Message: "HTTP 401", CreatedAt: created},
			models.SyncEvent{SubjectID: "400604", Date: "2024-05-01", Action: models.ActionNotToday, CreatedAt: created},
		)
		run.Updated, run.Failed = 1, 1

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID == "" || run.Sequence != 1 {
			t.Errorf("expected ID and sequence 1, got %q and %d", run.ID, run.Sequence)
		}

		retrieved, err := repo.Get(run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if retrieved.Username != "sai" || retrieved.Today != "2024-04-06" || retrieved.StopReason != "past_entry" {
			t.Errorf("unexpected run %+v", retrieved)
		}
		if retrieved.Updated != 1 || retrieved.Failed != 1 || retrieved.EntriesSeen != 3 {
			t.Errorf("unexpected counters %+v", retrieved)
		}
		if !retrieved.StartedAt.Equal(run.StartedAt) || retrieved.Duration() != 2*time.Second {
			t.Errorf("unexpected timestamps %s to %s", retrieved.StartedAt, retrieved.FinishedAt)
		}

		if len(retrieved.Events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(retrieved.Events))
		}
		for i, ev := range retrieved.Events {
			if ev.Position != i || ev.RunID != run.ID {
				t.Errorf("event %d: unexpected position %d or run %s", i, ev.Position, ev.RunID)
			}
		}
		if retrieved.Events[1].Action != models.ActionFailed || retrieved.Events[1].Message != "HTTP 401" {
			t.Errorf("unexpected failed event %+v", retrieved.Events[1])
		}
		if !retrieved.Events[0].Success || retrieved.Events[2].Success {
			t.Errorf("unexpected success flags %+v", retrieved.Events)
		}
	})

	t.Run("Create Keeps Existing ID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := newTestRun("2024-04-06")
		run.ID = "run-1"
		run.DryRun = true

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		retrieved, err := repo.Get("run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if !retrieved.DryRun {
			t.Error("expected dry run flag to persist")
		}
		if len(retrieved.Events) != 0 {
			t.Errorf("expected no events, got %d", len(retrieved.Events))
		}
	})

	t.Run("Validation", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)

		run := newTestRun("2024-04-06")
		run.Username = ""
		if err := repo.Create(run); err == nil {
			t.Error("expected validation error for empty username")
		}

		run = newTestRun("2024-04-06", models.SyncEvent{SubjectID: "1", Action: "bogus"})
		if err := repo.Create(run); err == nil || !strings.Contains(err.Error(), "event 0") {
			t.Errorf("expected event validation error, got %v", err)
		}

		runs, err := repo.List(0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("expected no runs after validation failures, got %d", len(runs))
		}
	})

	t.Run("Duplicate ID Rolls Back", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		first := newTestRun("2024-04-06")
		first.ID = "dup"
		if err := repo.Create(first); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		second := newTestRun("2024-04-07", models.SyncEvent{SubjectID: "1", Date: "2024-04-07", Action: models.ActionUpdated})
		second.ID = "dup"
		if err := repo.Create(second); err == nil {
			t.Fatal("expected error for duplicate run id")
		}

		events, err := repo.Events("dup")
		if err != nil {
			t.Fatalf("failed to list events: %v", err)
		}
		if len(events) != 0 {
			t.Errorf("expected no orphaned events, got %d", len(events))
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NewSyncRunRepository(db).Get("nope"); err == nil {
			t.Error("expected error for missing run")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		for _, day := range []string{"2024-04-04", "2024-04-05", "2024-04-06"} {
			if err := repo.Create(newTestRun(day)); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		all, err := repo.List(0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(all))
		}
		if all[0].Today != "2024-04-06" || all[2].Today != "2024-04-04" {
			t.Errorf("expected newest first, got %s..%s", all[0].Today, all[2].Today)
		}

		limited, err := repo.List(2)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(limited) != 2 || limited[0].Sequence != 3 {
			t.Errorf("expected the 2 newest runs, got %d starting at #%d", len(limited), limited[0].Sequence)
		}
	})
}
