package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/bgmx/internal/models"
	"github.com/desertthunder/bgmx/internal/shared"
)

// SyncRunRepository implements models.Repository[*models.SyncRun] for run history.
//
// A run and its events are written in one transaction.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a run and its events, assigning the run's sequence and any missing IDs.
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	for i := range run.Events {
		if err := run.Events[i].Validate(); err != nil {
			return fmt.Errorf("validation failed for event %d: %w", i, err)
		}
	}

	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	run.Sequence = sequence

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO sync_runs (id, sequence, username, today, dry_run, pages_fetched, entries_seen, updated_count, failed_count, stop_reason, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		run.ID,
		run.Sequence,
		run.Username,
		run.Today,
		run.DryRun,
		run.PagesFetched,
		run.EntriesSeen,
		run.Updated,
		run.Failed,
		run.StopReason,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	eventQuery := `
		INSERT INTO sync_events (id, run_id, position, subject_id, date, action, success, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i := range run.Events {
		ev := &run.Events[i]
		if ev.ID == "" {
			ev.ID = shared.GenerateID()
		}
		ev.RunID = run.ID
		ev.Position = i

		if _, err := tx.Exec(eventQuery, ev.ID, ev.RunID, ev.Position, ev.SubjectID, ev.Date, string(ev.Action), ev.Success, ev.Message, ev.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert sync event %s: %w", ev.SubjectID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sync run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID together with its events in position order.
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := `
		SELECT id, sequence, username, today, dry_run, pages_fetched, entries_seen, updated_count, failed_count, stop_reason, started_at, finished_at
		FROM sync_runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sync run not found: %s", id)
		}
		return nil, err
	}

	events, err := r.Events(id)
	if err != nil {
		return nil, err
	}
	run.Events = events
	return run, nil
}

// List retrieves the most recent runs, newest first. A non-positive limit returns every run.
//
// Events are not loaded; use [SyncRunRepository.Get] for a single run's detail.
func (r *SyncRunRepository) List(limit int) ([]*models.SyncRun, error) {
	query := `
		SELECT id, sequence, username, today, dry_run, pages_fetched, entries_seen, updated_count, failed_count, stop_reason, started_at, finished_at
		FROM sync_runs
		ORDER BY sequence DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.SyncRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// Events retrieves the events of one run in position order.
func (r *SyncRunRepository) Events(runID string) ([]models.SyncEvent, error) {
	query := `
		SELECT id, run_id, position, subject_id, date, action, success, message, created_at
		FROM sync_events
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync events: %w", err)
	}
	defer rows.Close()

	events := []models.SyncEvent{}
	for rows.Next() {
		var (
			ev     models.SyncEvent
			action string
		)
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Position, &ev.SubjectID, &ev.Date, &action, &ev.Success, &ev.Message, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync event: %w", err)
		}
		ev.Action = models.Action(action)
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single sync_runs row into a [models.SyncRun]
func scanRun(row rowScanner) (*models.SyncRun, error) {
	run := &models.SyncRun{}
	err := row.Scan(
		&run.ID,
		&run.Sequence,
		&run.Username,
		&run.Today,
		&run.DryRun,
		&run.PagesFetched,
		&run.EntriesSeen,
		&run.Updated,
		&run.Failed,
		&run.StopReason,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}
	return run, nil
}

var _ models.Repository[*models.SyncRun] = (*SyncRunRepository)(nil)
