// package models defines the data model for wish-list syncing
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	GetID() string   // GetID returns the unique identifier for this model
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error        // Create inserts a new model into the database
	Get(id string) (T, error)    // Get retrieves a model by its ID
	List(limit int) ([]T, error) // List retrieves the most recent models, newest first
}

// Entry is one wish-list item: an opaque subject id and its YYYY-MM-DD release date.
type Entry struct {
	SubjectID string
	Date      string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s@%s", e.SubjectID, e.Date)
}

// Action records what a run did with a single entry.
type Action string

const (
	ActionUpdated  Action = "updated"   // collection moved to watching
	ActionDryRun   Action = "dry_run"   // would have been updated
	ActionFailed   Action = "failed"    // update request failed
	ActionNotToday Action = "not_today" // dated after today, left alone
)

// SyncRun summarizes one invocation.
type SyncRun struct {
	ID           string    `json:"id"`
	Sequence     int       `json:"sequence"`
	Username     string    `json:"username"`
	Today        string    `json:"today"`
	DryRun       bool      `json:"dry_run"`
	PagesFetched int       `json:"pages_fetched"`
	EntriesSeen  int       `json:"entries_seen"`
	Updated      int       `json:"updated"`
	Failed       int       `json:"failed"`
	StopReason   string    `json:"stop_reason"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`

	Events []SyncEvent `json:"events,omitempty"`
}

func (r *SyncRun) GetID() string { return r.ID }

// Validate checks the fields the history schema requires.
func (r *SyncRun) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if r.Today == "" {
		return fmt.Errorf("today is required")
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}
	if r.FinishedAt.Before(r.StartedAt) {
		return fmt.Errorf("finished_at precedes started_at")
	}
	return nil
}

// Duration is the wall time the run took.
func (r *SyncRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SyncEvent is one entry decision within a run.
type SyncEvent struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Position  int       `json:"position"`
	SubjectID string    `json:"subject_id"`
	Date      string    `json:"date"`
	Action    Action    `json:"action"`
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (e *SyncEvent) GetID() string { return e.ID }

// Validate checks the fields the history schema requires.
func (e *SyncEvent) Validate() error {
	if e.SubjectID == "" {
		return fmt.Errorf("subject_id is required")
	}
	switch e.Action {
	case ActionUpdated, ActionDryRun, ActionFailed, ActionNotToday:
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	return nil
}
