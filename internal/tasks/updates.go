package tasks

import (
	"fmt"

	"github.com/desertthunder/bgmx/internal/models"
)

// ProgressUpdate represents a progress event during a sync.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchPage Phase = iota
	ParseEntries
	UpdateEntry
	Done
)

func (p Phase) String() string {
	switch p {
	case FetchPage:
		return "fetch_page"
	case ParseEntries:
		return "parse_entries"
	case UpdateEntry:
		return "update_entry"
	case Done:
		return "done"
	default:
		return ""
	}
}

func fetchPageUpdate(page, maxPages int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPage,
		Step:    page,
		Total:   maxPages,
		Message: fmt.Sprintf("Fetching wish list page %d...", page),
	}
}

func parsedEntriesUpdate(page int, entries []models.Entry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseEntries,
		Step:    page,
		Message: fmt.Sprintf("Page %d: %d entries", page, len(entries)),
		Data:    entries,
	}
}

func updateEntryUpdate(step, total int, ev models.SyncEvent) ProgressUpdate {
	mark := "·"
	switch ev.Action {
	case models.ActionUpdated, models.ActionDryRun:
		mark = "✓"
	case models.ActionFailed:
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   UpdateEntry,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s (%s)", step, total, mark, ev.SubjectID, ev.Action),
		Data:    ev,
	}
}

func doneUpdate(run *models.SyncRun) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    run.PagesFetched,
		Total:   run.PagesFetched,
		Message: fmt.Sprintf("Sync finished: %s", run.StopReason),
		Data:    run,
	}
}
