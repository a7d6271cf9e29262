// package formatter renders sync runs and run history for the terminal or as JSON
package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/bgmx/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// Mode returns "dry-run" or "live".
func Mode(dryRun bool) string {
	if dryRun {
		return "dry-run"
	}
	return "live"
}

// RunSummary renders one run with its per-entry decisions.
func RunSummary(run *models.SyncRun, p *Palette) string {
	if p == nil {
		p = DefaultPalette
	}

	var b strings.Builder
	b.WriteString(p.title.Render(fmt.Sprintf("Wish list sync for %s on %s (%s)", run.Username, run.Today, Mode(run.DryRun))))
	b.WriteString("\n\n")

	for _, ev := range run.Events {
		b.WriteString(eventLine(ev, p))
		b.WriteString("\n")
	}
	if len(run.Events) > 0 {
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Pages fetched: %d\n", run.PagesFetched)
	fmt.Fprintf(&b, "Entries seen:  %d\n", run.EntriesSeen)

	updated := fmt.Sprintf("Updated:       %d", run.Updated)
	if run.Updated > 0 {
		updated = p.ok.Render(updated)
	}
	b.WriteString(updated + "\n")

	failed := fmt.Sprintf("Failed:        %d", run.Failed)
	if run.Failed > 0 {
		failed = p.err.Render(failed)
	}
	b.WriteString(failed + "\n")

	fmt.Fprintf(&b, "Stopped:       %s\n", StopDescription(run.StopReason))
	b.WriteString(p.help.Render(fmt.Sprintf("Finished in %s", run.Duration().Round(time.Millisecond))))
	b.WriteString("\n")
	return b.String()
}

func eventLine(ev models.SyncEvent, p *Palette) string {
	switch ev.Action {
	case models.ActionUpdated:
		return p.ok.Render("✓") + fmt.Sprintf(" %s (%s) marked as watching", ev.SubjectID, ev.Date)
	case models.ActionDryRun:
		return p.warn.Render("~") + fmt.Sprintf(" %s (%s) would be marked as watching", ev.SubjectID, ev.Date)
	case models.ActionFailed:
		line := p.err.Render("✗") + fmt.Sprintf(" %s (%s) update failed", ev.SubjectID, ev.Date)
		if ev.Message != "" {
			line += ": " + ev.Message
		}
		return line
	default:
		return p.help.Render(fmt.Sprintf("· %s (%s) not airing today", ev.SubjectID, ev.Date))
	}
}

// StopDescription explains a stop reason in words.
func StopDescription(reason string) string {
	switch reason {
	case "past_entry":
		return "reached an entry older than today"
	case "no_entries":
		return "no more entries"
	case "fetch_failed":
		return "a wish list page could not be fetched"
	case "max_pages":
		return "page limit reached"
	case "canceled":
		return "canceled"
	default:
		return reason
	}
}

// HistoryTable renders runs as an aligned table, in the order given.
func HistoryTable(runs []*models.SyncRun, p *Palette) string {
	if p == nil {
		p = DefaultPalette
	}
	if len(runs) == 0 {
		return p.help.Render("No sync runs recorded.") + "\n"
	}

	headers := []string{"#", "STARTED", "TODAY", "MODE", "PAGES", "UPDATED", "FAILED", "STOP"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			fmt.Sprint(run.Sequence),
			run.StartedAt.Local().Format(timeLayout),
			run.Today,
			Mode(run.DryRun),
			fmt.Sprint(run.PagesFetched),
			fmt.Sprint(run.Updated),
			fmt.Sprint(run.Failed),
			run.StopReason,
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	b.WriteString(p.title.Render(joinRow(headers, widths)))
	b.WriteString("\n")
	for i, row := range rows {
		line := joinRow(row, widths)
		if runs[i].Failed > 0 {
			line = p.warn.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func joinRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
	}
	return strings.TrimRight(strings.Join(padded, "  "), " ")
}

// WriteJSON encodes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
