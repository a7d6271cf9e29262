package tasks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bgmx/internal/formatter"
	"github.com/desertthunder/bgmx/internal/models"
	"github.com/desertthunder/bgmx/internal/scraper"
	"github.com/desertthunder/bgmx/internal/services"
	"github.com/desertthunder/bgmx/internal/shared"
	"golang.org/x/time/rate"
)

// StopReason names the condition that ended a run.
type StopReason string

const (
	StopFetchFailed StopReason = "fetch_failed" // a page could not be retrieved
	StopNoEntries   StopReason = "no_entries"   // a page yielded no usable entries
	StopPastEntry   StopReason = "past_entry"   // an entry older than today was reached
	StopMaxPages    StopReason = "max_pages"    // the configured page limit was reached
	StopCanceled    StopReason = "canceled"     // the context was canceled
)

// RunStore persists finished runs.
type RunStore interface {
	Create(run *models.SyncRun) error
}

// RunObserver receives every finished run, e.g. to update metrics.
type RunObserver interface {
	ObserveRun(run *models.SyncRun)
}

// SyncResult contains all data from one sync.
type SyncResult struct {
	Run        *models.SyncRun // Run summary including per-entry events
	StopReason StopReason      // Why pagination ended
	Err        error           // Cause of a fetch_failed or canceled stop
}

// SyncOpts configures a [SyncEngine]. Zero values keep the unpaced, unlimited behavior.
type SyncOpts struct {
	Username          string
	DryRun            bool
	Location          *time.Location // nil means local time
	RequestsPerSecond float64        // page fetch pacing, 0 disables
	MaxPages          int            // 0 means no limit
	Logger            *log.Logger
	Store             RunStore    // optional
	Observer          RunObserver // optional
	Now               func() time.Time
}

// SyncEngine moves today's wish-list releases to "watching".
type SyncEngine struct {
	source  services.WishListSource
	updater services.CollectionUpdater
	opts    SyncOpts
	logger  *log.Logger
	limiter *rate.Limiter
}

// NewSyncEngine creates a new SyncEngine with the provided services.
func NewSyncEngine(source services.WishListSource, updater services.CollectionUpdater, opts SyncOpts) *SyncEngine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &SyncEngine{
		source:  source,
		updater: updater,
		opts:    opts,
		logger:  logger,
		limiter: limiter,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Today returns the current date in the engine's location.
func (e *SyncEngine) Today() string {
	return shared.Today(e.opts.Now(), e.opts.Location)
}

// Run paginates through the wish list until a stop condition is met.
//
// Every stop condition is reported through [SyncResult.StopReason]; the returned error is non-nil
// only when the engine has no source or updater.
func (e *SyncEngine) Run(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.source == nil || e.updater == nil {
		return nil, fmt.Errorf("%w: sync engine not initialized", shared.ErrServiceUnavailable)
	}

	today := e.Today()
	run := &models.SyncRun{
		ID:        shared.GenerateID(),
		Username:  e.opts.Username,
		Today:     today,
		DryRun:    e.opts.DryRun,
		StartedAt: e.opts.Now(),
		Events:    []models.SyncEvent{},
	}

	e.logger.Info("starting wish list sync", "user", e.opts.Username, "today", today, "mode", formatter.Mode(e.opts.DryRun))

	result := &SyncResult{Run: run}
	result.StopReason, result.Err = e.paginate(ctx, progress, run, today)

	run.StopReason = string(result.StopReason)
	run.FinishedAt = e.opts.Now()
	e.logger.Info("sync finished",
		"reason", run.StopReason, "pages", run.PagesFetched,
		"updated", run.Updated, "failed", run.Failed)

	e.finish(run)
	e.sendProgress(progress, doneUpdate(run))
	return result, nil
}

func (e *SyncEngine) paginate(ctx context.Context, progress chan<- ProgressUpdate, run *models.SyncRun, today string) (StopReason, error) {
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return StopCanceled, err
		}
		if e.opts.MaxPages > 0 && page > e.opts.MaxPages {
			e.logger.Info("page limit reached", "max_pages", e.opts.MaxPages)
			return StopMaxPages, nil
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return StopCanceled, err
			}
		}

		logger := shared.WithLogger(e.logger, "page", page)
		e.sendProgress(progress, fetchPageUpdate(page, e.opts.MaxPages))

		html, err := e.source.FetchWishPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return StopCanceled, ctx.Err()
			}
			logger.Error("failed to fetch wish list page", "err", err)
			return StopFetchFailed, err
		}
		run.PagesFetched++

		entries, err := scraper.ParseEntries(html, logger)
		if err != nil {
			logger.Error("failed to parse wish list page", "err", err)
			return StopNoEntries, nil
		}
		e.sendProgress(progress, parsedEntriesUpdate(page, entries))
		if len(entries) == 0 {
			logger.Info("no more entries")
			return StopNoEntries, nil
		}
		run.EntriesSeen += len(entries)

		for i, entry := range entries {
			if err := ctx.Err(); err != nil {
				return StopCanceled, err
			}
			if entry.Date < today {
				logger.Info("reached entry older than today, stopping", "subject", entry.SubjectID, "date", entry.Date)
				return StopPastEntry, nil
			}

			ev := e.process(ctx, logger, run, entry, today)
			e.sendProgress(progress, updateEntryUpdate(i+1, len(entries), ev))
		}
	}
}

// process applies [SyncEngine.MarkWatching] to entry and appends the resulting event to run.
func (e *SyncEngine) process(ctx context.Context, logger *log.Logger, run *models.SyncRun, entry models.Entry, today string) models.SyncEvent {
	ev := models.SyncEvent{
		ID:        shared.GenerateID(),
		RunID:     run.ID,
		Position:  len(run.Events),
		SubjectID: entry.SubjectID,
		Date:      entry.Date,
		CreatedAt: e.opts.Now(),
	}

	ok, err := e.markWatching(ctx, logger, entry, today, e.opts.DryRun)
	switch {
	case entry.Date != today:
		ev.Action = models.ActionNotToday
	case err != nil || !ok:
		ev.Action = models.ActionFailed
		if err != nil {
			ev.Message = err.Error()
		}
		run.Failed++
	case e.opts.DryRun:
		ev.Action = models.ActionDryRun
		ev.Success = true
		run.Updated++
	default:
		ev.Action = models.ActionUpdated
		ev.Success = true
		run.Updated++
	}

	run.Events = append(run.Events, ev)
	return ev
}

// MarkWatching moves entry to "watching" when its date is today.
//
// Entries dated on any other day return false with no side effects. In dry-run mode the
// intended update is logged and reported as successful without contacting the API.
// A rejected or failed update is logged and returned as (false, err).
func (e *SyncEngine) MarkWatching(ctx context.Context, entry models.Entry, today string, dryRun bool) (bool, error) {
	return e.markWatching(ctx, e.logger, entry, today, dryRun)
}

func (e *SyncEngine) markWatching(ctx context.Context, logger *log.Logger, entry models.Entry, today string, dryRun bool) (bool, error) {
	if entry.Date != today {
		return false, nil
	}

	if dryRun {
		logger.Info("dry run: would mark subject as watching", "subject", entry.SubjectID)
		return true, nil
	}

	if e.updater == nil {
		return false, fmt.Errorf("%w: collection updater not initialized", shared.ErrServiceUnavailable)
	}

	if err := e.updater.UpdateCollection(ctx, entry.SubjectID, services.CollectionWatching); err != nil {
		logger.Error("failed to mark subject as watching", "subject", entry.SubjectID, "err", err)
		return false, err
	}

	logger.Info("marked subject as watching", "subject", entry.SubjectID)
	return true, nil
}

// finish hands the run to the optional store and observer. Store failures are only logged.
func (e *SyncEngine) finish(run *models.SyncRun) {
	if e.opts.Store != nil {
		if err := e.opts.Store.Create(run); err != nil {
			e.logger.Warn("failed to record sync run", "run", run.ID, "err", err)
		}
	}
	if e.opts.Observer != nil {
		e.opts.Observer.ObserveRun(run)
	}
}
