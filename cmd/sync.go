package main

import (
	"context"

	"github.com/desertthunder/bgmx/internal/formatter"
	"github.com/desertthunder/bgmx/internal/metrics"
	"github.com/desertthunder/bgmx/internal/repositories"
	"github.com/desertthunder/bgmx/internal/shared"
	"github.com/desertthunder/bgmx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Sync walks the wish list and moves today's releases to watching.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	location, err := config.Location()
	if err != nil {
		return err
	}

	maxPages := config.Sync.MaxPages
	if n := cmd.Int("max-pages"); n >= 0 {
		maxPages = n
	}

	jsonOut := cmd.Bool("json")
	opts := tasks.SyncOpts{
		Username:          config.Credentials.Username,
		DryRun:            cmd.Bool("dry-run"),
		Location:          location,
		RequestsPerSecond: config.Sync.RequestsPerSecond,
		MaxPages:          maxPages,
		Logger:            r.logger,
		Now:               r.now,
	}

	if config.Database.Path != "" {
		db, err := shared.OpenHistory(ctx, config.Database)
		if err != nil {
			r.logger.Warn("run history disabled", "path", config.Database.Path, "error", err)
		} else {
			defer db.Close()
			opts.Store = repositories.NewSyncRunRepository(db)
		}
	}

	var collector *metrics.Collector
	if config.Metrics.Textfile != "" {
		collector = metrics.NewCollector()
		opts.Observer = collector
	}

	svc := r.bangumi(config)
	engine := tasks.NewSyncEngine(svc, svc, opts)

	var progressCh chan tasks.ProgressUpdate
	done := make(chan struct{})
	if jsonOut {
		close(done)
	} else {
		progressCh = make(chan tasks.ProgressUpdate, 50)
		go func() {
			defer close(done)
			for update := range progressCh {
				switch update.Phase {
				case tasks.FetchPage:
					r.writePlain("📖 %s\n", update.Message)
				case tasks.UpdateEntry:
					r.writePlain("   %s\n", update.Message)
				}
			}
		}()
	}

	result, err := engine.Run(ctx, progressCh)
	if progressCh != nil {
		close(progressCh)
	}
	<-done

	if err != nil {
		return err
	}

	if collector != nil {
		if err := collector.WriteTextfile(config.Metrics.Textfile); err != nil {
			r.logger.Warn("failed to write metrics", "path", config.Metrics.Textfile, "error", err)
		}
	}

	if jsonOut {
		return r.writeJSON(result.Run)
	}
	return r.writePlain("\n%s", formatter.RunSummary(result.Run, r.palette))
}
