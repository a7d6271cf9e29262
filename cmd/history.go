package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/bgmx/internal/formatter"
	"github.com/desertthunder/bgmx/internal/repositories"
	"github.com/desertthunder/bgmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists recorded sync runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openHistory(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewSyncRunRepository(db).List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs)
	}
	return r.writePlain("%s", formatter.HistoryTable(runs, r.palette))
}

// HistoryShow prints one run with its events.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	db, err := r.openHistory(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := repositories.NewSyncRunRepository(db).Get(id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(run)
	}
	return r.writePlain("%s", formatter.RunSummary(run, r.palette))
}

func (r *Runner) openHistory(ctx context.Context, cmd *cli.Command) (*sql.DB, error) {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	return shared.OpenHistory(ctx, config.Database)
}
