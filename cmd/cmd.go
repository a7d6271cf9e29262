// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootCommand returns the top-level command. Its action performs a wish list sync.
func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "bgmx",
		Usage:   "Move today's bangumi wish list releases to watching",
		Version: "0.2.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Parse and decide without sending updates",
				Local: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the run summary as JSON",
				Local: true,
			},
			&cli.IntFlag{
				Name:  "max-pages",
				Usage: "Stop after this many pages (overrides sync.max_pages)",
				Value: -1,
				Local: true,
			},
		},
		Before:   r.before,
		Action:   r.Sync,
		Commands: r.register(),
	}
}

// setupCommand handles setup operations for configuration and the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage: "Initialize the run history database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// historyCommand lists recorded sync runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded sync runs, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show (0 for all)",
				Value:   10,
				Local:   true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
				Local: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show one run with its per-entry decisions",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
		},
		Action: r.History,
	}
}
