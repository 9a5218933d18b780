// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// startCommand runs the bot with the weekly discovery schedule
func startCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Run the bot with the weekly discovery schedule",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "cron",
				Usage: "Override the configured cron expression",
			},
		},
		Action: r.Start,
	}
}

// discoverCommand triggers a discovery run immediately
func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "discover",
		Aliases: []string{"gen"},
		Usage:   "Generate the discovery playlist immediately",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.Discover,
	}
}

// statsCommand prints playlist and discovery statistics
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show collaborative playlist statistics",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Stats,
	}
}

// addCommand appends a single track link to the collaborative playlist
func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a Spotify track link to the collaborative playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "link",
			},
		},
		Flags:  []cli.Flag{configFlag()},
		Action: r.Add,
	}
}

// configCommand manages local configuration files
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage bot configuration",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write a starter config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigInit,
			},
		},
	}
}
