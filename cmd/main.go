package main

import (
	"context"
	"os"

	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:    "stagelist",
		Usage:   "Stage lists with a built-in metronome for live performance",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			path := cmd.String("config")
			config, err := shared.LoadConfigOrDefault(path)
			if err != nil {
				return ctx, err
			}
			if err := config.Validate(); err != nil {
				return ctx, err
			}
			runner.SetConfig(config, path)
			return ctx, nil
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
