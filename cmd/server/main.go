package main

import (
	"context"
	"fmt"
	"os"

	"codedojo/internal/platform/config"
	"codedojo/internal/platform/logger"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	cmd := &cli.Command{
		Name:  "codedojo",
		Usage: "Coding practice backend: problems, graded solutions and shared snippets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "optional dotenv file loaded before the environment",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			serveHwd.cmd(),
			initDBHwd.cmd(),
			grantAdminHwd.cmd(),
		},
		Action: serveHwd.run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "codedojo: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the process logger.
func bootstrap(cmd *cli.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cmd.String("env-file"))
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
