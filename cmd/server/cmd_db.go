package main

import (
	"context"
	"fmt"

	"codedojo/internal/app/service"
	"codedojo/internal/domain/repository"
	"codedojo/internal/platform/database"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var (
	initDBHwd     = &InitDBRunner{}
	grantAdminHwd = &GrantAdminRunner{}
)

type InitDBRunner struct{}

func (r *InitDBRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:   "init-db",
		Usage:  "Create any missing tables",
		Action: r.run,
	}
}

func (r *InitDBRunner) run(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.InitSchema(ctx, db); err != nil {
		return err
	}
	log.Info("schema applied", zap.String("database", cfg.DBName))
	return nil
}

type GrantAdminRunner struct{}

func (r *GrantAdminRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:  "grant-admin",
		Usage: "Give an existing user the admin role",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Usage:    "user to promote",
				Required: true,
			},
		},
		Action: r.run,
	}
}

func (r *GrantAdminRunner) run(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Role changes need no token codec.
	authService := service.NewAuthService(repository.NewPgUserRepository(db), nil, log)
	if err := authService.GrantAdmin(ctx, cmd.String("username")); err != nil {
		return err
	}
	fmt.Printf("%s is now an admin\n", cmd.String("username"))
	return nil
}
