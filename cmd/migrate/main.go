package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/kukumart/marketplace-backend/pkg/config"
	"github.com/kukumart/marketplace-backend/pkg/db"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	"github.com/kukumart/marketplace-backend/pkg/migrate"
)

const usage = `usage: migrate -cmd <command> [flags]

commands:
  up        apply all pending migrations
  down      roll back the latest migration
  redo      roll back and re-apply the latest migration
  status    print applied and pending migrations
  version   migrate up or down to -version
  create    write an empty migration named -name
  validate  check migration files without a database
`

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (create)")
	flag.StringVar(&opts.version, "version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	_ = godotenv.Load()

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	// create and validate work on files only.
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("-name is required for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migrations valid")
		return nil
	case "up", "down", "redo", "status", "version":
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", opts.cmd)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		return errors.New("goose migrations target postgres; sqlite schemas are auto-migrated from the models")
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": opts.cmd, "dir": opts.dir})

	client, err := db.New(ctx, cfg.DB, false, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}

	logg.Info(ctx, "migrate ready")
	if opts.cmd == "version" {
		if opts.version == "" {
			return errors.New("-version is required for version")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version, os.Stdout)
	} else {
		err = migrate.Run(ctx, sqlDB, opts.dir, opts.cmd, os.Stdout)
	}
	if err != nil {
		logg.Error(ctx, "migration failed", err)
		return err
	}
	logg.Info(ctx, "migration finished")
	return nil
}
