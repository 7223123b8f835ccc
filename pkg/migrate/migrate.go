package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where new migrations are created on disk.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// source resolves the default dir to the embedded copy so binaries migrate
// without the source tree.
func source(dir string) (fs.FS, error) {
	if dir == "" {
		return nil, errors.New("dir is required")
	}
	if dir == DefaultDir {
		return fs.Sub(embeddedMigrations, "migrations")
	}
	return os.DirFS(dir), nil
}

func newProvider(db *sql.DB, dir string) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	fsys, err := source(dir)
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return provider, nil
}

// Run executes up, down, redo or status and reports each step to out.
// The provider is not closed; the caller owns db.
func Run(ctx context.Context, db *sql.DB, dir, command string, out io.Writer) error {
	provider, err := newProvider(db, dir)
	if err != nil {
		return err
	}
	switch command {
	case "up":
		results, err := provider.Up(ctx)
		report(out, results...)
		return wrap("up", err)
	case "down":
		result, err := provider.Down(ctx)
		report(out, result)
		return wrap("down", err)
	case "redo":
		down, err := provider.Down(ctx)
		report(out, down)
		if err != nil {
			return wrap("redo", err)
		}
		up, err := provider.UpByOne(ctx)
		report(out, up)
		return wrap("redo", err)
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return wrap("status", err)
		}
		for _, st := range statuses {
			applied := "-"
			if st.State == goose.StateApplied {
				applied = st.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(out, "%-8s %-20s %s\n", st.State, applied, st.Source.Path)
		}
		return nil
	default:
		return fmt.Errorf("unsupported goose command %q", command)
	}
}

// MigrateToVersion moves the schema up or down to targetVersion.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir, targetVersion string, out io.Writer) error {
	if targetVersion == "" {
		return errors.New("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	provider, err := newProvider(db, dir)
	if err != nil {
		return err
	}
	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil
	case current < target:
		results, err = provider.UpTo(ctx, target)
	default:
		results, err = provider.DownTo(ctx, target)
	}
	report(out, results...)
	return wrap(fmt.Sprintf("migrate to %d", target), err)
}

func report(out io.Writer, results ...*goose.MigrationResult) {
	if out == nil {
		return
	}
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		fmt.Fprintf(out, "%-4s %d %s (%s)\n", r.Direction, r.Source.Version, r.Source.Path, r.Duration)
	}
}

func wrap(op string, err error) error {
	if err == nil || errors.Is(err, goose.ErrNoNextVersion) {
		return nil
	}
	return fmt.Errorf("goose %s: %w", op, err)
}
