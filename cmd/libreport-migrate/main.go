// Package main is the entry point for the LibReport database migration
// tool. It manages the schema for both the SQLite and PostgreSQL
// backends.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/config"
	"github.com/prn-tf/libreport/internal/repository/postgres"
	"github.com/prn-tf/libreport/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// migrator is the slice of DB behavior this tool needs, satisfied by
// both backends.
type migrator interface {
	Migrate(ctx context.Context) error
	MigrationVersion(ctx context.Context) (int, error)
	Close() error
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "version":
		fmt.Printf("LibReport Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up":
		runOrExit(up, args)

	case "status":
		runOrExit(status, args)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runOrExit(fn func(ctx context.Context, args []string) error, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := fn(ctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func up(ctx context.Context, args []string) error {
	db, driver, err := openDB(ctx, args)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	version, err := db.MigrationVersion(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Migrations applied (%s). Schema version: %d\n", driver, version)
	return nil
}

func status(ctx context.Context, args []string) error {
	db, driver, err := openDB(ctx, args)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := db.MigrationVersion(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Driver:         %s\n", driver)
	fmt.Printf("Schema version: %d\n", version)
	return nil
}

func openDB(ctx context.Context, args []string) (migrator, string, error) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, "", err
	}

	logger := zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()

	if cfg.Database.IsEmbedded() {
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
		if err != nil {
			return nil, "", err
		}
		return db, "sqlite", nil
	}

	db, err := postgres.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, "", err
	}
	return db, "postgres", nil
}

func printUsage() {
	fmt.Println(`LibReport Migration Tool

Usage:
  libreport-migrate <command> [arguments]

Commands:
  up          Apply all pending migrations
  status      Show the current schema version
  version     Print version information
  help        Show this help message

Configuration comes from the standard config file or LIBREPORT_*
environment variables.

Examples:
  libreport-migrate up
  libreport-migrate status --config configs/config.yaml`)
}
