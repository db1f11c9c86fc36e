// Package main is the entry point for the LibReport admin CLI.
// This tool provides administrative commands for bootstrapping admin
// accounts and managing invite keys without going through the API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/libreport/internal/config"
	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/pkg/crypto"
	"github.com/prn-tf/libreport/internal/repository"
	"github.com/prn-tf/libreport/internal/repository/postgres"
	"github.com/prn-tf/libreport/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "version":
		fmt.Printf("LibReport Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "create-key":
		runOrExit(createKey, args)

	case "list-keys":
		runOrExit(listKeys, args)

	case "create-admin":
		runOrExit(createAdmin, args)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runOrExit(fn func(ctx context.Context, args []string) error, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := fn(ctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func createKey(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-key", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	label := fs.String("label", "", "label describing the key")
	maxUses := fs.Int("max-uses", 1, "number of redemptions allowed")
	days := fs.Int("days", 0, "days until the key expires (0 = never)")
	fs.Parse(args)

	repos, closer, err := openRepositories(ctx, *configPath)
	if err != nil {
		return err
	}
	defer closer()

	code, err := crypto.GenerateInviteCode()
	if err != nil {
		return err
	}

	var expiresAt *time.Time
	if *days > 0 {
		t := time.Now().UTC().AddDate(0, 0, *days)
		expiresAt = &t
	}

	key := domain.NewAdminKey(crypto.HashToken(code), *label, *maxUses, expiresAt)
	if err := repos.AdminKey.Create(ctx, key); err != nil {
		return err
	}

	fmt.Printf("Invite key created.\n")
	fmt.Printf("  ID:       %s\n", key.ID)
	fmt.Printf("  Label:    %s\n", key.Label)
	fmt.Printf("  Max uses: %d\n", key.MaxUses)
	if expiresAt != nil {
		fmt.Printf("  Expires:  %s\n", expiresAt.Format(time.RFC3339))
	}
	fmt.Printf("\nCode (shown once, store it safely):\n  %s\n", code)
	return nil
}

func listKeys(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list-keys", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	asJSON := fs.Bool("json", false, "output JSON")
	fs.Parse(args)

	repos, closer, err := openRepositories(ctx, *configPath)
	if err != nil {
		return err
	}
	defer closer()

	keys, err := repos.AdminKey.List(ctx)
	if err != nil {
		return err
	}

	if *asJSON {
		return json.NewEncoder(os.Stdout).Encode(keys)
	}

	if len(keys) == 0 {
		fmt.Println("No invite keys.")
		return nil
	}

	fmt.Printf("%-38s %-20s %-8s %-10s %s\n", "ID", "LABEL", "USES", "ACTIVE", "EXPIRES")
	for _, key := range keys {
		expires := "-"
		if key.ExpiresAt != nil {
			expires = key.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Printf("%-38s %-20s %d/%-6d %-10t %s\n",
			key.ID, key.Label, key.Uses, key.MaxUses, key.Active, expires)
	}
	return nil
}

func createAdmin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	email := fs.String("email", "", "admin email")
	fullName := fs.String("name", "", "admin full name")
	password := fs.String("password", "", "admin password")
	fs.Parse(args)

	if *email == "" || *fullName == "" || *password == "" {
		return fmt.Errorf("email, name, and password are required")
	}
	if !domain.ValidEmail(*email) {
		return fmt.Errorf("invalid email")
	}
	if !domain.ValidPassword(*password) {
		return fmt.Errorf("password does not meet requirements")
	}

	repos, closer, err := openRepositories(ctx, *configPath)
	if err != nil {
		return err
	}
	defer closer()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := domain.NewAdmin(*email, *fullName, string(hash))
	if err := repos.Admin.Create(ctx, admin); err != nil {
		return err
	}

	fmt.Printf("Admin created.\n")
	fmt.Printf("  ID:    %s\n", admin.ID)
	fmt.Printf("  Email: %s\n", admin.Email)
	return nil
}

// openRepositories connects to the configured database and runs
// pending migrations so CLI commands work on a fresh file.
func openRepositories(ctx context.Context, configPath string) (*repository.Repositories, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

	if cfg.Database.IsEmbedded() {
		dbCfg := sqlite.DefaultConfig(cfg.Database.Path)
		db, err := sqlite.NewDB(ctx, dbCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewRepositories(db), func() { db.Close() }, nil
	}

	db, err := postgres.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewRepositories(db), func() { db.Close() }, nil
}

func printUsage() {
	fmt.Println(`LibReport Admin CLI

Usage:
  libreport-admin <command> [arguments]

Commands:
  create-key    Create an admin invite key (prints the code once)
  list-keys     List invite keys and their usage
  create-admin  Create an admin account directly
  version       Print version information
  help          Show this help message

Examples:
  libreport-admin create-key --label onboarding --max-uses 5 --days 30
  libreport-admin list-keys --json
  libreport-admin create-admin --email admin@example.com --name "Head Librarian" --password secret123

Use LIBREPORT_* environment variables or --config to point at the database.`)
}
