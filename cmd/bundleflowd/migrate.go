package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/BaSui01/bundleflow/config"
	"github.com/BaSui01/bundleflow/internal/migration"
	"github.com/BaSui01/bundleflow/registry"
)

func runMigrate(args []string) {
	if len(args) < 1 {
		printMigrateUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "up":
		withMigrator("migrate up", subargs, func(ctx context.Context, m *migration.Migrator, _ []string) error {
			if err := m.Up(ctx); err != nil {
				return err
			}
			fmt.Println("Migrations applied")
			return nil
		})
	case "down":
		withMigrator("migrate down", subargs, func(ctx context.Context, m *migration.Migrator, _ []string) error {
			if err := m.Down(ctx); err != nil {
				return err
			}
			fmt.Println("Rolled back one migration")
			return nil
		})
	case "steps":
		withMigrator("migrate steps", subargs, func(ctx context.Context, m *migration.Migrator, rest []string) error {
			if len(rest) < 1 {
				return fmt.Errorf("usage: migrate steps <n>")
			}
			n, err := strconv.Atoi(rest[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", rest[0])
			}
			if err := m.Steps(ctx, n); err != nil {
				return err
			}
			fmt.Printf("Applied %d step(s)\n", n)
			return nil
		})
	case "status":
		withMigrator("migrate status", subargs, func(ctx context.Context, m *migration.Migrator, _ []string) error {
			statuses, err := m.StatusList(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				mark := " "
				if s.Applied {
					mark = "x"
				}
				dirty := ""
				if s.Dirty {
					dirty = " (dirty)"
				}
				fmt.Printf("[%s] %06d %s%s\n", mark, s.Version, s.Name, dirty)
			}
			return nil
		})
	case "version":
		withMigrator("migrate version", subargs, func(ctx context.Context, m *migration.Migrator, _ []string) error {
			version, dirty, err := m.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Schema version: %d (dirty: %v)\n", version, dirty)
			return nil
		})
	case "help", "-h", "--help":
		printMigrateUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown migrate subcommand: %s\n", subcommand)
		printMigrateUsage()
		os.Exit(1)
	}
}

// withMigrator parses shared flags, builds a migrator from config, runs fn,
// and exits non-zero on any error.
func withMigrator(name string, args []string, fn func(context.Context, *migration.Migrator, []string) error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	driver := fs.String("driver", "", "Registry driver override (postgres, mysql, sqlite)")
	dsn := fs.String("dsn", "", "Registry DSN override")
	fs.Parse(args)

	regCfg, err := migrateRegistryConfig(*configPath, *driver, *dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	m, err := migration.NewFromRegistryConfig(regCfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create migrator: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	if err := fn(context.Background(), m, fs.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func migrateRegistryConfig(configPath, driver, dsn string) (registry.Config, error) {
	if driver != "" && dsn != "" {
		return registry.Config{Driver: driver, DSN: dsn}, nil
	}

	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return registry.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	out := registry.Config{Driver: cfg.Registry.Driver, DSN: cfg.Registry.DSN}
	if driver != "" {
		out.Driver = driver
	}
	if dsn != "" {
		out.DSN = dsn
	}
	return out, nil
}

func printMigrateUsage() {
	fmt.Println(`Registry Migration Commands

Usage:
  bundleflowd migrate <subcommand> [options]

Subcommands:
  up         Apply all pending migrations
  down       Rollback the last migration
  steps <n>  Apply n migrations (negative rolls back)
  status     Show migration status
  version    Show current schema version
  help       Show this help message

Options:
  --config <path>   Path to configuration file (YAML)
  --driver <name>   Registry driver override: postgres, mysql, sqlite
  --dsn <dsn>       Registry connection string override

Examples:
  bundleflowd migrate up
  bundleflowd migrate up --config /etc/bundleflow/config.yaml
  bundleflowd migrate status
  bundleflowd migrate steps -1
  bundleflowd migrate up --driver sqlite --dsn file:bundleflow.db`)
}
