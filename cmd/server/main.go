package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"kpi/internal/app/server"
	"kpi/internal/platform/config"
	"kpi/internal/platform/db"
	"kpi/internal/platform/jobs"
)

var configFile string

func loadConfig() config.Config {
	path := configFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Monthly KPI self-evaluation and approval service",
	Run: func(cmd *cobra.Command, args []string) {
		serveCmd.Run(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and serve the frontend",
	Run: func(cmd *cobra.Command, args []string) {
		if err := server.Run(loadConfig()); err != nil {
			log.Fatalf("server failed: %v", err)
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireDatabase(loadConfig())
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			log.Fatalf("migrate up failed: %v", err)
		}
		fmt.Println("Migrations applied.")
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Run: func(cmd *cobra.Command, args []string) {
		steps, _ := cmd.Flags().GetInt("steps")
		cfg := requireDatabase(loadConfig())
		if err := db.MigrateDown(cfg.DatabaseURL, steps); err != nil {
			log.Fatalf("migrate down failed: %v", err)
		}
		fmt.Println("Migrations rolled back.")
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current schema version",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireDatabase(loadConfig())
		status, err := db.Status(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("migrate version failed: %v", err)
		}
		fmt.Printf("Current version: %d\n", status.CurrentVersion)
		fmt.Printf("Latest version:  %d\n", status.LatestVersion)
		if status.Dirty {
			fmt.Println("Database is dirty: fix the failed migration and force the version.")
		}
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default departments and accounts",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireDatabase(loadConfig())
		ctx := context.Background()
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			log.Fatalf("db connect failed: %v", err)
		}
		defer pool.Close()
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Println("Seed data is in place.")
	},
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Purge expired reset tokens and stale idempotency keys",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireDatabase(loadConfig())
		ctx := context.Background()
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			log.Fatalf("db connect failed: %v", err)
		}
		defer pool.Close()
		details, err := jobs.New(pool, cfg).RunMaintenance(ctx)
		if err != nil {
			log.Fatalf("maintenance failed: %v", err)
		}
		for jobType, result := range details {
			fmt.Printf("%s: %v\n", jobType, result)
		}
	},
}

func requireDatabase(cfg config.Config) config.Config {
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	return cfg
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a TOML config file (overrides CONFIG_FILE)")
	migrateDownCmd.Flags().Int("steps", 1, "Number of migrations to roll back (0 rolls back everything)")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(maintenanceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
