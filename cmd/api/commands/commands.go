package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/takecare/core/internal/adapters/notify"
	"github.com/takecare/core/internal/adapters/objectstore"
	"github.com/takecare/core/internal/adapters/repository"
	"github.com/takecare/core/internal/infrastructure/config"
	"github.com/takecare/core/internal/infrastructure/database"
	"github.com/takecare/core/internal/infrastructure/logger"
	"github.com/takecare/core/internal/infrastructure/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the TakeCare API server",
		Long:  "Start the TakeCare API server with the configured document store and notification center",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations for the self-hosted Postgres store (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up", 0)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("down", 0)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print TakeCare version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("TakeCare Core v1.0.0")
		},
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	deps := server.Dependencies{}

	switch cfg.Store.Driver {
	case "firestore":
		client, err := firestore.NewClient(context.Background(), cfg.Firestore.ProjectID)
		if err != nil {
			appLogger.Fatalw("Failed to connect to Firestore", "error", err)
		}
		defer client.Close()
		deps.Lists = repository.NewFirestoreListRepository(client, cfg.Firestore.Collection)
	case "postgres":
		db, err := database.New(cfg.Database)
		if err != nil {
			appLogger.Fatalw("Failed to connect to database", "error", err)
		}
		defer db.Close()
		deps.DB = db
		deps.Lists = repository.NewPostgresListRepository(db)
	default:
		appLogger.Fatalw("Unknown store driver", "driver", cfg.Store.Driver)
	}

	center := notify.NewCenter(cfg.Notifications.BufferSize, appLogger)
	center.Start()
	defer center.Stop()
	deps.Scheduler = center
	deps.Consent = center

	// Drain fired reminders; a real deployment would hand these to a push
	// transport. The loop ends when Stop closes the channel.
	go func() {
		for d := range center.C() {
			appLogger.Infow("Reminder fired",
				"actor_id", d.ActorID,
				"task_id", d.Identifier,
				"title", d.Title,
			)
		}
		if dropped := center.Dropped(); dropped > 0 {
			appLogger.Warnw("Reminder deliveries dropped", "count", dropped)
		}
	}()

	objects, err := objectstore.NewLocal(cfg.Objects.BaseDir)
	if err != nil {
		appLogger.Fatalw("Failed to initialize object store", "error", err)
	}
	deps.Objects = objects

	srv, err := server.New(cfg, deps, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	appLogger.Infow("Starting TakeCare API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"store_driver", cfg.Store.Driver,
	)

	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			appLogger.Infow("Server stopped", "reason", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Errorw("Graceful shutdown failed", "error", err)
	}
}

func runMigration(direction string, steps int) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Store.Driver != "postgres" {
		log.Fatalf("Migrations only apply to the postgres store driver, got %q", cfg.Store.Driver)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	m, err := newMigrator(db)
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	}

	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Migration failed: %v", err)
	}

	if err == migrate.ErrNoChange {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
}

func showMigrationVersion() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	m, err := newMigrator(db)
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

func newMigrator(db *database.DB) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		return nil, err
	}

	return migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
}
