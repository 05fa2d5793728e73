package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/cmd/cli/commands"
	"github.com/jakechorley/clinic-cover/internal/config"
	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/db"
	"github.com/jakechorley/clinic-cover/pkg/notify"
	"github.com/jakechorley/clinic-cover/pkg/postgres"
	"github.com/jakechorley/clinic-cover/pkg/sqlite"
	"github.com/jakechorley/clinic-cover/pkg/utils/logging"
)

var env string

var (
	app     = &commands.AppContext{}
	closeDB = func() {}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Clinic Cover CLI - Coordinate cover for clinic sessions",
		Long:  `A CLI tool for posting time off requests, claiming and releasing clinic sessions, and serving the coverage API.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeDB()
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (selects clinic_cover_config.<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&app.ActingID, "as", "", "Supervisor id to act as")

	// Sessions
	rootCmd.AddCommand(commands.ClaimCmd(app))
	rootCmd.AddCommand(commands.ReleaseCmd(app))
	rootCmd.AddCommand(commands.UncoveredCmd(app))
	rootCmd.AddCommand(commands.SessionsCmd(app))
	rootCmd.AddCommand(commands.UpcomingCmd(app))
	rootCmd.AddCommand(commands.MyCoverageCmd(app))
	rootCmd.AddCommand(commands.ClinicsCmd(app))

	// Requests
	rootCmd.AddCommand(commands.CreateRequestCmd(app))
	rootCmd.AddCommand(commands.ShowRequestCmd(app))
	rootCmd.AddCommand(commands.ListRequestsCmd(app))
	rootCmd.AddCommand(commands.MyRequestsCmd(app))
	rootCmd.AddCommand(commands.UpdateRequestCmd(app))
	rootCmd.AddCommand(commands.DeleteRequestCmd(app))

	// Notifications
	rootCmd.AddCommand(commands.NotificationsCmd(app))
	rootCmd.AddCommand(commands.MarkReadCmd(app))
	rootCmd.AddCommand(commands.ClearNotificationsCmd(app))

	rootCmd.AddCommand(commands.DashboardCmd(app))

	// Supervisors
	rootCmd.AddCommand(commands.ListSupervisorsCmd(app))
	rootCmd.AddCommand(commands.AddSupervisorCmd(app))
	rootCmd.AddCommand(commands.ProfileCmd(app))

	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up config, logger, store and the coverage coordinator
func initApp() error {
	var err error
	app.Ctx = context.Background()

	// Load configuration first: it names the log directory
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app.Logger, err = logging.InitLogger(env, app.Cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("driver", app.Cfg.Database.Driver),
		zap.Int("clinics", len(app.Cfg.Clinics)))

	app.Logger.Info("Connecting to database", zap.String("driver", app.Cfg.Database.Driver))
	app.Store, closeDB, err = openStore(app.Ctx, app.Cfg.Database)
	if err != nil {
		return err
	}
	app.Logger.Info("Database initialized successfully")

	app.Dispatcher = notify.NewOutbox(app.Logger)
	app.Coordinator = coverage.NewCoordinator(app.Store, app.Dispatcher, app.Logger, coverage.Options{
		MaxConflictRetries: app.Cfg.Coverage.MaxConflictRetries,
		NotifyOnRelease:    app.Cfg.Coverage.NotifyOnRelease,
	})

	return nil
}

// openStore connects to the configured store and applies pending migrations
func openStore(ctx context.Context, cfg config.DatabaseConfig) (db.Store, func(), error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := postgres.NewDB(ctx, cfg.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := pg.RunMigrations(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return pg, pg.Close, nil

	case "sqlite":
		lite, err := sqlite.NewDB(ctx, cfg.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := lite.RunMigrations(ctx); err != nil {
			lite.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return lite, lite.Close, nil

	case "memory":
		return db.NewMemoryDB(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
