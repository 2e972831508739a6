package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dineshxr/submithunt/internal/config"
	"github.com/dineshxr/submithunt/pkg/api"
	"github.com/dineshxr/submithunt/pkg/core/model"
	"github.com/dineshxr/submithunt/pkg/core/scheduling"
	"github.com/dineshxr/submithunt/pkg/core/services"
	"github.com/dineshxr/submithunt/pkg/db"
	"github.com/dineshxr/submithunt/pkg/notify"
	"github.com/dineshxr/submithunt/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg       *config.Config
	database  *db.DB
	allocator *scheduling.Allocator
	loc       *time.Location
	logger    *zap.Logger
	ctx       context.Context
}

var (
	env string
	app *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "submithunt",
		Short: "SubmitHunt CLI - Manage launch slots and daily rankings",
		Long:  `A CLI tool for managing startup launch-date slots, daily vote rankings, and launch notifications.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.logger != nil {
				app.logger.Sync()
			}
			if app != nil && app.database != nil {
				app.database.Close()
			}
		},
	}

	// Add persistent environment flag
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (test, prod, etc.)")

	// Add all commands
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(rankDayCmd())
	rootCmd.AddCommand(availabilityCmd())
	rootCmd.AddCommand(launchDatesCmd())
	rootCmd.AddCommand(checkDateCmd())
	rootCmd.AddCommand(notifyLaunchesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, database, and the slot allocator
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	// Initialize logger
	app.logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.logger.Info("Loading configuration")
	app.cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	app.loc, err = time.LoadLocation(app.cfg.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load scheduling timezone: %w", err)
	}

	// Connect to the database
	app.logger.Info("Connecting to database")
	pool, err := db.Connect(app.ctx, app.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.database = db.NewDB(pool)
	app.logger.Info("Database initialized successfully")

	// Availability reads go through Redis when configured, otherwise
	// straight to Postgres
	var counts db.DateCountStore = app.database
	if app.cfg.RedisURL != "" {
		opts, err := redis.ParseURL(app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse redis URL: %w", err)
		}
		counts = scheduling.NewCachedDateCounts(app.database, redis.NewClient(opts), app.logger)
		app.logger.Info("Availability cache enabled")
	}

	app.allocator = scheduling.NewAllocator(counts, app.logger, app.loc)

	return nil
}

// Command definitions

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.cfg.ListenAddr
			}

			server := api.NewServer(app.allocator, app.database, app.logger, app.cfg.AllowedOrigin)

			app.logger.Info("Serving HTTP", zap.String("addr", addr))
			return server.Listen(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to config listenAddr)")
	return cmd
}

func rankDayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rankDay [date]",
		Short: "Compute and persist daily ranks for a completed launch day (defaults to yesterday)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := ""
			if len(args) == 1 {
				date = args[0]
			}

			report, err := services.RankDay(app.ctx, app.database, app.logger, time.Now(), app.loc, date)
			if err != nil {
				return err
			}

			// Display results
			fmt.Printf("\n✓ Ranked %s\n\n", report.Date)

			if len(report.Ranked) == 0 {
				fmt.Printf("No live submissions launched that day.\n\n")
				return nil
			}

			for _, r := range report.Ranked {
				fmt.Printf("  %2d. %-40s %3d votes (%d effective, %s)\n",
					r.Rank, r.Title, r.ActualVotes, r.EffectiveVotes, r.Plan)
			}
			fmt.Println()

			if len(report.Failed) > 0 {
				fmt.Printf("Failed to persist %d rank(s):\n", len(report.Failed))
				for _, f := range report.Failed {
					fmt.Printf("  - %s (%s): %s\n", f.Title, f.ID, f.Error)
				}
				fmt.Println()
			}

			return nil
		},
	}
}

func availabilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "availability <date>",
		Short: "Show slot availability for a launch date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := args[0]
			if _, err := time.Parse(model.DateFormat, date); err != nil {
				return fmt.Errorf("date must be formatted YYYY-MM-DD: %w", err)
			}

			avail := app.allocator.Availability(app.ctx, date)

			fmt.Printf("\nAvailability for %s:\n\n", date)
			fmt.Printf("  Free slots remaining: %d of %d\n", avail.FreeRemaining, scheduling.FreeSlotCapacity)
			fmt.Printf("  Free submissions:     %d\n", avail.FreeCount)
			fmt.Printf("  Total submissions:    %d\n\n", avail.TotalCount)

			return nil
		},
	}
}

func launchDatesCmd() *cobra.Command {
	var count int
	var lookahead int

	cmd := &cobra.Command{
		Use:   "launchDates",
		Short: "List the next available launch dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slots, err := app.allocator.NextAvailableDates(app.ctx, time.Now(), count, lookahead)
			if err != nil {
				return err
			}

			fmt.Printf("\nNext launch dates:\n\n")
			for i, slot := range slots {
				status := "open"
				if !slot.FreeAvailable {
					status = "paid plans only"
				}
				fmt.Printf("  %2d. %s (%s)  %d free slot(s) left, %s\n",
					i+1, slot.Date, slot.Label, slot.FreeRemaining, status)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 5, "Number of dates to return")
	cmd.Flags().IntVar(&lookahead, "lookahead", scheduling.DefaultLookaheadDays, "Days ahead to scan")
	return cmd
}

func checkDateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkDate <date> <plan>",
		Short: "Check whether a launch date can be selected for a plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := args[0]
			plan, err := model.ParsePlan(args[1])
			if err != nil {
				return err
			}

			if err := app.allocator.SelectDate(app.ctx, date, plan); err != nil {
				fmt.Printf("\n✗ %s is not selectable for the %s plan: %v\n\n", date, plan, err)
				return nil
			}

			fmt.Printf("\n✓ %s is selectable for the %s plan\n\n", date, plan)
			return nil
		},
	}
}

func notifyLaunchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifyLaunches [date]",
		Short: "Send launch emails for submissions that went live on a date (defaults to today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()

			date := now.In(app.loc).Format(model.DateFormat)
			if len(args) == 1 {
				if _, err := time.Parse(model.DateFormat, args[0]); err != nil {
					return fmt.Errorf("date must be formatted YYYY-MM-DD: %w", err)
				}
				date = args[0]
			}

			// Only the log sender is wired for now; a real provider
			// slots in behind the EmailSender interface.
			sender := &notify.LogSender{Logger: app.logger}

			sent, failed, err := notify.SendLaunchEmails(app.ctx, app.database, sender, app.logger, now, date, app.cfg.BaseURL)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Sent %d launch notification(s) for %s\n\n", len(sent), date)
			for _, s := range sent {
				fmt.Printf("  - %s -> %s\n", s.Slug, s.Email)
			}
			if len(failed) > 0 {
				fmt.Printf("\nFailed %d notification(s):\n", len(failed))
				for _, f := range failed {
					fmt.Printf("  - %s (%s): %s\n", f.Slug, f.Email, f.Error)
				}
			}
			fmt.Println()

			return nil
		},
	}
}
