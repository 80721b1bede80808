package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/czar/internal/config"
	"github.com/sandeepkv93/czar/internal/logutils"
	"github.com/sandeepkv93/czar/internal/scheduler"
	"github.com/sandeepkv93/czar/internal/service"
	"github.com/sandeepkv93/czar/internal/storage"
	"github.com/sandeepkv93/czar/internal/update"
)

var (
	configPath string
	dataDir    string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "czar",
		Short: "Personal kanban board and habit tracker",
		Long: `czar keeps a four column board (Pending, In Progress, Action Taken, Done)
and a list of daily habits in a local SQLite database.

Run without a subcommand to open the terminal UI.`,
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "path to config.yaml")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", config.DefaultDataDir(), "directory holding the database and log")

	root.AddCommand(newAddCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newMoveCmd())
	root.AddCommand(newArchiveCmd())
	root.AddCommand(newRestoreCmd())
	root.AddCommand(newArchivedCmd())
	root.AddCommand(newHabitCmd())
	root.AddCommand(newScheduleCmd())
	root.AddCommand(newMaterializeCmd())
	root.AddCommand(newNextCmd())
	return root
}

// app is the wired store and services shared by every subcommand.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	store     *storage.SQLiteRepository
	boards    *service.BoardService
	habits    *service.HabitService
	schedules *service.ScheduleService
	closeLog  func()
}

func openApp() (*app, error) {
	cfg, err := config.Load(configPath, dataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	log, closeLog, err := logutils.New(cfg.LogLevel, cfg.LogPath())
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	store, err := storage.OpenSQLite(cfg.DatabasePath())
	if err != nil {
		closeLog()
		return nil, err
	}
	log.Debug().Str("database", cfg.DatabasePath()).Str("owner", cfg.Owner).Msg("store opened")

	loc := cfg.Location()
	return &app{
		cfg:       cfg,
		log:       log,
		store:     store,
		boards:    service.NewBoardService(store, cfg.Owner, loc, logutils.Component(log, "board")),
		habits:    service.NewHabitService(store, cfg.Owner, loc, logutils.Component(log, "habit")),
		schedules: service.NewScheduleService(store, cfg.Owner, loc, logutils.Component(log, "schedule")),
		closeLog:  closeLog,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close store")
	}
	a.closeLog()
}

func (a *app) now() time.Time {
	return time.Now().In(a.cfg.Location())
}

// withApp opens the app for the duration of fn, cancelling ctx on SIGINT/SIGTERM.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, a)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		log := logutils.Component(a.log, "tui")

		// Catch up on schedules that came due while czar was closed.
		if n, err := a.schedules.Materialize(ctx, a.now()); err != nil {
			log.Warn().Err(err).Msg("startup materialize")
		} else if n > 0 {
			log.Info().Int("count", n).Msg("materialized missed schedules")
		}

		engine := scheduler.NewEngine(a.cfg.SchedulerBuffer)
		engine.Start()
		defer engine.Stop()

		m := update.NewModel(update.Options{
			Context:       ctx,
			Boards:        a.boards,
			Habits:        a.habits,
			Schedules:     a.schedules,
			Scheduler:     engine,
			Location:      a.cfg.Location(),
			SuggestedTags: a.cfg.SuggestedTags,
		})
		program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

		rollover := scheduler.NewRollover(a.cfg.Location())
		if err := rollover.OnMidnight(func(now time.Time) {
			program.Send(update.RolloverMsg{Now: now})
		}); err != nil {
			return fmt.Errorf("register midnight rollover: %w", err)
		}
		rollover.Start()
		defer rollover.Stop()
		log.Info().Time("next_rollover", rollover.Next()).Msg("tui started")

		if _, err := program.Run(); err != nil {
			return fmt.Errorf("run tui: %w", err)
		}
		if dropped := engine.Dropped(); dropped > 0 {
			log.Warn().Uint64("dropped", dropped).Msg("due events dropped while the ui was busy")
		}
		return nil
	})
}
