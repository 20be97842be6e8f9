// Package main provides the CLI entrypoint for scorecard.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/scorecard/internal/catalog"
	"github.com/verte-zerg/scorecard/internal/config"
	"github.com/verte-zerg/scorecard/internal/events"
	"github.com/verte-zerg/scorecard/internal/model"
	"github.com/verte-zerg/scorecard/internal/scorecard"
	"github.com/verte-zerg/scorecard/internal/store"
	"github.com/verte-zerg/scorecard/internal/tui"
	"github.com/verte-zerg/scorecard/pkg/logger"
	"github.com/verte-zerg/scorecard/pkg/metrics"
)

const (
	defaultRound    = "practice-30m"
	defaultBow      = "recurve"
	defaultLogLevel = "info"
)

var (
	globalConfigPath  string
	globalDBPath      string
	globalNamespace   string
	globalLogLevel    string
	globalLogFile     string
	globalMetricsFile string
	globalEphemeral   bool

	scoreRound    string
	scoreBow      string
	scoreArrows   int
	scoreEnds     int
	scoreDistance int
	scoreFace     int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "scorecard",
		Short:         "Terminal archery scorecard",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runScoreCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globalConfigPath, "config", config.DefaultConfigPath(), "config file path")
	pf.StringVar(&globalDBPath, "db", config.DefaultDBPath(), "SQLite database path")
	pf.StringVar(&globalNamespace, "namespace", store.DefaultPrefix, "storage key namespace")
	pf.StringVar(&globalLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&globalLogFile, "log-file", "", "log file (interactive mode defaults to the XDG state dir)")
	pf.StringVar(&globalMetricsFile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")
	pf.BoolVar(&globalEphemeral, "ephemeral", false, "keep data in memory only")

	rootCmd.Flags().StringVar(&scoreRound, "round", defaultRound, "round id (see: scorecard rounds)")
	rootCmd.Flags().StringVar(&scoreBow, "bow", defaultBow, "bow id (see: scorecard bows)")
	rootCmd.Flags().IntVar(&scoreArrows, "arrows", 0, "arrows per end for configurable rounds (0 keeps the default)")
	rootCmd.Flags().IntVar(&scoreEnds, "ends", 0, "total ends for configurable rounds (0 keeps the default)")
	rootCmd.Flags().IntVar(&scoreDistance, "distance", 0, "custom distance (m) for configurable rounds")
	rootCmd.Flags().IntVar(&scoreFace, "face", 0, "custom target face size (cm) for configurable rounds: 122, 80 or 40")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newRoundsCmd())
	rootCmd.AddCommand(newBowsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newClearCmd())

	return rootCmd
}

// app bundles the wiring every data command needs.
type app struct {
	ctrl    *scorecard.Controller
	log     logger.Logger
	metrics *metrics.Manager
	closers []func() error
}

func (a *app) Close() {
	if globalMetricsFile != "" && a.metrics != nil {
		if err := a.metrics.WriteTextfile(globalMetricsFile); err != nil {
			logErrf("failed to write metrics: %v\n", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logErrf("failed to close: %v\n", err)
		}
	}
}

// openApp loads configuration and wires storage, logging, metrics and the controller.
// Interactive mode routes logs to a file so they do not corrupt the screen.
func openApp(ctx context.Context, cmd *cobra.Command, fileCfg config.FileConfig, interactive bool) (*app, error) {
	applyStringConfig(cmd, "db", &globalDBPath, fileCfg.Storage.Path)
	applyStringConfig(cmd, "namespace", &globalNamespace, fileCfg.Storage.Namespace)
	applyStringConfig(cmd, "log-level", &globalLogLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &globalLogFile, fileCfg.Log.File)

	a := &app{}
	level, err := logger.ParseLevel(globalLogLevel)
	if err != nil {
		return nil, err
	}
	logPath := globalLogFile
	if logPath == "" && interactive {
		logPath = config.DefaultLogPath()
	}
	var logOut io.Writer = os.Stderr
	if logPath != "" {
		f, err := openLogFile(logPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f.Close)
		logOut = f
	}
	a.log = logger.New(logOut, level)

	a.metrics, err = metrics.New()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	var backend store.Backend
	if globalEphemeral {
		backend = store.NewMemory()
	} else {
		db, err := store.Open(globalDBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		backend = db
	}
	service := store.NewService(backend, store.WithPrefix(globalNamespace))

	bus := events.NewBus(a.log)
	a.ctrl = scorecard.New(service, bus,
		scorecard.WithLogger(a.log),
		scorecard.WithMetrics(a.metrics),
	)
	if err := a.ctrl.Init(ctx); err != nil {
		// Keep going with whatever loaded; scoring works in memory.
		a.log.Warn(ctx, "history unavailable", logger.Error(err))
		if !interactive {
			logErrf("warning: %v\n", err)
		}
	}
	return a, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.Load(globalConfigPath)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

func runScoreCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "round", &scoreRound, fileCfg.Scoring.Round)
	applyStringConfig(cmd, "bow", &scoreBow, fileCfg.Scoring.Bow)
	applyIntConfig(cmd, "arrows", &scoreArrows, fileCfg.Scoring.ArrowsPerEnd)
	applyIntConfig(cmd, "ends", &scoreEnds, fileCfg.Scoring.TotalEnds)

	cfg := model.Config{
		RoundID:      scoreRound,
		BowID:        scoreBow,
		ArrowsPerEnd: scoreArrows,
		TotalEnds:    scoreEnds,
		Distance:     scoreDistance,
		FaceSize:     scoreFace,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, cmd, fileCfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	program := tea.NewProgram(tui.NewModel(ctx, a.ctrl, cfg, a.log), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func validateConfig(cfg model.Config) error {
	rt, ok := catalog.Round(cfg.RoundID)
	if !ok {
		return fmt.Errorf("unknown round %q (see: scorecard rounds)", cfg.RoundID)
	}
	if _, ok := catalog.Bow(cfg.BowID); !ok {
		return fmt.Errorf("unknown bow %q (see: scorecard bows)", cfg.BowID)
	}
	if cfg.ArrowsPerEnd < 0 {
		return fmt.Errorf("--arrows must be >= 0")
	}
	if cfg.TotalEnds < 0 {
		return fmt.Errorf("--ends must be >= 0")
	}
	if _, err := catalog.Specialize(rt, catalog.Overrides{ArrowsPerEnd: cfg.ArrowsPerEnd, TotalEnds: cfg.TotalEnds}); err != nil {
		return err
	}
	if cfg.Distance == 0 && cfg.FaceSize == 0 {
		return nil
	}
	if !rt.IsConfigurable() {
		return fmt.Errorf("--distance and --face need a configurable round, %q is fixed", rt.ID)
	}
	if cfg.Distance < 0 {
		return fmt.Errorf("--distance must be >= 0")
	}
	if cfg.FaceSize != 0 {
		if _, ok := catalog.TargetFace(cfg.FaceSize); !ok {
			return fmt.Errorf("unknown target face %dcm", cfg.FaceSize)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := globalConfigPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultTemplate(defaultRound, defaultBow)), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	parts := editorCommand(os.Getenv("EDITOR"))
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func editorCommand(editor string) []string {
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return []string{"vi"}
	}
	return parts
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
