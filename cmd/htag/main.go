package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/recera/htag/internal/config"
	"github.com/recera/htag/internal/fixture"
	"github.com/recera/htag/pkg/debug"
	"github.com/recera/htag/pkg/htag"
	"github.com/recera/htag/pkg/scheduler"
)

var (
	version = "0.1.0-preview"
	commit  = "dev"
	date    = "unknown"
)

// app holds state shared by every command
type app struct {
	projectDir string
	verbose    bool
	cfg        *config.Config
	logger     *slog.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "htag",
		Short: "htag - tagged HTML templates",
		Long: `htag renders, inspects and previews template fixtures built with the
htag tagged-template engine.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.projectDir, "project", "C", ".", "Directory holding htag.yaml")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log engine debug output to stderr")

	rootCmd.AddCommand(newRenderCommand(a))
	rootCmd.AddCommand(newInspectCommand(a))
	rootCmd.AddCommand(newStyleCommand(a))
	rootCmd.AddCommand(newServeCommand(a))

	return rootCmd
}

// setup loads configuration and applies it to the engine packages
func (a *app) setup() error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if a.verbose {
		debug.EnableLogging(a.logger)
	}

	cfg, err := config.Load(a.projectDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	htag.SetParseCacheSize(cfg.CacheSize())
	scheduler.Default().SetFrameInterval(cfg.Scheduler.FrameInterval)
	return nil
}

// fixtureOptions returns the compile options configured for lists
func (a *app) fixtureOptions(clean bool) fixture.Options {
	return fixture.Options{
		KeyName:      a.cfg.List.KeyName,
		IndexKeyName: a.cfg.List.IndexKeyName,
		Clean:        clean,
	}
}
