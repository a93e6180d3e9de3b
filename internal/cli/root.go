// Package cli defines the Cobra command definitions for the voxnote CLI.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/voxnote/voxnote/internal/dotenv"
	"github.com/voxnote/voxnote/pkg/config"
	"github.com/voxnote/voxnote/pkg/core/note"
	"github.com/voxnote/voxnote/pkg/core/transcribe"
	"github.com/voxnote/voxnote/pkg/export"
	"github.com/voxnote/voxnote/pkg/pipeline"
)

var (
	verbose bool
	version = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:           "voxnote",
	Short:         "Voice note transcription engine",
	Long:          "Voxnote turns voice audio into verbatim transcripts and AI-formatted notes,\nfrom live capture or uploaded audio files.",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(recordCmd)
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// engine bundles the wired components shared by the subcommands.
type engine struct {
	cfg       config.Config
	logger    *slog.Logger
	registry  *note.Registry
	notices   *note.NoticeBoard
	provider  transcribe.Provider
	formatter *pipeline.Formatter
	exporter  *export.Orchestrator
}

func buildEngine(ctx context.Context) (*engine, error) {
	if err := dotenv.Load(); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	var opts []transcribe.GeminiOption
	if cfg.TranscribeModel != "" {
		opts = append(opts, transcribe.WithTranscribeModel(cfg.TranscribeModel))
	}
	if cfg.FormatModel != "" {
		opts = append(opts, transcribe.WithFormatModel(cfg.FormatModel))
	}
	provider, err := transcribe.NewGemini(ctx, cfg.GeminiAPIKey, opts...)
	if err != nil {
		return nil, err
	}

	logger := newLogger()
	registry := note.NewRegistry()
	return &engine{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		notices:  note.NewNoticeBoard(),
		provider: provider,
		formatter: &pipeline.Formatter{
			Registry: registry,
			Provider: provider,
			Logger:   logger,
		},
		exporter: &export.Orchestrator{
			WithHeader: cfg.ExportHeader,
			Stagger:    cfg.ExportStagger,
		},
	}, nil
}

// fileSink writes exported documents into the configured export directory.
func (e *engine) fileSink() export.Sink {
	return func(name, content string) error {
		path := filepath.Join(e.cfg.ExportDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write export %q: %w", path, err)
		}
		e.logger.Info("exported", "path", path)
		return nil
	}
}

func (e *engine) reportNotices() {
	for _, n := range e.notices.List() {
		fmt.Fprintf(os.Stderr, "notice: %s\n", n.Message)
	}
}
