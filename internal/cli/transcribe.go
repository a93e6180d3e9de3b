package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voxnote/voxnote/pkg/core/note"
	"github.com/voxnote/voxnote/pkg/pipeline"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file>...",
	Short: "Transcribe and format one or more audio files",
	Long: `Transcribe uploads each audio file through the batch pipeline: every file
gets its own session, files are processed concurrently, and each finished
session is exported as a text note. One file failing does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranscribe,
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}

	files := make([]pipeline.File, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %q: %w", path, err)
		}
		files = append(files, pipeline.File{
			Name:     filepath.Base(path),
			MIMEType: detectMIMEType(path),
			Data:     data,
		})
	}

	batch := &pipeline.BatchProcessor{
		Registry:      eng.registry,
		Provider:      eng.provider,
		Formatter:     eng.formatter,
		Logger:        eng.logger,
		MaxConcurrent: eng.cfg.MaxConcurrentFiles,
	}
	ids := batch.Process(cmd.Context(), files)

	var failed int
	sink := eng.fileSink()
	for _, id := range ids {
		s := eng.registry.Find(id)
		if s == nil {
			continue
		}
		if s.Status == note.StatusError {
			failed++
			fmt.Fprintf(os.Stderr, "failed: %s\n", s.DisplayName)
			continue
		}
		if err := eng.exporter.Export(s, sink); err != nil {
			return err
		}
	}

	eng.reportNotices()
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(ids))
	}
	return nil
}

func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".webm":
		return "audio/webm"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
