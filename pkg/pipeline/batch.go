package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voxnote/voxnote/pkg/core"
	"github.com/voxnote/voxnote/pkg/core/note"
	"github.com/voxnote/voxnote/pkg/core/transcribe"
)

// File is one uploaded audio payload.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// BatchProcessor ingests uploaded files: one session per file, processed
// independently and concurrently, each advancing through the same lifecycle
// as a live recording.
type BatchProcessor struct {
	Registry  *note.Registry
	Provider  transcribe.Provider
	Formatter *Formatter
	Logger    *slog.Logger

	// MaxConcurrent bounds how many files are processed at once; 0 means
	// unbounded.
	MaxConcurrent int
}

// Process creates one transcribing session per file up front, makes the
// first file's session active, then runs every file's pipeline to completion.
// It returns the created session ids in file order.
//
// One file's failure never touches its siblings: each stage error is caught
// locally and moves only that session to error.
func (b *BatchProcessor) Process(ctx context.Context, files []File) []string {
	if len(files) == 0 {
		return nil
	}

	now := time.Now()
	ids := make([]string, len(files))
	for i, f := range files {
		s := note.NewSession(note.SourceFile, f.Name, now)
		b.Registry.Add(s)
		ids[i] = s.ID
	}
	b.Registry.SetActive(ids[0])

	g, ctx := errgroup.WithContext(ctx)
	if b.MaxConcurrent > 0 {
		g.SetLimit(b.MaxConcurrent)
	}
	for i := range files {
		id, file := ids[i], files[i]
		g.Go(func() error {
			b.processOne(ctx, id, file)
			return nil
		})
	}
	_ = g.Wait()

	return ids
}

func (b *BatchProcessor) processOne(ctx context.Context, sessionID string, file File) {
	logger := b.logger().With("session_id", sessionID, "file", file.Name)

	if !IsAudioMIMEType(file.MIMEType) {
		err := core.NewUnsupportedFileError(file.Name, file.MIMEType)
		b.fail(sessionID)
		logger.Warn("rejected upload", "error", err)
		return
	}

	text, err := b.Provider.Transcribe(ctx, file.Data, file.MIMEType)
	if err != nil {
		// Straight to error, no partial snippets.
		b.fail(sessionID)
		logger.Warn("transcription failed", "error", core.NewTranscriptionError(err))
		return
	}

	// File sessions carry the full raw text as one final snippet.
	now := time.Now()
	b.Registry.Update(sessionID, func(s *note.Session) {
		_ = s.ReceiveSnippet(text, true, now)
	})

	if err := b.Formatter.Request(ctx, sessionID); err != nil {
		logger.Warn("formatting failed", "error", err)
	}
}

func (b *BatchProcessor) fail(sessionID string) {
	b.Registry.Update(sessionID, func(s *note.Session) { s.Fail() })
}

func (b *BatchProcessor) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// IsAudioMIMEType reports whether the given media type is an accepted audio
// upload.
func IsAudioMIMEType(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if strings.HasPrefix(mt, "audio/") {
		return true
	}
	// Browsers report some audio containers as video or octet-stream.
	switch mt {
	case "video/webm", "video/mp4", "application/ogg":
		return true
	}
	return false
}
