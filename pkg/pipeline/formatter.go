// Package pipeline contains the two ingestion pipelines (live capture and
// batch files) and the shared formatting step that drives sessions from raw
// transcript to structured note.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/voxnote/voxnote/pkg/core"
	"github.com/voxnote/voxnote/pkg/core/note"
	"github.com/voxnote/voxnote/pkg/core/transcribe"
)

// Formatter runs the external format call for a session and applies the
// result through the registry. Both pipelines and user-triggered reformats go
// through here so the per-session single-in-flight guard has one owner.
type Formatter struct {
	Registry *note.Registry
	Provider transcribe.Provider
	Logger   *slog.Logger
}

// Request moves the session into formatting, calls the backend with the
// space-joined snippet texts, and stores the result. A second request while
// one is in flight is a no-op, as is a request for a session that no longer
// exists. On backend failure the session moves to error and the formatted
// text stays unset; nothing retries automatically.
func (f *Formatter) Request(ctx context.Context, sessionID string) error {
	return f.run(ctx, sessionID, (*note.Session).BeginFormat)
}

// Retry re-runs formatting for a completed or errored session. User
// initiated; same guard and failure semantics as Request.
func (f *Formatter) Retry(ctx context.Context, sessionID string) error {
	return f.run(ctx, sessionID, (*note.Session).BeginReformat)
}

func (f *Formatter) run(ctx context.Context, sessionID string, begin func(*note.Session) error) error {
	var raw string
	var beginErr error
	found := f.Registry.Update(sessionID, func(s *note.Session) {
		if beginErr = begin(s); beginErr == nil {
			raw = s.RawTranscript()
		}
	})
	if !found {
		// Deleted mid-flight; treat as already handled.
		return nil
	}
	if errors.Is(beginErr, note.ErrFormatInFlight) {
		f.logger().Debug("format already in flight", "session_id", sessionID)
		return nil
	}
	if beginErr != nil {
		return beginErr
	}

	formatted, err := f.Provider.Format(ctx, raw)
	if err != nil {
		ferr := core.NewFormattingError(err)
		f.Registry.Update(sessionID, func(s *note.Session) { s.Fail() })
		f.logger().Warn("format failed", "session_id", sessionID, "error", err)
		return ferr
	}

	// The session may have been removed while the call was in flight; the
	// result is then discarded by Update.
	f.Registry.Update(sessionID, func(s *note.Session) {
		_ = s.CompleteFormat(formatted)
	})
	return nil
}

func (f *Formatter) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}
