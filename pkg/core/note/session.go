package note

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the processing state of a session.
type Status int

const (
	// StatusIdle is a live session whose capture stopped but whose
	// formatting has not yet begun.
	StatusIdle Status = iota
	// StatusTranscribing is a session still collecting raw content.
	StatusTranscribing
	// StatusFormatting is a session with a formatting call in flight.
	StatusFormatting
	// StatusCompleted is a session whose formatted note is stored.
	StatusCompleted
	// StatusError is a session whose transcription or formatting failed.
	StatusError
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusTranscribing:
		return "TRANSCRIBING"
	case StatusFormatting:
		return "FORMATTING"
	case StatusCompleted:
		return "COMPLETED"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Source identifies where a session's audio came from.
type Source int

const (
	// SourceLive is microphone-style continuous capture.
	SourceLive Source = iota
	// SourceFile is a one-shot uploaded audio file.
	SourceFile
)

// String returns a human-readable source name.
func (s Source) String() string {
	if s == SourceFile {
		return "file"
	}
	return "live"
}

// idPrefix carries provenance on the session id itself; the exporter keys
// duration reporting off it.
func (s Source) idPrefix() string {
	if s == SourceFile {
		return "file_"
	}
	return "live_"
}

// Session is one recording's or uploaded file's full processing record. The
// owning pipeline mutates it exclusively, always through Registry.Update.
type Session struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"display_name"`
	Snippets       []Snippet `json:"snippets"`
	FormattedText  string    `json:"formatted_text,omitempty"`
	Status         Status    `json:"status"`
	Source         Source    `json:"source"`
	CreatedAt      time.Time `json:"created_at"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}

// NewSession creates a session entering StatusTranscribing; both live and
// file sources start by collecting raw content.
func NewSession(source Source, displayName string, now time.Time) *Session {
	if displayName == "" {
		displayName = "Recording " + now.Format("2006-01-02 15:04:05")
	}
	return &Session{
		ID:             source.idPrefix() + uuid.NewString(),
		DisplayName:    displayName,
		Status:         StatusTranscribing,
		Source:         source,
		CreatedAt:      now,
		LastModifiedAt: now,
	}
}

// TransitionError reports an illegal lifecycle transition.
type TransitionError struct {
	From Status
	Op   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s from %s", e.Op, e.From)
}

// ReceiveSnippet merges one streaming event into the session. Valid only
// while transcribing; the status does not change.
func (s *Session) ReceiveSnippet(text string, isFinal bool, now time.Time) error {
	if s.Status != StatusTranscribing {
		return &TransitionError{From: s.Status, Op: "receive snippet"}
	}
	s.Snippets = Merge(s.Snippets, text, isFinal, now)
	return nil
}

// StopCapture ends live collection: transcribing → idle. Formatting is
// requested separately by the pipeline.
func (s *Session) StopCapture() error {
	if s.Status != StatusTranscribing {
		return &TransitionError{From: s.Status, Op: "stop capture"}
	}
	s.Status = StatusIdle
	return nil
}

// ErrFormatInFlight is returned by BeginFormat while a formatting call is
// already running; callers must treat it as "already being handled" and must
// not start a second call.
var ErrFormatInFlight = fmt.Errorf("format already in flight")

// BeginFormat enters StatusFormatting from idle or transcribing. A session
// never has two concurrent format calls: while formatting is in progress
// further requests fail with ErrFormatInFlight.
func (s *Session) BeginFormat() error {
	switch s.Status {
	case StatusIdle, StatusTranscribing:
		s.Status = StatusFormatting
		return nil
	case StatusFormatting:
		return ErrFormatInFlight
	default:
		return &TransitionError{From: s.Status, Op: "begin format"}
	}
}

// BeginReformat re-enters StatusFormatting from completed or error. User
// initiated; the same in-flight guard applies.
func (s *Session) BeginReformat() error {
	switch s.Status {
	case StatusCompleted, StatusError:
		s.Status = StatusFormatting
		return nil
	case StatusFormatting:
		return ErrFormatInFlight
	default:
		return &TransitionError{From: s.Status, Op: "begin reformat"}
	}
}

// CompleteFormat stores the formatted note and marks the session completed.
func (s *Session) CompleteFormat(formatted string) error {
	if s.Status != StatusFormatting {
		return &TransitionError{From: s.Status, Op: "complete format"}
	}
	s.FormattedText = formatted
	s.Status = StatusCompleted
	return nil
}

// Fail moves the session to StatusError. Used by both the transcription and
// formatting paths; FormattedText is left untouched.
func (s *Session) Fail() {
	s.Status = StatusError
}

// RawTranscript is the space-joined snippet text handed to the formatter.
func (s *Session) RawTranscript() string {
	return JoinTexts(s.Snippets, " ")
}

// Duration is the session's capture-to-last-touch span.
func (s *Session) Duration() time.Duration {
	return s.LastModifiedAt.Sub(s.CreatedAt)
}

// clone returns a deep copy so registry reads never alias live snippet slices.
func (s *Session) clone() *Session {
	cp := *s
	if s.Snippets != nil {
		cp.Snippets = make([]Snippet, len(s.Snippets))
		copy(cp.Snippets, s.Snippets)
	}
	return &cp
}
