// Package export serializes finalized sessions to plain-text documents.
package export

import (
	"context"
	"strings"
	"time"

	"github.com/voxnote/voxnote/pkg/core/note"
)

// Sink receives one exported document. The name is a suggested file name;
// content is UTF-8 text.
type Sink func(name string, content string) error

// RenderContent returns the session's formatted note when present, otherwise
// the snippet texts newline-joined in order. Raw snippets are ignored
// entirely once a formatted note exists.
func RenderContent(s *note.Session) string {
	if s.FormattedText != "" {
		return s.FormattedText
	}
	return note.JoinTexts(s.Snippets, "\n")
}

// Render serializes one session. With the header enabled the content is
// prefixed by a metadata block of "Key: value" lines separated from the body
// by a line of "---". Duration is reported only for live-sourced sessions,
// identified by their id prefix.
func Render(s *note.Session, withHeader bool) string {
	body := RenderContent(s)
	if !withHeader {
		return body
	}

	var sb strings.Builder
	sb.WriteString("Title: " + s.DisplayName + "\n")
	sb.WriteString("Created: " + s.CreatedAt.Format(time.RFC3339) + "\n")
	sb.WriteString("Modified: " + s.LastModifiedAt.Format(time.RFC3339) + "\n")
	sb.WriteString("Source: " + s.Source.String() + "\n")
	if strings.HasPrefix(s.ID, "live_") {
		sb.WriteString("Duration: " + s.Duration().Round(time.Second).String() + "\n")
	}
	sb.WriteString("---\n")
	sb.WriteString(body)
	return sb.String()
}

// FileName suggests an export file name for a session.
func FileName(s *note.Session) string {
	name := strings.TrimSpace(s.DisplayName)
	if name == "" {
		name = s.ID
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, name)
	if !strings.HasSuffix(name, ".txt") {
		name += ".txt"
	}
	return name
}

// Orchestrator exports sessions through a sink.
type Orchestrator struct {
	// WithHeader prefixes each export with the metadata block.
	WithHeader bool

	// Stagger delays each bulk export after the previous one. Dispatch is
	// serialized either way; the delay only works around targets that choke
	// on simultaneous downloads.
	Stagger time.Duration
}

// Exportable reports whether a session qualifies for bulk export: it is
// completed, or has at least one snippet.
func Exportable(s *note.Session) bool {
	return s.Status == note.StatusCompleted || len(s.Snippets) > 0
}

// Export writes one session to the sink.
func (o *Orchestrator) Export(s *note.Session, sink Sink) error {
	return sink(FileName(s), Render(s, o.WithHeader))
}

// Bulk exports every qualifying session, one at a time, waiting Stagger
// between dispatches. A sink failure stops the run; cancellation is honored
// between exports.
func (o *Orchestrator) Bulk(ctx context.Context, sessions []*note.Session, sink Sink) (int, error) {
	exported := 0
	for _, s := range sessions {
		if !Exportable(s) {
			continue
		}
		if exported > 0 && o.Stagger > 0 {
			select {
			case <-time.After(o.Stagger):
			case <-ctx.Done():
				return exported, ctx.Err()
			}
		}
		if err := o.Export(s, sink); err != nil {
			return exported, err
		}
		exported++
	}
	return exported, nil
}
