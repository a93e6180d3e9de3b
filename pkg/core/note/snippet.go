// Package note implements the transcription session model: the streaming
// snippet merge engine, the per-session processing lifecycle, and the
// session registry.
package note

import (
	"time"

	"github.com/google/uuid"
)

// Snippet is one discrete unit of transcript text. A non-final snippet is an
// interim hypothesis that may still grow; a final snippet is never mutated
// again.
type Snippet struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	IsFinal   bool      `json:"is_final"`
}

// NewSnippetID returns a fresh snippet identifier.
func NewSnippetID() string {
	return "snip_" + uuid.NewString()
}

// Merge folds one streaming transcription event into a snippet sequence.
//
// If the sequence ends in a non-final snippet, that snippet absorbs the event:
// the incoming text is appended with a separating space and the snippet adopts
// the incoming finality. Otherwise a new snippet is appended. Only the tail is
// ever touched, so the cost per event is O(1) regardless of session length.
//
// An empty-text event is still merged, so a final-flag-only event closes out
// an open snippet.
func Merge(existing []Snippet, text string, isFinal bool, now time.Time) []Snippet {
	if n := len(existing); n > 0 && !existing[n-1].IsFinal {
		last := existing[n-1]
		last.Text = last.Text + " " + text
		last.IsFinal = isFinal
		out := make([]Snippet, n)
		copy(out, existing[:n-1])
		out[n-1] = last
		return out
	}

	out := make([]Snippet, len(existing), len(existing)+1)
	copy(out, existing)
	return append(out, Snippet{
		ID:        NewSnippetID(),
		Text:      text,
		CreatedAt: now,
		IsFinal:   isFinal,
	})
}

// JoinTexts concatenates snippet texts in order with the given separator.
func JoinTexts(snippets []Snippet, sep string) string {
	switch len(snippets) {
	case 0:
		return ""
	case 1:
		return snippets[0].Text
	}

	n := len(sep) * (len(snippets) - 1)
	for _, s := range snippets {
		n += len(s.Text)
	}

	buf := make([]byte, 0, n)
	for i, s := range snippets {
		if i > 0 {
			buf = append(buf, sep...)
		}
		buf = append(buf, s.Text...)
	}
	return string(buf)
}
