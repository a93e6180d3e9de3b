package export

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/voxnote/voxnote/pkg/core/note"
)

func liveSession(t *testing.T, texts ...string) *note.Session {
	t.Helper()
	now := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	s := note.NewSession(note.SourceLive, "Morning thoughts", now)
	for _, text := range texts {
		if err := s.ReceiveSnippet(text, true, now); err != nil {
			t.Fatalf("receive: %v", err)
		}
	}
	s.LastModifiedAt = now.Add(95 * time.Second)
	return s
}

func TestRenderContent_PrefersFormattedText(t *testing.T) {
	s := liveSession(t, "raw one", "raw two")
	s.FormattedText = "# Formatted"

	if got := RenderContent(s); got != "# Formatted" {
		t.Fatalf("content = %q, want formatted text only", got)
	}
}

func TestRenderContent_FallsBackToNewlineJoinedSnippets(t *testing.T) {
	s := liveSession(t, "first", "second")
	if got := RenderContent(s); got != "first\nsecond" {
		t.Fatalf("content = %q", got)
	}
}

func TestRender_HeaderForLiveSessionIncludesDuration(t *testing.T) {
	s := liveSession(t, "hello")
	got := Render(s, true)

	header, body, found := strings.Cut(got, "---\n")
	if !found {
		t.Fatalf("no separator in %q", got)
	}
	if body != "hello" {
		t.Fatalf("body = %q", body)
	}
	for _, want := range []string{
		"Title: Morning thoughts\n",
		"Created: 2026-08-20T09:00:00Z\n",
		"Modified: 2026-08-20T09:01:35Z\n",
		"Source: live\n",
		"Duration: 1m35s\n",
	} {
		if !strings.Contains(header, want) {
			t.Fatalf("header %q missing %q", header, want)
		}
	}
}

func TestRender_FileSessionOmitsDuration(t *testing.T) {
	now := time.Now()
	s := note.NewSession(note.SourceFile, "upload.wav", now)
	_ = s.ReceiveSnippet("text", true, now)

	got := Render(s, true)
	if strings.Contains(got, "Duration:") {
		t.Fatalf("file-sourced export reports a duration: %q", got)
	}
	if !strings.Contains(got, "Source: file\n") {
		t.Fatalf("header missing source: %q", got)
	}
}

func TestRender_NoHeader(t *testing.T) {
	s := liveSession(t, "plain")
	if got := Render(s, false); got != "plain" {
		t.Fatalf("render = %q", got)
	}
}

func TestFileName_SanitizesAndAppendsExtension(t *testing.T) {
	s := liveSession(t)
	s.DisplayName = `a/b:c?d`
	if got := FileName(s); got != "a-b-c-d.txt" {
		t.Fatalf("name = %q", got)
	}

	s.DisplayName = ""
	if got := FileName(s); got != s.ID+".txt" {
		t.Fatalf("fallback name = %q", got)
	}
}

func TestBulk_SelectsCompletedOrNonEmpty(t *testing.T) {
	now := time.Now()

	completed := note.NewSession(note.SourceFile, "done.wav", now)
	completed.Status = note.StatusCompleted
	completed.FormattedText = "note"

	withSnippets := note.NewSession(note.SourceLive, "partial", now)
	_ = withSnippets.ReceiveSnippet("some text", true, now)

	empty := note.NewSession(note.SourceLive, "empty", now)

	o := &Orchestrator{WithHeader: false}
	var names []string
	n, err := o.Bulk(context.Background(), []*note.Session{completed, withSnippets, empty}, func(name, content string) error {
		names = append(names, name)
		return nil
	})
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if n != 2 {
		t.Fatalf("exported = %d, want 2", n)
	}
	if names[0] != "done.wav.txt" || names[1] != "partial.txt" {
		t.Fatalf("names = %v", names)
	}
}

func TestBulk_SerializedWithStagger(t *testing.T) {
	now := time.Now()
	var sessions []*note.Session
	for i := 0; i < 3; i++ {
		s := note.NewSession(note.SourceLive, "s", now)
		_ = s.ReceiveSnippet("text", true, now)
		sessions = append(sessions, s)
	}

	o := &Orchestrator{Stagger: 20 * time.Millisecond}
	start := time.Now()
	n, err := o.Bulk(context.Background(), sessions, func(string, string) error { return nil })
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if n != 3 {
		t.Fatalf("exported = %d, want 3", n)
	}
	// Two inter-export delays.
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("elapsed = %v, want staggered dispatch", elapsed)
	}
}

func TestBulk_SinkFailureStops(t *testing.T) {
	now := time.Now()
	var sessions []*note.Session
	for i := 0; i < 3; i++ {
		s := note.NewSession(note.SourceLive, "s", now)
		_ = s.ReceiveSnippet("text", true, now)
		sessions = append(sessions, s)
	}

	boom := errors.New("disk full")
	calls := 0
	o := &Orchestrator{}
	n, err := o.Bulk(context.Background(), sessions, func(string, string) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if n != 1 {
		t.Fatalf("exported = %d, want 1", n)
	}
}

func TestBulk_CancellationBetweenExports(t *testing.T) {
	now := time.Now()
	var sessions []*note.Session
	for i := 0; i < 2; i++ {
		s := note.NewSession(note.SourceLive, "s", now)
		_ = s.ReceiveSnippet("text", true, now)
		sessions = append(sessions, s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{Stagger: time.Second}
	n, err := o.Bulk(ctx, sessions, func(string, string) error {
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n != 1 {
		t.Fatalf("exported = %d, want 1", n)
	}
}
