package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/voxnote/voxnote/pkg/core/transcribe"
)

// fakeProvider is a scriptable transcription/formatting backend.
type fakeProvider struct {
	mu sync.Mutex

	transcribeFn func(mimeType string) (string, error)
	formatFn     func(text string) (string, error)

	transcribeCalls int
	formatCalls     int32
	formatStarted   chan string
	formatRelease   chan struct{}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	p.mu.Lock()
	p.transcribeCalls++
	p.mu.Unlock()
	if p.transcribeFn != nil {
		return p.transcribeFn(mimeType)
	}
	return "transcribed", nil
}

func (p *fakeProvider) TranscribeStreaming(ctx context.Context, audio []byte, mimeType string, onPartial func(string)) (string, error) {
	return p.Transcribe(ctx, audio, mimeType)
}

func (p *fakeProvider) Format(ctx context.Context, text string) (string, error) {
	atomic.AddInt32(&p.formatCalls, 1)
	if p.formatStarted != nil {
		p.formatStarted <- text
	}
	if p.formatRelease != nil {
		<-p.formatRelease
	}
	if p.formatFn != nil {
		return p.formatFn(text)
	}
	return "# " + text, nil
}

// fakeStream is an in-memory transcribe.StreamSession driven by tests.
type fakeStream struct {
	deltas chan transcribe.Delta
	done   chan struct{}
	frames [][]byte
	mu     sync.Mutex
	closed atomic.Bool
	err    error
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		deltas: make(chan transcribe.Delta, 16),
		done:   make(chan struct{}),
	}
}

func (s *fakeStream) emit(text string, isFinal bool) {
	s.deltas <- transcribe.Delta{Text: text, IsFinal: isFinal}
}

func (s *fakeStream) finish(err error) {
	s.err = err
	close(s.deltas)
	close(s.done)
}

func (s *fakeStream) SendAudio(frame []byte) error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}
	s.mu.Lock()
	s.frames = append(s.frames, frame)
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *fakeStream) Deltas() <-chan transcribe.Delta { return s.deltas }
func (s *fakeStream) Done() <-chan struct{}           { return s.done }
func (s *fakeStream) Err() error                      { return s.err }

func (s *fakeStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	select {
	case <-s.done:
	default:
		s.finish(s.err)
	}
	return nil
}

type fakeStreamProvider struct {
	stream  *fakeStream
	openErr error
	opened  int
}

func (p *fakeStreamProvider) NewStream(ctx context.Context, cfg transcribe.StreamConfig) (transcribe.StreamSession, error) {
	p.opened++
	if p.openErr != nil {
		return nil, p.openErr
	}
	return p.stream, nil
}

// silenceSource yields zero PCM forever until closed.
type silenceSource struct {
	closed atomic.Bool
}

func (s *silenceSource) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, io.EOF
	}
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func (s *silenceSource) Close() error {
	s.closed.Store(true)
	return nil
}

var errDeviceBusy = errors.New("device busy")
