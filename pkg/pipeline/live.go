package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/voxnote/voxnote/pkg/capture"
	"github.com/voxnote/voxnote/pkg/core"
	"github.com/voxnote/voxnote/pkg/core/note"
	"github.com/voxnote/voxnote/pkg/core/transcribe"
)

// AudioSource is an acquired audio input, raw PCM per the recorder's
// AudioConfig.
type AudioSource interface {
	io.Reader
	Close() error
}

// SourceOpener acquires the audio hardware. Acquisition can fail
// (permissions, device busy); that failure is process-wide, not a session
// failure.
type SourceOpener func(ctx context.Context) (AudioSource, error)

// RecorderConfig configures the live capture pipeline.
type RecorderConfig struct {
	Audio   capture.AudioConfig
	FrameMs int
	Stream  transcribe.StreamConfig
}

// Recorder is the live capture pipeline: one audio source, one streaming
// transcription channel, one bound session. The audio handle is exclusively
// owned for the duration of a recording; at most one recording runs at a
// time.
type Recorder struct {
	registry  *note.Registry
	streams   transcribe.StreamProvider
	formatter *Formatter
	notices   *note.NoticeBoard
	openSrc   SourceOpener
	config    RecorderConfig
	logger    *slog.Logger

	mu     sync.Mutex
	active *liveCapture
}

type liveCapture struct {
	sessionID string
	source    AudioSource
	stream    transcribe.StreamSession
	cancel    context.CancelFunc
	frameDone chan struct{}
	eventDone chan struct{}
}

// NewRecorder creates a live capture pipeline.
func NewRecorder(registry *note.Registry, streams transcribe.StreamProvider, formatter *Formatter, notices *note.NoticeBoard, openSrc SourceOpener, cfg RecorderConfig, logger *slog.Logger) *Recorder {
	if cfg.Audio == (capture.AudioConfig{}) {
		cfg.Audio = capture.DefaultConfig()
	}
	if cfg.FrameMs <= 0 {
		cfg.FrameMs = 40
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		registry:  registry,
		streams:   streams,
		formatter: formatter,
		notices:   notices,
		openSrc:   openSrc,
		config:    cfg,
		logger:    logger,
	}
}

// Recording reports whether a live capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// Start acquires the audio source, creates a session, opens the streaming
// channel, and begins pumping frames. It returns the new session id. The
// session id is bound at start time: events land on this session even if the
// user activates another session mid-capture. A second Start while recording
// is rejected.
func (r *Recorder) Start(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return "", fmt.Errorf("live capture already in progress")
	}

	source, err := r.openSrc(ctx)
	if err != nil {
		perr := core.NewPermissionDeniedError(fmt.Sprintf("audio source unavailable: %v", err))
		r.notices.Publish(perr.Message)
		r.logger.Warn("audio source unavailable", "error", err)
		return "", perr
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stream, err := r.streams.NewStream(streamCtx, r.config.Stream)
	if err != nil {
		cancel()
		source.Close()
		terr := core.NewTransportError(err)
		r.notices.Publish(terr.Message)
		r.logger.Warn("open live channel failed", "error", err)
		return "", terr
	}

	session := note.NewSession(note.SourceLive, "", time.Now())
	r.registry.Add(session)

	lc := &liveCapture{
		sessionID: session.ID,
		source:    source,
		stream:    stream,
		cancel:    cancel,
		frameDone: make(chan struct{}),
		eventDone: make(chan struct{}),
	}
	r.active = lc

	go r.pumpFrames(streamCtx, lc)
	go r.receiveEvents(lc)

	r.logger.Info("live capture started", "session_id", session.ID)
	return session.ID, nil
}

// pumpFrames pushes fixed-size frames at a steady rate. Send-and-forget:
// frames the transport cannot take are dropped by the producer, an accepted
// degradation rather than an error.
func (r *Recorder) pumpFrames(ctx context.Context, lc *liveCapture) {
	defer close(lc.frameDone)

	producer := capture.NewFrameProducer(r.config.Audio, r.config.FrameMs)
	err := producer.Run(ctx, lc.source, lc.stream.SendAudio)
	if err != nil && ctx.Err() == nil {
		r.logger.Warn("frame production stopped", "session_id", lc.sessionID, "error", err)
	}
}

// receiveEvents routes each delta to the bound session through the merge
// engine, in channel order. A mid-stream channel error surfaces a notice and
// leaves the session's snippets exactly as they were.
func (r *Recorder) receiveEvents(lc *liveCapture) {
	defer close(lc.eventDone)

	for d := range lc.stream.Deltas() {
		now := time.Now()
		r.registry.Update(lc.sessionID, func(s *note.Session) {
			_ = s.ReceiveSnippet(d.Text, d.IsFinal, now)
		})
	}

	if err := lc.stream.Err(); err != nil {
		terr := core.NewTransportError(err)
		r.notices.Publish(terr.Message)
		r.logger.Warn("live channel error", "session_id", lc.sessionID, "error", err)
	}
}

// Stop tears down the audio source and streaming channel, waits for pending
// events to land, transitions the session out of capture, and requests
// formatting. Returns the session id of the stopped capture.
func (r *Recorder) Stop(ctx context.Context) (string, error) {
	r.mu.Lock()
	lc := r.active
	r.active = nil
	r.mu.Unlock()
	if lc == nil {
		return "", fmt.Errorf("no live capture in progress")
	}

	lc.cancel()
	lc.source.Close()
	<-lc.frameDone
	lc.stream.Close()
	<-lc.eventDone

	r.registry.Update(lc.sessionID, func(s *note.Session) {
		_ = s.StopCapture()
	})

	r.logger.Info("live capture stopped", "session_id", lc.sessionID)
	return lc.sessionID, r.formatter.Request(ctx, lc.sessionID)
}
