// Package transcribe defines the contracts to the transcription and
// formatting backend, plus concrete Gemini and WebSocket implementations.
package transcribe

import "context"

// Provider is the single-shot transcription and formatting backend.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Transcribe converts one audio payload to verbatim text.
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)

	// TranscribeStreaming is Transcribe with growing partial text delivered
	// through onPartial before the final transcript is returned. onPartial
	// may be nil.
	TranscribeStreaming(ctx context.Context, audio []byte, mimeType string, onPartial func(string)) (string, error)

	// Format turns a raw transcript into a structured note.
	Format(ctx context.Context, text string) (string, error)
}

// Delta is one streaming transcription update. IsFinal marks text that will
// not be revised further.
type Delta struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// StreamSession is one live bidirectional transcription channel: audio frames
// go out, deltas come back. The two directions are independent; neither
// blocks the other.
type StreamSession interface {
	// SendAudio pushes one audio frame. Send-and-forget: a frame the
	// transport cannot take may be dropped, which is accepted degradation.
	SendAudio(frame []byte) error

	// Deltas returns the ordered stream of transcript updates. The channel
	// is closed when the session ends.
	Deltas() <-chan Delta

	// Done is closed when the session ends for any reason.
	Done() <-chan struct{}

	// Err reports the terminal error, if the session ended abnormally.
	Err() error

	// Close tears the channel down.
	Close() error
}

// StreamProvider opens live transcription channels.
type StreamProvider interface {
	NewStream(ctx context.Context, cfg StreamConfig) (StreamSession, error)
}

// StreamConfig configures a live transcription channel.
type StreamConfig struct {
	Model      string // backend model identifier
	Language   string // ISO language code
	Encoding   string // audio encoding (default pcm_s16le)
	SampleRate int    // audio sample rate in Hz
}
