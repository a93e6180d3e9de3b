// Package capture provides raw PCM plumbing for live recording: audio byte
// math, signal energy helpers, and the fixed-size frame producer that paces
// microphone input toward a streaming channel.
package capture

import (
	"context"
	"errors"
	"io"
	"math"
	"time"
)

// AudioConfig describes a raw PCM stream.
type AudioConfig struct {
	// SampleRate in Hz. Common values: 16000, 24000, 44100, 48000.
	SampleRate int `json:"sample_rate"`

	// Channels: 1 for mono, 2 for stereo.
	Channels int `json:"channels"`

	// BitsPerSample: typically 16 for PCM.
	BitsPerSample int `json:"bits_per_sample"`
}

// DefaultConfig is 16kHz 16-bit mono, the usual streaming STT input.
func DefaultConfig() AudioConfig {
	return AudioConfig{SampleRate: 16000, Channels: 1, BitsPerSample: 16}
}

// BytesPerSecond returns the data rate of the stream.
func (c AudioConfig) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitsPerSample / 8)
}

// DurationMs returns the duration of the given byte count in milliseconds.
func (c AudioConfig) DurationMs(bytes int) int {
	if c.BytesPerSecond() == 0 {
		return 0
	}
	return (bytes * 1000) / c.BytesPerSecond()
}

// BytesForDurationMs returns the byte count for the given duration in milliseconds.
func (c AudioConfig) BytesForDurationMs(ms int) int {
	return (c.BytesPerSecond() * ms) / 1000
}

// RMSEnergy computes the root-mean-square energy of 16-bit signed
// little-endian PCM, normalized to 0.0..1.0.
func RMSEnergy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}
	return math.Sqrt(sum / float64(samples))
}

// FrameProducer reads raw PCM from a source and emits fixed-size frames at a
// steady rate matching the frame duration.
type FrameProducer struct {
	config  AudioConfig
	frameMs int
}

// NewFrameProducer creates a producer emitting frames of frameMs audio each.
func NewFrameProducer(config AudioConfig, frameMs int) *FrameProducer {
	if frameMs <= 0 {
		frameMs = 40
	}
	return &FrameProducer{config: config, frameMs: frameMs}
}

// FrameBytes is the size of one produced frame.
func (p *FrameProducer) FrameBytes() int {
	return p.config.BytesForDurationMs(p.frameMs)
}

// Run reads src until EOF or context cancellation, handing each frame to
// emit. A short final frame is still emitted. emit errors are swallowed:
// frame delivery is send-and-forget and a transport that cannot keep up just
// loses frames.
func (p *FrameProducer) Run(ctx context.Context, src io.Reader, emit func([]byte) error) error {
	frameSize := p.FrameBytes()
	ticker := time.NewTicker(time.Duration(p.frameMs) * time.Millisecond)
	defer ticker.Stop()

	buf := make([]byte, frameSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		n, err := io.ReadFull(src, buf)
		if n > 0 {
			frame := make([]byte, n)
			copy(frame, buf[:n])
			_ = emit(frame)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
	}
}
