package capture

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestAudioConfig_ByteMath(t *testing.T) {
	c := DefaultConfig()
	if c.BytesPerSecond() != 32000 {
		t.Fatalf("bytes/s = %d, want 32000", c.BytesPerSecond())
	}
	if c.BytesForDurationMs(40) != 1280 {
		t.Fatalf("bytes for 40ms = %d, want 1280", c.BytesForDurationMs(40))
	}
	if c.DurationMs(32000) != 1000 {
		t.Fatalf("duration of 32000 bytes = %d, want 1000", c.DurationMs(32000))
	}

	var zero AudioConfig
	if zero.DurationMs(100) != 0 {
		t.Fatalf("zero config duration = %d, want 0", zero.DurationMs(100))
	}
}

func TestRMSEnergy(t *testing.T) {
	if got := RMSEnergy(nil); got != 0 {
		t.Fatalf("empty rms = %v, want 0", got)
	}

	silence := make([]byte, 640)
	if got := RMSEnergy(silence); got != 0 {
		t.Fatalf("silence rms = %v, want 0", got)
	}

	// Full-scale square wave: all samples at +16384 (half amplitude).
	loud := make([]byte, 640)
	for i := 0; i < len(loud); i += 2 {
		loud[i] = 0x00
		loud[i+1] = 0x40
	}
	got := RMSEnergy(loud)
	if got < 0.49 || got > 0.51 {
		t.Fatalf("half-scale rms = %v, want ~0.5", got)
	}
}

func TestFrameProducer_EmitsFixedFramesAndShortTail(t *testing.T) {
	cfg := DefaultConfig()
	p := NewFrameProducer(cfg, 10) // 320 bytes per frame
	if p.FrameBytes() != 320 {
		t.Fatalf("frame bytes = %d, want 320", p.FrameBytes())
	}

	src := bytes.NewReader(make([]byte, 320*2+100))
	var frames [][]byte
	err := p.Run(context.Background(), src, func(f []byte) error {
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(frames))
	}
	if len(frames[0]) != 320 || len(frames[1]) != 320 {
		t.Fatalf("frame sizes = %d, %d, want 320", len(frames[0]), len(frames[1]))
	}
	if len(frames[2]) != 100 {
		t.Fatalf("tail frame = %d bytes, want 100", len(frames[2]))
	}
}

func TestFrameProducer_CancelStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewFrameProducer(DefaultConfig(), 10)
	err := p.Run(ctx, neverEnding{}, func([]byte) error { return nil })
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestFrameProducer_PacesFrames(t *testing.T) {
	p := NewFrameProducer(DefaultConfig(), 20)
	src := bytes.NewReader(make([]byte, p.FrameBytes()*3))

	start := time.Now()
	var n int
	if err := p.Run(context.Background(), src, func([]byte) error {
		n++
		return nil
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 3 {
		t.Fatalf("frames = %d, want 3", n)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("elapsed = %v, expected pacing of at least 3 ticks", elapsed)
	}
}

type neverEnding struct{}

func (neverEnding) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
