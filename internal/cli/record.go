package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voxnote/voxnote/pkg/capture"
	"github.com/voxnote/voxnote/pkg/core/transcribe"
	"github.com/voxnote/voxnote/pkg/pipeline"
)

var recordInput string

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Capture a live transcription session",
	Long: `Record streams raw PCM audio (16-bit little-endian mono by default) to the
configured live transcription endpoint and merges the partial transcripts into
one session. Recording runs until interrupted (Ctrl-C) or the input ends; the
session is then formatted and exported.

Audio is read from --input, or stdin when omitted, so any capture tool can be
piped in, e.g.:

  arecord -f S16_LE -r 16000 -c 1 -t raw | voxnote record`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVarP(&recordInput, "input", "i", "", "Raw PCM input file (default: stdin)")
}

func runRecord(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	if eng.cfg.StreamEndpoint == "" {
		return fmt.Errorf("VOXNOTE_STREAM_ENDPOINT is not set")
	}

	streams := transcribe.NewWSProvider(eng.cfg.StreamEndpoint, eng.cfg.StreamAPIKey)
	streams.SnapshotMode = eng.cfg.SnapshotStream

	audio := capture.AudioConfig{
		SampleRate:    eng.cfg.SampleRate,
		Channels:      eng.cfg.Channels,
		BitsPerSample: 16,
	}
	recorder := pipeline.NewRecorder(eng.registry, streams, eng.formatter, eng.notices, openRecordSource, pipeline.RecorderConfig{
		Audio:   audio,
		FrameMs: eng.cfg.FrameMs,
		Stream: transcribe.StreamConfig{
			Model:      eng.cfg.TranscribeModel,
			SampleRate: eng.cfg.SampleRate,
		},
	}, eng.logger)

	id, err := recorder.Start(cmd.Context())
	if err != nil {
		eng.reportNotices()
		return err
	}
	fmt.Fprintf(os.Stderr, "recording %s — press Ctrl-C to stop\n", id)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	signal.Stop(stop)

	if _, err := recorder.Stop(cmd.Context()); err != nil {
		eng.reportNotices()
		return err
	}
	eng.reportNotices()

	s := eng.registry.Find(id)
	if s == nil {
		return fmt.Errorf("session disappeared")
	}
	return eng.exporter.Export(s, eng.fileSink())
}

// openRecordSource acquires the PCM input chosen by --input, defaulting to
// stdin.
func openRecordSource(ctx context.Context) (pipeline.AudioSource, error) {
	if recordInput == "" {
		return nopCloserSource{os.Stdin}, nil
	}
	f, err := os.Open(recordInput)
	if err != nil {
		return nil, err
	}
	return f, nil
}

type nopCloserSource struct {
	io.Reader
}

func (nopCloserSource) Close() error { return nil }
