package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSProvider opens live transcription channels against a WebSocket
// transcription endpoint.
type WSProvider struct {
	endpoint string
	apiKey   string

	// SnapshotMode handles backends that resend the full growing hypothesis
	// instead of deltas: each non-final message is diffed against the
	// previous one and only the new suffix is emitted, so downstream merge
	// stays append-only.
	SnapshotMode bool
}

// NewWSProvider creates a provider dialing the given ws:// or wss:// endpoint.
func NewWSProvider(endpoint, apiKey string) *WSProvider {
	return &WSProvider{endpoint: endpoint, apiKey: apiKey}
}

// NewStream dials the endpoint and starts the read loop.
func (p *WSProvider) NewStream(ctx context.Context, cfg StreamConfig) (StreamSession, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse stream endpoint: %w", err)
	}

	q := u.Query()
	if cfg.Model != "" {
		q.Set("model", cfg.Model)
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}
	q.Set("language", language)

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "pcm_s16le"
	}
	q.Set("encoding", encoding)

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}
	q.Set("sample_rate", fmt.Sprintf("%d", sampleRate))
	u.RawQuery = q.Encode()

	headers := http.Header{}
	if p.apiKey != "" {
		headers.Set("Authorization", "Bearer "+p.apiKey)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("stream connect: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("stream connect: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &wsStream{
		conn:         conn,
		deltas:       make(chan Delta, 100),
		done:         make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
		snapshotMode: p.SnapshotMode,
	}
	go s.readLoop()
	return s, nil
}

type wsStream struct {
	conn    *websocket.Conn
	deltas  chan Delta
	done    chan struct{}
	closed  atomic.Bool
	writeMu sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc

	errMu sync.Mutex
	err   error

	// snapshot mode: snapshot holds the last full hypothesis seen, used to
	// diff each incoming snapshot down to its new suffix.
	snapshotMode bool
	snapshot     string
}

// streamMessage is the wire shape of inbound transcription events.
type streamMessage struct {
	Type    string `json:"type"` // "transcript", "done", "error"
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
	Error   string `json:"error"`
}

func (s *wsStream) readLoop() {
	defer func() {
		close(s.deltas)
		close(s.done)
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.setErr(fmt.Errorf("stream read: %w", err))
			}
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "transcript":
			d := Delta{Text: msg.Text, IsFinal: msg.IsFinal}
			if s.snapshotMode {
				d.Text = s.diffSnapshot(msg.Text, msg.IsFinal)
			}
			select {
			case s.deltas <- d:
			case <-s.ctx.Done():
				return
			}
		case "done":
			return
		case "error":
			s.setErr(fmt.Errorf("stream error: %s", msg.Error))
			return
		}
	}
}

// diffSnapshot converts a growing-hypothesis snapshot into the suffix not yet
// emitted. A final message resets the tracked snapshot for the next utterance.
func (s *wsStream) diffSnapshot(text string, isFinal bool) string {
	prev := s.snapshot
	if isFinal {
		s.snapshot = ""
	} else {
		s.snapshot = text
	}
	if strings.HasPrefix(text, prev) {
		return strings.TrimPrefix(text, prev)
	}
	return text
}

func (s *wsStream) setErr(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}

// SendAudio pushes one binary audio frame.
func (s *wsStream) SendAudio(frame []byte) error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// Deltas returns the ordered stream of transcript updates.
func (s *wsStream) Deltas() <-chan Delta {
	return s.deltas
}

// Done is closed when the session ends.
func (s *wsStream) Done() <-chan struct{} {
	return s.done
}

// Err reports the terminal error, if any.
func (s *wsStream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close tears down the channel. Safe to call more than once.
func (s *wsStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cancel()

	s.writeMu.Lock()
	s.conn.WriteMessage(websocket.TextMessage, []byte("done"))
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	return s.conn.Close()
}
