package note

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notice is a process-wide transient error message. Notices carry failures
// that have no session to land on (microphone unavailable, channel errors
// with no bound session); they alter no session state and stay until
// dismissed.
type Notice struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// NoticeBoard collects transient notices in arrival order.
type NoticeBoard struct {
	mu      sync.Mutex
	notices []Notice
	now     func() time.Time
}

// NewNoticeBoard creates an empty board.
func NewNoticeBoard() *NoticeBoard {
	return &NoticeBoard{now: time.Now}
}

// Publish adds a notice and returns its id.
func (b *NoticeBoard) Publish(message string) string {
	if b == nil {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	n := Notice{
		ID:      "ntc_" + uuid.NewString(),
		Message: message,
		At:      b.now(),
	}
	b.notices = append(b.notices, n)
	return n.ID
}

// Dismiss removes the notice with the given id. Unknown ids are ignored.
func (b *NoticeBoard) Dismiss(id string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.notices {
		if n.ID == id {
			b.notices = append(b.notices[:i], b.notices[i+1:]...)
			return
		}
	}
}

// List returns the current notices in arrival order.
func (b *NoticeBoard) List() []Notice {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notice, len(b.notices))
	copy(out, b.notices)
	return out
}
