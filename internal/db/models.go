package db

import (
	"time"

	"github.com/google/uuid"
)

// Message is one chat entry: either a voice memo or a text note.
// Which one it is hangs entirely off the empty-string sentinels, matching
// the list-rendering behavior the interface layer relies on.
type Message struct {
	ID         uuid.UUID  `json:"id"`
	AudioPath  string     `json:"audio_path"`
	DurationMs int64      `json:"duration_ms"`
	CreatedAt  time.Time  `json:"created_at"`
	Sent       bool       `json:"is_sent"`
	Playing    bool       `json:"is_playing"`
	Text       string     `json:"text"`
	ListenedAt *time.Time `json:"listened_at,omitempty"`
}

// IsText reports whether the message renders as a text note.
// Non-empty text wins over everything else.
func (m *Message) IsText() bool {
	return m.Text != ""
}

// IsVoice reports whether the message renders as a voice memo
func (m *Message) IsVoice() bool {
	return m.Text == "" && m.AudioPath != ""
}
