package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageKindFromSentinels(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		isText  bool
		isVoice bool
	}{
		{
			name:    "voice memo",
			msg:     Message{AudioPath: "/data/audio_123.m4a", DurationMs: 3200},
			isText:  false,
			isVoice: true,
		},
		{
			name:    "text note",
			msg:     Message{Text: "hello"},
			isText:  true,
			isVoice: false,
		},
		{
			name:    "text wins when both are set",
			msg:     Message{AudioPath: "/data/audio_123.m4a", Text: "hello"},
			isText:  true,
			isVoice: false,
		},
		{
			name:    "empty message is neither",
			msg:     Message{},
			isText:  false,
			isVoice: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isText, tt.msg.IsText())
			assert.Equal(t, tt.isVoice, tt.msg.IsVoice())
		})
	}
}
