package logger

import (
	"testing"

	"github.com/comment-server/internal/config"
	"github.com/rs/zerolog"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := New(config.LogConfig{Level: tt.level, Format: "json"})
			if log.GetLevel() != tt.expected {
				t.Errorf("Expected level %v, got %v", tt.expected, log.GetLevel())
			}
		})
	}
}
