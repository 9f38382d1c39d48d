package log

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		env, level string
		want       zerolog.Level
	}{
		{"production", "info", zerolog.InfoLevel},
		{"development", "info", zerolog.DebugLevel},
		{"production", "WARN", zerolog.WarnLevel},
		{"production", "error", zerolog.ErrorLevel},
		{"production", "debug", zerolog.DebugLevel},
		{"production", "", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.env, tt.level))
		})
	}
}
