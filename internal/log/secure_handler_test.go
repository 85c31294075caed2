package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureHandler_MasksSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{"candidate_hex is masked", "candidate_hex", "3a7f21", true},
		{"private_key is masked", "private_key", "1", true},
		{"Candidate (uppercase) is masked", "Candidate", "42", true},
		{"wif is masked", "wif", "whatever", true},
		{"keyword inside key is masked", "found_private", "ab", true},
		{"shard key is kept", "shard", "guided_20_3f", false},
		{"address is kept", "address", "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", false},
		{"checked counter is kept", "checked", "1000", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)
			logger.Info("test", tt.key, tt.value)

			out := buf.String()
			if tt.wantMask {
				assert.Contains(t, out, MaskValue)
				assert.NotContains(t, out, "="+tt.value)
			} else {
				assert.NotContains(t, out, MaskValue)
				assert.Contains(t, out, tt.value)
			}
		})
	}
}

func TestSecureHandler_MasksSensitiveValues(t *testing.T) {
	t.Parallel()

	values := []string{
		strings.Repeat("ab", 32),
		"0x" + strings.Repeat("0", 63) + "1",
		"5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ",
		"KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn",
	}
	for _, v := range values {
		var buf bytes.Buffer
		NewSecureLogger(&buf, false).Info("test", "value", v)
		assert.Contains(t, buf.String(), MaskValue, v)
		assert.NotContains(t, buf.String(), v)
	}
}

func TestSecureHandler_Groups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureJSONLogger(&buf, false)
	logger.Info("found", slog.Group("match", slog.String("candidate_hex", "7"), slog.String("path", "RR")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	group, ok := rec["match"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, MaskValue, group["candidate_hex"])
	assert.Equal(t, "RR", group["path"])
}

func TestSecureHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, false).With("seed", "correct horse", "worker", 3)
	logger.Info("started")

	assert.Contains(t, buf.String(), MaskValue)
	assert.NotContains(t, buf.String(), "correct horse")
	assert.Contains(t, buf.String(), "worker=3")
}

func TestNewSecureLogger_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewSecureLogger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	NewSecureLogger(&buf, true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
