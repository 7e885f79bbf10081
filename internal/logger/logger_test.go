package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"codeberg.org/mutker/btapmd/internal/errors"
	"codeberg.org/mutker/btapmd/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentLoggerTagsEvents(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, false, true)

	logger.New("airplane").Info().Bool("is_on", true).Msg("Trigger callback")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "airplane", entry["component"])
	assert.Equal(t, "Trigger callback", entry["message"])
	assert.Equal(t, true, entry["is_on"])
}

func TestLevelsFollowFlags(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, false, false)

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	logger.InitWithWriter(&buf, true, false)
	logger.Debug().Msg("debug shown")
	assert.Contains(t, buf.String(), "debug shown")
}

func TestErrorWithCode(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, false, false)

	err := errors.New().New(errors.ErrQueueFull)
	logger.New("api").ErrorWithCode(err).Msg("Dropped event")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "queue_full", entry["error_code"])
	assert.Equal(t, "Event queue is full", entry["error_message"])
}
