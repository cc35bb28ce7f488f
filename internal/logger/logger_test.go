package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug", "text").Level)
	assert.Equal(t, logrus.WarnLevel, New("WARN", "text").Level)
	assert.Equal(t, logrus.InfoLevel, New("chatty", "text").Level)
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "info", "json")

	l.WithField("topic", "Image/Delete").Info("cascade done")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cascade done", entry["msg"])
	assert.Equal(t, "Image/Delete", entry["topic"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "info", "")

	l.Debug("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "level=warning")
	assert.Contains(t, buf.String(), "msg=shown")
}
