package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithOutput(&buf, "debug", "json")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("component", "posts").Info("post created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "posts", entry["component"])
	assert.Equal(t, "post created", entry["msg"])
}

func TestNewRejectsBadSettings(t *testing.T) {
	_, err := NewWithOutput(&bytes.Buffer{}, "loud", "text")
	assert.Error(t, err)

	_, err = NewWithOutput(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
