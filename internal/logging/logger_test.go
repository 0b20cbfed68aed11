package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	type testCase struct {
		name     string
		level    string
		expected logrus.Level
	}
	testCases := []testCase{
		{name: "debug", level: "debug", expected: logrus.DebugLevel},
		{name: "warn", level: " warn ", expected: logrus.WarnLevel},
		{name: "fallback", level: "loud", expected: logrus.InfoLevel},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger := NewWithWriter(&bytes.Buffer{}, tc.level, FormatJSON)
			assert.Equal(t, tc.expected, logger.GetLevel())
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewWithWriter(buf, "info", FormatJSON)
	logger.WithField("action_id", "a1").Info("dispatched")

	entry := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "a1", entry["action_id"])
	assert.Equal(t, "dispatched", entry["msg"])
}
