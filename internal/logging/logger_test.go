package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("fetcher", &buf, "debug")
	assert.Equal(t, logrus.DebugLevel, log.Logger.GetLevel())

	log.WithField("url", "http://x/a.m3u").Info("fetched")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "fetcher", line["component"])
	assert.Equal(t, "http://x/a.m3u", line["url"])
	assert.Equal(t, "fetched", line["msg"])
}

func TestNewWithOutputDefaultsToInfo(t *testing.T) {
	for _, lvl := range []string{"", "loud"} {
		log := NewWithOutput("x", &bytes.Buffer{}, lvl)
		assert.Equal(t, logrus.InfoLevel, log.Logger.GetLevel(), lvl)
	}
}
