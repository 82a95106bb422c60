package cache

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	// sha256("x")
	assert.Equal(t, "2d711642b726b04401627ca9fbac32f5c8530fb1903cc4db02258717921a4881", Hash("x"))
	assert.Equal(t, Hash("#EXTM3U"), Hash("#EXTM3U"))
	assert.NotEqual(t, Hash("a"), Hash("b"))
}

func TestParseKey(t *testing.T) {
	body := "#EXTM3U\n#EXTINF:-1,A\n/media/a.ts"
	assert.NotEqual(t, ParseKey(body, true), ParseKey(body, false))
	assert.Contains(t, ParseKey(body, true), "parse:paths:")
	assert.Contains(t, ParseKey(body, false), "parse:strict:")
	assert.Equal(t, "parse:paths:"+Hash(body), ParseKey(body, true))
	assert.Len(t, ParseKey(body, true), len("parse:paths:")+64)
}

func TestIngestLockKey(t *testing.T) {
	assert.Equal(t, IngestLockKey("http://x/a.m3u"), IngestLockKey("http://x/a.m3u"))
	assert.NotEqual(t, IngestLockKey("http://x/a.m3u"), IngestLockKey("http://x/b.m3u"))
}

func TestIngestJobRoundTrip(t *testing.T) {
	job := NewIngestJob("http://example.com/list.m3u", "example")
	_, err := uuid.Parse(job.ID)
	require.NoError(t, err)

	data, err := json.Marshal(job)
	require.NoError(t, err)
	got, err := decodeJob(string(data))
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, job.Location, got.Location)
	assert.True(t, job.EnqueuedAt.Equal(got.EnqueuedAt))

	_, err = decodeJob("{not json")
	assert.Error(t, err)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("mysql://nope")
	assert.Error(t, err)

	r, err := New("redis://localhost:6379/0")
	require.NoError(t, err)
	assert.NoError(t, r.Close())
}
