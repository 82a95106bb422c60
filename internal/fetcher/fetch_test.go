package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyagen/m3uvault/internal/m3u"
	"github.com/voyagen/m3uvault/internal/models"
)

const playlist = `#EXTM3U url-tvg="http://example.com/epg.xml"
#EXTINF:-1 tvg-id="a" group-title="News",Channel A
http://example.com/a.ts
#EXTINF:-1,Movie
/srv/media/movie.mkv
`

func TestFetchHTTP(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		_, _ = w.Write([]byte(playlist))
	}))
	defer srv.Close()

	res, err := Fetch(context.Background(), srv.URL+"/list.m3u", Options{UserAgent: "m3uvault-test", AcceptPaths: true})
	require.NoError(t, err)
	assert.Equal(t, "m3uvault-test", gotUA)
	assert.Equal(t, models.SourceTypeLink, res.SourceType)
	assert.EqualValues(t, len(playlist), res.Bytes)
	require.Len(t, res.Playlist.Items, 2)
	assert.Equal(t, "Channel A", res.Playlist.Items[0].Name)
	assert.Equal(t, "/srv/media/movie.mkv", res.Playlist.Items[1].URL)
	assert.Equal(t, "http://example.com/epg.xml", res.Playlist.EPGURL())
}

func TestFetchHTTPStrictPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(playlist))
	}))
	defer srv.Close()

	res, err := Fetch(context.Background(), srv.URL, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Playlist.Items[1].URL)
}

func TestFetchHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.URL, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestFetchInvalidPlaylist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a playlist</html>"))
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.URL, Options{})
	assert.ErrorIs(t, err, m3u.ErrInvalidPlaylist)
}

func TestFetchTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(playlist))
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.URL, Options{MaxBytes: 16})
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Fetch(context.Background(), srv.URL, Options{MaxBytes: int64(len(playlist))})
	assert.NoError(t, err)
}

func TestFetchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.m3u")
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(playlist, "\n", "\r\n")), 0o600))

	for _, loc := range []string{path, "file://" + path} {
		res, err := Fetch(context.Background(), loc, Options{AcceptPaths: true})
		require.NoError(t, err, loc)
		assert.Equal(t, models.SourceTypeFile, res.SourceType)
		require.Len(t, res.Playlist.Items, 2)
		assert.Equal(t, "http://example.com/a.ts", res.Playlist.Items[0].URL)
	}

	_, err := Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.m3u"), Options{})
	assert.Error(t, err)
}

func TestLoadDoesNotParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a playlist</html>"))
	}))
	defer srv.Close()

	raw, err := Load(context.Background(), srv.URL, Options{})
	require.NoError(t, err)
	assert.Equal(t, "<html>not a playlist</html>", raw.Text)
	assert.Equal(t, models.SourceTypeLink, raw.SourceType)
}
