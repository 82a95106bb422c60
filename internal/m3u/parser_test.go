package m3u

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyagen/m3uvault/internal/models"
)

const (
	validHeader = `#EXTM3U x-tvg-url="http://example.com/epg.xml.gz"`
	validItem   = `#EXTINF:-1 tvg-id="tf1.fr" tvg-name="TF1 HD" tvg-logo="http://example.com/logo.png" group-title="FRANCE HD",TF1 HD
http://example.com/stream`
	vlcOptions = `#EXTVLCOPT:http-referrer=http://example.com/
#EXTVLCOPT:http-user-agent=Mozilla/5.0`
)

func TestParseInvalidHeader(t *testing.T) {
	for _, data := range []string{
		"#INVALID_HEADER\n#EXTINF:-1,TF1 HD\nhttp://example.com/stream",
		"",
		"\n#EXTM3U",
		"#extm3u\n#EXTINF:-1,A\nhttp://example.com/a",
		"#EXTINF:-1,A\nhttp://example.com/a",
	} {
		p := New()
		err := p.Parse(data)
		require.ErrorIs(t, err, ErrInvalidPlaylist, data)
		assert.Empty(t, p.Items())
		assert.Nil(t, p.Header().Attrs)
	}
}

func TestParseFailureClearsPreviousResult(t *testing.T) {
	p := New()
	require.NoError(t, p.Parse("#EXTM3U\n"+validItem))
	require.Len(t, p.Items(), 1)

	require.ErrorIs(t, p.Parse("not a playlist"), ErrInvalidPlaylist)
	assert.Empty(t, p.Items())
	assert.Equal(t, models.Header{}, p.Header())
}

func TestAccessorsBeforeParse(t *testing.T) {
	p := New()
	assert.Equal(t, models.Header{}, p.Header())
	assert.Nil(t, p.Items())
}

func TestParseHeader(t *testing.T) {
	p := New()
	require.NoError(t, p.Parse(validHeader+"\n"+validItem))

	assert.Equal(t, models.Header{
		Attrs: map[string]string{"x-tvg-url": "http://example.com/epg.xml.gz"},
		Raw:   validHeader,
	}, p.Header())
}

func TestParseHeaderAttributes(t *testing.T) {
	raw := `#EXTM3U url-tvg="http://a/epg.xml" tvg-shift="2" refresh="3600"`
	p := New()
	require.NoError(t, p.Parse(raw))

	assert.Equal(t, map[string]string{"url-tvg": "http://a/epg.xml"}, p.Header().Attrs)
	assert.Empty(t, p.Items())
}

func TestParseHeaderWithByteOrderMark(t *testing.T) {
	p := New()
	require.NoError(t, p.Parse("\uFEFF#EXTM3U\n"+validItem))
	assert.Equal(t, "#EXTM3U", p.Header().Raw)
	assert.Len(t, p.Items(), 1)
}

func TestParseItem(t *testing.T) {
	p := New()
	require.NoError(t, p.Parse("#EXTM3U\n"+validItem))

	assert.Equal(t, []models.Entry{{
		Name: "TF1 HD",
		TVG: models.TVG{
			ID:   "tf1.fr",
			Name: "TF1 HD",
			Logo: "http://example.com/logo.png",
		},
		Group: models.Group{Title: "FRANCE HD"},
		URL:   "http://example.com/stream",
		Raw:   strings.ReplaceAll(validItem, "\n", "\r\n"),
		Line:  2,
	}}, p.Items())
}

func TestParseIndentedLines(t *testing.T) {
	data := "#EXTM3U\n    #EXTINF:-1 tvg-id=\"a\",A\n    http://example.com/a\r"
	p := New()
	require.NoError(t, p.Parse(data))

	items := p.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "http://example.com/a", items[0].URL)
	assert.Equal(t, "    #EXTINF:-1 tvg-id=\"a\",A\r\n    http://example.com/a\r", items[0].Raw)
}

func TestParseGroupOverride(t *testing.T) {
	data := `#EXTM3U
#EXTINF:-1 tvg-id="tf1.fr" tvg-name="TF1 HD" group-title="FRANCE HD",TF1 HD
#EXTGRP:FRANCE TV
http://example.com/stream`
	p := New()
	require.NoError(t, p.Parse(data))

	require.Len(t, p.Items(), 1)
	assert.Equal(t, "FRANCE TV", p.Items()[0].Group.Title)
}

func TestParseEmptyGroupOverrideKeepsTitle(t *testing.T) {
	data := "#EXTM3U\n#EXTINF:-1 group-title=\"News\",A\n#EXTGRP:\nhttp://example.com/a"
	items := mustParse(t, data)
	assert.Equal(t, "News", items[0].Group.Title)
	assert.Contains(t, items[0].Raw, "#EXTGRP:")
}

func TestParseVLCOptions(t *testing.T) {
	data := "#EXTM3U\n#EXTINF:-1 tvg-id=\"tf1.fr\" tvg-name=\"TF1 HD\",TF1 HD\n" + vlcOptions + "\nhttp://example.com/stream"
	items := mustParse(t, data)

	assert.Equal(t, models.HTTP{
		Referrer:  "http://example.com/",
		UserAgent: "Mozilla/5.0",
	}, items[0].HTTP)
}

func TestParseUserAgentAttribute(t *testing.T) {
	data := "#EXTM3U\n#EXTINF:-1 user-agent=\"Kodi/19\",A\n#EXTVLCOPT:http-referrer=http://r/\nhttp://example.com/a"
	items := mustParse(t, data)
	assert.Equal(t, "Kodi/19", items[0].HTTP.UserAgent)
	assert.Equal(t, "http://r/", items[0].HTTP.Referrer)
}

func TestParseInlineParametersOverrideOptions(t *testing.T) {
	data := "#EXTM3U\n#EXTINF:-1,A\n" + vlcOptions + "\nhttp://example.com/a|user-agent=VLC/3.0"
	items := mustParse(t, data)

	assert.Equal(t, "http://example.com/a", items[0].URL)
	assert.Equal(t, "VLC/3.0", items[0].HTTP.UserAgent)
	assert.Equal(t, "http://example.com/", items[0].HTTP.Referrer)
}

func TestParseCatchupAndShift(t *testing.T) {
	data := `#EXTM3U
#EXTINF:-1 tvg-shift="-2" tvg-url="http://g/epg.xml" catchup="default" catchup-days="7" catchup-source="?utc={utc}" timeshift="3",A
http://example.com/a`
	items := mustParse(t, data)

	assert.Equal(t, models.Catchup{Type: "default", Days: "7", Source: "?utc={utc}"}, items[0].Catchup)
	assert.Equal(t, "-2", items[0].TVG.Shift)
	assert.Equal(t, "http://g/epg.xml", items[0].TVG.URL)
	assert.Equal(t, "3", items[0].Timeshift)
}

func TestParseInvalidURL(t *testing.T) {
	data := "#EXTM3U\n#EXTINF:-1 tvg-id=\"tf1.fr\" tvg-name=\"TF1 HD\",TF1 HD\nINVALID_URL"
	items := mustParse(t, data)

	require.Len(t, items, 1)
	assert.Empty(t, items[0].URL)
	assert.False(t, items[0].HasURL())
	assert.True(t, strings.HasSuffix(items[0].Raw, "\r\nINVALID_URL"))
}

func TestParseInvalidLineKeepsEntryOpen(t *testing.T) {
	data := "#EXTM3U\n#EXTINF:-1,A\nINVALID_URL\n\n#EXTGRP:Late\nhttp://example.com/a\n#EXTGRP:Ignored"
	items := mustParse(t, data)

	require.Len(t, items, 1)
	assert.Equal(t, "http://example.com/a", items[0].URL)
	assert.Equal(t, "Late", items[0].Group.Title)
	assert.Equal(t, "#EXTINF:-1,A\r\nINVALID_URL\r\n\r\n#EXTGRP:Late\r\nhttp://example.com/a", items[0].Raw)
}

func TestParseMultipleItems(t *testing.T) {
	data := `#EXTM3U
#EXTINF:-1 tvg-id="tf1.fr" tvg-name="TF1 HD" group-title="FRANCE HD",TF1 HD
http://example.com/stream1
#EXTINF:-1 tvg-id="france2.fr" tvg-name="FRANCE 2",FRANCE 2
http://example.com/stream2`
	items := mustParse(t, data)

	require.Len(t, items, 2)
	assert.Equal(t, "TF1 HD", items[0].Name)
	assert.Equal(t, "http://example.com/stream1", items[0].URL)
	assert.Equal(t, 2, items[0].Line)
	assert.Equal(t, "FRANCE 2", items[1].Name)
	assert.Equal(t, "http://example.com/stream2", items[1].URL)
	assert.Equal(t, 4, items[1].Line)
}

func TestParseLiteralPercentInURL(t *testing.T) {
	data := "#EXTM3U\n#EXTINF:-1,A\nhttp://example.com/live/100%.ts\n#EXTINF:-1,B\nhttp://example.com/b"
	items := mustParse(t, data)

	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Name)
	assert.Equal(t, "http://example.com/live/100%.ts", items[0].URL)
	assert.Equal(t, "B", items[1].Name)
	assert.Equal(t, "http://example.com/b", items[1].URL)
}

func TestParseEntryStartReplacesOpenEntry(t *testing.T) {
	data := "#EXTM3U\n#EXTINF:-1,First\n#EXTVLCOPT:http-referrer=http://r/\n#EXTINF:-1,Second\nhttp://example.com/b"
	items := mustParse(t, data)

	require.Len(t, items, 1)
	assert.Equal(t, "Second", items[0].Name)
	assert.Equal(t, 4, items[0].Line)
	assert.Empty(t, items[0].HTTP.Referrer)
	assert.Equal(t, "#EXTINF:-1,Second\r\nhttp://example.com/b", items[0].Raw)
}

func TestParseStrayLinesIgnored(t *testing.T) {
	data := "#EXTM3U\nhttp://example.com/orphan\n#EXTVLCOPT:http-referrer=http://r/\n#EXTGRP:G\n#EXTINF:-1,A\nhttp://example.com/a\nhttp://example.com/after"
	items := mustParse(t, data)

	require.Len(t, items, 1)
	assert.Equal(t, "http://example.com/a", items[0].URL)
	assert.Empty(t, items[0].HTTP.Referrer)
	assert.Empty(t, items[0].Group.Title)
}

func TestParseTrailingIncompleteEntry(t *testing.T) {
	data := "#EXTM3U\n#EXTINF:-1,A\nhttp://example.com/a\n#EXTINF:-1,B\n#EXTGRP:G"
	items := mustParse(t, data)

	require.Len(t, items, 2)
	assert.True(t, items[0].HasURL())
	assert.False(t, items[1].HasURL())
	assert.Equal(t, "G", items[1].Group.Title)
}

func TestParseAcceptPaths(t *testing.T) {
	data := "#EXTM3U\n#EXTINF:-1,Movie\n/media/movies/movie.mkv"

	items := mustParse(t, data)
	assert.Equal(t, "/media/movies/movie.mkv", items[0].URL)

	p := New(WithAcceptPaths(false))
	require.NoError(t, p.Parse(data))
	assert.Empty(t, p.Items()[0].URL)
}

func TestParseIsIndependentPerParser(t *testing.T) {
	data := validHeader + "\n" + validItem + "\n#EXTINF:-1,B\n#EXTGRP:G\nhttp://example.com/b"

	a, b := New(), New()
	require.NoError(t, a.Parse(data))
	require.NoError(t, b.Parse(data))
	assert.Equal(t, a.Header(), b.Header())
	assert.Equal(t, a.Items(), b.Items())
}

func TestParseReader(t *testing.T) {
	p := New()
	require.NoError(t, p.ParseReader(strings.NewReader("#EXTM3U\n"+validItem)))
	assert.Len(t, p.Items(), 1)

	err := p.ParseReader(iotest.ErrReader(assert.AnError))
	require.ErrorIs(t, err, assert.AnError)
}

func TestParseFunc(t *testing.T) {
	pl, err := Parse(validHeader + "\n" + validItem + "\n#EXTINF:-1,B\nINVALID")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/epg.xml.gz", pl.EPGURL())
	assert.Len(t, pl.Items, 2)
	assert.Len(t, pl.Complete(), 1)
	assert.Equal(t, []string{"FRANCE HD"}, pl.Groups())

	_, err = Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidPlaylist)
}

func mustParse(t *testing.T, data string) []models.Entry {
	t.Helper()
	p := New()
	require.NoError(t, p.Parse(data))
	return p.Items()
}
