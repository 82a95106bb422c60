// Package m3u parses #EXTM3U extended playlists into a header and an
// ordered list of entries.
//
// Parsing is a single pass over the lines. It fails only when the first
// line is not an #EXTM3U header; every other malformed line degrades to
// empty fields or is kept as raw text of the entry it belongs to.
package m3u

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/voyagen/m3uvault/internal/models"
)

// ErrInvalidPlaylist is returned when the first line is not an #EXTM3U header.
var ErrInvalidPlaylist = errors.New("playlist is not valid")

const byteOrderMark = "\uFEFF"

// Option configures a Parser.
type Option func(*Parser)

// WithAcceptPaths controls whether filesystem paths are accepted as entry
// locators in addition to http(s) URLs. Defaults to true.
func WithAcceptPaths(accept bool) Option {
	return func(p *Parser) {
		p.acceptPaths = accept
	}
}

// Parser holds the result of the last successful Parse call.
// A Parser is not safe for concurrent use; use one per goroutine.
type Parser struct {
	acceptPaths bool
	header      models.Header
	items       []models.Entry
}

// New returns a Parser with the given options applied.
func New(opts ...Option) *Parser {
	p := &Parser{acceptPaths: true}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse parses data, replacing any previous result. On error nothing is
// retained and both accessors return empty values.
func (p *Parser) Parse(data string) error {
	p.header = models.Header{}
	p.items = nil

	lines := strings.Split(data, "\n")
	lines[0] = strings.TrimPrefix(lines[0], byteOrderMark)
	if Classify(lines[0], 0) != KindHeader {
		return ErrInvalidPlaylist
	}

	header := parseHeader(lines[0])
	acc := newAccumulator(p.acceptPaths)
	for i := 1; i < len(lines); i++ {
		acc.feed(lines[i], i)
	}

	p.header = header
	p.items = acc.entries
	return nil
}

// ParseReader reads r to the end and parses its contents.
func (p *Parser) ParseReader(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read playlist: %w", err)
	}
	return p.Parse(string(data))
}

// Header returns the header of the last successful parse.
func (p *Parser) Header() models.Header {
	return p.header
}

// Items returns the entries of the last successful parse in file order.
func (p *Parser) Items() []models.Entry {
	return p.items
}

// Playlist returns the last successful result as a Playlist.
func (p *Parser) Playlist() *models.Playlist {
	return &models.Playlist{Header: p.header, Items: p.items}
}

// Parse parses data with a fresh Parser.
func Parse(data string, opts ...Option) (*models.Playlist, error) {
	p := New(opts...)
	if err := p.Parse(data); err != nil {
		return nil, err
	}
	return p.Playlist(), nil
}

func parseHeader(raw string) models.Header {
	attrs := make(map[string]string)
	for _, k := range models.HeaderAttrs {
		if v := ExtractAttribute(raw, k); v != "" {
			attrs[k] = v
		}
	}
	return models.Header{Attrs: attrs, Raw: raw}
}
