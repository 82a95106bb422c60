package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/voyagen/m3uvault/internal/m3u"
	"github.com/voyagen/m3uvault/internal/models"
)

// ErrTooLarge is returned when a playlist exceeds Options.MaxBytes.
var ErrTooLarge = errors.New("playlist exceeds size limit")

// Options controls how a playlist is fetched and parsed.
type Options struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBytes    int64 // 0 = unlimited
	AcceptPaths bool
	Client      *http.Client // optional; default client with Timeout
}

// Fetch loads the playlist at location (http(s) URL or local file path) and parses it.
func Fetch(ctx context.Context, location string, opts Options) (*Result, error) {
	raw, err := Load(ctx, location, opts)
	if err != nil {
		return nil, err
	}
	pl, err := m3u.Parse(raw.Text, m3u.WithAcceptPaths(opts.AcceptPaths))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", location, err)
	}
	return &Result{Playlist: pl, SourceType: raw.SourceType, Bytes: int64(len(raw.Text))}, nil
}

// Load reads the playlist text at location without parsing it.
func Load(ctx context.Context, location string, opts Options) (*Raw, error) {
	var (
		body       io.ReadCloser
		sourceType int16
		err        error
	)
	if m3u.IsHTTPURL(location) {
		body, err = openHTTP(ctx, location, opts)
		sourceType = models.SourceTypeLink
	} else {
		body, err = os.Open(strings.TrimPrefix(location, "file://"))
		sourceType = models.SourceTypeFile
	}
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := readLimited(body, opts.MaxBytes)
	if err != nil {
		return nil, err
	}
	return &Raw{Text: data, SourceType: sourceType}, nil
}

func openHTTP(ctx context.Context, url string, opts Options) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Do: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func readLimited(r io.Reader, max int64) (string, error) {
	if max > 0 {
		r = io.LimitReader(r, max+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("ReadAll: %w", err)
	}
	if max > 0 && int64(len(data)) > max {
		return "", ErrTooLarge
	}
	return string(data), nil
}
