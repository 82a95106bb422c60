package fetcher

import "github.com/voyagen/m3uvault/internal/models"

// Raw is playlist text as loaded, before parsing.
type Raw struct {
	Text       string
	SourceType int16
}

// Result is a fetched and parsed playlist plus where it came from.
type Result struct {
	Playlist   *models.Playlist
	SourceType int16
	Bytes      int64
}
