package store

import (
	"context"
	"errors"

	"github.com/voyagen/m3uvault/internal/models"
)

// ErrNotFound is returned when a source does not exist.
var ErrNotFound = errors.New("not found")

// Store defines persistence for playlist sources and their entries.
type Store interface {
	// CreateOrGetSource creates a source by name if not exists, returns id.
	CreateOrGetSource(ctx context.Context, name, url string, sourceType int16) (int64, error)
	// GetSource returns a single source by id.
	GetSource(ctx context.Context, sourceID int64) (*models.Source, error)
	// ListSources returns all sources, newest first.
	ListSources(ctx context.Context) ([]models.Source, error)
	// DeleteSource deletes a source and its entries.
	DeleteSource(ctx context.Context, sourceID int64) error

	// ReplaceEntries stores the playlist header and swaps the source's
	// entries for pl.Items in one transaction.
	ReplaceEntries(ctx context.Context, sourceID int64, pl *models.Playlist) error
	// ListEntries returns entries matching the filter in playlist order and
	// the total count before limit/offset.
	ListEntries(ctx context.Context, filter EntryFilter) ([]models.StoredEntry, int, error)
	// ListGroups returns the group titles of a source with entry counts.
	ListGroups(ctx context.Context, sourceID int64) ([]models.GroupCount, error)
}

// EntryFilter holds filters for listing entries of one source.
type EntryFilter struct {
	SourceID     int64
	Group        *string // exact group title; "" selects ungrouped entries
	Search       string  // case-insensitive substring match on name
	CompleteOnly bool    // only entries with a URL
	Limit        int     // default 50, max 500
	Offset       int
}

// Normalize applies the default and maximum limit.
func (f EntryFilter) Normalize() EntryFilter {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
