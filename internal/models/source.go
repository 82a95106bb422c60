package models

import "time"

// Source is a stored playlist: where it came from plus its parsed header.
type Source struct {
	ID          int64             `json:"id,omitempty"`
	Name        string            `json:"name"`
	URL         string            `json:"url,omitempty"`
	SourceType  int16             `json:"source_type"`
	HeaderRaw   string            `json:"header_raw"`
	HeaderAttrs map[string]string `json:"header_attrs"`
	EntryCount  int               `json:"entry_count"`
	LastUpdated *time.Time        `json:"last_updated,omitempty"`
	CreatedAt   *time.Time        `json:"created_at,omitempty"`
}

// StoredEntry is an Entry persisted under a source at a fixed position.
type StoredEntry struct {
	ID       int64 `json:"id"`
	SourceID int64 `json:"source_id"`
	Position int   `json:"position"`
	Entry
}
