package models

// Entry is one playable item of a playlist, opened by an #EXTINF directive.
// URL is empty when the playlist ended before a valid locator line was seen.
type Entry struct {
	Name      string  `json:"name"`
	TVG       TVG     `json:"tvg"`
	Group     Group   `json:"group"`
	HTTP      HTTP    `json:"http"`
	Catchup   Catchup `json:"catchup"`
	Timeshift string  `json:"timeshift"`
	URL       string  `json:"url,omitempty"`
	Raw       string  `json:"raw"`
	Line      int     `json:"line"`
}

// TVG holds the tvg-* guide attributes of an entry.
type TVG struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Logo  string `json:"logo"`
	URL   string `json:"url"`
	Shift string `json:"shift"`
}

// Catchup holds the catch-up (replay) attributes of an entry.
type Catchup struct {
	Type   string `json:"type"`
	Days   string `json:"days"`
	Source string `json:"source"`
}

// HasURL reports whether the entry was closed by a valid locator line.
func (e *Entry) HasURL() bool {
	return e.URL != ""
}
