package models

// Header attribute names recognized on the #EXTM3U line.
const (
	AttrXTvgURL = "x-tvg-url"
	AttrURLTvg  = "url-tvg"
)

// HeaderAttrs lists the recognized header attributes in lookup order.
var HeaderAttrs = []string{AttrXTvgURL, AttrURLTvg}

// Header is the #EXTM3U line of a playlist.
type Header struct {
	Attrs map[string]string `json:"attrs"`
	Raw   string            `json:"raw"`
}

// Playlist is a parsed header plus its entries in file order.
type Playlist struct {
	Header Header  `json:"header"`
	Items  []Entry `json:"items"`
}

// EPGURL returns the guide URL advertised by the header, if any.
func (p *Playlist) EPGURL() string {
	for _, k := range HeaderAttrs {
		if v := p.Header.Attrs[k]; v != "" {
			return v
		}
	}
	return ""
}

// Complete returns the entries that have a resolved URL.
func (p *Playlist) Complete() []Entry {
	out := make([]Entry, 0, len(p.Items))
	for _, e := range p.Items {
		if e.HasURL() {
			out = append(out, e)
		}
	}
	return out
}

// Groups returns the distinct non-empty group titles in first-seen order.
func (p *Playlist) Groups() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range p.Items {
		t := e.Group.Title
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
