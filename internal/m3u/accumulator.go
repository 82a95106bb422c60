package m3u

import (
	"strings"

	"github.com/voyagen/m3uvault/internal/models"
)

// rawSeparator joins the physical lines contributed to one entry.
const rawSeparator = "\r\n"

// noEntry marks that no entry is currently open.
const noEntry = -1

// accumulator folds classified lines into entries. An entry is open from
// its #EXTINF line until a valid locator line closes it.
type accumulator struct {
	entries     []models.Entry
	open        int
	acceptPaths bool
}

func newAccumulator(acceptPaths bool) *accumulator {
	return &accumulator{open: noEntry, acceptPaths: acceptPaths}
}

// feed consumes one physical line with its 0-based index.
func (a *accumulator) feed(raw string, index int) {
	s := strings.TrimSpace(raw)
	switch Classify(raw, index) {
	case KindEntryStart:
		e := newEntry(s, raw, index+1)
		if a.open == noEntry {
			a.entries = append(a.entries, e)
			a.open = len(a.entries) - 1
		} else {
			a.entries[a.open] = e
		}
	case KindOption:
		e := a.current()
		if e == nil {
			return
		}
		e.HTTP.Referrer = firstNonEmpty(ExtractOption(s, "http-referrer"), e.HTTP.Referrer)
		e.HTTP.UserAgent = firstNonEmpty(ExtractOption(s, "http-user-agent"), e.HTTP.UserAgent)
		e.Raw += rawSeparator + raw
	case KindGroupOverride:
		e := a.current()
		if e == nil {
			return
		}
		e.Group.Title = firstNonEmpty(ExtractValue(s), e.Group.Title)
		e.Raw += rawSeparator + raw
	default:
		e := a.current()
		if e == nil {
			return
		}
		e.Raw += rawSeparator + raw
		loc := Resolve(s, a.acceptPaths)
		if !loc.Valid {
			return
		}
		e.URL = loc.Base
		e.HTTP.UserAgent = firstNonEmpty(loc.UserAgent, e.HTTP.UserAgent)
		e.HTTP.Referrer = firstNonEmpty(loc.Referrer, e.HTTP.Referrer)
		a.open = noEntry
	}
}

func (a *accumulator) current() *models.Entry {
	if a.open == noEntry {
		return nil
	}
	return &a.entries[a.open]
}

func newEntry(extinf, raw string, line int) models.Entry {
	return models.Entry{
		Name: ExtractName(extinf),
		TVG: models.TVG{
			ID:    ExtractAttribute(extinf, "tvg-id"),
			Name:  ExtractAttribute(extinf, "tvg-name"),
			Logo:  ExtractAttribute(extinf, "tvg-logo"),
			URL:   ExtractAttribute(extinf, "tvg-url"),
			Shift: ExtractAttribute(extinf, "tvg-shift"),
		},
		Group: models.Group{
			Title: ExtractAttribute(extinf, "group-title"),
		},
		HTTP: models.HTTP{
			UserAgent: ExtractAttribute(extinf, "user-agent"),
		},
		Catchup: models.Catchup{
			Type:   ExtractAttribute(extinf, "catchup"),
			Days:   ExtractAttribute(extinf, "catchup-days"),
			Source: ExtractAttribute(extinf, "catchup-source"),
		},
		Timeshift: ExtractAttribute(extinf, "timeshift"),
		Raw:       raw,
		Line:      line,
	}
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
