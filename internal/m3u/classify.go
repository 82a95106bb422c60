package m3u

import "strings"

// Kind is the directive kind of one physical playlist line.
type Kind int

const (
	KindPayload Kind = iota
	KindHeader
	KindEntryStart
	KindOption
	KindGroupOverride
)

// Directive prefixes. Matching is case-sensitive on the trimmed line.
const (
	prefixHeader = "#EXTM3U"
	prefixEntry  = "#EXTINF:"
	prefixOption = "#EXTVLCOPT:"
	prefixGroup  = "#EXTGRP:"
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindEntryStart:
		return "entry-start"
	case KindOption:
		return "option"
	case KindGroupOverride:
		return "group-override"
	default:
		return "payload"
	}
}

// Classify returns the kind of line at the given 0-based index.
// A header is only recognized on the first line; anything unmatched,
// blank lines included, is a payload candidate.
func Classify(line string, index int) Kind {
	s := strings.TrimSpace(line)
	switch {
	case index == 0 && strings.HasPrefix(s, prefixHeader):
		return KindHeader
	case strings.HasPrefix(s, prefixEntry):
		return KindEntryStart
	case strings.HasPrefix(s, prefixOption):
		return KindOption
	case strings.HasPrefix(s, prefixGroup):
		return KindGroupOverride
	default:
		return KindPayload
	}
}
