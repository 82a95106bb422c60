package models

// Source type constants.
const (
	SourceTypeText int16 = 0 // uploaded playlist body
	SourceTypeLink int16 = 1 // http(s) URL
	SourceTypeFile int16 = 2 // local file path
)
