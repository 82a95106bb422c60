package models

// HTTP holds per-entry HTTP hints, from #EXTVLCOPT lines or inline
// locator parameters.
type HTTP struct {
	Referrer  string `json:"referrer"`
	UserAgent string `json:"user-agent"`
}

// IsZero reports whether no hint is set.
func (h HTTP) IsZero() bool {
	return h.Referrer == "" && h.UserAgent == ""
}
