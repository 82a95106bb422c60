// Package metrics holds the Prometheus instrumentation for parsing and
// ingest, exposed at GET /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Parse results.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultCached  = "cached"
)

// PlaylistsParsed counts parse attempts by result.
var PlaylistsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "m3uvault_playlists_parsed_total",
	Help: "Playlist parse attempts by result.",
}, []string{"result"})

// EntriesParsed counts entries produced by successful parses.
var EntriesParsed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "m3uvault_entries_parsed_total",
	Help: "Entries produced by successful parses.",
})

// IncompleteEntries counts entries left without a URL at end of input.
var IncompleteEntries = promauto.NewCounter(prometheus.CounterOpts{
	Name: "m3uvault_entries_incomplete_total",
	Help: "Parsed entries that never received a valid locator.",
})

// ParseDuration observes wall time of a single parse.
var ParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "m3uvault_parse_duration_seconds",
	Help:    "Time spent parsing one playlist.",
	Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
})

// IngestJobs counts background ingest jobs by outcome.
var IngestJobs = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "m3uvault_ingest_jobs_total",
	Help: "Ingest jobs by outcome.",
}, []string{"outcome"})

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
