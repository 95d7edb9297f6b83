package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	Dispatches         atomic.Int64
	DispatchErrors     atomic.Int64
	SearchRequests     atomic.Int64
	VideoRequests      atomic.Int64
	TranscriptRequests atomic.Int64
	APIKeyFallbacks    atomic.Int64
}

// GetMetrics returns a snapshot of all counters including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"dispatches":          metrics.Dispatches.Load(),
		"dispatch_errors":     metrics.DispatchErrors.Load(),
		"search_requests":     metrics.SearchRequests.Load(),
		"video_requests":      metrics.VideoRequests.Load(),
		"transcript_requests": metrics.TranscriptRequests.Load(),
		"api_key_fallbacks":   metrics.APIKeyFallbacks.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"dispatches", "dispatch_errors",
		"search_requests", "video_requests", "transcript_requests",
		"api_key_fallbacks",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for ytserver and sources packages.
func IncrDispatches()         { metrics.Dispatches.Add(1) }
func IncrDispatchErrors()     { metrics.DispatchErrors.Add(1) }
func IncrSearchRequests()     { metrics.SearchRequests.Add(1) }
func IncrVideoRequests()      { metrics.VideoRequests.Add(1) }
func IncrTranscriptRequests() { metrics.TranscriptRequests.Add(1) }
func IncrAPIKeyFallbacks()    { metrics.APIKeyFallbacks.Add(1) }
