package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	YouTubeAPIKey         string
	YouTubeAPIKeyFallback string // secondary key tried on quota errors
	TranscriptsEnabled    bool
	MaxSearchResults      int
	TranscriptMaxBytes    int     // cap on fetched timedtext payloads
	QuotaPerSecond        float64 // Data API requests per second cap
	QuotaBurst            int
	CacheMaxEntries       int
	CacheCleanupInterval  time.Duration
	HTTPClient            *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, ytserver).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.MaxSearchResults <= 0 || c.MaxSearchResults > 50 {
		c.MaxSearchResults = 10
	}
	if c.TranscriptMaxBytes <= 0 {
		c.TranscriptMaxBytes = 512 * 1024
	}
	cfg = c
	Cfg = &cfg
	initLimiter(c.QuotaPerSecond, c.QuotaBurst)
}
