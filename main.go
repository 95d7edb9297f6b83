// go_youtube — YouTube MCP server.
//
// Exposes three MCP tools: search_videos, get_videos, get_transcript.
// Tool contracts live in internal/dispatch/tools.json; every call is
// validated against its contract before and after the handler runs.
// Runs as HTTP MCP server or stdio transport.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_youtube/internal/dispatch"
	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/ytserver"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	initEngine()

	registry, err := dispatch.LoadRegistry()
	if err != nil {
		slog.Error("tool registry load failed", slog.Any("error", err))
		os.Exit(1)
	}

	eng, err := dispatch.New(registry, ytserver.Handlers())
	if err != nil {
		slog.Error("dispatch engine init failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting go_youtube",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_youtube",
		Version: version,
	}, nil)

	if err := ytserver.RegisterTools(server, eng); err != nil {
		slog.Error("tool registration failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("tools registered", slog.Int("count", len(registry.Names())))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_youtube",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.Config{
		YouTubeAPIKey:         env.Str("YOUTUBE_API_KEY", ""),
		YouTubeAPIKeyFallback: env.Str("YOUTUBE_API_KEY_FALLBACK", ""),
		TranscriptsEnabled:    env.Str("TRANSCRIPTS_ENABLED", "true") == "true",
		MaxSearchResults:      env.Int("MAX_SEARCH_RESULTS", 10),
		TranscriptMaxBytes:    env.Int("TRANSCRIPT_MAX_BYTES", 512*1024),
		QuotaPerSecond:        env.Float("QUOTA_PER_SECOND", 8),
		QuotaBurst:            env.Int("QUOTA_BURST", 4),
		CacheMaxEntries:       env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval:  env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
	engine.Init(c)

	if c.YouTubeAPIKey == "" {
		slog.Warn("YOUTUBE_API_KEY not set, search_videos and get_videos will fail")
	}

	cacheTTL := env.Duration("CACHE_TTL", 15*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}
