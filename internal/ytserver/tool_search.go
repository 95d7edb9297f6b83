package ytserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/engine/sources"
)

func handleSearchVideos(ctx context.Context, args map[string]any) (any, error) {
	query := strings.TrimSpace(stringArg(args, "query"))
	if query == "" {
		return nil, fmt.Errorf("query must be a non-empty string")
	}
	pageToken := stringArg(args, "pageToken")

	cacheKey := engine.CacheKey("search_videos", query, pageToken)
	if cached, ok := engine.CacheLoadJSON[map[string]any](ctx, cacheKey); ok {
		return cached, nil
	}

	result, err := sources.SearchVideos(ctx, query, pageToken)
	if err != nil {
		return nil, err
	}

	engine.CacheStoreJSON(ctx, cacheKey, result)
	slog.Info("search_videos", slog.String("query", engine.TruncateRunes(query, 80, "…")),
		slog.Int("items", len(result["items"].([]any))))
	return result, nil
}
