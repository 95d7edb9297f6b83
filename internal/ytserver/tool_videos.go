package ytserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/engine/sources"
)

const maxVideoIDs = 50

// defaultVideoParts applies when the caller omits parts. The contract
// advertises snippet as the default; richer parts must be asked for.
var defaultVideoParts = []string{"snippet"}

func handleGetVideos(ctx context.Context, args map[string]any) (any, error) {
	ids, ok := stringSliceArg(args, "ids")
	if !ok {
		return nil, fmt.Errorf("ids must be an array of video IDs")
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("ids must be a non-empty array of video IDs")
	}
	if len(ids) > maxVideoIDs {
		return nil, fmt.Errorf("at most %d video IDs per call, got %d", maxVideoIDs, len(ids))
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("video IDs must be non-empty strings")
		}
	}

	parts, ok := stringSliceArg(args, "parts")
	if !ok {
		return nil, fmt.Errorf("parts must be an array of strings")
	}
	if len(parts) == 0 {
		parts = defaultVideoParts
	}
	for _, p := range parts {
		if !sources.IsVideoPart(p) {
			return nil, fmt.Errorf("invalid part %q", p)
		}
	}

	cacheKey := engine.CacheKey("get_videos", strings.Join(ids, ","), strings.Join(parts, ","))
	if cached, ok := engine.CacheLoadJSON[map[string]any](ctx, cacheKey); ok {
		return cached, nil
	}

	result, err := sources.GetVideos(ctx, ids, parts)
	if err != nil {
		return nil, err
	}

	engine.CacheStoreJSON(ctx, cacheKey, result)
	slog.Info("get_videos", slog.Int("ids", len(ids)), slog.Int("parts", len(parts)))
	return result, nil
}
