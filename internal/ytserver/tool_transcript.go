package ytserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_youtube/internal/engine"
	"github.com/anatolykoptev/go_youtube/internal/engine/sources"
)

func handleGetTranscript(ctx context.Context, args map[string]any) (any, error) {
	videoID := strings.TrimSpace(stringArg(args, "videoId"))
	if videoID == "" {
		return nil, fmt.Errorf("videoId must be a non-empty string")
	}
	language := strings.TrimSpace(stringArg(args, "language"))

	if !engine.Cfg.TranscriptsEnabled {
		return nil, fmt.Errorf("transcript fetching is disabled")
	}
	engine.IncrTranscriptRequests()

	cacheKey := engine.CacheKey("get_transcript", videoID, language)
	if cached, ok := engine.CacheLoadJSON[map[string]any](ctx, cacheKey); ok {
		return cached, nil
	}

	tracks, err := sources.ListCaptionTracks(ctx, videoID)
	if err != nil {
		// A video without captions is a normal answer, not a failure.
		if errors.Is(err, sources.ErrTranscriptsDisabled) || errors.Is(err, sources.ErrNoTranscript) {
			result := unavailableTranscript(videoID)
			engine.CacheStoreJSON(ctx, cacheKey, result)
			return result, nil
		}
		return nil, err
	}

	track, ok := sources.PickTrack(tracks, language)
	if !ok {
		result := unavailableTranscript(videoID)
		engine.CacheStoreJSON(ctx, cacheKey, result)
		return result, nil
	}

	cues, err := sources.FetchCues(ctx, track)
	if err != nil {
		return nil, err
	}

	transcript := make([]any, 0, len(cues))
	for _, cue := range cues {
		transcript = append(transcript, map[string]any{
			"text":     cue.Text,
			"start":    cue.Start,
			"duration": cue.Duration,
		})
	}
	result := map[string]any{
		"videoId":    videoID,
		"transcript": transcript,
		"available":  true,
		"language":   track.LanguageCode,
	}

	engine.CacheStoreJSON(ctx, cacheKey, result)
	slog.Info("get_transcript", slog.String("id", videoID),
		slog.String("language", track.LanguageCode), slog.Int("cues", len(cues)))
	return result, nil
}

func unavailableTranscript(videoID string) map[string]any {
	return map[string]any{
		"videoId":    videoID,
		"transcript": []any{},
		"available":  false,
		"language":   nil,
	}
}
