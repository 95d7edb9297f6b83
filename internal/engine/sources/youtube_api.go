package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_youtube/internal/engine"
)

const ytDataAPIBase = "https://www.googleapis.com/youtube/v3"

// VideoParts lists the resource parts videos.list accepts.
var VideoParts = []string{
	"snippet", "contentDetails", "statistics", "status", "player",
	"recordingDetails", "fileDetails", "processingDetails", "suggestions",
	"liveStreamingDetails", "localizations", "topicDetails",
}

// IsVideoPart reports whether p is a known videos.list part.
func IsVideoPart(p string) bool {
	for _, v := range VideoParts {
		if v == p {
			return true
		}
	}
	return false
}

// ValidateAPIKey fails fast when no Data API key is configured.
func ValidateAPIKey() error {
	if engine.Cfg.YouTubeAPIKey == "" {
		return fmt.Errorf("YOUTUBE_API_KEY environment variable is required")
	}
	return nil
}

// SearchVideos runs a search.list call and shapes the response for the
// search_videos contract: items with id/snippet, pageInfo, and page tokens.
func SearchVideos(ctx context.Context, query, pageToken string) (map[string]any, error) {
	if err := ValidateAPIKey(); err != nil {
		return nil, err
	}
	engine.IncrSearchRequests()

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprintf("%d", engine.Cfg.MaxSearchResults))
	params.Set("order", "relevance")
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	body, err := dataAPIGet(ctx, "search", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items []struct {
			ID struct {
				Kind    string `json:"kind"`
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet map[string]any `json:"snippet"`
		} `json:"items"`
		PageInfo struct {
			TotalResults int `json:"totalResults"`
		} `json:"pageInfo"`
		NextPageToken string `json:"nextPageToken"`
		PrevPageToken string `json:"prevPageToken"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("youtube search: decode response: %w", err)
	}

	items := make([]any, 0, len(resp.Items))
	for _, it := range resp.Items {
		items = append(items, map[string]any{
			"id": map[string]any{
				"kind":    it.ID.Kind,
				"videoId": it.ID.VideoID,
			},
			"snippet": it.Snippet,
		})
	}
	out := map[string]any{
		"items": items,
		"pageInfo": map[string]any{
			"totalResults":   resp.PageInfo.TotalResults,
			"resultsPerPage": len(items),
		},
	}
	if resp.NextPageToken != "" {
		out["nextPageToken"] = resp.NextPageToken
	}
	if resp.PrevPageToken != "" {
		out["prevPageToken"] = resp.PrevPageToken
	}
	return out, nil
}

// GetVideos runs a videos.list call for up to 50 ids. Items pass through
// unchanged except for a durationSeconds convenience field injected next to
// contentDetails.duration when that part is present.
func GetVideos(ctx context.Context, ids, parts []string) (map[string]any, error) {
	if err := ValidateAPIKey(); err != nil {
		return nil, err
	}
	engine.IncrVideoRequests()

	params := url.Values{}
	params.Set("part", strings.Join(parts, ","))
	params.Set("id", strings.Join(ids, ","))

	body, err := dataAPIGet(ctx, "videos", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items    []map[string]any `json:"items"`
		PageInfo struct {
			TotalResults int `json:"totalResults"`
		} `json:"pageInfo"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("youtube videos: decode response: %w", err)
	}

	items := make([]any, 0, len(resp.Items))
	for _, it := range resp.Items {
		injectDurationSeconds(it)
		items = append(items, it)
	}
	return map[string]any{
		"items": items,
		"pageInfo": map[string]any{
			"totalResults":   resp.PageInfo.TotalResults,
			"resultsPerPage": len(items),
		},
	}, nil
}

func injectDurationSeconds(item map[string]any) {
	cd, ok := item["contentDetails"].(map[string]any)
	if !ok {
		return
	}
	dur, ok := cd["duration"].(string)
	if !ok {
		return
	}
	cd["durationSeconds"] = ParseISODuration(dur)
}

// dataAPIGet performs a GET against the Data API, rotating to the fallback
// key when the first key fails (quota exhaustion shows up as a 403).
func dataAPIGet(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	keys := []string{engine.Cfg.YouTubeAPIKey}
	if engine.Cfg.YouTubeAPIKeyFallback != "" {
		keys = append(keys, engine.Cfg.YouTubeAPIKeyFallback)
	}

	var lastErr error
	for i, key := range keys {
		if i > 0 {
			engine.IncrAPIKeyFallbacks()
			slog.Warn("youtube API key failed, trying fallback", slog.String("endpoint", endpoint))
		}
		// Each attempt is its own Data API request, so each needs its own
		// quota token.
		if err := engine.WaitQuota(ctx); err != nil {
			return nil, err
		}
		p := url.Values{}
		for k, v := range params {
			p[k] = v
		}
		p.Set("key", key)
		reqURL := fmt.Sprintf("%s/%s?%s", ytDataAPIBase, endpoint, p.Encode())

		body, err := fetchDataAPI(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func fetchDataAPI(ctx context.Context, reqURL string) ([]byte, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("youtube API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("youtube API read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube API error: %s", engine.Truncate(apiErrorMessage(resp.StatusCode, body), 300))
	}
	return body, nil
}

// apiErrorMessage pulls the human-readable message out of a Data API error
// body, falling back to the HTTP status.
func apiErrorMessage(status int, body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return http.StatusText(status)
}
