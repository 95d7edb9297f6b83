package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_youtube/internal/engine"
)

// YouTube caption fetching.
// Primary:  scrape watch page ytInitialPlayerResponse → captionTracks (works from any IP)
// Fallback: ANDROID Innertube /player → captionTracks

var (
	// ErrVideoUnavailable means the video itself cannot be played (deleted,
	// private, region-blocked). Unlike the two errors below it is fatal.
	ErrVideoUnavailable = errors.New("video unavailable")

	// ErrTranscriptsDisabled means the video plays but exposes no caption data.
	ErrTranscriptsDisabled = errors.New("transcripts disabled")

	// ErrNoTranscript means caption data exists but no usable track remains.
	ErrNoTranscript = errors.New("no transcript found")
)

// CaptionTrack is one caption track of a video.
type CaptionTrack struct {
	BaseURL      string
	LanguageCode string
	Generated    bool // true for auto-generated ("asr") tracks
}

// Cue is one line of a transcript with its timing in seconds.
type Cue struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// ListCaptionTracks returns the usable caption tracks of a video, preserving
// YouTube's order. Tracks that require a PoToken are dropped since they only
// work in a browser.
func ListCaptionTracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	playerResp, err := playerResponseViaPageScrape(ctx, videoID)
	if err != nil {
		slog.Warn("youtube: page scrape failed, trying player",
			slog.String("id", videoID), slog.Any("error", err))
		playerResp, err = playerResponseViaInnertube(ctx, videoID)
		if err != nil {
			return nil, err
		}
	}

	if ps := playerResp.PlayabilityStatus; ps != nil && ps.Status == "ERROR" {
		if ps.Reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrVideoUnavailable, ps.Reason)
		}
		return nil, ErrVideoUnavailable
	}
	if playerResp.Captions == nil {
		return nil, ErrTranscriptsDisabled
	}
	raw := playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(raw) == 0 {
		return nil, ErrNoTranscript
	}

	tracks := make([]CaptionTrack, 0, len(raw))
	for _, t := range raw {
		if needsPoToken(t.BaseURL) {
			continue
		}
		tracks = append(tracks, CaptionTrack{
			BaseURL:      t.BaseURL,
			LanguageCode: t.LanguageCode,
			Generated:    t.Kind == "asr",
		})
	}
	if len(tracks) == 0 {
		return nil, ErrNoTranscript
	}
	return tracks, nil
}

// PickTrack selects the caption track to fetch:
//  1. exact match on the requested language code
//  2. English
//  3. first manually created track
//  4. first track of any kind
//
// Returns false only for an empty track list.
func PickTrack(tracks []CaptionTrack, language string) (CaptionTrack, bool) {
	if len(tracks) == 0 {
		return CaptionTrack{}, false
	}
	if language != "" {
		for _, t := range tracks {
			if t.LanguageCode == language {
				return t, true
			}
		}
	}
	for _, t := range tracks {
		if t.LanguageCode == "en" {
			return t, true
		}
	}
	for _, t := range tracks {
		if !t.Generated {
			return t, true
		}
	}
	return tracks[0], true
}

// FetchCues downloads a track's timedtext XML and returns its cues in order.
func FetchCues(ctx context.Context, track CaptionTrack) ([]Cue, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.BaseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(engine.Cfg.TranscriptMaxBytes)))
	if err != nil {
		return nil, err
	}

	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	cues := make([]Cue, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := engine.CleanHTML(line.Text)
		if text == "" {
			continue
		}
		cues = append(cues, Cue{Text: text, Start: line.Start, Duration: line.Dur})
	}
	return cues, nil
}

// needsPoToken reports whether a caption track URL requires a PoToken.
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// ytInitialPlayerResponseMarker marks the start of the player response JSON
// in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// playerResponseViaPageScrape scrapes the YouTube watch page HTML and
// extracts ytInitialPlayerResponse.
func playerResponseViaPageScrape(ctx context.Context, videoID string) (*innertubePlayerResp, error) {
	watchURL := "https://www.youtube.com/watch?v=" + videoID

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentChrome)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}

	idx := strings.Index(string(body), ytInitialPlayerResponseMarker)
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return &playerResp, nil
}

// extractJSON returns the first balanced {...} object at the start of b,
// tracking string literals so braces inside values don't confuse the depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	esc := false
	for i, c := range b {
		if inStr {
			// esc must be a toggle, not a prev-byte check: in `"c:\\"` the
			// second backslash is escaped, so the quote after it closes the
			// string.
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
