package sources

// YouTube implementation is split across four files by responsibility:
//   youtube_api.go        — Data API v3 calls (search.list, videos.list)
//   youtube_duration.go   — ISO-8601 duration parsing
//   youtube_innertube.go  — Innertube /player types and caption track listing fallback
//   youtube_transcript.go — caption track listing, selection, and cue fetching
