package model

import (
	"time"
)

// MatchReport is the response of a song search for one passage.
type MatchReport struct {
	SearchQuery  SearchQuery `json:"search_query"`
	TotalMatches int         `json:"total_matches"`
	Matches      []SongMatch `json:"matches"`

	Matcher     string    `json:"matcher,omitempty"` // provider that produced the scores
	Model       string    `json:"model,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SearchQuery echoes the resolved passage a report was built for.
type SearchQuery struct {
	Book           string `json:"book"`
	StartChapter   int    `json:"startChapter"`
	StartVerse     int    `json:"startVerse"`
	EndChapter     int    `json:"endChapter"`
	EndVerse       int    `json:"endVerse"`
	Reference      string `json:"reference"`
	PassageSnippet string `json:"passageSnippet"`
}

// SongMatch scores one song against a passage.
type SongMatch struct {
	Name   string   `json:"name"`
	Score  float64  `json:"score"`
	Themes []string `json:"themes"`
}

// BatchReport summarizes `selah batch` runs.
type BatchReport struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration_ns"`
	Items     []BatchItem   `json:"items"`
}

// BatchItem is the outcome for one reference line.
type BatchItem struct {
	Line      int    `json:"line"`
	Input     string `json:"input"`
	Reference string `json:"reference,omitempty"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}
