package chesscom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stream-trivia-service/internal/domain"
)

const DefaultBaseURL = "https://api.chess.com/pub"

// Client fetches public player data from the chess.com-shaped API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

type profilePayload struct {
	Username   string `json:"username"`
	Name       string `json:"name"`
	Followers  int    `json:"followers"`
	CountryURL string `json:"country"`
	Joined     int64  `json:"joined"`
	IsStreamer bool   `json:"is_streamer"`
	Title      string `json:"title"`
	League     string `json:"league"`
}

type ratingPayload struct {
	Rating int `json:"rating"`
}

type scorePayload struct {
	Score int `json:"score"`
}

type formatPayload struct {
	Last   *ratingPayload       `json:"last"`
	Best   *ratingPayload       `json:"best"`
	Record *domain.FormatRecord `json:"record"`
}

type statsPayload struct {
	Bullet  *formatPayload `json:"chess_bullet"`
	Blitz   *formatPayload `json:"chess_blitz"`
	Rapid   *formatPayload `json:"chess_rapid"`
	Daily   *formatPayload `json:"chess_daily"`
	Tactics *struct {
		Highest *ratingPayload `json:"highest"`
		Lowest  *ratingPayload `json:"lowest"`
	} `json:"tactics"`
	PuzzleRush *struct {
		Best *scorePayload `json:"best"`
	} `json:"puzzle_rush"`
	FIDE int `json:"fide"`
}

// FetchProfile loads the profile and statistics for one username. A missing
// player maps to ErrProfileNotFound; transport or decode trouble wraps
// ErrFetchFailed.
func (c *Client) FetchProfile(ctx context.Context, username string) (domain.Profile, domain.StatRecord, error) {
	var prof profilePayload
	if err := c.getJSON(ctx, "/player/"+username, &prof); err != nil {
		return domain.Profile{}, domain.StatRecord{}, err
	}
	var stats statsPayload
	if err := c.getJSON(ctx, "/player/"+username+"/stats", &stats); err != nil {
		return domain.Profile{}, domain.StatRecord{}, err
	}

	displayName := prof.Name
	if displayName == "" {
		displayName = prof.Username
	}
	profile := domain.Profile{
		Username:    prof.Username,
		DisplayName: displayName,
		Followers:   prof.Followers,
		CountryCode: countryCodeFromURL(prof.CountryURL),
		JoinedAt:    prof.Joined,
		IsStreamer:  prof.IsStreamer,
		Title:       prof.Title,
		League:      prof.League,
	}
	return profile, normalizeStats(stats), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrFetchFailed, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrProfileNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: unexpected status %d for %s", domain.ErrFetchFailed, resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrFetchFailed, path, err)
	}
	return nil
}

func normalizeStats(payload statsPayload) domain.StatRecord {
	record := domain.StatRecord{
		Bullet: normalizeFormat(payload.Bullet),
		Blitz:  normalizeFormat(payload.Blitz),
		Rapid:  normalizeFormat(payload.Rapid),
		Daily:  normalizeFormat(payload.Daily),
	}
	if t := payload.Tactics; t != nil && t.Highest != nil {
		tactics := domain.TacticsStats{Highest: t.Highest.Rating}
		if t.Lowest != nil {
			tactics.Lowest = t.Lowest.Rating
		}
		record.Tactics = &tactics
	}
	if pr := payload.PuzzleRush; pr != nil && pr.Best != nil && pr.Best.Score > 0 {
		best := pr.Best.Score
		record.PuzzleRushBest = &best
	}
	if payload.FIDE > 0 {
		fide := payload.FIDE
		record.FIDERating = &fide
	}
	return record
}

func normalizeFormat(payload *formatPayload) *domain.FormatStats {
	if payload == nil || payload.Last == nil {
		return nil
	}
	stats := &domain.FormatStats{CurrentRating: payload.Last.Rating}
	if payload.Best != nil {
		best := payload.Best.Rating
		stats.BestRating = &best
	}
	if payload.Record != nil {
		record := *payload.Record
		stats.Record = &record
	}
	return stats
}

// countryCodeFromURL extracts the trailing code from the provider's country
// resource URL ("…/country/US" → "US").
func countryCodeFromURL(url string) string {
	if url == "" {
		return ""
	}
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		return url[idx+1:]
	}
	return url
}
