package chesscom

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stream-trivia-service/internal/domain"
)

const profileJSON = `{
	"username": "hikaru",
	"name": "Hikaru Nakamura",
	"followers": 1204321,
	"country": "https://api.chess.com/pub/country/US",
	"joined": 1389043200,
	"is_streamer": true,
	"title": "GM",
	"league": "Legend"
}`

const statsJSON = `{
	"chess_bullet": {
		"last": {"rating": 3300},
		"best": {"rating": 3358},
		"record": {"win": 9000, "loss": 2000, "draw": 1000}
	},
	"chess_blitz": {
		"last": {"rating": 3215},
		"record": {"win": 5000, "loss": 1500, "draw": 900}
	},
	"tactics": {
		"highest": {"rating": 3120},
		"lowest": {"rating": 1200}
	},
	"puzzle_rush": {
		"best": {"score": 58}
	},
	"fide": 2802
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/player/hikaru", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(profileJSON))
	})
	mux.HandleFunc("/player/hikaru/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(statsJSON))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux)
}

func TestFetchProfileMapsPayload(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	profile, stats, err := client.FetchProfile(context.Background(), "hikaru")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if profile.Username != "hikaru" || profile.DisplayName != "Hikaru Nakamura" {
		t.Fatalf("unexpected profile names: %+v", profile)
	}
	if profile.CountryCode != "US" {
		t.Fatalf("country code = %q, want US", profile.CountryCode)
	}
	if !profile.IsStreamer || profile.Title != "GM" || profile.League != "Legend" {
		t.Fatalf("profile metadata wrong: %+v", profile)
	}

	if stats.Bullet == nil || stats.Bullet.CurrentRating != 3300 {
		t.Fatalf("bullet stats wrong: %+v", stats.Bullet)
	}
	if stats.Bullet.BestRating == nil || *stats.Bullet.BestRating != 3358 {
		t.Fatalf("bullet best missing: %+v", stats.Bullet)
	}
	if stats.Bullet.Record == nil || stats.Bullet.Record.Total() != 12000 {
		t.Fatalf("bullet record wrong: %+v", stats.Bullet.Record)
	}
	if stats.Blitz == nil || stats.Blitz.BestRating != nil {
		t.Fatalf("blitz best should be absent: %+v", stats.Blitz)
	}
	if stats.Rapid != nil || stats.Daily != nil {
		t.Fatalf("absent formats should stay nil")
	}
	if stats.Tactics == nil || stats.Tactics.Highest != 3120 || stats.Tactics.Lowest != 1200 {
		t.Fatalf("tactics wrong: %+v", stats.Tactics)
	}
	if stats.PuzzleRushBest == nil || *stats.PuzzleRushBest != 58 {
		t.Fatalf("puzzle rush wrong: %+v", stats.PuzzleRushBest)
	}
	if stats.FIDERating == nil || *stats.FIDERating != 2802 {
		t.Fatalf("fide wrong: %+v", stats.FIDERating)
	}
}

func TestFetchProfileNotFound(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, _, err := client.FetchProfile(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestFetchProfileServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, _, err := client.FetchProfile(context.Background(), "hikaru")
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}
