package domain

import "time"

// FormatRecord holds win/loss/draw counts for one time control.
type FormatRecord struct {
	Wins   int `json:"win"`
	Losses int `json:"loss"`
	Draws  int `json:"draw"`
}

// Total returns the number of games in the record.
func (r FormatRecord) Total() int {
	return r.Wins + r.Losses + r.Draws
}

// FormatStats describes one time control (bullet, blitz, rapid, daily).
// BestRating is nil when the provider never reported a peak.
type FormatStats struct {
	CurrentRating int           `json:"currentRating"`
	BestRating    *int          `json:"bestRating,omitempty"`
	Record        *FormatRecord `json:"record,omitempty"`
}

// TacticsStats is the puzzle-rating span for a profile.
type TacticsStats struct {
	Highest int `json:"highest"`
	Lowest  int `json:"lowest"`
}

// StatRecord is the normalized statistics payload for one profile.
// Every field may be absent; absence suppresses the related question rules.
type StatRecord struct {
	Bullet         *FormatStats  `json:"bullet,omitempty"`
	Blitz          *FormatStats  `json:"blitz,omitempty"`
	Rapid          *FormatStats  `json:"rapid,omitempty"`
	Daily          *FormatStats  `json:"daily,omitempty"`
	Tactics        *TacticsStats `json:"tactics,omitempty"`
	PuzzleRushBest *int          `json:"puzzleRushBest,omitempty"`
	FIDERating     *int          `json:"fideRating,omitempty"`
}

// Profile is the public metadata for a subject.
type Profile struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Followers   int    `json:"followers"`
	CountryCode string `json:"countryCode"`
	JoinedAt    int64  `json:"joinedAt"` // epoch seconds
	IsStreamer  bool   `json:"isStreamer"`
	Title       string `json:"title,omitempty"`
	League      string `json:"league,omitempty"`
}

// Question is one multiple-choice question. CorrectIndex always indexes the
// true answer inside Options, which hold 2-4 unique values.
type Question struct {
	ID           int      `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Phase is the round engine state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseCountdown Phase = "countdown"
	PhasePreview   Phase = "preview"
	PhaseOpen      Phase = "open"
	PhaseReveal    Phase = "reveal"
	PhaseFinished  Phase = "finished"
)

// ScoreEntry is one participant's row on the leaderboard.
type ScoreEntry struct {
	Participant string `json:"participant"`
	Score       int    `json:"score"`
	Streak      int    `json:"streak"`
}

// QuestionView is the presentation-safe projection of the current question.
// Options are withheld during Preview; the correct marker only appears once
// the phase reaches Reveal.
type QuestionView struct {
	ID           int      `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options,omitempty"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
}

// RoundSnapshot is what the presentation layer renders each tick.
type RoundSnapshot struct {
	Channel          string        `json:"channel"`
	Phase            Phase         `json:"phase"`
	QuestionIndex    int           `json:"questionIndex"`
	QuestionCount    int           `json:"questionCount"`
	CurrentQuestion  *QuestionView `json:"currentQuestion,omitempty"`
	SecondsRemaining int           `json:"secondsRemaining"`
	Leaderboard      []ScoreEntry  `json:"leaderboard"`
	AnsweredCount    int           `json:"answeredCount"`
}

// RoundResult is the archived outcome of a finished round.
type RoundResult struct {
	Channel    string       `json:"channel"`
	Username   string       `json:"username"`
	Questions  int          `json:"questions"`
	Standings  []ScoreEntry `json:"standings"`
	FinishedAt time.Time    `json:"finishedAt"`
}
