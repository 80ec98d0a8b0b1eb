package round

import (
	"math"
	"strings"
	"sync"
	"time"

	"stream-trivia-service/internal/domain"
)

// Config carries the round timing and scoring constants. Values are fixed for
// the lifetime of a round.
type Config struct {
	Countdown       time.Duration
	Preview         time.Duration
	Open            time.Duration
	Reveal          time.Duration
	BaseMaxPoints   int
	PointsIncrement int
	MinPoints       int
	StreakBonus     int
	StreakMinLength int
}

// DefaultConfig mirrors the reference round: 3s countdown, 5s preview, 15s
// open, 10s reveal, 500 base points escalating by 100 per question, 100 point
// floor and streak bonus from the second consecutive hit.
func DefaultConfig() Config {
	return Config{
		Countdown:       3 * time.Second,
		Preview:         5 * time.Second,
		Open:            15 * time.Second,
		Reveal:          10 * time.Second,
		BaseMaxPoints:   500,
		PointsIncrement: 100,
		MinPoints:       100,
		StreakBonus:     100,
		StreakMinLength: 2,
	}
}

// Event signals a state change produced by a tick.
type Event string

const (
	EventPhaseChanged Event = "phaseChanged"
	EventFinished     Event = "finished"
)

// Engine runs one question at a time through preview, open and reveal on
// wall-clock deadlines. Chat submissions and timer ticks may arrive from
// different goroutines; one mutex serializes every state mutation so the
// ledger is never read mid-update.
type Engine struct {
	mu        sync.Mutex
	cfg       Config
	questions []domain.Question
	phase     domain.Phase
	index     int
	deadline  time.Time
	openedAt  time.Time
	ledger    *Ledger
	answered  map[string]bool
}

func NewEngine(questions []domain.Question, cfg Config) *Engine {
	return &Engine{
		cfg:       cfg,
		questions: questions,
		phase:     domain.PhaseIdle,
		ledger:    NewLedger(),
		answered:  make(map[string]bool),
	}
}

// Start arms the round. A zero countdown drops straight into the first
// preview. Starting a round that already left Idle is a no-op.
func (e *Engine) Start(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != domain.PhaseIdle || len(e.questions) == 0 {
		return false
	}
	if e.cfg.Countdown > 0 {
		e.enterLocked(domain.PhaseCountdown, now, e.cfg.Countdown)
	} else {
		e.enterLocked(domain.PhasePreview, now, e.cfg.Preview)
	}
	return true
}

// Advance evaluates the phase deadline against now and applies any due
// transition. It is the only place phases move; the caller drives it from a
// fixed tick.
func (e *Engine) Advance(now time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	var events []Event
	// A stalled ticker can owe more than one transition.
	for e.phase != domain.PhaseIdle && e.phase != domain.PhaseFinished && !now.Before(e.deadline) {
		switch e.phase {
		case domain.PhaseCountdown:
			e.enterLocked(domain.PhasePreview, e.deadline, e.cfg.Preview)
			events = append(events, EventPhaseChanged)
		case domain.PhasePreview:
			openAt := e.deadline
			e.enterLocked(domain.PhaseOpen, openAt, e.cfg.Open)
			e.openedAt = openAt
			events = append(events, EventPhaseChanged)
		case domain.PhaseOpen:
			// A silent open phase breaks the chain, never the score.
			e.ledger.BreakIdleStreaks(e.answered)
			e.enterLocked(domain.PhaseReveal, e.deadline, e.cfg.Reveal)
			events = append(events, EventPhaseChanged)
		case domain.PhaseReveal:
			if e.index == len(e.questions)-1 {
				e.phase = domain.PhaseFinished
				events = append(events, EventPhaseChanged, EventFinished)
			} else {
				e.index++
				e.answered = make(map[string]bool)
				e.enterLocked(domain.PhasePreview, e.deadline, e.cfg.Preview)
				events = append(events, EventPhaseChanged)
			}
		}
	}
	return events
}

func (e *Engine) enterLocked(phase domain.Phase, from time.Time, duration time.Duration) {
	e.phase = phase
	e.deadline = from.Add(duration)
}

// Submit applies one chat message against the current question. Everything
// that cannot score (wrong phase, repeat answer, unparseable text, option out
// of range) is a silent no-op: those are expected races with chat timing, not
// errors.
func (e *Engine) Submit(participant, raw string, now time.Time) (awarded int, correct bool, accepted bool) {
	participant = strings.ToLower(strings.TrimSpace(participant))
	if participant == "" {
		return 0, false, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != domain.PhaseOpen || e.answered[participant] {
		return 0, false, false
	}
	choice, ok := ParseAnswer(raw)
	if !ok {
		return 0, false, false
	}
	question := e.questions[e.index]
	if choice >= len(question.Options) {
		return 0, false, false
	}

	elapsed := now.Sub(e.openedAt)
	ratio := (e.cfg.Open - elapsed).Seconds() / e.cfg.Open.Seconds()
	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}

	correct = choice == question.CorrectIndex
	points := 0
	streak := 0
	if correct {
		maxPoints := e.cfg.BaseMaxPoints + e.index*e.cfg.PointsIncrement
		points = int(math.Round(float64(e.cfg.MinPoints) + float64(maxPoints-e.cfg.MinPoints)*ratio))
		streak = e.ledger.Streak(participant) + 1
		if streak >= e.cfg.StreakMinLength {
			points += e.cfg.StreakBonus
		}
	}
	e.ledger.Award(participant, points, streak)
	e.answered[participant] = true
	return points, correct, true
}

// Snapshot projects the engine state for the presentation layer. Options stay
// hidden until Open; the correct index until Reveal.
func (e *Engine) Snapshot(channel string, topN int, now time.Time) domain.RoundSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := domain.RoundSnapshot{
		Channel:       channel,
		Phase:         e.phase,
		QuestionIndex: e.index,
		QuestionCount: len(e.questions),
		Leaderboard:   e.ledger.Top(topN),
		AnsweredCount: len(e.answered),
	}
	if e.phase != domain.PhaseIdle && e.phase != domain.PhaseFinished {
		if remaining := e.deadline.Sub(now); remaining > 0 {
			snap.SecondsRemaining = int(remaining.Seconds() + 0.999)
		}
	}
	if e.phase == domain.PhasePreview || e.phase == domain.PhaseOpen || e.phase == domain.PhaseReveal {
		question := e.questions[e.index]
		view := &domain.QuestionView{ID: question.ID, Prompt: question.Prompt}
		if e.phase != domain.PhasePreview {
			view.Options = question.Options
		}
		if e.phase == domain.PhaseReveal {
			idx := question.CorrectIndex
			view.CorrectIndex = &idx
		}
		snap.CurrentQuestion = view
	}
	return snap
}

// Standings returns the full ranked ledger.
func (e *Engine) Standings() []domain.ScoreEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Rank()
}

// Phase reports the current phase.
func (e *Engine) Phase() domain.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Restart returns the engine to Idle with a fresh ledger and answer set. The
// stale deadline is cleared under the same lock, so a tick from the previous
// round can never fire into the new one.
func (e *Engine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = domain.PhaseIdle
	e.index = 0
	e.deadline = time.Time{}
	e.openedAt = time.Time{}
	e.ledger = NewLedger()
	e.answered = make(map[string]bool)
}
