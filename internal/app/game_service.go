package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"stream-trivia-service/internal/domain"
	"stream-trivia-service/internal/round"
	"stream-trivia-service/internal/trivia"
)

// leaderboardSize caps how many entries a snapshot carries.
const leaderboardSize = 10

// StatsProvider fetches a subject's profile and statistics (cache, HTTP, etc).
type StatsProvider interface {
	FetchProfile(ctx context.Context, username string) (domain.Profile, domain.StatRecord, error)
}

// RoundArchive persists finished round results. May be nil when no store is
// configured.
type RoundArchive interface {
	SaveRound(ctx context.Context, result domain.RoundResult) error
}

// GameService owns one game session per chat channel and drives each live
// round from a fixed tick.
type GameService struct {
	provider StatsProvider
	archive  RoundArchive
	cfg      round.Config
	size     int

	now      func() time.Time
	tick     time.Duration
	newRand  func() *rand.Rand
	mu       sync.RWMutex
	sessions map[string]*GameSession
}

func NewGameService(provider StatsProvider, archive RoundArchive, cfg round.Config, roundSize int) *GameService {
	return &GameService{
		provider: provider,
		archive:  archive,
		cfg:      cfg,
		size:     roundSize,
		now:      time.Now,
		tick:     time.Second,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		sessions: make(map[string]*GameSession),
	}
}

// NewGameServiceWithClock is test-only: it pins the wall clock, the tick
// interval and the random source.
func NewGameServiceWithClock(provider StatsProvider, archive RoundArchive, cfg round.Config, roundSize int, now func() time.Time, tick time.Duration, newRand func() *rand.Rand) *GameService {
	s := NewGameService(provider, archive, cfg, roundSize)
	s.now = now
	s.tick = tick
	s.newRand = newRand
	return s
}

// StartRound fetches the subject's data, generates the question set and arms
// the round for the channel. A running round must finish or be restarted
// before a new one starts.
func (s *GameService) StartRound(ctx context.Context, channel, username string) (domain.RoundSnapshot, error) {
	session := s.getOrCreate(channel)

	session.mu.Lock()
	if session.engine != nil {
		switch session.engine.Phase() {
		case domain.PhaseIdle, domain.PhaseFinished:
		default:
			session.mu.Unlock()
			return domain.RoundSnapshot{}, domain.ErrRoundInProgress
		}
	}
	session.mu.Unlock()

	profile, stats, err := s.provider.FetchProfile(ctx, username)
	if err != nil {
		return domain.RoundSnapshot{}, err
	}

	rnd := s.newRand()
	builder := trivia.NewBuilderWithClock(rnd, s.size, s.now)
	questions, err := builder.Build(profile, stats, profile.DisplayName)
	if err != nil {
		return domain.RoundSnapshot{}, err
	}

	engine := round.NewEngine(questions, s.cfg)
	engine.Start(s.now())

	session.mu.Lock()
	session.stopLoopLocked()
	session.engine = engine
	stop := make(chan struct{})
	session.stop = stop
	session.mu.Unlock()

	go s.runLoop(session, engine, username, stop)

	return s.broadcast(session, engine), nil
}

// runLoop advances the engine once per tick and fans the snapshot out, until
// the round finishes or the session is restarted.
func (s *GameService) runLoop(session *GameSession, engine *round.Engine, username string, stop <-chan struct{}) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			events := engine.Advance(s.now())
			s.broadcast(session, engine)
			for _, ev := range events {
				if ev == round.EventFinished {
					s.archiveRound(session.channel, username, engine)
					return
				}
			}
		}
	}
}

func (s *GameService) archiveRound(channel, username string, engine *round.Engine) {
	if s.archive == nil {
		return
	}
	standings := engine.Standings()
	result := domain.RoundResult{
		Channel:    channel,
		Username:   username,
		Questions:  engine.Snapshot(channel, leaderboardSize, s.now()).QuestionCount,
		Standings:  standings,
		FinishedAt: s.now(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.archive.SaveRound(ctx, result); err != nil {
		log.Printf("archive round for %s: %v", channel, err)
	}
}

// HandleChat feeds one chat message into the channel's round. Messages for
// unknown channels or outside an open phase are dropped silently.
func (s *GameService) HandleChat(channel, participant, text string) (awarded int, correct, accepted bool) {
	session, ok := s.get(channel)
	if !ok {
		return 0, false, false
	}
	session.mu.Lock()
	engine := session.engine
	session.mu.Unlock()
	if engine == nil {
		return 0, false, false
	}
	awarded, correct, accepted = engine.Submit(participant, text, s.now())
	if accepted {
		s.broadcast(session, engine)
	}
	return awarded, correct, accepted
}

// Restart tears the channel's round down: the tick loop stops and the engine
// returns to Idle with a cleared ledger before any new round can be armed.
func (s *GameService) Restart(channel string) error {
	session, ok := s.get(channel)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.mu.Lock()
	session.stopLoopLocked()
	engine := session.engine
	session.mu.Unlock()
	if engine != nil {
		engine.Restart()
		s.broadcast(session, engine)
	}
	return nil
}

// Snapshot returns the channel's current round state.
func (s *GameService) Snapshot(channel string) (domain.RoundSnapshot, error) {
	session, ok := s.get(channel)
	if !ok {
		return domain.RoundSnapshot{}, domain.ErrSessionNotFound
	}
	session.mu.Lock()
	engine := session.engine
	session.mu.Unlock()
	if engine == nil {
		return domain.RoundSnapshot{Channel: channel, Phase: domain.PhaseIdle}, nil
	}
	return engine.Snapshot(channel, leaderboardSize, s.now()), nil
}

// Subscribe returns a channel receiving snapshot updates for a chat channel.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(channel string) (<-chan domain.RoundSnapshot, func()) {
	session := s.getOrCreate(channel)
	return session.subscribe(s.currentSnapshot(session))
}

func (s *GameService) currentSnapshot(session *GameSession) domain.RoundSnapshot {
	session.mu.Lock()
	engine := session.engine
	session.mu.Unlock()
	if engine == nil {
		return domain.RoundSnapshot{Channel: session.channel, Phase: domain.PhaseIdle}
	}
	return engine.Snapshot(session.channel, leaderboardSize, s.now())
}

func (s *GameService) broadcast(session *GameSession, engine *round.Engine) domain.RoundSnapshot {
	snap := engine.Snapshot(session.channel, leaderboardSize, s.now())
	session.publish(snap)
	return snap
}

func (s *GameService) get(channel string) (*GameSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[channel]
	return session, ok
}

func (s *GameService) getOrCreate(channel string) *GameSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[channel]; ok {
		return session
	}
	session := &GameSession{
		channel:     channel,
		subscribers: make(map[chan domain.RoundSnapshot]struct{}),
	}
	s.sessions[channel] = session
	return session
}

// GameSession binds one chat channel to its round engine and snapshot
// subscribers.
type GameSession struct {
	channel string

	mu          sync.Mutex
	engine      *round.Engine
	stop        chan struct{}
	subscribers map[chan domain.RoundSnapshot]struct{}
}

func (gs *GameSession) stopLoopLocked() {
	if gs.stop != nil {
		close(gs.stop)
		gs.stop = nil
	}
}

func (gs *GameSession) subscribe(initial domain.RoundSnapshot) (<-chan domain.RoundSnapshot, func()) {
	ch := make(chan domain.RoundSnapshot, 8)

	gs.mu.Lock()
	gs.subscribers[ch] = struct{}{}
	gs.mu.Unlock()

	ch <- initial

	cancel := func() {
		gs.mu.Lock()
		if _, ok := gs.subscribers[ch]; ok {
			delete(gs.subscribers, ch)
			close(ch)
		}
		gs.mu.Unlock()
	}
	return ch, cancel
}

func (gs *GameSession) publish(snap domain.RoundSnapshot) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	for ch := range gs.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale update so a slow client never blocks the tick.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
