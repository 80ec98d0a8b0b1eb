package app_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"stream-trivia-service/internal/app"
	"stream-trivia-service/internal/domain"
	"stream-trivia-service/internal/infra/memory"
	"stream-trivia-service/internal/round"
)

func testProvider() app.StatsProvider {
	return memory.NewStaticProfileLoader(
		map[string]domain.Profile{
			"streamer": {Username: "streamer", DisplayName: "Streamer", IsStreamer: true},
		},
		map[string]domain.StatRecord{},
	)
}

func fastConfig() round.Config {
	cfg := round.DefaultConfig()
	cfg.Countdown = 0
	cfg.Preview = 30 * time.Millisecond
	cfg.Open = 500 * time.Millisecond
	cfg.Reveal = 30 * time.Millisecond
	return cfg
}

func newTestService(archive app.RoundArchive) *app.GameService {
	return app.NewGameServiceWithClock(testProvider(), archive, fastConfig(), 15,
		time.Now, 5*time.Millisecond,
		func() *rand.Rand { return rand.New(rand.NewSource(42)) })
}

type recordingArchive struct {
	mu      sync.Mutex
	results []domain.RoundResult
}

func (a *recordingArchive) SaveRound(_ context.Context, result domain.RoundResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, result)
	return nil
}

func (a *recordingArchive) last() (domain.RoundResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.results) == 0 {
		return domain.RoundResult{}, false
	}
	return a.results[len(a.results)-1], true
}

func TestStartRoundUnknownProfile(t *testing.T) {
	service := newTestService(nil)
	_, err := service.StartRound(context.Background(), "chan", "nobody")
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestStartRoundRejectsConcurrentRound(t *testing.T) {
	service := newTestService(nil)
	if _, err := service.StartRound(context.Background(), "chan", "streamer"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.StartRound(context.Background(), "chan", "streamer"); !errors.Is(err, domain.ErrRoundInProgress) {
		t.Fatalf("expected ErrRoundInProgress, got %v", err)
	}
}

func TestRoundFlowScoresAndArchives(t *testing.T) {
	archive := &recordingArchive{}
	service := newTestService(archive)

	snap, err := service.StartRound(context.Background(), "chan", "streamer")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Phase != domain.PhasePreview || snap.QuestionCount != 1 {
		t.Fatalf("unexpected start snapshot: %+v", snap)
	}

	// Wait for the open phase, then answer with the revealed correct option.
	open := waitForPhase(t, service, "chan", domain.PhaseOpen)
	answer := commandFor(t, open.CurrentQuestion.Options, "Yes")
	awarded, correct, accepted := service.HandleChat("chan", "Viewer1", answer)
	if !accepted || !correct || awarded <= 0 {
		t.Fatalf("chat answer: awarded=%d correct=%v accepted=%v", awarded, correct, accepted)
	}

	waitForPhase(t, service, "chan", domain.PhaseFinished)

	// The archive write happens right after the finish event; give it a beat.
	var result domain.RoundResult
	var ok bool
	for deadline := time.Now().Add(time.Second); time.Now().Before(deadline); {
		if result, ok = archive.last(); ok {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if !ok {
		t.Fatalf("round never archived")
	}
	if result.Channel != "chan" || result.Username != "streamer" || result.Questions != 1 {
		t.Fatalf("unexpected archive row: %+v", result)
	}
	if len(result.Standings) != 1 || result.Standings[0].Participant != "viewer1" || result.Standings[0].Score != awarded {
		t.Fatalf("unexpected standings: %+v", result.Standings)
	}
}

func TestHandleChatUnknownChannel(t *testing.T) {
	service := newTestService(nil)
	if _, _, accepted := service.HandleChat("ghost", "viewer", "!a"); accepted {
		t.Fatalf("chat for unknown channel accepted")
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	service := newTestService(nil)

	updates, cancel := service.Subscribe("chan")
	defer cancel()
	initial := <-updates
	if initial.Phase != domain.PhaseIdle {
		t.Fatalf("expected idle initial snapshot, got %+v", initial)
	}

	if _, err := service.StartRound(context.Background(), "chan", "streamer"); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-updates:
			if snap.Phase != domain.PhaseIdle {
				return // round is visibly running
			}
		case <-deadline:
			t.Fatalf("no snapshot updates after start")
		}
	}
}

func TestRestartStopsRound(t *testing.T) {
	service := newTestService(nil)
	if err := service.Restart("ghost"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	if _, err := service.StartRound(context.Background(), "chan", "streamer"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := service.Restart("chan"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	snap, err := service.Snapshot("chan")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Phase != domain.PhaseIdle || len(snap.Leaderboard) != 0 {
		t.Fatalf("restart left state behind: %+v", snap)
	}
	// A restarted channel accepts a fresh round immediately.
	if _, err := service.StartRound(context.Background(), "chan", "streamer"); err != nil {
		t.Fatalf("start after restart: %v", err)
	}
}

func waitForPhase(t *testing.T, service *app.GameService, channel string, phase domain.Phase) domain.RoundSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := service.Snapshot(channel)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if snap.Phase == phase {
			return snap
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("phase %s never reached", phase)
	return domain.RoundSnapshot{}
}

func commandFor(t *testing.T, options []string, want string) string {
	t.Helper()
	commands := []string{"!a", "!b", "!c", "!d"}
	for i, opt := range options {
		if opt == want {
			return commands[i]
		}
	}
	t.Fatalf("option %q not in %v", want, options)
	return ""
}
