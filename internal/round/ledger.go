package round

import (
	"sort"

	"stream-trivia-service/internal/domain"
)

// Ledger tracks cumulative score and streak per participant. It is not
// goroutine-safe on its own; the engine serializes access under its own lock.
type Ledger struct {
	entries map[string]*ledgerEntry
	order   []string
}

type ledgerEntry struct {
	score  int
	streak int
	seq    int
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]*ledgerEntry)}
}

func (l *Ledger) get(participant string) *ledgerEntry {
	entry, ok := l.entries[participant]
	if !ok {
		entry = &ledgerEntry{seq: len(l.order)}
		l.entries[participant] = entry
		l.order = append(l.order, participant)
	}
	return entry
}

// Award adds points and replaces the streak counter. Points are never
// negative, so scores only move up.
func (l *Ledger) Award(participant string, points, streak int) (total int) {
	entry := l.get(participant)
	if points > 0 {
		entry.score += points
	}
	entry.streak = streak
	return entry.score
}

// Streak reports the current streak for a participant, zero if unknown.
func (l *Ledger) Streak(participant string) int {
	if entry, ok := l.entries[participant]; ok {
		return entry.streak
	}
	return 0
}

// BreakIdleStreaks clears the streak of every participant not in answered.
// Called at the Open→Reveal transition; scores are untouched.
func (l *Ledger) BreakIdleStreaks(answered map[string]bool) {
	for participant, entry := range l.entries {
		if entry.streak > 0 && !answered[participant] {
			entry.streak = 0
		}
	}
}

// Rank returns all entries ordered by score descending. Ties keep first-seen
// order so the ranking is deterministic.
func (l *Ledger) Rank() []domain.ScoreEntry {
	ranked := make([]domain.ScoreEntry, 0, len(l.order))
	for _, participant := range l.order {
		entry := l.entries[participant]
		ranked = append(ranked, domain.ScoreEntry{
			Participant: participant,
			Score:       entry.score,
			Streak:      entry.streak,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Top truncates Rank to at most n entries.
func (l *Ledger) Top(n int) []domain.ScoreEntry {
	ranked := l.Rank()
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Len reports how many participants have appeared this round.
func (l *Ledger) Len() int {
	return len(l.order)
}
