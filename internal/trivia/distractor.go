package trivia

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Generator produces plausible wrong answers around a correct value. The
// random source is injected so tests can pin the permutations.
type Generator struct {
	rnd *rand.Rand
}

func NewGenerator(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

// maxSampleTries bounds the rejection loop before deterministic fill kicks in.
const maxSampleTries = 64

// NumericDistractors returns count distinct positive integers near correct,
// none equal to it. variance <= 0 selects the default spread of 30% of the
// correct value, floored at 50.
func (g *Generator) NumericDistractors(correct, count, variance int) []int {
	if variance <= 0 {
		variance = correct * 3 / 10
		if variance < 50 {
			variance = 50
		}
	}

	chosen := make([]int, 0, count)
	seen := map[int]bool{correct: true}
	for tries := 0; len(chosen) < count && tries < maxSampleTries; tries++ {
		candidate := correct + g.rnd.Intn(2*variance+1) - variance
		if candidate <= 0 || seen[candidate] {
			continue
		}
		seen[candidate] = true
		chosen = append(chosen, candidate)
	}
	// Deterministic fill so the loop cannot spin on tiny variances.
	for k := 1; len(chosen) < count; k++ {
		candidate := correct + k
		if !seen[candidate] {
			seen[candidate] = true
			chosen = append(chosen, candidate)
		}
	}
	return chosen
}

// PercentDistractors is NumericDistractors for percentage answers: candidates
// are clamped into [1,99] and the fill path probes outward from correct.
func (g *Generator) PercentDistractors(correct, count int) []int {
	chosen := make([]int, 0, count)
	seen := map[int]bool{correct: true}
	for tries := 0; len(chosen) < count && tries < maxSampleTries; tries++ {
		candidate := correct + g.rnd.Intn(41) - 20
		if candidate < 1 {
			candidate = 1
		} else if candidate > 99 {
			candidate = 99
		}
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		chosen = append(chosen, candidate)
	}
	for k := 1; len(chosen) < count; k++ {
		candidate := clampPercent(correct + 10*k)
		for seen[candidate] {
			candidate = clampPercent(candidate - 1)
		}
		seen[candidate] = true
		chosen = append(chosen, candidate)
	}
	return chosen
}

func clampPercent(n int) int {
	if n < 1 {
		return 1
	}
	if n > 99 {
		return 99
	}
	return n
}

// ShuffleWithCorrect permutes correct plus wrongs uniformly and reports where
// the correct value landed.
func (g *Generator) ShuffleWithCorrect(correct string, wrongs []string) ([]string, int) {
	options := make([]string, 0, len(wrongs)+1)
	options = append(options, correct)
	options = append(options, wrongs...)
	g.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	for i, opt := range options {
		if opt == correct {
			return options, i
		}
	}
	return options, 0 // unreachable: correct is always present
}

// PickStrings samples n values from pool, excluding the correct answer and
// never repeating a pick.
func (g *Generator) PickStrings(pool []string, exclude string, n int) []string {
	candidates := make([]string, 0, len(pool))
	for _, s := range pool {
		if !strings.EqualFold(s, exclude) {
			candidates = append(candidates, s)
		}
	}
	g.rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}

// FormatCount abbreviates large counts: 1,234,567 -> "1.2M", 5,400 -> "5.4k",
// 3,000 -> "3k", 812 -> "812".
func FormatCount(n int) string {
	format := func(value float64, suffix string) string {
		s := fmt.Sprintf("%.1f", value)
		s = strings.TrimSuffix(s, ".0")
		return s + suffix
	}
	switch {
	case n >= 1_000_000:
		return format(float64(n)/1_000_000, "M")
	case n >= 1_000:
		return format(float64(n)/1_000, "k")
	default:
		return strconv.Itoa(n)
	}
}
