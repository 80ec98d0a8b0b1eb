package trivia

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"stream-trivia-service/internal/domain"
)

// Threshold guards keeping questions meaningful. All guards compare strictly:
// a format with exactly minSampleGames games gets no rate questions.
const (
	minSampleGames   = 20
	minRatingGap     = 30
	minTacticsSpread = 100
)

var titlePool = []string{"GM", "IM", "FM", "CM", "WGM", "WIM", "WFM", "NM"}

var leaguePool = []string{"Wood", "Stone", "Bronze", "Silver", "Crystal", "Elite", "Champion", "Legend"}

// Builder derives a round's worth of questions from a profile and its stats.
type Builder struct {
	gen       *Generator
	rnd       *rand.Rand
	roundSize int
	now       func() time.Time
}

func NewBuilder(rnd *rand.Rand, roundSize int) *Builder {
	return &Builder{
		gen:       NewGenerator(rnd),
		rnd:       rnd,
		roundSize: roundSize,
		now:       time.Now,
	}
}

// NewBuilderWithClock pins the wall clock for deterministic join-date math.
func NewBuilderWithClock(rnd *rand.Rand, roundSize int, now func() time.Time) *Builder {
	b := NewBuilder(rnd, roundSize)
	b.now = now
	return b
}

type namedFormat struct {
	name  string
	stats *domain.FormatStats
}

// Build runs every question rule against the profile, shuffles the survivors
// and truncates to the round size. Sparse profiles yield shorter rounds; a
// profile that fires no rule at all is an error.
func (b *Builder) Build(profile domain.Profile, stats domain.StatRecord, displayName string) ([]domain.Question, error) {
	if displayName == "" {
		displayName = profile.Username
	}

	var questions []domain.Question
	emit := func(q domain.Question, ok bool) {
		if ok {
			questions = append(questions, q)
		}
	}

	formats := []namedFormat{
		{"bullet", stats.Bullet},
		{"blitz", stats.Blitz},
		{"rapid", stats.Rapid},
		{"daily", stats.Daily},
	}

	for _, f := range formats {
		if f.stats == nil {
			continue
		}
		if f.stats.CurrentRating > 0 {
			emit(b.ratingQuestion(
				fmt.Sprintf("What is %s's current %s rating?", displayName, f.name),
				f.stats.CurrentRating, 0), true)
		}
		rec := f.stats.Record
		if rec != nil && rec.Total() > minSampleGames {
			emit(b.countQuestion(
				fmt.Sprintf("How many %s games has %s played in total?", f.name, displayName),
				rec.Total()), true)
			winRate := roundedRate(rec.Wins, rec.Total())
			emit(b.percentQuestion(
				fmt.Sprintf("What percentage of %s games does %s win?", f.name, displayName),
				winRate), true)
		}
	}

	// Peak ratings only make a question when visibly above today's rating.
	for _, f := range []namedFormat{{"bullet", stats.Bullet}, {"blitz", stats.Blitz}} {
		if f.stats == nil || f.stats.BestRating == nil {
			continue
		}
		if *f.stats.BestRating-f.stats.CurrentRating > minRatingGap {
			emit(b.ratingQuestion(
				fmt.Sprintf("What is %s's highest ever %s rating?", displayName, f.name),
				*f.stats.BestRating, 0), true)
		}
	}

	if busiest := busiestFormat(formats); busiest != nil {
		rec := busiest.stats.Record
		emit(b.percentQuestion(
			fmt.Sprintf("What percentage of %s's %s games end in a draw?", displayName, busiest.name),
			roundedRate(rec.Draws, rec.Total())), true)
		emit(b.countQuestion(
			fmt.Sprintf("How many %s games has %s won?", busiest.name, displayName),
			rec.Wins), true)
		emit(b.countQuestion(
			fmt.Sprintf("How many %s games has %s lost?", busiest.name, displayName),
			rec.Losses), true)
	}

	if total := combinedWins(formats); total > 0 {
		emit(b.countQuestion(
			fmt.Sprintf("How many games has %s won across all time controls?", displayName),
			total), true)
	}

	if stats.Bullet != nil && stats.Blitz != nil {
		gap := stats.Bullet.CurrentRating - stats.Blitz.CurrentRating
		if gap > minRatingGap || gap < -minRatingGap {
			higher := "bullet"
			if gap < 0 {
				higher = "blitz"
			}
			options, correct := b.gen.ShuffleWithCorrect(higher, []string{otherOf(higher)})
			emit(domain.Question{
				Prompt:       fmt.Sprintf("In which time control does %s have the higher rating?", displayName),
				Options:      options,
				CorrectIndex: correct,
			}, true)
		}
	}

	if stats.Tactics != nil && stats.Tactics.Highest > 0 {
		emit(b.ratingQuestion(
			fmt.Sprintf("What is %s's highest puzzle rating?", displayName),
			stats.Tactics.Highest, 0), true)
		if stats.Tactics.Highest-stats.Tactics.Lowest > minTacticsSpread {
			emit(b.ratingQuestion(
				fmt.Sprintf("What is the lowest puzzle rating %s has ever had?", displayName),
				stats.Tactics.Lowest, 0), true)
		}
	}

	if stats.PuzzleRushBest != nil && *stats.PuzzleRushBest > 0 {
		emit(b.ratingQuestion(
			fmt.Sprintf("What is %s's best Puzzle Rush score?", displayName),
			*stats.PuzzleRushBest, 10), true)
	}

	if stats.FIDERating != nil && *stats.FIDERating > 0 {
		emit(b.ratingQuestion(
			fmt.Sprintf("What is %s's FIDE rating?", displayName),
			*stats.FIDERating, 0), true)
	}

	if profile.Followers > 0 {
		emit(b.countQuestion(
			fmt.Sprintf("How many followers does %s have?", displayName),
			profile.Followers), true)
	}

	if profile.JoinedAt > 0 {
		joined := time.Unix(profile.JoinedAt, 0).UTC()
		emit(b.ratingQuestion(
			fmt.Sprintf("In which year did %s join the site?", displayName),
			joined.Year(), 4), true)
		years := int(b.now().UTC().Sub(joined).Hours() / 24 / 365)
		if years >= 1 {
			emit(b.ratingQuestion(
				fmt.Sprintf("For how many years has %s been on the site?", displayName),
				years, 4), true)
		}
	}

	if profile.CountryCode != "" {
		correct := CountryName(profile.CountryCode)
		wrongs := b.gen.PickStrings(countryPool(), correct, 3)
		emit(b.choiceQuestion(
			fmt.Sprintf("Which country is %s from?", displayName),
			correct, wrongs), len(wrongs) >= 1)
	}

	if profile.Title != "" {
		wrongs := b.gen.PickStrings(titlePool, profile.Title, 3)
		emit(b.choiceQuestion(
			fmt.Sprintf("Which title does %s hold?", displayName),
			profile.Title, wrongs), len(wrongs) >= 1)
	}

	if profile.League != "" {
		wrongs := b.gen.PickStrings(leaguePool, profile.League, 3)
		emit(b.choiceQuestion(
			fmt.Sprintf("Which league is %s currently in?", displayName),
			profile.League, wrongs), len(wrongs) >= 1)
	}

	{
		correct := "No"
		if profile.IsStreamer {
			correct = "Yes"
		}
		options, idx := b.gen.ShuffleWithCorrect(correct, []string{otherYesNo(correct)})
		emit(domain.Question{
			Prompt:       fmt.Sprintf("Is %s a verified streamer?", displayName),
			Options:      options,
			CorrectIndex: idx,
		}, true)
	}

	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}

	b.rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	if len(questions) > b.roundSize {
		questions = questions[:b.roundSize]
	}
	for i := range questions {
		questions[i].ID = i + 1
	}
	return questions, nil
}

func (b *Builder) ratingQuestion(prompt string, correct, variance int) domain.Question {
	wrongs := b.gen.NumericDistractors(correct, 3, variance)
	strs := make([]string, len(wrongs))
	for i, w := range wrongs {
		strs[i] = strconv.Itoa(w)
	}
	options, idx := b.gen.ShuffleWithCorrect(strconv.Itoa(correct), strs)
	return domain.Question{Prompt: prompt, Options: options, CorrectIndex: idx}
}

// countQuestion keeps the correct answer and distractors in the same
// abbreviated magnitude format so the formatting itself gives nothing away.
func (b *Builder) countQuestion(prompt string, correct int) domain.Question {
	wrongs := b.gen.NumericDistractors(correct, 3, 0)
	seen := map[string]bool{FormatCount(correct): true}
	strs := make([]string, 0, len(wrongs))
	for _, w := range wrongs {
		s := FormatCount(w)
		// Abbreviation can collapse distinct integers (e.g. 1049 and 1051
		// both print "1k"); probe upward until the label is unique.
		for seen[s] {
			w += maxInt(w/10, 1)
			s = FormatCount(w)
		}
		seen[s] = true
		strs = append(strs, s)
	}
	options, idx := b.gen.ShuffleWithCorrect(FormatCount(correct), strs)
	return domain.Question{Prompt: prompt, Options: options, CorrectIndex: idx}
}

func (b *Builder) percentQuestion(prompt string, correct int) domain.Question {
	wrongs := b.gen.PercentDistractors(correct, 3)
	strs := make([]string, len(wrongs))
	for i, w := range wrongs {
		strs[i] = strconv.Itoa(w) + "%"
	}
	options, idx := b.gen.ShuffleWithCorrect(strconv.Itoa(correct)+"%", strs)
	return domain.Question{Prompt: prompt, Options: options, CorrectIndex: idx}
}

func (b *Builder) choiceQuestion(prompt, correct string, wrongs []string) domain.Question {
	options, idx := b.gen.ShuffleWithCorrect(correct, wrongs)
	return domain.Question{Prompt: prompt, Options: options, CorrectIndex: idx}
}

func roundedRate(part, total int) int {
	return int(float64(part)/float64(total)*100 + 0.5)
}

// busiestFormat picks the format with the most recorded games, provided it
// clears the sample-size guard.
func busiestFormat(formats []namedFormat) *namedFormat {
	var best *namedFormat
	bestTotal := minSampleGames
	for i := range formats {
		f := &formats[i]
		if f.stats == nil || f.stats.Record == nil {
			continue
		}
		if total := f.stats.Record.Total(); total > bestTotal {
			best = f
			bestTotal = total
		}
	}
	return best
}

func combinedWins(formats []namedFormat) int {
	total := 0
	for _, f := range formats {
		if f.stats != nil && f.stats.Record != nil {
			total += f.stats.Record.Wins
		}
	}
	return total
}

func otherOf(format string) string {
	if format == "bullet" {
		return "blitz"
	}
	return "bullet"
}

func otherYesNo(s string) string {
	if s == "Yes" {
		return "No"
	}
	return "Yes"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
