package round

import "strings"

// answerCommands maps accepted chat commands to option indexes. The bang
// forms are the canonical command set; bare letters and digits are the
// extended aliases regular chatters reach for.
var answerCommands = map[string]int{
	"!a": 0, "!b": 1, "!c": 2, "!d": 3,
	"a": 0, "b": 1, "c": 2, "d": 3,
	"!1": 0, "!2": 1, "!3": 2, "!4": 3,
	"1": 0, "2": 1, "3": 2, "4": 3,
}

// ParseAnswer maps raw chat text to an option index. Chat is noisy, so
// anything unrecognized simply reports no match rather than an error.
func ParseAnswer(raw string) (int, bool) {
	idx, ok := answerCommands[strings.ToLower(strings.TrimSpace(raw))]
	return idx, ok
}
