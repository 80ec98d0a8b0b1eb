package domain

import "errors"

var (
	// ErrProfileNotFound is returned when the upstream provider has no such user.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrFetchFailed indicates a transport failure talking to the provider.
	ErrFetchFailed = errors.New("profile data fetch failed")
	// ErrNoQuestions indicates the profile was too sparse to generate a round.
	ErrNoQuestions = errors.New("not enough data to generate questions")
	// ErrSessionNotFound is returned when a channel has no active game session.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrRoundInProgress is returned when a start request hits a running round.
	ErrRoundInProgress = errors.New("round already in progress")
)
