package errors

import "errors"

var (
	ErrUnknownTenant          = errors.New("unknown tenant")
	ErrInvalidPollInput       = errors.New("invalid poll input")
	ErrPollNotFound           = errors.New("poll not found")
	ErrBallotNotFound         = errors.New("ballot not found")
	ErrPollNotActive          = errors.New("poll is not active")
	ErrPollNotClosed          = errors.New("poll is not closed")
	ErrPollNotRevealed        = errors.New("poll is not revealed")
	ErrConflictingActivePoll  = errors.New("tenant already has an active poll")
	ErrInvalidOptionSelection = errors.New("invalid option selection")
	ErrNoAnswerKeyConfigured  = errors.New("poll has no answer key configured")
	ErrConflict               = errors.New("poll state conflict")
	ErrStorageUnavailable     = errors.New("poll storage unavailable")
)
