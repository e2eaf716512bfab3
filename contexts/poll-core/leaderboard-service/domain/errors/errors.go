package errors

import "errors"

var (
	ErrInvalidInput  = errors.New("leaderboard: invalid input")
	ErrScoreNotFound = errors.New("leaderboard: score not found")
)
