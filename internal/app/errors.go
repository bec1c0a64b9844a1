package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotEnded       = errors.New("session has not ended")
	ErrNotBeginner    = errors.New("only beginner sessions have candidates")
	ErrRecruited      = errors.New("session already recruited from")
	ErrNoArchive      = errors.New("archive disabled")
)
