package session

import "errors"

// Sentinel errors for state machine misuse.
var (
	ErrNotStarted      = errors.New("session not started")
	ErrSessionEnded    = errors.New("session ended")
	ErrTickRunning     = errors.New("tick already running")
	ErrUnknownKind     = errors.New("unknown session kind")
	ErrDuplicateSkater = errors.New("skater entered twice")
)
