package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound        = errors.New("skater not on leaderboard")
	ErrInvalidLimit    = errors.New("invalid leaderboard limit")
	ErrInvalidPoints   = errors.New("points must not be negative")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session id already registered")
	ErrStoreFull       = errors.New("session store is full")
	ErrArchive         = errors.New("archive failed")
)
