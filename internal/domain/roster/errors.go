package roster

import "errors"

// Sentinel errors for pool lookups.
var (
	ErrSkaterNotFound = errors.New("skater not found")
	ErrDuplicateID    = errors.New("skater id already in pool")
)
