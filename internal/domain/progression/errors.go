package progression

import "errors"

// Sentinel errors.
var (
	ErrUnknownTier    = errors.New("unknown tier")
	ErrUnknownSport   = errors.New("sport not in catalog")
	ErrInvalidLibrary = errors.New("library violates catalog invariants")
)
