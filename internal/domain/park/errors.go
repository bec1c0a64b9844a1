package park

import "errors"

// Sentinel error kinds for obstacle and layout loading.
var (
	ErrLoadObstacles = errors.New("load obstacles failed")
	ErrLoadLayout    = errors.New("load layout failed")
	ErrUnknownPiece  = errors.New("unknown piece")
	ErrBadCoordinate = errors.New("invalid coordinate")
	ErrGridSize      = errors.New("grid size out of range")
	ErrOutOfBounds   = errors.New("piece out of bounds")
	ErrOverlap       = errors.New("pieces overlap")
	ErrBadRoute      = errors.New("invalid route")
)
