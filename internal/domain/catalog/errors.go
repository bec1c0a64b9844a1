package catalog

import "errors"

// Sentinel error kinds for catalog construction and loading.
var (
	ErrUnknownSport   = errors.New("unknown sport")
	ErrBadPlacement   = errors.New("invalid placement")
	ErrInvalidNode    = errors.New("invalid catalog node")
	ErrDanglingLock   = errors.New("lock references unknown core")
	ErrLockCycle      = errors.New("lock cycle")
	ErrDuplicateNode  = errors.New("duplicate catalog node")
	ErrLoadCatalog    = errors.New("load catalog failed")
	ErrMissingVariant = errors.New("upgrade references unknown variant")
)
