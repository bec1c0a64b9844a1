package queue

import "errors"

// ErrClosed is returned by Submit once the batch has stopped accepting jobs.
var ErrClosed = errors.New("batch queue closed")
