package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid skatepark config")
	// ErrLoadConfig wraps file, env and decode failures.
	ErrLoadConfig = errors.New("loading skatepark config")
)
