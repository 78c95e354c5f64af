package settings

import "errors"

var (
	// ErrUnknownMode indicates a mode string outside of development and production
	ErrUnknownMode = errors.New("unknown environment mode")
	// ErrInvalidSettings indicates a settings record missing required values
	ErrInvalidSettings = errors.New("invalid settings")
)
