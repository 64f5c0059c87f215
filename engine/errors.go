package engine

import "errors"

var (
	ErrMissingContext = errors.New("unknown or already consumed trade context")
	ErrNoSnapshot     = errors.New("no market snapshot for pool")
	ErrInvalidParams  = errors.New("invalid engine parameters")
)
