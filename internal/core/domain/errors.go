package domain

import "errors"

var (
	ErrMissingField   = errors.New("missing required field")
	ErrPartialQuality = errors.New("framesPerSecond and frameResolution must be reported together")
	ErrShortFrame     = errors.New("frame shorter than header")
	ErrNoFields       = errors.New("point has no fields")
	ErrStreamClosed   = errors.New("stream closed")
)
