package pipeline

import "errors"

// ErrGeneration marks a failed answer generation. It is the only stage
// failure Process surfaces to the caller; every other stage degrades to a
// fallback instead.
var ErrGeneration = errors.New("answer generation failed")
