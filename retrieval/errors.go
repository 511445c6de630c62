package retrieval

import "errors"

// ErrNoCandidates reports that neither retrieval leg produced a usable
// hit for the query. Callers treat it as an empty result, not a failure.
var ErrNoCandidates = errors.New("no retrieval candidates")
