package pathway

import "errors"

// Error taxonomy for traversal requests. Callers classify failures with
// errors.Is; every error returned by Engine.Traverse wraps exactly one of
// these sentinels.
var (
	// ErrNotFound reports a source node id absent from the graph.
	ErrNotFound = errors.New("source node not found")
	// ErrInvalidRequest reports a malformed hop bound, unknown relationship
	// type, or otherwise unusable request.
	ErrInvalidRequest = errors.New("invalid traversal request")
	// ErrAccessorFailure reports an unreachable or failing graph backend,
	// after the single retry has been exhausted.
	ErrAccessorFailure = errors.New("graph accessor failure")
	// ErrTimeout reports that the wall-clock cap elapsed before the
	// traversal completed.
	ErrTimeout = errors.New("traversal timed out")
)
