package sail

import (
	"errors"

	"github.com/aleksaelezovic/propsail/pkg/graph"
)

var (
	// ErrMalformedEncoding reports a corrupted canonical string in an edge
	// or vertex property.
	ErrMalformedEncoding = errors.New("malformed canonical encoding")

	// ErrInvalidPattern reports a configured indexed pattern that does not
	// match s?p?o?c? or is empty.
	ErrInvalidPattern = errors.New("invalid indexed pattern")

	// ErrIllegalValue reports a term of unknown variant at the boundary.
	ErrIllegalValue = errors.New("illegal term value")

	// ErrAmbiguousValue reports a non-vertex element found through the
	// values index, which indicates index corruption. When several vertices
	// match a value, the first one is used.
	ErrAmbiguousValue = errors.New("ambiguous value: multiple matching vertices")

	// ErrClosed reports use of a closed connection.
	ErrClosed = errors.New("connection is closed")

	// ErrConcurrentModification is the backing graph's best-effort detection
	// of mutation during iteration, surfaced unchanged.
	ErrConcurrentModification = graph.ErrConcurrentModification

	// ErrReservedPrefix reports a namespace prefix colliding with the
	// namespace vertex's own bookkeeping property.
	ErrReservedPrefix = errors.New("reserved namespace prefix")
)
