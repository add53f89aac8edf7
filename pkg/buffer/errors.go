package buffer

import "errors"

// Sentinel errors for the buffer's recoverable failure surface: every
// one of these leaves the buffer's state unchanged.
var (
	// ErrInvalidRange is returned by Edit when a range's endpoints are
	// out of bounds, a range end is strictly less than its start, or two
	// ranges in the same call overlap.
	ErrInvalidRange = errors.New("buffer: invalid edit range")

	// ErrOffsetOutOfRange is returned by AnchorBefore/AnchorAfter when pos
	// is outside [0, len(text)].
	ErrOffsetOutOfRange = errors.New("buffer: offset out of range")

	// ErrUnknownInsertion is returned by ToOffset/ToPoint when an anchor
	// names an insertion this replica has never observed.
	ErrUnknownInsertion = errors.New("buffer: anchor predates this replica's knowledge")

	// ErrUnknownSelectionSet is returned by UpdateSelectionSet and
	// RemoveSelectionSet when the set id is not recognized.
	ErrUnknownSelectionSet = errors.New("buffer: unknown selection set")

	// ErrNoOpenTransaction is returned by EndTransaction when called
	// without a matching StartTransaction.
	ErrNoOpenTransaction = errors.New("buffer: no open transaction")
)

// BufferError is the typed error surface for failures that need to carry
// extra context (e.g. which offset, which edit id) beyond a sentinel.
// It wraps the sentinel kind via Unwrap so callers can still use
// errors.Is(err, ErrOffsetOutOfRange) and similar.
type BufferError struct {
	Kind    error
	Message string
}

func (e *BufferError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *BufferError) Unwrap() error {
	return e.Kind
}

func newError(kind error, msg string) *BufferError {
	return &BufferError{Kind: kind, Message: msg}
}
