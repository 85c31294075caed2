package keyscan

import "errors"

var (
	// ErrInvalidRange indicates start > end, start < 1 or a missing bound.
	ErrInvalidRange = errors.New("invalid range")

	// ErrMalformedTarget indicates a target that cannot be produced by the
	// configured identifier format.
	ErrMalformedTarget = errors.New("malformed target")

	// ErrInvalidInput indicates a filter input that is not a hex string of
	// the expected width. It is distinct from a rule rejection.
	ErrInvalidInput = errors.New("invalid filter input")

	// ErrKeyOutOfRange indicates a candidate outside [1, n-1] for the curve order n.
	ErrKeyOutOfRange = errors.New("key outside curve order")

	// ErrInvalidStrategy indicates an unknown enumeration strategy name.
	ErrInvalidStrategy = errors.New("invalid strategy")

	// ErrInvalidPosition indicates a cursor that does not belong to the
	// enumerator it is restored into.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrInvalidStep indicates a uniform step outside (0, 100].
	ErrInvalidStep = errors.New("invalid step percent")

	// ErrInvalidPolicy indicates an unknown match policy or a bad prefix length.
	ErrInvalidPolicy = errors.New("invalid match policy")
)
