package update

import "errors"

var (
	// ErrValidation is returned for malformed call arguments.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidPath is returned when path traversal hits an array with a
	// non numeric segment, or $rename crosses an array boundary.
	ErrInvalidPath = errors.New("invalid path")
	// ErrMissingField is returned when an operator that never creates
	// fields targets an absent path.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidModifier is returned for operator argument violations,
	// unknown operator names, and mixed update specifications outside of
	// mongo compatible mode.
	ErrInvalidModifier = errors.New("invalid modifier")
	// ErrUnsupportedModifier is returned for recognized but unsupported
	// operators.
	ErrUnsupportedModifier = errors.New("unsupported modifier")
	// ErrMixedUpdate is returned when an update specification mixes
	// replacement fields and operators.
	ErrMixedUpdate = errors.New("update cannot mix fields and operators")
)
