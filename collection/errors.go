package collection

import "errors"

var (
	// ErrInvalidName is returned for collection names that break the
	// naming rules.
	ErrInvalidName = errors.New("invalid collection name")
	// ErrAmbiguousRestore is returned when several snapshots exist and
	// none was specified.
	ErrAmbiguousRestore = errors.New("more than one snapshot exists")
	// ErrUnknownBackup is returned when a snapshot id has no stored
	// snapshot.
	ErrUnknownBackup = errors.New("unknown snapshot")
)
