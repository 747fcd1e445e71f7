package directory

import "errors"

var (
	// ErrNotFound indicates the lookup/update/remove target is absent. It is
	// returned, never fatal.
	ErrNotFound = errors.New("player not found")

	// ErrInvalidView indicates an unknown view selector.
	ErrInvalidView = errors.New("invalid view")

	// ErrInvalidMatchMode indicates an unknown name match mode.
	ErrInvalidMatchMode = errors.New("invalid match mode")

	// ErrInconsistentState indicates a multi-step operation found the
	// directory in a state it cannot safely proceed from (e.g. a merge
	// target disappeared mid-protocol).
	ErrInconsistentState = errors.New("inconsistent directory state")
)
