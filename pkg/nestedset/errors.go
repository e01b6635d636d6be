package nestedset

import (
	"errors"
)

var (
	// ErrDetachedNode is returned when an operation references a parent,
	// sibling, source or target the store does not know about yet.
	ErrDetachedNode = errors.New("node is not attached to the store")
	// ErrIllegalMove is returned when a subtree is asked to move below one
	// of its own descendants.
	ErrIllegalMove = errors.New("cannot move a node below one of its own descendants")
	// ErrMalformedShiftRange guards the internal shift primitive; it is not
	// reachable through the public operations.
	ErrMalformedShiftRange = errors.New("shift range must be bounded on at least one side")
)
