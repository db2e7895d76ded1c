package internal

import "errors"

var (
	// ErrInvalidArgument reports a parameter outside its documented domain.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupportedCapability reports a mode the graphics buffer cannot provide.
	ErrUnsupportedCapability = errors.New("unsupported capability")
	// ErrAllocationFailure reports a buffer or target that could not be created.
	ErrAllocationFailure = errors.New("allocation failure")
	// ErrInconsistentState reports an operation that is not valid in the current mode.
	ErrInconsistentState = errors.New("inconsistent state")
)
