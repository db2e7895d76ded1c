package raster

// Continuation is the view of a running render callstack that compositors draw through.
type Continuation interface {
	// Target is the buffer set the remaining passes draw into.
	Target() *Target
	// SetTarget redirects the remaining passes and returns the previous target.
	SetTarget(t *Target) *Target
	// State is the mutable pipeline state of the remaining passes.
	State() *State
	// CallNextRenderer runs the remainder of the callstack once.
	CallNextRenderer() error
}
