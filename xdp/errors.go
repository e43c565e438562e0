package xdp

import (
	"errors"
)

// ErrNoRunConfig is returned when a program carries no embedded run config.
var ErrNoRunConfig = errors.New("Program has no run config")

// ErrMalformedConfig is returned when the embedded run config doesn't match
// the expected shape.
var ErrMalformedConfig = errors.New("Malformed run config")

// ErrProgramNotFound is returned when the requested program isn't present in
// the object.
var ErrProgramNotFound = errors.New("Program not found in object")

// ErrAlreadyLoaded is returned when loading a program that is already loaded.
var ErrAlreadyLoaded = errors.New("Program is already loaded")

// ErrNoObject is returned when loading a program that has no backing object.
var ErrNoObject = errors.New("Program has no object to load")

// ErrEmptyChain is returned when attaching an empty program list.
var ErrEmptyChain = errors.New("No programs to attach")

// ErrChainTooLong is returned when the program list exceeds the dispatcher
// slot count.
var ErrChainTooLong = errors.New("Too many programs for one dispatcher")

// ErrNotAttached is returned when pinning a program that was never attached
// to a dispatcher slot.
var ErrNotAttached = errors.New("Program is not attached to a dispatcher")

// ErrNoProgramAttached is returned when querying an interface with no XDP
// program installed.
var ErrNoProgramAttached = errors.New("No XDP program attached to interface")

// ErrNotSupported is returned for operations pending kernel support.
var ErrNotSupported = errors.New("Operation not supported")
