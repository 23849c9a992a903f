package window

import "errors"

// Domain errors for the window package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, window.ErrFieldUnresolved) {
//	    // handle configuration authoring bug
//	}
var (
	// ErrFieldUnresolved is returned when a required field is missing from
	// all three configuration layers. The global layer is contractually
	// complete, so this indicates a configuration authoring bug.
	ErrFieldUnresolved = errors.New("window: required field unresolved")

	// ErrInvalidValue is returned when a layer value cannot be converted
	// to the type the field requires.
	ErrInvalidValue = errors.New("window: invalid value")

	// ErrWindowNotFound is returned when a window ID does not exist.
	ErrWindowNotFound = errors.New("window: not found")

	// ErrWindowExists is returned when creating a window with an ID that already exists.
	ErrWindowExists = errors.New("window: already exists")

	// ErrGroupNotFound is returned when a referenced group does not exist.
	ErrGroupNotFound = errors.New("window: group not found")

	// ErrGroupExists is returned when creating a group with an ID that already exists.
	ErrGroupExists = errors.New("window: group already exists")

	// ErrInvalidName is returned when a window or group name is empty or too long.
	ErrInvalidName = errors.New("window: invalid name")

	// ErrGlobalMissing is returned when resolution is attempted without a
	// global layer.
	ErrGlobalMissing = errors.New("window: global layer is required")
)
