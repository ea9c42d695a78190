package graphpass

import "github.com/pkg/errors"

// The three failure families of a pass run. All are fatal for the module in
// progress: the pass never downgrades one to a default value. Callers can
// classify a failure with errors.Is.
var (
	// ErrUnsupportedEncoding marks a constant the decoder cannot represent:
	// an integer width outside {8,16,32,64}, a float width outside {16,32,64},
	// or a constant kind with no decoding.
	ErrUnsupportedEncoding = errors.New("unsupported constant encoding")

	// ErrMalformedModule marks a module that violates the graph extension's
	// contract: missing decorations, interface mismatches, a null tensor
	// constant of rank != 1.
	ErrMalformedModule = errors.New("malformed module")

	// ErrUnsupportedTarget marks a resolved element type the backend has no
	// format for.
	ErrUnsupportedTarget = errors.New("unsupported target element type")
)
