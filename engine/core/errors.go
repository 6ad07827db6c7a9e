package core

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is the root of every limit violation. Callers decide
	// whether to drop the primitive or end the frame.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	ErrVertexLimit    = fmt.Errorf("%w: vertex limit", ErrCapacityExceeded)
	ErrIndexLimit     = fmt.Errorf("%w: index limit", ErrCapacityExceeded)
	ErrGroupLimit     = fmt.Errorf("%w: filter group geometry limit", ErrCapacityExceeded)
	ErrGeomInfoLimit  = fmt.Errorf("%w: geometry info limit", ErrCapacityExceeded)
	ErrTransformLimit = fmt.Errorf("%w: transform limit", ErrCapacityExceeded)

	ErrInvalidPrimitive = errors.New("invalid primitive")
	ErrBufferNotMapped  = errors.New("buffer is not host visible or not mapped")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrUnknown          = errors.New("unknown")
)
