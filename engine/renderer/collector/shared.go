package collector

import (
	"sync/atomic"

	"github.com/spaghettifunk/rtgeom/engine/renderer/gpu"
)

/**
 * @brief Device local buffer owned by one or more collectors. The last
 * collector to release it destroys it.
 */
type sharedBuffer struct {
	gpu.Buffer
	refs atomic.Int32
}

func newSharedBuffer(b gpu.Buffer) *sharedBuffer {
	s := &sharedBuffer{Buffer: b}
	s.refs.Store(1)
	return s
}

func (s *sharedBuffer) acquire() *sharedBuffer {
	if s.refs.Add(1) <= 1 {
		panic("collector: acquiring a released device buffer")
	}
	return s
}

// release returns true if this call destroyed the buffer.
func (s *sharedBuffer) release() bool {
	switch n := s.refs.Add(-1); {
	case n == 0:
		s.Buffer.Destroy()
		return true
	case n < 0:
		panic("collector: device buffer released twice")
	}
	return false
}

func (s *sharedBuffer) owners() int32 {
	return s.refs.Load()
}
