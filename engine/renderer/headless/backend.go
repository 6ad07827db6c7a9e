package headless

import "github.com/spaghettifunk/rtgeom/engine/renderer/gpu"

/**
 * @brief Backend keeping the recorded commands of each frame in flight until
 * its recorder is requested again.
 */
type Backend struct {
	allocator *Allocator
	recorders []*Recorder
	submitted []int
}

func NewBackend(framesInFlight uint32) *Backend {
	b := &Backend{
		allocator: NewAllocator(),
		recorders: make([]*Recorder, framesInFlight),
		submitted: make([]int, framesInFlight),
	}
	for i := range b.recorders {
		b.recorders[i] = NewRecorder()
	}
	return b
}

func (b *Backend) Allocator() gpu.MemoryAllocator {
	return b.allocator
}

func (b *Backend) HeadlessAllocator() *Allocator {
	return b.allocator
}

func (b *Backend) Recorder(frameIndex uint32) (gpu.CommandRecorder, error) {
	r := b.recorders[frameIndex%uint32(len(b.recorders))]
	r.Reset()
	return r, nil
}

// Submit only counts: copies already ran at record time.
func (b *Backend) Submit(frameIndex uint32) error {
	b.submitted[frameIndex%uint32(len(b.recorders))]++
	return nil
}

// Commands returns what was recorded for a frame in flight.
func (b *Backend) Commands(frameIndex uint32) []Command {
	return b.recorders[frameIndex%uint32(len(b.recorders))].Commands
}

func (b *Backend) Submitted(frameIndex uint32) int {
	return b.submitted[frameIndex%uint32(len(b.recorders))]
}

func (b *Backend) Destroy() {}

var _ gpu.Backend = (*Backend)(nil)
