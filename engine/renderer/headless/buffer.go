// Package headless implements the gpu contracts on plain host memory. Copy
// commands execute at record time, which lets the whole upload path run
// without a device.
package headless

import (
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/math"
	"github.com/spaghettifunk/rtgeom/engine/renderer/gpu"
)

// Fake device addresses start here and are 256-byte aligned, like real
// storage buffer alignment.
const (
	addressBase      gpu.DeviceAddress = 0x1000_0000
	addressAlignment uint64            = 256
)

type Allocator struct {
	mu          sync.Mutex
	nextAddress gpu.DeviceAddress
	live        map[*Buffer]struct{}
}

func NewAllocator() *Allocator {
	return &Allocator{
		nextAddress: addressBase,
		live:        make(map[*Buffer]struct{}),
	}
}

func (a *Allocator) NewBuffer() gpu.Buffer {
	return &Buffer{}
}

// LiveBuffers returns the number of initialised, not yet destroyed buffers.
func (a *Allocator) LiveBuffers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

func (a *Allocator) reserve(b *Buffer, size uint64) gpu.DeviceAddress {
	a.mu.Lock()
	defer a.mu.Unlock()
	addr := a.nextAddress
	a.nextAddress += math.AlignUp(size, addressAlignment)
	a.live[b] = struct{}{}
	return addr
}

func (a *Allocator) release(b *Buffer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.live, b)
}

type Buffer struct {
	allocator *Allocator
	data      []byte
	address   gpu.DeviceAddress
	usage     vk.BufferUsageFlags
	memory    vk.MemoryPropertyFlags
	mapped    bool
	destroyed bool

	DebugName string
}

func (b *Buffer) Init(allocator gpu.MemoryAllocator, size uint64, usage vk.BufferUsageFlags, memory vk.MemoryPropertyFlags, debugName string) error {
	a, ok := allocator.(*Allocator)
	if !ok {
		return fmt.Errorf("headless buffer %q: allocator %T is not a headless allocator", debugName, allocator)
	}
	if size == 0 {
		return fmt.Errorf("headless buffer %q: size must be > 0", debugName)
	}
	b.allocator = a
	b.data = make([]byte, size)
	b.usage = usage
	b.memory = memory
	b.DebugName = debugName
	b.address = a.reserve(b, size)
	core.LogDebug("headless buffer %q created: %d bytes at 0x%x", debugName, size, b.address)
	return nil
}

// GetBuffer has no Vulkan handle behind it.
func (b *Buffer) GetBuffer() vk.Buffer {
	var handle vk.Buffer
	return handle
}

func (b *Buffer) GetAddress() gpu.DeviceAddress {
	return b.address
}

func (b *Buffer) GetSize() uint64 {
	return uint64(len(b.data))
}

func (b *Buffer) Usage() vk.BufferUsageFlags {
	return b.usage
}

func (b *Buffer) MemoryFlags() vk.MemoryPropertyFlags {
	return b.memory
}

func (b *Buffer) Map() ([]byte, error) {
	if !gpu.HasMemoryFlags(b.memory, vk.MemoryPropertyHostVisibleBit) {
		return nil, fmt.Errorf("%w: %q", core.ErrBufferNotMapped, b.DebugName)
	}
	b.mapped = true
	return b.data, nil
}

func (b *Buffer) TryUnmap() {
	b.mapped = false
}

func (b *Buffer) IsMapped() bool {
	return b.mapped
}

func (b *Buffer) IsDestroyed() bool {
	return b.destroyed
}

// Bytes exposes the backing memory regardless of its property flags, which is
// what a test reading back device memory needs.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) Destroy() {
	if b.destroyed {
		return
	}
	b.mapped = false
	b.destroyed = true
	if b.allocator != nil {
		b.allocator.release(b)
	}
	b.data = nil
}
