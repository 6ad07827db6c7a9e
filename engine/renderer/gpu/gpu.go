// Package gpu holds the narrow contracts the geometry pipeline needs from a
// GPU backend: buffers with device addresses, a memory allocator and a
// command recorder for copies and buffer barriers.
package gpu

import vk "github.com/goki/vulkan"

type DeviceAddress = uint64

/**
 * @brief A GPU buffer. Host-visible buffers can be mapped persistently.
 */
type Buffer interface {
	Init(allocator MemoryAllocator, size uint64, usage vk.BufferUsageFlags, memory vk.MemoryPropertyFlags, debugName string) error
	GetBuffer() vk.Buffer
	/** @brief Device-visible address for shader and acceleration structure access. */
	GetAddress() DeviceAddress
	GetSize() uint64
	/** @brief Maps the whole buffer and returns a view of it. Calling Map on a mapped buffer returns the same view. */
	Map() ([]byte, error)
	TryUnmap()
	IsMapped() bool
	Destroy()
}

/**
 * @brief Creates uninitialised buffers for one backend. Buffer.Init must be
 * called with the same allocator.
 */
type MemoryAllocator interface {
	NewBuffer() Buffer
}

/**
 * @brief Range-scoped buffer memory barrier. Queue family ownership is never
 * transferred.
 */
type BufferBarrier struct {
	SrcAccessMask vk.AccessFlags
	DstAccessMask vk.AccessFlags
	Buffer        Buffer
	Offset        uint64
	Size          uint64
}

/**
 * @brief Records transfer and synchronisation commands into a command buffer.
 * Nothing is submitted.
 */
type CommandRecorder interface {
	CmdCopyBuffer(src, dst Buffer, regions []vk.BufferCopy)
	CmdPipelineBarrier(srcStage, dstStage vk.PipelineStageFlags, barriers []BufferBarrier)
}

/**
 * @brief One recorder per frame in flight. Recorder waits until the frame's
 * previous submission finished; Submit hands the recorded commands to the
 * device.
 */
type Backend interface {
	Allocator() MemoryAllocator
	Recorder(frameIndex uint32) (CommandRecorder, error)
	Submit(frameIndex uint32) error
	Destroy()
}
