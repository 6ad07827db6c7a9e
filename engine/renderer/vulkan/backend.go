package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/renderer/gpu"
)

/**
 * @brief Records the geometry uploads of each frame in flight into its own
 * command buffer and submits it to a queue the caller created.
 */
type VulkanBackend struct {
	context   *VulkanContext
	allocator *VulkanMemoryAllocator
	queue     vk.Queue

	commandPool    vk.CommandPool
	commandBuffers []*VulkanCommandBuffer
	inFlightFences []*VulkanFence
}

func NewVulkanBackend(context *VulkanContext, queue vk.Queue, queueFamilyIndex, framesInFlight uint32) (*VulkanBackend, error) {
	if framesInFlight == 0 {
		return nil, fmt.Errorf("%w: vulkan backend needs at least one frame in flight", core.ErrInvalidConfig)
	}

	vb := &VulkanBackend{
		context:   context,
		allocator: NewVulkanMemoryAllocator(context),
		queue:     queue,
	}

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueFamilyIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if err := resultError("vkCreateCommandPool", vk.CreateCommandPool(context.LogicalDevice, &poolCreateInfo, context.Allocator, &vb.commandPool)); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.LogDebug("Geometry upload command pool created.")

	for i := uint32(0); i < framesInFlight; i++ {
		cb, err := NewVulkanCommandBuffer(context, vb.commandPool)
		if err != nil {
			vb.Destroy()
			return nil, err
		}
		vb.commandBuffers = append(vb.commandBuffers, cb)

		// signaled, so the first wait of every frame returns at once
		fence, err := NewFence(context, true)
		if err != nil {
			vb.Destroy()
			return nil, err
		}
		vb.inFlightFences = append(vb.inFlightFences, fence)
	}
	return vb, nil
}

func (vb *VulkanBackend) Allocator() gpu.MemoryAllocator {
	return vb.allocator
}

func (vb *VulkanBackend) frame(frameIndex uint32) uint32 {
	return frameIndex % uint32(len(vb.commandBuffers))
}

/**
 * @brief Waits for the previous submission of the frame, then begins its
 * command buffer.
 */
func (vb *VulkanBackend) Recorder(frameIndex uint32) (gpu.CommandRecorder, error) {
	i := vb.frame(frameIndex)
	fence := vb.inFlightFences[i]
	if err := fence.Wait(vb.context, math.MaxUint64); err != nil {
		return nil, err
	}
	if err := fence.Reset(vb.context); err != nil {
		return nil, err
	}

	cb := vb.commandBuffers[i]
	cb.Reset()
	if err := cb.Begin(true); err != nil {
		return nil, err
	}
	return cb, nil
}

func (vb *VulkanBackend) Submit(frameIndex uint32) error {
	i := vb.frame(frameIndex)
	cb := vb.commandBuffers[i]
	if err := cb.End(); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
	}
	if err := resultError("vkQueueSubmit", vk.QueueSubmit(vb.queue, 1, []vk.SubmitInfo{submitInfo}, vb.inFlightFences[i].Handle)); err != nil {
		core.LogError(err.Error())
		return err
	}
	cb.UpdateSubmitted()
	return nil
}

func (vb *VulkanBackend) Destroy() {
	if vb.commandPool == nil {
		return
	}
	vk.DeviceWaitIdle(vb.context.LogicalDevice)

	for _, f := range vb.inFlightFences {
		f.Destroy(vb.context)
	}
	vb.inFlightFences = nil
	for _, cb := range vb.commandBuffers {
		cb.Free(vb.context, vb.commandPool)
	}
	vb.commandBuffers = nil

	vk.DestroyCommandPool(vb.context.LogicalDevice, vb.commandPool, vb.context.Allocator)
	vb.commandPool = nil
}

var (
	_ gpu.Backend         = (*VulkanBackend)(nil)
	_ gpu.MemoryAllocator = (*VulkanMemoryAllocator)(nil)
	_ gpu.Buffer          = (*VulkanBuffer)(nil)
	_ gpu.CommandRecorder = (*VulkanCommandBuffer)(nil)
)
