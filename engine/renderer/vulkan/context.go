package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rtgeom/engine/core"
)

/**
 * @brief Resolves the device address of a buffer, i.e. vkGetBufferDeviceAddress.
 * The bindings do not load that entry point, the device owner provides it.
 */
type BufferDeviceAddressFunc func(device vk.Device, info *vk.BufferDeviceAddressInfo) vk.DeviceAddress

/**
 * @brief Device handles the geometry pipeline allocates from. The device
 * itself is created and destroyed by the caller.
 */
type VulkanContext struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device
	Allocator      *vk.AllocationCallbacks

	/** @brief Required by buffers created with the shader device address usage. */
	BufferDeviceAddress BufferDeviceAddressFunc

	Locks *VulkanLockPool
}

func NewVulkanContext(physicalDevice vk.PhysicalDevice, device vk.Device) *VulkanContext {
	return &VulkanContext{
		PhysicalDevice: physicalDevice,
		LogicalDevice:  device,
		Allocator:      nil,
		Locks:          NewVulkanLockPool(),
	}
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
