package vulkan

// Names of the device extensions the geometry pipeline relies on. Device
// creation is owned by the caller; RequiredDeviceExtensions lets it check
// support up front.
const (
	extAccelerationStructure  = "VK_KHR_acceleration_structure"
	extBufferDeviceAddress    = "VK_KHR_buffer_device_address"
	extDeferredHostOperations = "VK_KHR_deferred_host_operations"
)

func RequiredDeviceExtensions() []string {
	return VulkanSafeStrings([]string{
		extAccelerationStructure,
		extBufferDeviceAddress,
		extDeferredHostOperations,
	})
}
