package vulkan

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/renderer/gpu"
)

var ErrNoDeviceAddress = errors.New("no buffer device address function set on the Vulkan context")

/**
 * @brief Allocates one dedicated device memory block per buffer.
 */
type VulkanMemoryAllocator struct {
	context *VulkanContext
}

func NewVulkanMemoryAllocator(context *VulkanContext) *VulkanMemoryAllocator {
	return &VulkanMemoryAllocator{context: context}
}

func (a *VulkanMemoryAllocator) NewBuffer() gpu.Buffer {
	return &VulkanBuffer{}
}

type VulkanBuffer struct {
	context *VulkanContext

	Handle  vk.Buffer
	Memory  vk.DeviceMemory
	Size    uint64
	Address gpu.DeviceAddress
	Name    string

	mapped []byte
}

func (b *VulkanBuffer) Init(allocator gpu.MemoryAllocator, size uint64, usage vk.BufferUsageFlags, memory vk.MemoryPropertyFlags, debugName string) error {
	a, ok := allocator.(*VulkanMemoryAllocator)
	if !ok {
		err := fmt.Errorf("buffer %q: allocator %T is not a Vulkan allocator", debugName, allocator)
		core.LogError(err.Error())
		return err
	}
	if usage&vk.BufferUsageFlags(vk.BufferUsageShaderDeviceAddressBit) != 0 && a.context.BufferDeviceAddress == nil {
		err := fmt.Errorf("buffer %q: %w", debugName, ErrNoDeviceAddress)
		core.LogError(err.Error())
		return err
	}
	b.context = a.context
	b.Size = size
	b.Name = debugName

	return b.context.Locks.SafeCall(MemoryManagement, func() error {
		return b.create(usage, memory)
	})
}

func (b *VulkanBuffer) create(usage vk.BufferUsageFlags, memory vk.MemoryPropertyFlags) error {
	device := b.context.LogicalDevice

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(b.Size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if err := resultError("vkCreateBuffer "+b.Name, vk.CreateBuffer(device, &bufferInfo, b.context.Allocator, &handle)); err != nil {
		core.LogError(err.Error())
		return err
	}
	b.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, b.Handle, &requirements)
	requirements.Deref()

	memoryIndex := b.context.FindMemoryIndex(requirements.MemoryTypeBits, uint32(memory))
	if memoryIndex == -1 {
		err := fmt.Errorf("buffer %q: required memory type not found", b.Name)
		core.LogError(err.Error())
		b.Destroy()
		return err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}

	// Buffers whose address is taken need the allocation flagged for it.
	withAddress := usage&vk.BufferUsageFlags(vk.BufferUsageShaderDeviceAddressBit) != 0
	if withAddress {
		flagsInfo := vk.MemoryAllocateFlagsInfo{
			SType: vk.StructureTypeMemoryAllocateFlagsInfo,
			Flags: vk.MemoryAllocateFlags(vk.MemoryAllocateDeviceAddressBit),
		}
		allocateInfo.PNext = unsafe.Pointer(flagsInfo.Ref())
	}

	var deviceMemory vk.DeviceMemory
	if err := resultError("vkAllocateMemory "+b.Name, vk.AllocateMemory(device, &allocateInfo, b.context.Allocator, &deviceMemory)); err != nil {
		core.LogError(err.Error())
		b.Destroy()
		return err
	}
	b.Memory = deviceMemory

	if err := resultError("vkBindBufferMemory "+b.Name, vk.BindBufferMemory(device, b.Handle, b.Memory, 0)); err != nil {
		core.LogError(err.Error())
		b.Destroy()
		return err
	}

	if withAddress {
		addressInfo := vk.BufferDeviceAddressInfo{
			SType:  vk.StructureTypeBufferDeviceAddressInfo,
			Buffer: b.Handle,
		}
		b.Address = gpu.DeviceAddress(b.context.BufferDeviceAddress(device, &addressInfo))
	}

	core.LogDebug("Created buffer %q: %d bytes", b.Name, b.Size)
	return nil
}

func (b *VulkanBuffer) GetBuffer() vk.Buffer {
	return b.Handle
}

func (b *VulkanBuffer) GetAddress() gpu.DeviceAddress {
	return b.Address
}

func (b *VulkanBuffer) GetSize() uint64 {
	return b.Size
}

func (b *VulkanBuffer) Map() ([]byte, error) {
	if b.mapped != nil {
		return b.mapped, nil
	}
	var data unsafe.Pointer
	if err := resultError("vkMapMemory "+b.Name, vk.MapMemory(b.context.LogicalDevice, b.Memory, 0, vk.DeviceSize(b.Size), 0, &data)); err != nil {
		core.LogError(err.Error())
		return nil, fmt.Errorf("%w: %v", core.ErrBufferNotMapped, err)
	}
	b.mapped = unsafe.Slice((*byte)(data), b.Size)
	return b.mapped, nil
}

func (b *VulkanBuffer) TryUnmap() {
	if b.mapped == nil {
		return
	}
	vk.UnmapMemory(b.context.LogicalDevice, b.Memory)
	b.mapped = nil
}

func (b *VulkanBuffer) IsMapped() bool {
	return b.mapped != nil
}

func (b *VulkanBuffer) Destroy() {
	if b.context == nil {
		return
	}
	b.TryUnmap()
	var (
		nullBuffer vk.Buffer
		nullMemory vk.DeviceMemory
	)
	if b.Handle != nullBuffer {
		vk.DestroyBuffer(b.context.LogicalDevice, b.Handle, b.context.Allocator)
		b.Handle = nullBuffer
	}
	if b.Memory != nullMemory {
		vk.FreeMemory(b.context.LogicalDevice, b.Memory, b.context.Allocator)
		b.Memory = nullMemory
	}
	b.Address = 0
}
