package vulkan

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rtgeom/engine/core"
)

func TestResultError(t *testing.T) {
	if err := resultError("vkCreateBuffer", vk.Success); err != nil {
		t.Errorf("success produced %v", err)
	}
	err := resultError("vkAllocateMemory", vk.ErrorOutOfDeviceMemory)
	if err == nil || !strings.Contains(err.Error(), "vkAllocateMemory") || !strings.Contains(err.Error(), "VK_ERROR_OUT_OF_DEVICE_MEMORY") {
		t.Errorf("err = %v", err)
	}
	if got := VulkanResultString(vk.Result(-12345)); got != "VkResult(-12345)" {
		t.Errorf("unknown result = %q", got)
	}
}

func TestVulkanSafeStrings(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "\x00"},
		{"VK_KHR_acceleration_structure", "VK_KHR_acceleration_structure\x00"},
		{"terminated\x00", "terminated\x00"},
	}
	for _, tt := range tests {
		if got := VulkanSafeString(tt.in); got != tt.want {
			t.Errorf("VulkanSafeString(%q) = %q", tt.in, got)
		}
	}
	for _, ext := range RequiredDeviceExtensions() {
		if !strings.HasSuffix(ext, "\x00") {
			t.Errorf("extension %q is not null terminated", ext)
		}
	}
}

func TestLockPoolSerialisesGroup(t *testing.T) {
	pool := NewVulkanLockPool()

	var wg sync.WaitGroup
	inside := 0
	maxInside := 0
	var mu sync.Mutex
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.SafeCall(MemoryManagement, func() error {
				mu.Lock()
				inside++
				maxInside = max(maxInside, inside)
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Errorf("%d calls overlapped", maxInside)
	}

	errBoom := errors.New("boom")
	if err := pool.SafeCall(BufferManagement, func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Errorf("SafeCall err = %v", err)
	}
}

func TestBufferInitRejectsForeignAllocator(t *testing.T) {
	core.SetLogLevel(core.LogLevelError)
	defer core.SetLogLevel(core.LogLevelInfo)

	b := &VulkanBuffer{}
	if err := b.Init(nil, 16, 0, 0, "orphan"); err == nil {
		t.Error("Init accepted a nil allocator")
	}
}

func TestBufferInitNeedsDeviceAddressFunc(t *testing.T) {
	core.SetLogLevel(core.LogLevelError)
	defer core.SetLogLevel(core.LogLevelInfo)

	allocator := NewVulkanMemoryAllocator(NewVulkanContext(nil, nil))
	usage := vk.BufferUsageFlags(vk.BufferUsageShaderDeviceAddressBit) | vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)

	b := allocator.NewBuffer()
	err := b.Init(allocator, 64, usage, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), "Static Vertices data buffer")
	if !errors.Is(err, ErrNoDeviceAddress) {
		t.Errorf("err = %v, want ErrNoDeviceAddress", err)
	}
	if b.GetAddress() != 0 || b.IsMapped() {
		t.Error("failed Init left state behind")
	}
}

func TestNewVulkanBackendRejectsZeroFrames(t *testing.T) {
	_, err := NewVulkanBackend(NewVulkanContext(nil, nil), nil, 0, 0)
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}
