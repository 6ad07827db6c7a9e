package gpu

import vk "github.com/goki/vulkan"

// HasMemoryFlags reports whether all bits of want are set in have.
func HasMemoryFlags(have vk.MemoryPropertyFlags, want vk.MemoryPropertyFlagBits) bool {
	return have&vk.MemoryPropertyFlags(want) == vk.MemoryPropertyFlags(want)
}
