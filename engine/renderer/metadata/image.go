package metadata

import vk "github.com/goki/vulkan"

/** @brief Maximum mip levels an override image may carry. */
const MaxImageLevels = 19

/**
 * @brief A loaded image ready for upload. Level data is stored
 * contiguously in Data; LevelOffsets/LevelSizes index into it.
 */
type ImageResult struct {
	LevelOffsets [MaxImageLevels]uint32
	LevelSizes   [MaxImageLevels]uint32
	LevelCount   uint32
	/** @brief True if the mip levels came from the file rather than being generated later. */
	IsPregenerated bool
	Data           []byte
	BaseWidth      uint32
	BaseHeight     uint32
	Format         vk.Format
}

/** @brief Dimensions of a 2D image. */
type Extent2D struct {
	Width  uint32
	Height uint32
}
