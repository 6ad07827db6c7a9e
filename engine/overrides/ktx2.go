package overrides

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
)

const KTX2Extension = ".ktx2"

var ktx2Identifier = []byte{0xAB, 0x4B, 0x54, 0x58, 0x20, 0x32, 0x30, 0xBB, 0x0D, 0x0A, 0x1A, 0x0A}

var ErrUnsupportedKTX2 = errors.New("unsupported KTX2 file")

type ktx2Header struct {
	Identifier             [12]byte
	VkFormat               uint32
	TypeSize               uint32
	PixelWidth             uint32
	PixelHeight            uint32
	PixelDepth             uint32
	LayerCount             uint32
	FaceCount              uint32
	LevelCount             uint32
	SupercompressionScheme uint32

	DfdByteOffset uint32
	DfdByteLength uint32
	KvdByteOffset uint32
	KvdByteLength uint32
	SgdByteOffset uint64
	SgdByteLength uint64
}

type ktx2LevelIndex struct {
	ByteOffset             uint64
	ByteLength             uint64
	UncompressedByteLength uint64
}

/**
 * @brief Loads 2D KTX2 textures with a Vulkan format and no supercompression.
 */
type KTX2Loader struct {
	cache resultCache
}

func NewKTX2Loader() *KTX2Loader {
	return &KTX2Loader{}
}

// Load returns an error wrapping os.ErrNotExist if the file is missing.
func (l *KTX2Loader) Load(path string) (*metadata.ImageResult, error) {
	if r, ok := l.cache.get(path); ok {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := ParseKTX2(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.cache.put(path, r)
	return r, nil
}

func (l *KTX2Loader) FreeLoaded() {
	l.cache.clear()
}

/**
 * @brief Decodes a KTX2 container. Level 0 is the base level; the levels are
 * stored one after another in the result's Data.
 */
func ParseKTX2(data []byte) (*metadata.ImageResult, error) {
	var h ktx2Header
	reader := bytes.NewReader(data)
	if err := binary.Read(reader, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrUnsupportedKTX2, err)
	}
	if !bytes.Equal(h.Identifier[:], ktx2Identifier) {
		return nil, fmt.Errorf("%w: bad identifier", ErrUnsupportedKTX2)
	}
	switch {
	case h.VkFormat == uint32(vk.FormatUndefined):
		return nil, fmt.Errorf("%w: no Vulkan format", ErrUnsupportedKTX2)
	case h.SupercompressionScheme != 0:
		return nil, fmt.Errorf("%w: supercompression scheme %d", ErrUnsupportedKTX2, h.SupercompressionScheme)
	case h.PixelWidth == 0 || h.PixelHeight == 0 || h.PixelDepth > 1:
		return nil, fmt.Errorf("%w: not a 2D image (%dx%dx%d)", ErrUnsupportedKTX2, h.PixelWidth, h.PixelHeight, h.PixelDepth)
	case h.LayerCount > 1 || h.FaceCount > 1:
		return nil, fmt.Errorf("%w: %d layers, %d faces", ErrUnsupportedKTX2, h.LayerCount, h.FaceCount)
	}

	// zero means the mip chain is to be generated at load time
	levelCount := h.LevelCount
	isPregenerated := levelCount > 0
	if levelCount == 0 {
		levelCount = 1
	}
	if levelCount > metadata.MaxImageLevels {
		return nil, fmt.Errorf("%w: %d levels", ErrUnsupportedKTX2, levelCount)
	}

	levels := make([]ktx2LevelIndex, levelCount)
	if err := binary.Read(reader, binary.LittleEndian, levels); err != nil {
		return nil, fmt.Errorf("%w: short level index: %v", ErrUnsupportedKTX2, err)
	}

	var total uint64
	for i, lv := range levels {
		if lv.ByteOffset+lv.ByteLength > uint64(len(data)) || lv.ByteLength == 0 {
			return nil, fmt.Errorf("%w: level %d out of file bounds", ErrUnsupportedKTX2, i)
		}
		total += lv.ByteLength
	}

	r := &metadata.ImageResult{
		LevelCount:     levelCount,
		IsPregenerated: isPregenerated,
		Data:           make([]byte, 0, total),
		BaseWidth:      h.PixelWidth,
		BaseHeight:     h.PixelHeight,
		Format:         vk.Format(h.VkFormat),
	}
	for i, lv := range levels {
		r.LevelOffsets[i] = uint32(len(r.Data))
		r.LevelSizes[i] = uint32(lv.ByteLength)
		r.Data = append(r.Data, data[lv.ByteOffset:lv.ByteOffset+lv.ByteLength]...)
	}

	core.LogDebug("KTX2 image %dx%d, %d levels, format %d", r.BaseWidth, r.BaseHeight, r.LevelCount, r.Format)
	return r, nil
}
