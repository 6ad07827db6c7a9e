package overrides

import (
	"fmt"
	"image"
	_ "image/png"
	"os"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

const DevExtension = ".png"

/**
 * @brief Loads uncompressed development images. Files use the ".png"
 * extension; PNG, BMP and TIFF content is accepted. Pixels are converted to
 * R8G8B8A8.
 */
type DevLoader struct {
	// GenerateMips builds the mip chain on the CPU with a bilinear filter.
	GenerateMips bool

	cache resultCache
}

func NewDevLoader(generateMips bool) *DevLoader {
	return &DevLoader{GenerateMips: generateMips}
}

// Load returns an error wrapping os.ErrNotExist if the file is missing.
func (l *DevLoader) Load(path string) (*metadata.ImageResult, error) {
	if r, ok := l.cache.get(path); ok {
		return r, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r := DecodeImage(src, l.GenerateMips)
	l.cache.put(path, r)
	return r, nil
}

func (l *DevLoader) FreeLoaded() {
	l.cache.clear()
}

/**
 * @brief Converts an image to R8G8B8A8 UNORM levels.
 */
func DecodeImage(src image.Image, generateMips bool) *metadata.ImageResult {
	bounds := src.Bounds()
	base := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(base, base.Bounds(), src, bounds.Min, draw.Src)

	r := &metadata.ImageResult{
		BaseWidth:  uint32(bounds.Dx()),
		BaseHeight: uint32(bounds.Dy()),
		Format:     vk.FormatR8g8b8a8Unorm,
	}

	level := base
	for {
		r.LevelOffsets[r.LevelCount] = uint32(len(r.Data))
		r.LevelSizes[r.LevelCount] = uint32(len(level.Pix))
		r.Data = append(r.Data, level.Pix...)
		r.LevelCount++

		w, h := level.Rect.Dx(), level.Rect.Dy()
		if !generateMips || (w == 1 && h == 1) || r.LevelCount == metadata.MaxImageLevels {
			break
		}
		next := image.NewNRGBA(image.Rect(0, 0, max(w/2, 1), max(h/2, 1)))
		draw.BiLinear.Scale(next, next.Rect, level, level.Rect, draw.Src, nil)
		level = next
	}
	r.IsPregenerated = generateMips
	return r
}
