// Package overrides replaces the texture data of a material with files found
// in a textures folder, falling back to the data supplied by the application.
package overrides

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
)

const (
	TexturesPerMaterialCount = 3
	DebugNameSize            = 32

	defaultBytesPerPixel = 4
)

// Material texture slots.
const (
	TextureAlbedoAlpha = iota
	TextureRoughnessMetallicEmission
	TextureNormal
)

type OverrideInfo struct {
	Disable      bool
	TexturesPath string
	// Postfixes are appended to the file name for each texture slot, e.g. "_n" for normals.
	Postfixes       [TexturesPerMaterialCount]string
	OriginalIsSRGB  [TexturesPerMaterialCount]bool
	OverridenIsSRGB [TexturesPerMaterialCount]bool
}

/**
 * @brief Pixel data supplied by the application, R8G8B8A8 with the default
 * size. A nil slot has no default.
 */
type DefaultTextures [TexturesPerMaterialCount][]byte

type TextureOverrides struct {
	loader    Loader
	results   [TexturesPerMaterialCount]*metadata.ImageResult
	debugName string
}

/**
 * @brief Loads the overrides of one material.
 * @param relativePath material path relative to the textures folder; its
 * extension is ignored. Empty means no override is looked up.
 */
func New(relativePath string, defaults DefaultTextures, defaultSize metadata.Extent2D, info OverrideInfo, loader Loader) *TextureOverrides {
	t := &TextureOverrides{
		loader:    loader,
		debugName: safeCopy(relativePath, DebugNameSize),
	}

	if !info.Disable {
		for i := 0; i < TexturesPerMaterialCount; i++ {
			path, ok := TexturePath(info.TexturesPath, relativePath, info.Postfixes[i], GetExtension(loader))
			if !ok {
				continue
			}

			r, err := Load(loader, path)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					core.LogWarn("Texture override %q was not loaded: %s", path, err.Error())
				}
				continue
			}

			// the loader caches results, so the format change goes to a copy
			overriden := *r
			if info.OverridenIsSRGB[i] {
				overriden.Format = ToSRGB(r.Format)
			} else {
				overriden.Format = ToUnorm(r.Format)
			}
			t.results[i] = &overriden
		}
	}

	defaultDataSize := defaultBytesPerPixel * defaultSize.Width * defaultSize.Height

	for i := 0; i < TexturesPerMaterialCount; i++ {
		// if file wasn't found, use default data instead
		if t.results[i] != nil || defaults[i] == nil {
			continue
		}
		if uint32(len(defaults[i])) < defaultDataSize {
			core.LogError("Default texture %d of %q has %d bytes, %dx%d needs %d",
				i, t.debugName, len(defaults[i]), defaultSize.Width, defaultSize.Height, defaultDataSize)
			continue
		}

		format := vk.FormatR8g8b8a8Unorm
		if info.OriginalIsSRGB[i] {
			format = vk.FormatR8g8b8a8Srgb
		}
		r := &metadata.ImageResult{
			LevelCount:     1,
			IsPregenerated: false,
			Data:           defaults[i][:defaultDataSize],
			BaseWidth:      defaultSize.Width,
			BaseHeight:     defaultSize.Height,
			Format:         format,
		}
		r.LevelSizes[0] = defaultDataSize
		t.results[i] = r
	}

	return t
}

// Result returns the image of a texture slot, nil if there is none.
func (t *TextureOverrides) Result(index uint32) *metadata.ImageResult {
	if index >= TexturesPerMaterialCount {
		panic(fmt.Sprintf("overrides: texture index %d out of range", index))
	}
	return t.results[index]
}

func (t *TextureOverrides) DebugName() string {
	return t.debugName
}

// Close releases everything the loader holds.
func (t *TextureOverrides) Close() {
	FreeLoaded(t.loader)
}

/**
 * @brief <texturesPath>/<relativePath without extension><postfix><extension>.
 * ok is false for an empty relative path.
 */
func TexturePath(texturesPath, relativePath, postfix, extension string) (string, bool) {
	if relativePath == "" {
		return "", false
	}
	p := filepath.Join(texturesPath, relativePath)
	p = strings.TrimSuffix(p, filepath.Ext(p)) + postfix
	p = strings.TrimSuffix(p, filepath.Ext(p)) + extension
	return p, true
}

// safeCopy keeps at most size-1 bytes, the last byte being reserved.
func safeCopy(s string, size int) string {
	if len(s) > size-1 {
		return s[:size-1]
	}
	return s
}

var unormToSRGB = map[vk.Format]vk.Format{
	vk.FormatR8Unorm:             vk.FormatR8Srgb,
	vk.FormatR8g8Unorm:           vk.FormatR8g8Srgb,
	vk.FormatR8g8b8Unorm:         vk.FormatR8g8b8Srgb,
	vk.FormatB8g8r8Unorm:         vk.FormatB8g8r8Srgb,
	vk.FormatR8g8b8a8Unorm:       vk.FormatR8g8b8a8Srgb,
	vk.FormatB8g8r8a8Unorm:       vk.FormatB8g8r8a8Srgb,
	vk.FormatA8b8g8r8UnormPack32: vk.FormatA8b8g8r8SrgbPack32,
	vk.FormatBc1RgbUnormBlock:    vk.FormatBc1RgbSrgbBlock,
	vk.FormatBc1RgbaUnormBlock:   vk.FormatBc1RgbaSrgbBlock,
	vk.FormatBc2UnormBlock:       vk.FormatBc2SrgbBlock,
	vk.FormatBc3UnormBlock:       vk.FormatBc3SrgbBlock,
	vk.FormatBc7UnormBlock:       vk.FormatBc7SrgbBlock,
}

var srgbToUnorm = func() map[vk.Format]vk.Format {
	m := make(map[vk.Format]vk.Format, len(unormToSRGB))
	for unorm, srgb := range unormToSRGB {
		m[srgb] = unorm
	}
	return m
}()

// ToSRGB returns the sRGB variant of a format, or the format itself.
func ToSRGB(f vk.Format) vk.Format {
	if s, ok := unormToSRGB[f]; ok {
		return s
	}
	return f
}

// ToUnorm returns the UNORM variant of a format, or the format itself.
func ToUnorm(f vk.Format) vk.Format {
	if u, ok := srgbToUnorm[f]; ok {
		return u
	}
	return f
}
