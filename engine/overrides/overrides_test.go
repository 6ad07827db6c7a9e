package overrides

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
)

func writePNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func buildKTX2(t *testing.T, format vk.Format, w, h uint32, supercompression uint32, levels ...[]byte) []byte {
	t.Helper()
	header := ktx2Header{
		VkFormat:               uint32(format),
		TypeSize:               1,
		PixelWidth:             w,
		PixelHeight:            h,
		FaceCount:              1,
		LevelCount:             uint32(len(levels)),
		SupercompressionScheme: supercompression,
	}
	copy(header.Identifier[:], ktx2Identifier)

	headerSize := binary.Size(header) + len(levels)*binary.Size(ktx2LevelIndex{})
	index := make([]ktx2LevelIndex, len(levels))
	offset := uint64(headerSize)
	for i, l := range levels {
		index[i] = ktx2LevelIndex{ByteOffset: offset, ByteLength: uint64(len(l)), UncompressedByteLength: uint64(len(l))}
		offset += uint64(len(l))
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		t.Fatal(err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, index); err != nil {
		t.Fatal(err)
	}
	for _, l := range levels {
		buf.Write(l)
	}
	return buf.Bytes()
}

func TestTexturePath(t *testing.T) {
	tests := []struct {
		root, relative, postfix, ext string
		want                         string
		ok                           bool
	}{
		{"ovrd/mat", "walls/brick.tga", "", ".png", filepath.Join("ovrd/mat", "walls/brick.png"), true},
		{"ovrd/mat", "walls/brick.tga", "_n", ".ktx2", filepath.Join("ovrd/mat", "walls/brick_n.ktx2"), true},
		{"ovrd/mat", "floor", "_rme", ".png", filepath.Join("ovrd/mat", "floor_rme.png"), true},
		{"ovrd/mat", "", "_n", ".png", "", false},
	}
	for _, tt := range tests {
		got, ok := TexturePath(tt.root, tt.relative, tt.postfix, tt.ext)
		if got != tt.want || ok != tt.ok {
			t.Errorf("TexturePath(%q, %q, %q) = %q/%v, want %q/%v", tt.root, tt.relative, tt.postfix, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormatMapping(t *testing.T) {
	tests := []struct {
		unorm, srgb vk.Format
	}{
		{vk.FormatR8Unorm, vk.FormatR8Srgb},
		{vk.FormatR8g8b8a8Unorm, vk.FormatR8g8b8a8Srgb},
		{vk.FormatB8g8r8a8Unorm, vk.FormatB8g8r8a8Srgb},
		{vk.FormatA8b8g8r8UnormPack32, vk.FormatA8b8g8r8SrgbPack32},
		{vk.FormatBc1RgbaUnormBlock, vk.FormatBc1RgbaSrgbBlock},
		{vk.FormatBc7UnormBlock, vk.FormatBc7SrgbBlock},
	}
	for _, tt := range tests {
		if got := ToSRGB(tt.unorm); got != tt.srgb {
			t.Errorf("ToSRGB(%d) = %d, want %d", tt.unorm, got, tt.srgb)
		}
		if got := ToUnorm(tt.srgb); got != tt.unorm {
			t.Errorf("ToUnorm(%d) = %d, want %d", tt.srgb, got, tt.unorm)
		}
		if got := ToSRGB(tt.srgb); got != tt.srgb {
			t.Errorf("ToSRGB of an sRGB format changed it")
		}
	}
	if got := ToUnorm(vk.FormatD32Sfloat); got != vk.FormatD32Sfloat {
		t.Errorf("ToUnorm changed an unrelated format")
	}
}

func TestParseKTX2(t *testing.T) {
	level0 := bytes.Repeat([]byte{1}, 16)
	level1 := bytes.Repeat([]byte{2}, 8)

	r, err := ParseKTX2(buildKTX2(t, vk.FormatBc7SrgbBlock, 4, 4, 0, level0, level1))
	if err != nil {
		t.Fatalf("ParseKTX2: %v", err)
	}
	if r.LevelCount != 2 || !r.IsPregenerated || r.BaseWidth != 4 || r.Format != vk.FormatBc7SrgbBlock {
		t.Errorf("result = %+v", r)
	}
	if r.LevelOffsets[1] != 16 || r.LevelSizes[1] != 8 || !bytes.Equal(r.Data[16:], level1) {
		t.Errorf("level 1 at %d/%d", r.LevelOffsets[1], r.LevelSizes[1])
	}

	bad := []struct {
		name string
		data []byte
	}{
		{"supercompressed", buildKTX2(t, vk.FormatR8g8b8a8Unorm, 1, 1, 2, []byte{0, 0, 0, 0})},
		{"no format", buildKTX2(t, vk.FormatUndefined, 1, 1, 0, []byte{0, 0, 0, 0})},
		{"truncated", buildKTX2(t, vk.FormatR8g8b8a8Unorm, 1, 1, 0, []byte{0, 0, 0, 0})[:90]},
		{"not ktx2", bytes.Repeat([]byte{0}, 128)},
	}
	for _, tt := range bad {
		if _, err := ParseKTX2(tt.data); !errors.Is(err, ErrUnsupportedKTX2) {
			t.Errorf("%s: error = %v", tt.name, err)
		}
	}
}

func TestDevLoaderMips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.png")
	writePNG(t, path, 4, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	l := NewDevLoader(true)
	r, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.LevelCount != 3 || !r.IsPregenerated {
		t.Fatalf("levels = %d, pregenerated = %v", r.LevelCount, r.IsPregenerated)
	}
	wantSizes := []uint32{4 * 2 * 4, 2 * 1 * 4, 1 * 1 * 4}
	for i, s := range wantSizes {
		if r.LevelSizes[i] != s {
			t.Errorf("level %d size = %d, want %d", i, r.LevelSizes[i], s)
		}
	}
	if !bytes.Equal(r.Data[:4], []byte{10, 20, 30, 255}) {
		t.Errorf("first pixel = %v", r.Data[:4])
	}

	if _, err := l.Load(filepath.Join(t.TempDir(), "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestNewUsesOverridesAndDefaults(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "walls", "brick.png"), 2, 2, color.NRGBA{R: 255, A: 255})

	info := OverrideInfo{
		TexturesPath:    root,
		Postfixes:       [TexturesPerMaterialCount]string{"", "_rme", "_n"},
		OriginalIsSRGB:  [TexturesPerMaterialCount]bool{true, false, false},
		OverridenIsSRGB: [TexturesPerMaterialCount]bool{true, false, false},
	}
	defaults := DefaultTextures{
		make([]byte, 4),
		nil,
		bytes.Repeat([]byte{128}, 4),
	}
	loader := NewDevLoader(false)

	o := New("walls/brick.tga", defaults, metadata.Extent2D{Width: 1, Height: 1}, info, loader)
	defer o.Close()

	albedo := o.Result(TextureAlbedoAlpha)
	if albedo == nil || albedo.BaseWidth != 2 || albedo.Format != vk.FormatR8g8b8a8Srgb {
		t.Fatalf("albedo override = %+v", albedo)
	}
	if o.Result(TextureRoughnessMetallicEmission) != nil {
		t.Error("slot without file or default has a result")
	}
	normal := o.Result(TextureNormal)
	if normal == nil || normal.BaseWidth != 1 || normal.Format != vk.FormatR8g8b8a8Unorm || normal.LevelSizes[0] != 4 {
		t.Errorf("normal default = %+v", normal)
	}

	// the cached result keeps the loader's format
	cached, _ := loader.Load(filepath.Join(root, "walls", "brick.png"))
	if cached.Format != vk.FormatR8g8b8a8Unorm {
		t.Errorf("cached format = %d", cached.Format)
	}

	o.Close()
	if loader.cache.len() != 0 {
		t.Error("Close did not free the loaded images")
	}
}

func TestNewDisabled(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "a.png"), 2, 2, color.NRGBA{A: 255})

	info := OverrideInfo{Disable: true, TexturesPath: root, OriginalIsSRGB: [TexturesPerMaterialCount]bool{true}}
	o := New("a", DefaultTextures{make([]byte, 16)}, metadata.Extent2D{Width: 2, Height: 2}, info, NewKTX2Loader())
	defer o.Close()

	r := o.Result(TextureAlbedoAlpha)
	if r == nil || r.Format != vk.FormatR8g8b8a8Srgb || len(r.Data) != 16 {
		t.Errorf("result = %+v", r)
	}
}

func TestDebugNameIsTruncated(t *testing.T) {
	long := "materials/some/very/long/path/to/a/texture.tga"
	o := New(long, DefaultTextures{}, metadata.Extent2D{}, OverrideInfo{Disable: true}, NewDevLoader(false))
	if got := o.DebugName(); got != long[:DebugNameSize-1] {
		t.Errorf("DebugName = %q", got)
	}
}

func TestNewLoader(t *testing.T) {
	for name, want := range map[string]string{"ktx2": KTX2Extension, "png": DevExtension, "": KTX2Extension} {
		l, err := NewLoader(name)
		if err != nil {
			t.Fatalf("NewLoader(%q): %v", name, err)
		}
		if got := GetExtension(l); got != want {
			t.Errorf("GetExtension(NewLoader(%q)) = %q, want %q", name, got, want)
		}
	}
	if _, err := NewLoader("dds"); err == nil {
		t.Error("NewLoader accepted an unknown loader")
	}
}

func TestWatcherReportsChangedOverrides(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "walls"), 0o755); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(root)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	loader := NewDevLoader(false)
	path := filepath.Join(root, "walls", "brick.png")
	writePNG(t, path, 1, 1, color.NRGBA{A: 255})
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	var changed []string
	for time.Now().Before(deadline) {
		changed = append(changed, w.Invalidate(loader)...)
		if len(changed) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if len(changed) == 0 || changed[0] != filepath.Join("walls", "brick.png") {
		t.Fatalf("changed = %v", changed)
	}
	for _, c := range changed {
		if filepath.Ext(c) != DevExtension {
			t.Errorf("reported unrelated file %q", c)
		}
	}
	if loader.cache.len() != 0 {
		t.Error("changed file is still cached")
	}
}
