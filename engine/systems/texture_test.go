package systems

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/rtgeom/engine/overrides"
	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
)

func writePNG(t *testing.T, path string, size int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < size*size; i++ {
		img.SetNRGBA(i%size, i/size, color.NRGBA{G: 255, A: 255})
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

func newTestTextureSystem(t *testing.T, root string) *TextureSystem {
	t.Helper()
	js, err := NewJobSystem(2, 8)
	if err != nil {
		t.Fatal(err)
	}
	ts, err := NewTextureSystem(&TextureSystemConfig{
		Overrides: overrides.OverrideInfo{
			TexturesPath:    root,
			Postfixes:       [overrides.TexturesPerMaterialCount]string{"", "_rme", "_n"},
			OverridenIsSRGB: [overrides.TexturesPerMaterialCount]bool{true, false, false},
		},
		LoaderName: "png",
	}, js)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		ts.Shutdown()
		js.Shutdown()
	})
	return ts
}

func TestTextureSystemLoadAsync(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "walls", "brick_n.png"), 4)
	ts := newTestTextureSystem(t, root)

	notified := make(chan *overrides.TextureOverrides, 1)
	defaults := overrides.DefaultTextures{make([]byte, 4)}
	ts.LoadAsync("walls/brick.tga", defaults, metadata.Extent2D{Width: 1, Height: 1}, func(o *overrides.TextureOverrides) {
		notified <- o
	})
	ts.Wait()

	o, ok := ts.Get("walls/brick.tga")
	if !ok {
		t.Fatal("material was not loaded")
	}
	if got := <-notified; got != o {
		t.Error("callback received a different result")
	}
	if n := o.Result(overrides.TextureNormal); n == nil || n.BaseWidth != 4 {
		t.Errorf("normal override = %+v", n)
	}
	if a := o.Result(overrides.TextureAlbedoAlpha); a == nil || a.BaseWidth != 1 {
		t.Errorf("albedo default = %+v", a)
	}
	if _, ok := ts.Get("unknown"); ok {
		t.Error("Get returned a material that was never requested")
	}
}

func TestTextureSystemReloadsChangedMaterials(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "walls", "brick_rme.png"), 2)
	ts := newTestTextureSystem(t, root)

	ts.LoadAsync("walls/brick", overrides.DefaultTextures{}, metadata.Extent2D{}, nil)
	ts.LoadAsync("floor/tiles", overrides.DefaultTextures{}, metadata.Extent2D{}, nil)
	ts.Wait()

	before, _ := ts.Get("walls/brick")
	writePNG(t, filepath.Join(root, "walls", "brick_rme.png"), 8)
	overrides.Invalidate(ts.loader, filepath.Join(root, "walls", "brick_rme.png"))

	reloaded := ts.reload([]string{filepath.Join("walls", "brick_rme.png"), "unrelated.png"})
	ts.Wait()

	if len(reloaded) != 1 || reloaded[0] != "walls/brick" {
		t.Fatalf("reloaded = %v", reloaded)
	}
	after, _ := ts.Get("walls/brick")
	if after == before {
		t.Fatal("material result was not replaced")
	}
	if r := after.Result(overrides.TextureRoughnessMetallicEmission); r == nil || r.BaseWidth != 8 {
		t.Errorf("reloaded override = %+v", r)
	}
}

func TestTextureSystemUpdateWithoutWatcher(t *testing.T) {
	ts := newTestTextureSystem(t, t.TempDir())
	if got := ts.Update(); got != nil {
		t.Errorf("Update = %v, want nil", got)
	}
}
