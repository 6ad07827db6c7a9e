package metadata

import (
	"testing"
	"unsafe"
)

func TestSharedLayoutSizes(t *testing.T) {
	if got := unsafe.Sizeof(ShVertex{}); got != uintptr(ShVertexSize) {
		t.Errorf("ShVertex size = %d, want 64", got)
	}
	if got := unsafe.Sizeof(ShGeometryInstance{}); got != 16*4*2+32*4 {
		t.Errorf("ShGeometryInstance size = %d, want %d", got, 16*4*2+32*4)
	}
	if got := unsafe.Offsetof(ShVertex{}.TexCoord); got != 48 {
		t.Errorf("TexCoord offset = %d, want 48", got)
	}
	if got := unsafe.Offsetof(ShGeometryInstance{}.BaseVertexIndex); got != 128+12*4 {
		t.Errorf("BaseVertexIndex offset = %d", got)
	}
}

func TestTopLevelInstanceCountMatchesGroupTable(t *testing.T) {
	// three change frequencies, three pass-through kinds, five visibility roles
	if MAX_TOP_LEVEL_INSTANCE_COUNT != 3*3*5 {
		t.Fatalf("MAX_TOP_LEVEL_INSTANCE_COUNT = %d", MAX_TOP_LEVEL_INSTANCE_COUNT)
	}
}
