package collector

import (
	"testing"

	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
)

func TestFilterSlots(t *testing.T) {
	seen := make(map[int]FilterTypeFlags)
	for i, f := range AllFilterGroups() {
		slot, ok := f.Slot()
		if !ok {
			t.Fatalf("%s has no slot", f)
		}
		if slot != i {
			t.Errorf("%s: slot %d, want %d", f, slot, i)
		}
		if prev, dup := seen[slot]; dup {
			t.Errorf("%s and %s share slot %d", prev, f, slot)
		}
		seen[slot] = f
	}
	if len(seen) != int(metadata.MAX_TOP_LEVEL_INSTANCE_COUNT) {
		t.Errorf("%d groups, want %d", len(seen), metadata.MAX_TOP_LEVEL_INSTANCE_COUNT)
	}
}

func TestIllegalCombinationsHaveNoSlot(t *testing.T) {
	tests := []FilterTypeFlags{
		0,
		CF_DYNAMIC,
		CF_DYNAMIC | PT_OPAQUE,
		CF_DYNAMIC | CF_STATIC_MOVABLE | PT_OPAQUE | PV_WORLD_0,
		CF_DYNAMIC | PT_OPAQUE | PV_WORLD_0 | PV_WORLD_1,
		CF_DYNAMIC | PT_OPAQUE | PV_WORLD_0 | 1<<20,
	}
	for _, f := range tests {
		if _, ok := f.Slot(); ok {
			t.Errorf("%s has a slot", f)
		}
	}
}

func TestOffsetInGlobalArray(t *testing.T) {
	groups := AllFilterGroups()
	if got := OffsetInGlobalArray(groups[0]); got != 0 {
		t.Errorf("first offset = %d, want 0", got)
	}
	for i := 1; i < len(groups); i++ {
		want := OffsetInGlobalArray(groups[i-1]) + AmountInGlobalArray(groups[i-1])
		if got := OffsetInGlobalArray(groups[i]); got != want {
			t.Errorf("%s: offset %d, want %d", groups[i], got, want)
		}
	}
}

func TestAmountInGlobalArray(t *testing.T) {
	tests := []struct {
		flags FilterTypeFlags
		want  uint32
	}{
		{CF_DYNAMIC | PT_OPAQUE | PV_WORLD_0, metadata.MAX_BOTTOM_LEVEL_GEOMETRIES_COUNT},
		{CF_STATIC_NON_MOVABLE | PT_REFRACT | PV_WORLD_2, metadata.MAX_BOTTOM_LEVEL_GEOMETRIES_COUNT},
		{CF_DYNAMIC | PT_OPAQUE | PV_FIRST_PERSON, metadata.LOWER_BOTTOM_LEVEL_GEOMETRIES_COUNT},
		{CF_STATIC_MOVABLE | PT_ALPHA_TESTED | PV_FIRST_PERSON_VIEWER, metadata.LOWER_BOTTOM_LEVEL_GEOMETRIES_COUNT},
	}
	for _, tt := range tests {
		if got := AmountInGlobalArray(tt.flags); got != tt.want {
			t.Errorf("AmountInGlobalArray(%s) = %d, want %d", tt.flags, got, tt.want)
		}
	}
}

func TestFilterFlagsForGeometry(t *testing.T) {
	tests := []struct {
		name string
		mesh MeshInfo
		prim PrimitiveInfo
		want FilterTypeFlags
	}{
		{"dynamic", MeshInfo{}, PrimitiveInfo{}, CF_DYNAMIC | PT_OPAQUE | PV_WORLD_0},
		{"static", MeshInfo{IsStatic: true}, PrimitiveInfo{}, CF_STATIC_NON_MOVABLE | PT_OPAQUE | PV_WORLD_0},
		{"movable", MeshInfo{IsStatic: true, IsMovable: true}, PrimitiveInfo{}, CF_STATIC_MOVABLE | PT_OPAQUE | PV_WORLD_0},
		{"alpha tested", MeshInfo{}, PrimitiveInfo{Flags: PRIMITIVE_ALPHA_TESTED}, CF_DYNAMIC | PT_ALPHA_TESTED | PV_WORLD_0},
		{"water wins over alpha test", MeshInfo{}, PrimitiveInfo{Flags: PRIMITIVE_ALPHA_TESTED | PRIMITIVE_WATER}, CF_DYNAMIC | PT_REFRACT | PV_WORLD_0},
		{"portal", MeshInfo{}, PrimitiveInfo{Flags: PRIMITIVE_PORTAL}, CF_DYNAMIC | PT_REFRACT | PV_WORLD_0},
		{"first person", MeshInfo{Visibility: VisibilityFirstPerson}, PrimitiveInfo{}, CF_DYNAMIC | PT_OPAQUE | PV_FIRST_PERSON},
		{"viewer", MeshInfo{Visibility: VisibilityFirstPersonViewer}, PrimitiveInfo{}, CF_DYNAMIC | PT_OPAQUE | PV_FIRST_PERSON_VIEWER},
		{"world 2", MeshInfo{IsStatic: true, Visibility: VisibilityWorld2}, PrimitiveInfo{}, CF_STATIC_NON_MOVABLE | PT_OPAQUE | PV_WORLD_2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterFlagsForGeometry(&tt.mesh, &tt.prim); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFilterFlagsString(t *testing.T) {
	if got := (CF_DYNAMIC | PT_OPAQUE | PV_WORLD_1).String(); got != "CF_DYNAMIC|PT_OPAQUE|PV_WORLD_1" {
		t.Errorf("String() = %q", got)
	}
}
