package collector

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
)

/**
 * @brief Classification of a geometry along three axes: how often it changes,
 * how rays pass through it and which primary visibility group it belongs to.
 * A filter group is keyed by exactly one bit of each axis.
 */
type FilterTypeFlags uint32

const (
	CF_STATIC_NON_MOVABLE FilterTypeFlags = 1 << 0
	CF_STATIC_MOVABLE     FilterTypeFlags = 1 << 1
	CF_DYNAMIC            FilterTypeFlags = 1 << 2

	PT_OPAQUE       FilterTypeFlags = 1 << 3
	PT_ALPHA_TESTED FilterTypeFlags = 1 << 4
	PT_REFRACT      FilterTypeFlags = 1 << 5

	PV_WORLD_0             FilterTypeFlags = 1 << 6
	PV_WORLD_1             FilterTypeFlags = 1 << 7
	PV_WORLD_2             FilterTypeFlags = 1 << 8
	PV_FIRST_PERSON        FilterTypeFlags = 1 << 9
	PV_FIRST_PERSON_VIEWER FilterTypeFlags = 1 << 10
)

const (
	MASK_CHANGE_FREQUENCY_GROUP   = CF_STATIC_NON_MOVABLE | CF_STATIC_MOVABLE | CF_DYNAMIC
	MASK_PASS_THROUGH_GROUP       = PT_OPAQUE | PT_ALPHA_TESTED | PT_REFRACT
	MASK_PRIMARY_VISIBILITY_GROUP = PV_WORLD_0 | PV_WORLD_1 | PV_WORLD_2 | PV_FIRST_PERSON | PV_FIRST_PERSON_VIEWER

	// ALL_FILTERS enables every group of every axis.
	ALL_FILTERS = MASK_CHANGE_FREQUENCY_GROUP | MASK_PASS_THROUGH_GROUP | MASK_PRIMARY_VISIBILITY_GROUP
)

const (
	changeFrequencyCount   = 3
	passThroughCount       = 3
	primaryVisibilityCount = 5

	FilterGroupCount = changeFrequencyCount * passThroughCount * primaryVisibilityCount
)

// The table size and the top level instance budget are the same number.
var _ = [1]struct{}{}[FilterGroupCount-int(metadata.MAX_TOP_LEVEL_INSTANCE_COUNT)]

// allFilterGroups lists every legal combination, ordered by slot.
var allFilterGroups = func() (table [FilterGroupCount]FilterTypeFlags) {
	i := 0
	for cf := 0; cf < changeFrequencyCount; cf++ {
		for pt := 0; pt < passThroughCount; pt++ {
			for pv := 0; pv < primaryVisibilityCount; pv++ {
				table[i] = CF_STATIC_NON_MOVABLE<<cf | PT_OPAQUE<<pt | PV_WORLD_0<<pv
				i++
			}
		}
	}
	return table
}()

// offsetsInGlobalArray is the prefix sum of the group budgets, by slot.
var offsetsInGlobalArray = func() (offsets [FilterGroupCount]uint32) {
	var sum uint32
	for i, f := range allFilterGroups {
		offsets[i] = sum
		sum += AmountInGlobalArray(f)
	}
	return offsets
}()

// AllFilterGroups returns every legal flag combination in slot order.
func AllFilterGroups() []FilterTypeFlags {
	return allFilterGroups[:]
}

// Slot returns the table position of a group. ok is false unless flags holds
// exactly one bit of each axis.
func (f FilterTypeFlags) Slot() (slot int, ok bool) {
	cf := f & MASK_CHANGE_FREQUENCY_GROUP
	pt := f & MASK_PASS_THROUGH_GROUP
	pv := f & MASK_PRIMARY_VISIBILITY_GROUP
	if f != cf|pt|pv || bits.OnesCount32(uint32(cf)) != 1 || bits.OnesCount32(uint32(pt)) != 1 || bits.OnesCount32(uint32(pv)) != 1 {
		return -1, false
	}
	cfi := bits.TrailingZeros32(uint32(cf))
	pti := bits.TrailingZeros32(uint32(pt)) - bits.TrailingZeros32(uint32(PT_OPAQUE))
	pvi := bits.TrailingZeros32(uint32(pv)) - bits.TrailingZeros32(uint32(PV_WORLD_0))
	return (cfi*passThroughCount+pti)*primaryVisibilityCount + pvi, true
}

func (f FilterTypeFlags) mustSlot() int {
	slot, ok := f.Slot()
	if !ok {
		panic(fmt.Sprintf("collector: %s is not a filter group", f))
	}
	return slot
}

func (f FilterTypeFlags) IsStatic() bool {
	return f&(CF_STATIC_NON_MOVABLE|CF_STATIC_MOVABLE) != 0
}

func (f FilterTypeFlags) IsDynamic() bool {
	return f&CF_DYNAMIC != 0
}

var flagNames = [...]string{
	"CF_STATIC_NON_MOVABLE", "CF_STATIC_MOVABLE", "CF_DYNAMIC",
	"PT_OPAQUE", "PT_ALPHA_TESTED", "PT_REFRACT",
	"PV_WORLD_0", "PV_WORLD_1", "PV_WORLD_2", "PV_FIRST_PERSON", "PV_FIRST_PERSON_VIEWER",
}

func (f FilterTypeFlags) String() string {
	if f == 0 {
		return "0"
	}
	var names []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if rest := f &^ ALL_FILTERS; rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(names, "|")
}

/**
 * @brief Geometry budget of a group in the global geometry info array.
 * First person groups hold few geometries and get the lower budget.
 */
func AmountInGlobalArray(flags FilterTypeFlags) uint32 {
	if flags&(PV_FIRST_PERSON|PV_FIRST_PERSON_VIEWER) != 0 {
		return metadata.LOWER_BOTTOM_LEVEL_GEOMETRIES_COUNT
	}
	return metadata.MAX_BOTTOM_LEVEL_GEOMETRIES_COUNT
}

/**
 * @brief First global geometry info index owned by a group. The global index of
 * a geometry is this offset plus its local index.
 */
func OffsetInGlobalArray(flags FilterTypeFlags) uint32 {
	return offsetsInGlobalArray[flags.mustSlot()]
}

// FilterFlagsForGeometry classifies one primitive of a mesh.
func FilterFlagsForGeometry(mesh *MeshInfo, primitive *PrimitiveInfo) FilterTypeFlags {
	var cf FilterTypeFlags
	switch {
	case !mesh.IsStatic:
		cf = CF_DYNAMIC
	case mesh.IsMovable:
		cf = CF_STATIC_MOVABLE
	default:
		cf = CF_STATIC_NON_MOVABLE
	}

	var pt FilterTypeFlags
	switch {
	case primitive.Flags&(PRIMITIVE_REFRACT|PRIMITIVE_WATER|PRIMITIVE_GLASS|PRIMITIVE_ACID|PRIMITIVE_PORTAL) != 0:
		pt = PT_REFRACT
	case primitive.Flags&PRIMITIVE_ALPHA_TESTED != 0:
		pt = PT_ALPHA_TESTED
	default:
		pt = PT_OPAQUE
	}

	var pv FilterTypeFlags
	switch mesh.Visibility {
	case VisibilityWorld1:
		pv = PV_WORLD_1
	case VisibilityWorld2:
		pv = PV_WORLD_2
	case VisibilityFirstPerson:
		pv = PV_FIRST_PERSON
	case VisibilityFirstPersonViewer:
		pv = PV_FIRST_PERSON_VIEWER
	default:
		pv = PV_WORLD_0
	}

	return cf | pt | pv
}
