package collector

import "fmt"

/**
 * @brief Geometries of one filter group, in the order they were pushed. The
 * three lists always have the same length.
 */
type filter struct {
	flags FilterTypeFlags

	geometries      []ASGeometry
	rangeInfos      []ASBuildRangeInfo
	primitiveCounts []uint32
}

func newFilter(flags FilterTypeFlags) *filter {
	return &filter{flags: flags}
}

func (f *filter) checkFlags(flags FilterTypeFlags) {
	if f.flags != flags {
		panic(fmt.Sprintf("collector: geometry of %s pushed to group %s", flags, f.flags))
	}
}

// pushGeometry returns the local index of the geometry in the group.
func (f *filter) pushGeometry(flags FilterTypeFlags, geom ASGeometry) uint32 {
	f.checkFlags(flags)
	localIndex := uint32(len(f.geometries))
	f.geometries = append(f.geometries, geom)
	return localIndex
}

func (f *filter) pushRangeInfo(flags FilterTypeFlags, rangeInfo ASBuildRangeInfo) {
	f.checkFlags(flags)
	f.rangeInfos = append(f.rangeInfos, rangeInfo)
}

func (f *filter) pushPrimitiveCount(flags FilterTypeFlags, primCount uint32) {
	f.checkFlags(flags)
	f.primitiveCounts = append(f.primitiveCounts, primCount)
}

func (f *filter) geometryCount() uint32 {
	return uint32(len(f.geometries))
}

// reset keeps the allocated capacity for the next frame.
func (f *filter) reset() {
	f.geometries = f.geometries[:0]
	f.rangeInfos = f.rangeInfos[:0]
	f.primitiveCounts = f.primitiveCounts[:0]
}
