// Package geominfo keeps the per-frame geometry instance records read by the
// ray tracing shaders and matches them against the previous frame.
package geominfo

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/renderer/collector"
	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
	"golang.org/x/exp/slices"
)

// RecordSize is the byte size of one encoded geometry instance.
const RecordSize = int(unsafe.Sizeof(metadata.ShGeometryInstance{}))

type record struct {
	info  metadata.ShGeometryInstance
	flags collector.FilterTypeFlags
	id    collector.PrimitiveUniqueID
	// prevIndex is the global index of the same primitive in the previous
	// frame, or GEOM_INST_NO_TRIANGLE_INFO.
	prevIndex uint32
}

type frameSlot struct {
	records map[uint32]*record
	byID    map[collector.PrimitiveUniqueID]uint32
}

func newFrameSlot() *frameSlot {
	return &frameSlot{
		records: make(map[uint32]*record),
		byID:    make(map[collector.PrimitiveUniqueID]uint32),
	}
}

// put stores a record; its id resolves to it from now on.
func (s *frameSlot) put(globalIndex uint32, r *record) {
	if old, ok := s.records[globalIndex]; ok && s.byID[old.id] == globalIndex {
		delete(s.byID, old.id)
	}
	s.records[globalIndex] = r
	s.byID[r.id] = globalIndex
}

/**
 * @brief Geometry info registry with one slot per frame in flight. Safe for
 * concurrent use by several collectors.
 */
type Manager struct {
	mu    sync.Mutex
	slots []*frameSlot
}

func NewManager(framesInFlight uint32) *Manager {
	if framesInFlight == 0 {
		panic("geominfo: zero frames in flight")
	}
	m := &Manager{slots: make([]*frameSlot, framesInFlight)}
	for i := range m.slots {
		m.slots[i] = newFrameSlot()
	}
	return m
}

func (m *Manager) FramesInFlight() uint32 {
	return uint32(len(m.slots))
}

func (m *Manager) slot(frameIndex uint32) *frameSlot {
	return m.slots[frameIndex%uint32(len(m.slots))]
}

func (m *Manager) prevSlot(frameIndex uint32) *frameSlot {
	n := uint32(len(m.slots))
	return m.slots[(frameIndex%n+n-1)%n]
}

func (m *Manager) GetCount(frameIndex uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint32(len(m.slot(frameIndex).records))
}

/**
 * @brief Stores the record of a primitive at OffsetInGlobalArray(flags) +
 * localIndex. If the same primitive was written in the previous frame, its
 * transform and base offsets become the previous-frame values of the record.
 */
func (m *Manager) WriteGeomInfo(frameIndex uint32, uniqueID collector.PrimitiveUniqueID, localIndex uint32, flags collector.FilterTypeFlags, info *metadata.ShGeometryInstance) {
	if limit := collector.AmountInGlobalArray(flags); localIndex >= limit {
		panic(fmt.Sprintf("geominfo: local index %d out of group %s with %d geometries", localIndex, flags, limit))
	}
	globalIndex := collector.OffsetInGlobalArray(flags) + localIndex

	m.mu.Lock()
	defer m.mu.Unlock()

	// both records stay, each backs a geometry of the BLAS; the next frame
	// matches the latest one
	cur := m.slot(frameIndex)
	if existing, ok := cur.byID[uniqueID]; ok && existing != globalIndex {
		core.LogWarn("Geometry %d/%d was written twice in frame %d", uniqueID.ObjectID, uniqueID.PrimitiveIndex, frameIndex)
	}

	r := &record{info: *info, flags: flags, id: uniqueID, prevIndex: metadata.GEOM_INST_NO_TRIANGLE_INFO}
	r.info.PrevModel = r.info.Model
	r.info.PrevBaseVertexIndex = r.info.BaseVertexIndex
	r.info.PrevBaseIndexIndex = r.info.BaseIndexIndex

	if prev := m.prevSlot(frameIndex); prev != cur {
		if prevIndex, ok := prev.byID[uniqueID]; ok {
			p := prev.records[prevIndex]
			r.info.PrevModel = p.info.Model
			r.info.PrevBaseVertexIndex = p.info.BaseVertexIndex
			r.info.PrevBaseIndexIndex = p.info.BaseIndexIndex
			r.prevIndex = prevIndex
		}
	}

	cur.put(globalIndex, r)
}

// Record returns a copy of the record stored at a global index.
func (m *Manager) Record(frameIndex, globalIndex uint32) (metadata.ShGeometryInstance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.slot(frameIndex).records[globalIndex]
	if !ok {
		return metadata.ShGeometryInstance{}, false
	}
	return r.info, true
}

// MatchPrev returns the previous-frame global index of the geometry at globalIndex.
func (m *Manager) MatchPrev(frameIndex, globalIndex uint32) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.slot(frameIndex).records[globalIndex]
	if !ok || r.prevIndex == metadata.GEOM_INST_NO_TRIANGLE_INFO {
		return 0, false
	}
	return r.prevIndex, true
}

// PrepareForFrame drops every record of the frame slot.
func (m *Manager) PrepareForFrame(frameIndex uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[frameIndex%uint32(len(m.slots))] = newFrameSlot()
}

/**
 * @brief Drops the dynamic records of the frame slot. Static records are
 * carried over from the previous frame, as static geometry is only written
 * when it is uploaded.
 */
func (m *Manager) ResetOnlyDynamic(frameIndex uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fresh := newFrameSlot()
	source := m.prevSlot(frameIndex)
	if len(m.slots) == 1 {
		source = m.slot(frameIndex)
	}
	for globalIndex, r := range source.records {
		if r.flags.IsStatic() {
			kept := *r
			// static geometry matches itself
			kept.info.PrevModel = kept.info.Model
			kept.info.PrevBaseVertexIndex = kept.info.BaseVertexIndex
			kept.info.PrevBaseIndexIndex = kept.info.BaseIndexIndex
			kept.prevIndex = globalIndex
			fresh.put(globalIndex, &kept)
		}
	}
	for id, globalIndex := range source.byID {
		if _, ok := fresh.records[globalIndex]; ok {
			fresh.byID[id] = globalIndex
		}
	}
	m.slots[frameIndex%uint32(len(m.slots))] = fresh
}

func (m *Manager) sortedIndices(s *frameSlot) []uint32 {
	indices := make([]uint32, 0, len(s.records))
	for i := range s.records {
		indices = append(indices, i)
	}
	slices.Sort(indices)
	return indices
}

/**
 * @brief Encodes the records of a frame for upload: little-endian, one
 * RecordSize block per global index up to the highest one written. Unused
 * indices are zero.
 */
func (m *Manager) Encode(frameIndex uint32) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.slot(frameIndex)
	indices := m.sortedIndices(s)
	if len(indices) == 0 {
		return nil, nil
	}

	out := make([]byte, (int(indices[len(indices)-1])+1)*RecordSize)
	for _, i := range indices {
		off := int(i) * RecordSize
		if _, err := binary.Encode(out[off:off+RecordSize], binary.LittleEndian, &s.records[i].info); err != nil {
			err = fmt.Errorf("failed to encode geometry instance %d: %w", i, err)
			core.LogError(err.Error())
			return nil, err
		}
	}
	return out, nil
}

/**
 * @brief Encodes, per global index of the previous frame, the global index the
 * same geometry has in this frame, or GEOM_INST_NO_TRIANGLE_INFO.
 */
func (m *Manager) EncodeMatchPrev(frameIndex uint32) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.slot(frameIndex)
	var maxPrev uint32
	found := false
	for _, r := range s.records {
		if r.prevIndex != metadata.GEOM_INST_NO_TRIANGLE_INFO && (!found || r.prevIndex > maxPrev) {
			maxPrev, found = r.prevIndex, true
		}
	}
	if !found {
		return nil
	}

	out := make([]byte, (int(maxPrev)+1)*4)
	for i := 0; i < len(out); i += 4 {
		binary.LittleEndian.PutUint32(out[i:], metadata.GEOM_INST_NO_TRIANGLE_INFO)
	}
	for globalIndex, r := range s.records {
		if r.prevIndex != metadata.GEOM_INST_NO_TRIANGLE_INFO {
			binary.LittleEndian.PutUint32(out[int(r.prevIndex)*4:], globalIndex)
		}
	}
	return out
}

var primitiveFlagBits = []struct {
	primitive collector.PrimitiveFlags
	instance  uint32
}{
	{collector.PRIMITIVE_REFLECT, metadata.GEOM_INST_FLAG_REFLECT},
	{collector.PRIMITIVE_REFRACT, metadata.GEOM_INST_FLAG_REFRACT},
	{collector.PRIMITIVE_PORTAL, metadata.GEOM_INST_FLAG_PORTAL},
	{collector.PRIMITIVE_WATER, metadata.GEOM_INST_FLAG_MEDIA_TYPE_WATER},
	{collector.PRIMITIVE_GLASS, metadata.GEOM_INST_FLAG_MEDIA_TYPE_GLASS},
	{collector.PRIMITIVE_ACID, metadata.GEOM_INST_FLAG_MEDIA_TYPE_ACID},
	{collector.PRIMITIVE_NO_MEDIA_CHANGE, metadata.GEOM_INST_FLAG_NO_MEDIA_CHANGE},
	{collector.PRIMITIVE_IGNORE_REFRACT_AFTER, metadata.GEOM_INST_FLAG_IGNORE_REFRACT_AFTER},
	{collector.PRIMITIVE_EXACT_NORMALS, metadata.GEOM_INST_FLAG_EXACT_NORMALS},
	{collector.PRIMITIVE_GENERATE_NORMALS, metadata.GEOM_INST_FLAG_GENERATE_NORMALS},
	{collector.PRIMITIVE_INVERTED_NORMALS, metadata.GEOM_INST_FLAG_INVERTED_NORMALS},
	{collector.PRIMITIVE_ALBEDO_MULT, metadata.GEOM_INST_FLAG_REFL_REFR_ALBEDO_MULT},
	{collector.PRIMITIVE_ALBEDO_ADD, metadata.GEOM_INST_FLAG_REFL_REFR_ALBEDO_ADD},
}

func (m *Manager) GetPrimitiveFlags(primitive *collector.PrimitiveInfo) uint32 {
	return PrimitiveFlags(primitive.Flags)
}

// PrimitiveFlags maps primitive classification bits to GEOM_INST_FLAG bits.
func PrimitiveFlags(flags collector.PrimitiveFlags) uint32 {
	var out uint32
	for _, b := range primitiveFlagBits {
		if flags&b.primitive != 0 {
			out |= b.instance
		}
	}
	return out
}

var _ collector.GeomInfoRegistry = (*Manager)(nil)
