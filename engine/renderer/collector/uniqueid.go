package collector

/**
 * @brief Identifies a primitive across frames: the same mesh object and
 * primitive index always produce the same id.
 */
type PrimitiveUniqueID struct {
	ObjectID       uint64
	PrimitiveIndex uint32
}

func MakeUniqueID(mesh *MeshInfo, primitive *PrimitiveInfo) PrimitiveUniqueID {
	return PrimitiveUniqueID{
		ObjectID:       mesh.UniqueObjectID,
		PrimitiveIndex: primitive.PrimitiveIndexInMesh,
	}
}
