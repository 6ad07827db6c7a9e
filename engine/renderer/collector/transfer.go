package collector

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/renderer/gpu"
)

func (c *Collector) vertexBytesUsed() uint64 {
	return uint64(c.curVertexCount) * vertexSize
}

func (c *Collector) indexBytesUsed() uint64 {
	return uint64(c.curIndexCount) * indexSize
}

func (c *Collector) transformBytesUsed() uint64 {
	return uint64(c.curTransformCount) * transformSize
}

func (c *Collector) copyVertexDataFromStaging(cmd gpu.CommandRecorder) bool {
	if c.curVertexCount == 0 {
		return false
	}
	cmd.CmdCopyBuffer(c.stagingVertBuffer, c.vertBuffer.Buffer, []vk.BufferCopy{{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(c.vertexBytesUsed()),
	}})
	return true
}

func (c *Collector) copyIndexDataFromStaging(cmd gpu.CommandRecorder) bool {
	if c.curIndexCount == 0 {
		return false
	}
	cmd.CmdCopyBuffer(c.stagingIndexBuffer, c.indexBuffer.Buffer, []vk.BufferCopy{{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(c.indexBytesUsed()),
	}})
	return true
}

func (c *Collector) copyTransformsFromStaging(cmd gpu.CommandRecorder, insertMemBarrier bool) bool {
	if c.curTransformCount == 0 {
		return false
	}
	cmd.CmdCopyBuffer(c.stagingTransformsBuffer, c.transformsBuffer.Buffer, []vk.BufferCopy{{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(c.transformBytesUsed()),
	}})

	if insertMemBarrier {
		c.insertTransformsBarrier(cmd)
	}
	return true
}

// transforms are not preprocessed, they go straight to the BLAS build
func (c *Collector) insertTransformsBarrier(cmd gpu.CommandRecorder) {
	cmd.CmdPipelineBarrier(
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageAccelerationStructureBuildBit),
		[]gpu.BufferBarrier{{
			SrcAccessMask: vk.AccessFlags(vk.AccessTransferWriteBit),
			DstAccessMask: vk.AccessFlags(vk.AccessAccelerationStructureReadBit),
			Buffer:        c.transformsBuffer.Buffer,
			Offset:        0,
			Size:          c.transformBytesUsed(),
		}})
}

/**
 * @brief Records the copies of this frame's staged data to the device local
 * buffers, followed by the barriers making vertices and indices visible to
 * the vertex preprocessing compute shader and transforms to the BLAS build.
 * @return false if nothing was staged, in which case nothing is recorded.
 */
func (c *Collector) CopyFromStaging(cmd gpu.CommandRecorder) bool {
	vrtCopied := c.copyVertexDataFromStaging(cmd)
	indCopied := c.copyIndexDataFromStaging(cmd)
	trnCopied := c.copyTransformsFromStaging(cmd, false)

	shaderReadWrite := vk.AccessFlags(vk.AccessShaderReadBit) | vk.AccessFlags(vk.AccessShaderWriteBit)

	// just prepare for preprocessing, so no AS access at this moment
	barriers := make([]gpu.BufferBarrier, 0, 2)
	if vrtCopied {
		barriers = append(barriers, gpu.BufferBarrier{
			SrcAccessMask: vk.AccessFlags(vk.AccessTransferWriteBit),
			DstAccessMask: shaderReadWrite,
			Buffer:        c.vertBuffer.Buffer,
			Offset:        0,
			Size:          c.vertexBytesUsed(),
		})
	}
	if indCopied {
		barriers = append(barriers, gpu.BufferBarrier{
			SrcAccessMask: vk.AccessFlags(vk.AccessTransferWriteBit),
			DstAccessMask: shaderReadWrite,
			Buffer:        c.indexBuffer.Buffer,
			Offset:        0,
			Size:          c.indexBytesUsed(),
		})
	}
	if len(barriers) > 0 {
		cmd.CmdPipelineBarrier(
			vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)|vk.PipelineStageFlags(vk.PipelineStageAccelerationStructureBuildBit),
			barriers)
	}

	if trnCopied {
		c.insertTransformsBarrier(cmd)
	}

	return vrtCopied || indCopied || trnCopied
}

// InsertVertexPreprocessBeginBarrier records nothing: CopyFromStaging already
// made the data visible to the preprocessing stage.
func (c *Collector) InsertVertexPreprocessBeginBarrier(cmd gpu.CommandRecorder) {}

/**
 * @brief Makes the preprocessed vertices and indices visible to the BLAS
 * build and to ray tracing shaders.
 */
func (c *Collector) InsertVertexPreprocessFinishBarrier(cmd gpu.CommandRecorder) {
	srcAccess := vk.AccessFlags(vk.AccessShaderReadBit) | vk.AccessFlags(vk.AccessShaderWriteBit)
	dstAccess := vk.AccessFlags(vk.AccessAccelerationStructureReadBit) | vk.AccessFlags(vk.AccessShaderReadBit)

	barriers := make([]gpu.BufferBarrier, 0, 2)
	if c.curVertexCount > 0 {
		barriers = append(barriers, gpu.BufferBarrier{
			SrcAccessMask: srcAccess,
			DstAccessMask: dstAccess,
			Buffer:        c.vertBuffer.Buffer,
			Offset:        0,
			Size:          c.vertexBytesUsed(),
		})
	}
	if c.curIndexCount > 0 {
		barriers = append(barriers, gpu.BufferBarrier{
			SrcAccessMask: srcAccess,
			DstAccessMask: dstAccess,
			Buffer:        c.indexBuffer.Buffer,
			Offset:        0,
			Size:          c.indexBytesUsed(),
		})
	}
	if len(barriers) == 0 {
		return
	}

	cmd.CmdPipelineBarrier(
		vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		vk.PipelineStageFlags(vk.PipelineStageAccelerationStructureBuildBit)|vk.PipelineStageFlags(vk.PipelineStageRayTracingShaderBit),
		barriers)
}

// UploadSample reports the bytes staged since the last Reset.
func (c *Collector) UploadSample() core.UploadSample {
	return core.UploadSample{
		VertexBytes:    c.vertexBytesUsed(),
		IndexBytes:     c.indexBytesUsed(),
		TransformBytes: c.transformBytesUsed(),
		Primitives:     c.curPrimitiveCount,
	}
}
