package headless

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rtgeom/engine/renderer/gpu"
)

type CommandKind int

const (
	CommandCopy CommandKind = iota
	CommandBarrier
)

/**
 * @brief A recorded command. Copy commands fill Src/Dst/Regions, barrier
 * commands fill the stage masks and Barriers.
 */
type Command struct {
	Kind CommandKind

	Src     gpu.Buffer
	Dst     gpu.Buffer
	Regions []vk.BufferCopy

	SrcStage vk.PipelineStageFlags
	DstStage vk.PipelineStageFlags
	Barriers []gpu.BufferBarrier
}

/**
 * @brief CommandRecorder keeping a log of everything recorded. Copies between
 * headless buffers are executed immediately.
 */
type Recorder struct {
	Commands []Command
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) CmdCopyBuffer(src, dst gpu.Buffer, regions []vk.BufferCopy) {
	r.Commands = append(r.Commands, Command{
		Kind:    CommandCopy,
		Src:     src,
		Dst:     dst,
		Regions: append([]vk.BufferCopy(nil), regions...),
	})

	s, sok := src.(*Buffer)
	d, dok := dst.(*Buffer)
	if !sok || !dok {
		return
	}
	for _, rg := range regions {
		copy(d.data[rg.DstOffset:rg.DstOffset+rg.Size], s.data[rg.SrcOffset:rg.SrcOffset+rg.Size])
	}
}

func (r *Recorder) CmdPipelineBarrier(srcStage, dstStage vk.PipelineStageFlags, barriers []gpu.BufferBarrier) {
	r.Commands = append(r.Commands, Command{
		Kind:     CommandBarrier,
		SrcStage: srcStage,
		DstStage: dstStage,
		Barriers: append([]gpu.BufferBarrier(nil), barriers...),
	})
}

// Count returns how many commands of the given kind were recorded.
func (r *Recorder) Count(kind CommandKind) int {
	n := 0
	for _, c := range r.Commands {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.Commands = r.Commands[:0]
}
