package core

import "sync"

const AVG_COUNT uint8 = 30

/**
 * @brief Bytes staged for upload during a single frame.
 */
type UploadSample struct {
	VertexBytes    uint64
	IndexBytes     uint64
	TransformBytes uint64
	Primitives     uint32
	Rejected       uint32
}

func (s UploadSample) Total() uint64 {
	return s.VertexBytes + s.IndexBytes + s.TransformBytes
}

/**
 * @brief Rolling average of the staged upload volume over the last AVG_COUNT frames.
 */
type UploadMetrics struct {
	mu sync.Mutex

	FrameAVGCounter uint8
	Samples         [AVG_COUNT]UploadSample
	Filled          uint8
	Frames          uint64
	RejectedTotal   uint64
}

func NewUploadMetrics() *UploadMetrics {
	return &UploadMetrics{}
}

// Update pushes the sample of a finished frame.
func (m *UploadMetrics) Update(sample UploadSample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Samples[m.FrameAVGCounter] = sample
	m.FrameAVGCounter++
	m.FrameAVGCounter %= AVG_COUNT
	if m.Filled < AVG_COUNT {
		m.Filled++
	}
	m.Frames++
	m.RejectedTotal += uint64(sample.Rejected)
}

// AverageBytes returns the mean staged bytes per frame over the filled window.
func (m *UploadMetrics) AverageBytes() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Filled == 0 {
		return 0
	}
	var sum float64
	for i := uint8(0); i < m.Filled; i++ {
		sum += float64(m.Samples[i].Total())
	}
	return sum / float64(m.Filled)
}

// AveragePrimitives returns the mean accepted primitive count per frame.
func (m *UploadMetrics) AveragePrimitives() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Filled == 0 {
		return 0
	}
	var sum float64
	for i := uint8(0); i < m.Filled; i++ {
		sum += float64(m.Samples[i].Primitives)
	}
	return sum / float64(m.Filled)
}
