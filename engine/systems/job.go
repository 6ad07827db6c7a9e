package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/rtgeom/engine/core"
)

/**
 * @brief A unit of work executed by one of the job system's workers.
 */
type JobTask struct {
	// OnStart does the work. A non-nil error routes to OnFailure.
	OnStart    func() (any, error)
	OnComplete func(result any)
	OnFailure  func(err error)
	// OnCompletionCallback runs after OnComplete or OnFailure.
	OnCompletionCallback func()
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup

	// guards closed; senders hold it for reading
	mutex  sync.RWMutex
	closed bool
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrJobSystemClosed = fmt.Errorf("job submitted after the job system was shut down")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	result, err := job.OnStart()
	if err != nil {
		core.LogError(err.Error())
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
	} else if job.OnComplete != nil {
		job.OnComplete(result)
	}

	if job.OnCompletionCallback != nil {
		job.OnCompletionCallback()
	}
}

/**
 * @brief Shuts the job system down, waiting for queued jobs to finish.
 */
func (js *JobSystem) Shutdown() error {
	js.mutex.Lock()
	if !js.closed {
		js.closed = true
		close(js.jobQueue)
	}
	js.mutex.Unlock()
	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue is full.
 * @param jt The description of the job to be executed.
 * @return ErrJobSystemClosed once Shutdown was called.
 */
func (js *JobSystem) Submit(jt JobTask) error {
	js.mutex.RLock()
	defer js.mutex.RUnlock()
	if js.closed {
		return ErrJobSystemClosed
	}
	js.jobQueue <- jt
	return nil
}

// TrySubmit queues the job only if there is room and the system still runs,
// reporting whether it did.
func (js *JobSystem) TrySubmit(jt JobTask) bool {
	js.mutex.RLock()
	defer js.mutex.RUnlock()
	if js.closed {
		return false
	}
	select {
	case js.jobQueue <- jt:
		return true
	default:
		return false
	}
}
