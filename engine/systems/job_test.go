package systems

import (
	"errors"
	"sync"
	"testing"
)

func TestNewJobSystemRejectsBadConfig(t *testing.T) {
	if _, err := NewJobSystem(0, 1); !errors.Is(err, ErrNoWorkers) {
		t.Errorf("err = %v, want ErrNoWorkers", err)
	}
	if _, err := NewJobSystem(1, -1); !errors.Is(err, ErrNegativeChannelSize) {
		t.Errorf("err = %v, want ErrNegativeChannelSize", err)
	}
}

func TestJobSystemCallbacks(t *testing.T) {
	captureLog(t)
	js, err := NewJobSystem(2, 4)
	if err != nil {
		t.Fatal(err)
	}

	var (
		mu        sync.Mutex
		completed []any
		failed    []error
		callbacks int
	)
	errBoom := errors.New("boom")
	done := func() {
		mu.Lock()
		callbacks++
		mu.Unlock()
	}

	js.Submit(JobTask{
		OnStart: func() (any, error) { return 42, nil },
		OnComplete: func(result any) {
			mu.Lock()
			completed = append(completed, result)
			mu.Unlock()
		},
		OnCompletionCallback: done,
	})
	js.Submit(JobTask{
		OnStart: func() (any, error) { return nil, errBoom },
		OnComplete: func(any) {
			t.Error("OnComplete called for a failed job")
		},
		OnFailure: func(err error) {
			mu.Lock()
			failed = append(failed, err)
			mu.Unlock()
		},
		OnCompletionCallback: done,
	})
	// no callbacks at all
	js.Submit(JobTask{OnStart: func() (any, error) { return nil, nil }})

	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if len(completed) != 1 || completed[0] != 42 {
		t.Errorf("completed = %v", completed)
	}
	if len(failed) != 1 || !errors.Is(failed[0], errBoom) {
		t.Errorf("failed = %v", failed)
	}
	if callbacks != 2 {
		t.Errorf("completion callbacks = %d, want 2", callbacks)
	}
	if err := js.Shutdown(); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestTrySubmitOnFullQueue(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	release := make(chan struct{})
	started := make(chan struct{})
	js.Submit(JobTask{OnStart: func() (any, error) {
		close(started)
		<-release
		return nil, nil
	}})
	<-started

	if js.TrySubmit(JobTask{OnStart: func() (any, error) { return nil, nil }}) {
		t.Error("TrySubmit queued a job while the only worker is busy")
	}
	close(release)
	js.Shutdown()
}

func TestSubmitAfterShutdown(t *testing.T) {
	js, err := NewJobSystem(2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}

	ran := false
	job := JobTask{OnStart: func() (any, error) {
		ran = true
		return nil, nil
	}}
	if err := js.Submit(job); !errors.Is(err, ErrJobSystemClosed) {
		t.Errorf("Submit err = %v, want ErrJobSystemClosed", err)
	}
	if js.TrySubmit(job) {
		t.Error("TrySubmit queued a job after Shutdown")
	}
	if ran {
		t.Error("job ran after Shutdown")
	}
}
