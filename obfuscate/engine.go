package obfuscate

import (
	"context"
	"sync"

	"github.com/xitonix/xmask/logging"
)

// Engine is the type that runs the obfuscation tasks pushed by a Tap on a pool of workers.
type Engine struct {
	stream   *stream
	notify   bool
	progress chan *Result
	wg       *sync.WaitGroup
	cancel   context.CancelFunc
	workers  uint16
	log      logging.Logger

	startOnce sync.Once
	stopOnce  sync.Once

	//to prevent multiple go routines to run Start and Stop at the same time
	mux       sync.Mutex
	isRunning bool
}

// NewEngine creates a new engine with the specified number of workers.
//
// If enableProgress is true, a Result is published on the Progress channel whenever a task is
// picked up or finished. A nil logger disables logging.
func NewEngine(workers uint16, enableProgress bool, tap Tap, log logging.Logger) *Engine {
	if workers == 0 {
		workers = 1
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Engine{
		stream:   newStream(workers, tap),
		progress: make(chan *Result),
		wg:       &sync.WaitGroup{},
		notify:   enableProgress,
		workers:  workers,
		log:      log,
	}
}

// Progress returns a read-only channel on which the progress reports are published.
// The channel is closed when the engine stops.
func (e *Engine) Progress() <-chan *Result {
	return e.progress
}

func (e *Engine) reportProgress(ctx context.Context, r *Result) {
	if !e.notify {
		return
	}
	select {
	case e.progress <- r:
	case <-ctx.Done():
	}
}

// Start starts the workers to serve the requests coming through the tap.
// Once you are finished with the engine, you need to call the Stop function.
// It's safe to call this method on a running engine
func (e *Engine) Start() {
	e.mux.Lock()
	defer e.mux.Unlock()

	if e.isRunning {
		return
	}

	e.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		e.cancel = cancel

		for i := uint16(0); i < e.workers; i++ {
			e.wg.Add(1)
			go e.monitorStream(ctx)
		}
		e.stream.open()
		e.isRunning = true
		e.log.Debugf("the engine has been started with %d worker(s)", e.workers)
	})
}

// Stop stops the engine and releases the resources. The tasks in progress are cancelled.
// It's safe to call this function on a stopped engine
func (e *Engine) Stop() {
	e.mux.Lock()
	defer e.mux.Unlock()

	if !e.isRunning {
		return
	}
	e.stopOnce.Do(func() {
		if e.cancel != nil {
			e.isRunning = false
			e.stream.shutdown()
			e.cancel()
			e.wg.Wait()
			close(e.progress)
			e.log.Debug("the engine has been stopped")
		}
	})
}

// IsON returns true if the engine is running
func (e *Engine) IsON() bool {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.isRunning
}

func (e *Engine) monitorStream(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case wu, more := <-e.stream.tube:
			if !more {
				return
			}
			e.process(ctx, wu)
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) process(ctx context.Context, wu *WorkUnit) {
	if wu == nil || wu.Task == nil {
		return
	}
	e.reportProgress(ctx, &Result{
		Status:   Queued,
		Metadata: wu.Metadata,
	})

	task := wu.Task
	e.log.Debugf("%s: %s started", task.Name, task.mode)
	task.markAsInProgress()
	status, err := task.run(ctx)
	task.markAsComplete(status)
	wu.Error = err

	if err != nil {
		e.log.Errorf("%s: failed to %s: %s", task.Name, task.mode, err)
	} else {
		e.log.Infof("%s: %s", task.Name, status)
	}

	wu.callBack()
	e.reportProgress(ctx, &Result{
		Error:    err,
		Status:   status,
		Metadata: wu.Metadata,
	})
}
