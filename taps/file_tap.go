package taps

import (
	"fmt"
	"os"
	"sync"

	"github.com/xitonix/xmask/obfuscate"
)

// FileTap is a tap which processes the images currently in the source directory once.
//
// The Done channel gets closed when all the files have been processed.
type FileTap struct {
	*dispatcher
	wg       *sync.WaitGroup
	finished chan obfuscate.None

	// dispatched work units which have not been finished yet
	pendingMux   sync.Mutex
	pending      int
	walked       bool
	finishedOnce sync.Once

	openOnce  sync.Once
	closeOnce sync.Once

	// to prevent multiple go routines to run
	// Open and Close at the same time
	mux    sync.Mutex
	isOpen bool
}

// NewFileTap creates a new instance of file tap.
//
// "Source" and "Target" are the paths to source and destination directories. They will get created
// by the tap if they don't already exist.
func NewFileTap(cfg Config) (*FileTap, error) {
	d, err := newDispatcher(cfg)
	if err != nil {
		return nil, err
	}
	f := &FileTap{
		dispatcher: d,
		wg:         &sync.WaitGroup{},
		finished:   make(chan obfuscate.None),
	}
	d.onFinish = f.oneDone
	return f, nil
}

// Done returns a channel which is closed once all the files of the source directory have been processed.
func (f *FileTap) Done() <-chan obfuscate.None {
	return f.finished
}

// Open starts walking the source directory.
// You SHOULD NOT call this method explicitly when you use the tap with an Engine object.
// Starting the engine will take care of opening the tap.
func (f *FileTap) Open() {
	f.mux.Lock()
	defer f.mux.Unlock()

	f.openOnce.Do(func() {
		f.isOpen = true
		f.wg.Add(1)
		go f.process()
	})
}

// Close stops walking the source directory and releases the resources.
// NOTE: You don't need to explicitly call this function when you are using the tap
// with an Engine
func (f *FileTap) Close() {
	f.mux.Lock()
	defer f.mux.Unlock()

	f.closeOnce.Do(func() {
		f.isOpen = false
		close(f.done)
		f.wg.Wait()
		f.shutdown()
	})
}

// IsOpen returns true if the tap is open
func (f *FileTap) IsOpen() bool {
	f.mux.Lock()
	defer f.mux.Unlock()
	return f.isOpen
}

func (f *FileTap) process() {
	defer f.wg.Done()
	err := f.walk(func(path string, _ os.FileInfo) {
		f.oneStarted()
		if !f.dispatch(path) {
			f.oneDone()
		}
	})
	if err != nil {
		f.reportError(fmt.Errorf("failed to walk '%s': %w", f.source, err))
	}

	f.pendingMux.Lock()
	f.walked = true
	f.pendingMux.Unlock()
	f.finishIfDone()
}

func (f *FileTap) oneStarted() {
	f.pendingMux.Lock()
	defer f.pendingMux.Unlock()
	f.pending++
}

func (f *FileTap) oneDone() {
	f.pendingMux.Lock()
	f.pending--
	f.pendingMux.Unlock()
	f.finishIfDone()
}

func (f *FileTap) finishIfDone() {
	f.pendingMux.Lock()
	defer f.pendingMux.Unlock()
	if f.walked && f.pending == 0 {
		f.finishedOnce.Do(func() {
			close(f.finished)
		})
	}
}
