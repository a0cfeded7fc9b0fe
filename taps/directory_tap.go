package taps

import (
	"fmt"
	"sync"
	"time"

	"github.com/radovskyb/watcher"

	"github.com/xitonix/xmask/taps/filesystem"
)

// DirectoryTap is a tap which polls the source directory and pushes the new images to the engine.
//
// The images which already exist in the source directory when the tap is opened get processed too.
type DirectoryTap struct {
	*dispatcher
	watcher *watcher.Watcher
	queue   *filesystem.Queue
	wg      *sync.WaitGroup

	openOnce  sync.Once
	closeOnce sync.Once

	//to prevent multiple go routines to run Open and Close at the same time
	mux    sync.Mutex
	isOpen bool
}

// NewDirectoryTap creates a new instance of the polling directory tap.
// You can feed this tap to an Engine object to automate your obfuscation tasks.
//
// If you have enabled error notification by setting Config.NotifyErrors to true, you need to make sure
// that you subscribe to "Errors" channel to read off the notification pipe, otherwise you will get
// blocked on the full channel.
//
// "PollingInterval" is the frequency of checking the "Source" directory for newly created files.
//
// if you set "DeleteCompleted" to true, the input files will get deleted, only if the
// operation has been finished successfully.
func NewDirectoryTap(cfg Config) (*DirectoryTap, error) {
	d, err := newDispatcher(cfg)
	if err != nil {
		return nil, err
	}

	w := watcher.New()
	w.FilterOps(watcher.Create, watcher.Write, watcher.Rename, watcher.Move)
	w.IgnoreHiddenFiles(true)

	if err := w.AddRecursive(d.source); err != nil {
		return nil, err
	}

	if err := w.Ignore(d.target); err != nil {
		return nil, err
	}

	return &DirectoryTap{
		dispatcher: d,
		watcher:    w,
		queue:      filesystem.NewQueue(cfg.QuietPeriod),
		wg:         &sync.WaitGroup{},
	}, nil
}

// Open starts the filesystem watcher on the source directory
func (f *DirectoryTap) Open() {
	f.mux.Lock()
	defer f.mux.Unlock()

	if f.isOpen {
		return
	}
	f.openOnce.Do(func() {
		// Queue the files which are currently in the source folder
		for path, file := range f.watcher.WatchedFiles() {
			if file.IsDir() || f.isIgnored(path) {
				continue
			}
			f.touch(path)
		}

		f.wg.Add(1)
		go f.monitorSourceDirectory()

		f.wg.Add(1)
		go f.startDirectoryWatcher()
		f.watcher.Wait()

		f.isOpen = true
	})
}

// Close stops the filesystem watcher and releases the resources.
// NOTE: You don't need to explicitly call this function when you are using this tap
// with an Engine. The engine will take care of it
func (f *DirectoryTap) Close() {
	f.mux.Lock()
	defer f.mux.Unlock()

	if !f.isOpen {
		return
	}
	f.closeOnce.Do(func() {
		f.isOpen = false
		close(f.done)
		f.watcher.Close()
		f.wg.Wait()
		f.shutdown()
	})
}

// IsOpen returns true if the tap is open
func (f *DirectoryTap) IsOpen() bool {
	f.mux.Lock()
	defer f.mux.Unlock()
	return f.isOpen
}

func (f *DirectoryTap) startDirectoryWatcher() {
	defer f.wg.Done()
	err := f.watcher.Start(f.cfg.PollingInterval)

	if err != nil {
		f.reportError(fmt.Errorf("filesystem watcher: %w", err))
	}
}

// monitorSourceDirectory keeps draining the watcher until it has been closed.
func (f *DirectoryTap) monitorSourceDirectory() {
	defer f.wg.Done()
	ticker := time.NewTicker(f.cfg.PollingInterval)
	defer ticker.Stop()
	for {
		select {
		case event := <-f.watcher.Event:
			if event.FileInfo == nil || event.IsDir() || f.isIgnored(event.Path) {
				continue
			}
			f.touch(event.Path)
		case err := <-f.watcher.Error:
			f.reportError(err)
		case <-ticker.C:
			for _, path := range f.queue.Ready() {
				f.dispatch(path)
			}
		case <-f.watcher.Closed:
			return
		}
	}
}

func (f *DirectoryTap) touch(path string) {
	if err := f.queue.Touch(path); err != nil {
		f.reportError(fmt.Errorf("failed to stat '%s': %w", path, err))
	}
}
