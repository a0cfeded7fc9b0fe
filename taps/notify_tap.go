package taps

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rjeczalik/notify"

	"github.com/xitonix/xmask/taps/filesystem"
)

// NotifyTap is a tap which subscribes to the filesystem events of the source directory
// and pushes the new images to the engine once they have stopped changing.
//
// The images which already exist in the source directory when the tap is opened get processed too.
type NotifyTap struct {
	*dispatcher
	fsEvents chan notify.EventInfo
	queue    *filesystem.Queue
	wg       *sync.WaitGroup

	openOnce  sync.Once
	closeOnce sync.Once

	// to prevent multiple go routines to run
	// Open and Close at the same time
	mux    sync.Mutex
	isOpen bool
}

// NewNotifyTap creates a new instance of the event based directory tap.
//
// If you have enabled error notification by setting Config.NotifyErrors to true, you need to make sure
// that you subscribe to "Errors" channel to read off the notification pipe, otherwise you will get
// blocked on the full channel.
//
// "QuietPeriod" is how long a file must stay untouched before it gets processed.
func NewNotifyTap(cfg Config) (*NotifyTap, error) {
	d, err := newDispatcher(cfg)
	if err != nil {
		return nil, err
	}
	return &NotifyTap{
		dispatcher: d,
		queue:      filesystem.NewQueue(cfg.QuietPeriod),
		wg:         &sync.WaitGroup{},
		// Make the channel buffered to ensure no event is dropped. Notify will drop
		// an event if the receiver is not able to keep up the sending pace.
		fsEvents: make(chan notify.EventInfo, 64),
	}, nil
}

// Open starts the directory watcher on the source directory.
// You SHOULD NOT call this method explicitly when you use the tap with an Engine object.
// Starting the engine will take care of opening the tap.
func (d *NotifyTap) Open() {
	d.mux.Lock()
	defer d.mux.Unlock()

	d.openOnce.Do(func() {
		d.isOpen = true
		d.wg.Add(1)
		go d.startDirectoryWatcher()
	})
}

// Close stops the filesystem watcher and releases the resources.
// NOTE: You don't need to explicitly call this function when you are using the tap
// with an Engine
func (d *NotifyTap) Close() {
	d.mux.Lock()
	defer d.mux.Unlock()

	d.closeOnce.Do(func() {
		d.isOpen = false
		notify.Stop(d.fsEvents)
		close(d.done)
		d.wg.Wait()
		d.shutdown()
	})
}

// IsOpen returns true if the tap is open
func (d *NotifyTap) IsOpen() bool {
	d.mux.Lock()
	defer d.mux.Unlock()
	return d.isOpen
}

func (d *NotifyTap) startDirectoryWatcher() {
	defer d.wg.Done()

	if err := notify.Watch(filepath.Join(d.source, "..."), d.fsEvents, notify.Create, notify.Write, notify.Rename); err != nil {
		d.reportError(fmt.Errorf("failed to watch '%s': %w", d.source, err))
		return
	}

	// Queue the files which are currently in the source folder
	err := d.walk(func(path string, _ os.FileInfo) {
		d.touch(path)
	})
	if err != nil {
		d.reportError(fmt.Errorf("failed to walk '%s': %w", d.source, err))
	}

	ticker := time.NewTicker(d.cfg.PollingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.done:
			return
		case ei := <-d.fsEvents:
			path := ei.Path()
			if d.isIgnored(path) {
				continue
			}
			d.touch(path)
		case <-ticker.C:
			for _, path := range d.queue.Ready() {
				d.dispatch(path)
			}
		}
	}
}

func (d *NotifyTap) touch(path string) {
	if err := d.queue.Touch(path); err != nil {
		d.reportError(fmt.Errorf("failed to stat '%s': %w", path, err))
	}
}
