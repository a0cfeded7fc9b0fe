// Package filesystem holds back the files which are still being written to.
package filesystem

import (
	"os"
	"sort"
	"sync"
	"time"
)

// DefaultQuietPeriod the time a file needs to stay untouched before it is considered complete
const DefaultQuietPeriod = 2 * time.Second

// Queue tracks the files reported by a filesystem watcher until they stop changing
type Queue struct {
	mux      sync.Mutex
	quiet    time.Duration
	monitors map[string]*fileMonitor
	now      func() time.Time
}

// NewQueue creates a new queue. A zero quiet period means DefaultQuietPeriod.
func NewQueue(quiet time.Duration) *Queue {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Queue{
		quiet:    quiet,
		monitors: make(map[string]*fileMonitor),
		now:      time.Now,
	}
}

// Touch adds the file to the queue or restarts its quiet period.
// Directories and files which no longer exist are ignored.
func (q *Queue) Touch(path string) error {
	f, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			q.Remove(path)
			return nil
		}
		return err
	}
	if f.IsDir() {
		return nil
	}

	q.mux.Lock()
	defer q.mux.Unlock()
	if m, ok := q.monitors[path]; ok {
		m.update(q.now())
		return nil
	}
	q.monitors[path] = newFileMonitor(path, q.now())
	return nil
}

// Remove stops tracking the file
func (q *Queue) Remove(path string) {
	q.mux.Lock()
	defer q.mux.Unlock()
	delete(q.monitors, path)
}

// Len returns the number of files in the queue
func (q *Queue) Len() int {
	q.mux.Lock()
	defer q.mux.Unlock()
	return len(q.monitors)
}

// Ready removes and returns the files which have been quiet for long enough, sorted by path
func (q *Queue) Ready() []string {
	q.mux.Lock()
	defer q.mux.Unlock()
	now := q.now()
	ready := make([]string, 0)
	for path, m := range q.monitors {
		if m.isReady(now, q.quiet) {
			ready = append(ready, path)
			delete(q.monitors, path)
		}
	}
	sort.Strings(ready)
	return ready
}
