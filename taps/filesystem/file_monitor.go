package filesystem

import (
	"sync"
	"time"
)

type fileMonitor struct {
	path       string
	mux        sync.Mutex
	lastUpdate time.Time
}

func newFileMonitor(path string, now time.Time) *fileMonitor {
	return &fileMonitor{
		path:       path,
		lastUpdate: now,
	}
}

func (m *fileMonitor) update(now time.Time) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.lastUpdate = now
}

func (m *fileMonitor) isReady(now time.Time, quiet time.Duration) bool {
	m.mux.Lock()
	defer m.mux.Unlock()
	return !m.lastUpdate.IsZero() && now.Sub(m.lastUpdate) >= quiet
}
