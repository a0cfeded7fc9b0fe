package obfuscate

import (
	"sync"
	"testing"
	"time"

	"github.com/mattetti/filebuffer"

	"github.com/xitonix/xmask/assert"
	"github.com/xitonix/xmask/geometry"
	"github.com/xitonix/xmask/imageio"
)

func waitFor(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan None)
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Timed out waiting for the work units")
	}
}

func TestStartStop(t *testing.T) {
	tap := newMockedTap()
	engine := NewEngine(1, false, tap, nil)
	engine.Start()
	engine.Start()

	if !tap.IsOpen() {
		t.Error("The tap was supposed to be open")
	}

	if !engine.IsON() {
		t.Error("The engine was supposed to be running")
	}

	engine.Stop()
	engine.Stop()

	if tap.IsOpen() {
		t.Error("The tap was supposed to be closed")
	}

	if engine.IsON() {
		t.Error("The engine was supposed to be off")
	}

	if _, more := <-engine.Progress(); more {
		t.Error("The progress channel was supposed to be closed")
	}
}

func TestObfuscateReveal(t *testing.T) {
	var (
		wg       sync.WaitGroup
		mux      sync.Mutex
		statuses []Status
	)
	cb := func(w *WorkUnit) {
		defer wg.Done()
		w.Task.CloseOutputs()
		w.Task.CloseInput()
		mux.Lock()
		statuses = append(statuses, w.Task.Status())
		mux.Unlock()
		if w.Error != nil {
			t.Errorf("expected 'nil' as error, but received '%v'", w.Error)
		}
	}

	testCases := []struct {
		title string
		key   string
		areas []geometry.Rect
	}{
		{
			title: "default_key",
			areas: []geometry.Rect{geometry.R(0, 0, 32, 32)},
		},
		{
			title: "custom_key",
			key:   "key",
			areas: []geometry.Rect{geometry.R(10, 10, 20, 40), geometry.R(40, 0, 24, 24)},
		},
	}

	tap := newMockedTap()
	engine := NewEngine(2, false, tap, nil)
	engine.Start()
	defer engine.Stop()

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			input := pngFile(t, 64, 64)
			original, _, err := imageio.Decode(filebuffer.New(input.Buff.Bytes()))
			if !assert.Errors(t, false, err, nil) {
				return
			}

			opts := DefaultOptions()
			opts.Key = tc.key
			obfuscated := filebuffer.New(nil)
			wg.Add(1)
			tap.Push(NewWorkUnit(NewEncodeTask(tc.title, input, obfuscated, tc.areas, opts), cb))
			waitFor(t, &wg)

			if obfuscated.Buff.Len() == 0 {
				t.Fatal("The obfuscated image is empty")
			}

			revealed := filebuffer.New(nil)
			wg.Add(1)
			task := NewDecodeTask(tc.title, filebuffer.New(obfuscated.Buff.Bytes()), revealed, DecodeOptions{Key: tc.key, Crop: true})
			tap.Push(NewWorkUnit(task, cb))
			waitFor(t, &wg)

			actual, format, err := imageio.Decode(filebuffer.New(revealed.Buff.Bytes()))
			if !assert.Errors(t, false, err, nil) {
				return
			}
			if format != imageio.PNG {
				t.Errorf("Expected format %v, actual %v", imageio.PNG, format)
			}
			assert.SameImage(t, original, actual, 0, assert.Fields{"title": tc.title})
		})
	}

	mux.Lock()
	defer mux.Unlock()
	if len(statuses) != len(testCases)*2 {
		t.Errorf("the callback function was supposed to get called %d times, but it was called %d time(s)", len(testCases)*2, len(statuses))
	}
	for _, s := range statuses {
		if s != Completed {
			t.Errorf("expected status '%v', actual '%v'", Completed, s)
		}
	}
}

func TestProgress(t *testing.T) {
	tap := newMockedTap()
	engine := NewEngine(1, true, tap, nil)
	engine.Start()
	defer engine.Stop()

	wu := NewWorkUnit(NewDecodeTask("blank", pngFile(t, 64, 64), filebuffer.New(nil), DecodeOptions{}), nil)
	wu.Metadata["input"] = "blank.png"
	go tap.Push(wu)

	expected := []Status{Queued, Failed}
	for _, e := range expected {
		select {
		case r := <-engine.Progress():
			if r.Status != e {
				t.Errorf("expected status '%v', actual '%v'", e, r.Status)
			}
			if r.Metadata["input"] != "blank.png" {
				t.Errorf("expected the work unit metadata, received %v", r.Metadata)
			}
			if e == Failed && r.Error == nil {
				t.Error("expected an error")
			}
		case <-time.After(10 * time.Second):
			t.Fatal("Timed out waiting for the progress report")
		}
	}
}
