package obfuscate

import (
	"testing"
	"time"
)

func TestClosure(t *testing.T) {
	tap := newMockedTap()
	stream := newStream(1, tap)
	closed := make(chan None)
	stream.open()
	go func() {
		for range stream.tube {
		}
		close(closed)
	}()

	if !tap.IsOpen() {
		t.Error("The tap was supposed to be open")
	}

	stream.shutdown()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Error("The stream was supposed to be closed")
	}

	if tap.IsOpen() {
		t.Error("The tap was supposed to be closed")
	}
}

func TestStreamForwardsWorkUnits(t *testing.T) {
	tap := newMockedTap()
	stream := newStream(2, tap)
	stream.open()
	defer stream.shutdown()

	first, second := NewWorkUnit(nil, nil), NewWorkUnit(nil, nil)
	tap.Push(first, second)

	for _, expected := range []*WorkUnit{first, second} {
		select {
		case actual := <-stream.tube:
			if actual != expected {
				t.Errorf("Expected work unit %p, actual %p", expected, actual)
			}
		case <-time.After(time.Second):
			t.Fatal("The work unit was not forwarded")
		}
	}
}
