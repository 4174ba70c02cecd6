package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTriggerCoalesces(t *testing.T) {
	var calls atomic.Int32
	d := New(50*time.Millisecond, func() { calls.Add(1) })
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestTriggerRearms(t *testing.T) {
	var calls atomic.Int32
	d := New(80*time.Millisecond, func() { calls.Add(1) })
	defer d.Stop()

	d.Trigger()
	time.Sleep(50 * time.Millisecond)
	d.Trigger()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatal("fired before quiet period elapsed since last trigger")
	}
	time.Sleep(100 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestFlushRunsPendingOnce(t *testing.T) {
	var calls atomic.Int32
	d := New(time.Hour, func() { calls.Add(1) })
	defer d.Stop()

	if d.Flush() {
		t.Error("Flush with nothing pending should report false")
	}
	d.Trigger()
	if !d.Flush() {
		t.Error("Flush should report true")
	}
	if d.Flush() {
		t.Error("second Flush should be a no-op")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestStopDiscards(t *testing.T) {
	var calls atomic.Int32
	d := New(20*time.Millisecond, func() { calls.Add(1) })
	d.Trigger()
	d.Stop()
	d.Trigger()
	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("calls = %d after Stop, want 0", calls.Load())
	}
}

func TestDefaultDelay(t *testing.T) {
	if New(0, func() {}).delay != 2*time.Second {
		t.Error("default delay should be 2s")
	}
}

func TestFlushWaitsForRunningAction(t *testing.T) {
	started := make(chan struct{})
	var saved atomic.Bool
	d := New(10*time.Millisecond, func() {
		close(started)
		time.Sleep(200 * time.Millisecond)
		saved.Store(true)
	})
	defer d.Stop()

	d.Trigger()
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	if !d.Flush() {
		t.Error("Flush should report the awaited run")
	}
	if !saved.Load() {
		t.Fatal("Flush returned before the running action finished")
	}
}

func TestFlushWhileIdleDoesNotBlock(t *testing.T) {
	var calls atomic.Int32
	d := New(10*time.Millisecond, func() { calls.Add(1) })
	defer d.Stop()

	d.Trigger()
	time.Sleep(60 * time.Millisecond)

	done := make(chan bool)
	go func() { done <- d.Flush() }()
	select {
	case ran := <-done:
		if ran {
			t.Error("nothing was pending or running")
		}
	case <-time.After(time.Second):
		t.Fatal("Flush blocked with no action in flight")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
