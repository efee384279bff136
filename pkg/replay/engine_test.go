package replay

import (
	"testing"
	"time"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
)

var testBase = time.Date(2023, 8, 27, 12, 0, 0, 0, time.UTC)

func ev(entityID uint32, x, y float64, delayMs uint64) model.TelemetryEvent {
	return model.TelemetryEvent{
		Timestamp: testBase,
		EntityID:  entityID,
		X:         x,
		Y:         y,
		DelayMs:   delayMs,
	}
}

func TestEngineStart(t *testing.T) {
	e := NewEngine([]model.TelemetryEvent{ev(1, 0, 0, 100), ev(2, 1, 0, 50)})
	if e.Running() {
		t.Error("engine must not run before Start")
	}
	e.Start(testBase)
	if !e.Running() {
		t.Error("engine should run after Start")
	}
	if e.Cursor() != 0 {
		t.Errorf("cursor not correct: %d", e.Cursor())
	}
	// the first event is due after its own delay
	want := testBase.Add(100 * time.Millisecond)
	if !e.Deadline().Equal(want) {
		t.Errorf("deadline not correct: %v, want %v", e.Deadline(), want)
	}
}

func TestEngineTickBeforeDeadline(t *testing.T) {
	e := NewEngine([]model.TelemetryEvent{ev(1, 0, 0, 100)})
	e.Start(testBase)
	if got := e.Tick(testBase.Add(99 * time.Millisecond)); got != 0 {
		t.Errorf("tick before deadline consumed %d events", got)
	}
	if e.Cursor() != 0 {
		t.Errorf("cursor not correct: %d", e.Cursor())
	}
}

func TestEngineTickAtDeadline(t *testing.T) {
	e := NewEngine([]model.TelemetryEvent{ev(1, 0, 0, 100)})
	e.Start(testBase)
	if got := e.Tick(testBase.Add(100 * time.Millisecond)); got != 1 {
		t.Errorf("tick at deadline consumed %d events", got)
	}
	if e.Cursor() != 1 {
		t.Errorf("cursor not correct: %d", e.Cursor())
	}
}

func TestEngineSingleStep(t *testing.T) {
	e := NewEngine([]model.TelemetryEvent{
		ev(1, 0, 0, 100), ev(2, 1, 0, 50), ev(3, 0, 1, 50),
	})
	e.Start(testBase)
	// all three events are overdue, but a tick consumes only one
	late := testBase.Add(10 * time.Second)
	if got := e.Tick(late); got != 1 {
		t.Errorf("tick consumed %d events, want 1", got)
	}
	if got := e.Tick(late); got != 1 {
		t.Errorf("second tick consumed %d events, want 1", got)
	}
	if e.Cursor() != 2 {
		t.Errorf("cursor not correct: %d", e.Cursor())
	}
}

func TestEngineCatchUp(t *testing.T) {
	e := NewEngine([]model.TelemetryEvent{
		ev(1, 0, 0, 100), ev(2, 1, 0, 50), ev(3, 0, 1, 50),
	}, WithCatchUp())
	e.Start(testBase)
	// only the first two are due at 150ms
	if got := e.Tick(testBase.Add(150 * time.Millisecond)); got != 2 {
		t.Errorf("tick consumed %d events, want 2", got)
	}
	if e.Cursor() != 2 {
		t.Errorf("cursor not correct: %d", e.Cursor())
	}
}

func TestEngineDeadlineInvariant(t *testing.T) {
	events := []model.TelemetryEvent{
		ev(1, 0, 0, 100), ev(2, 1, 0, 50), ev(3, 0, 1, 250),
	}
	e := NewEngine(events)
	e.Start(testBase)

	var cumulative time.Duration
	now := testBase
	for i := range events {
		cumulative += events[i].Delay()
		want := testBase.Add(cumulative)
		if !e.Deadline().Equal(want) {
			t.Errorf("deadline before step %d not correct: %v, want %v",
				i, e.Deadline(), want)
		}
		now = now.Add(time.Second)
		if got := e.Tick(now); got != 1 {
			t.Errorf("step %d consumed %d events", i, got)
		}
	}
	if !e.Done() {
		t.Error("engine should be done")
	}
}

func TestEngineHoldAtEnd(t *testing.T) {
	e := NewEngine([]model.TelemetryEvent{ev(1, 0, 0, 10)})
	e.Start(testBase)
	e.Tick(testBase.Add(time.Second))
	if !e.Done() {
		t.Error("engine should be done")
	}
	if !e.Running() {
		t.Error("engine should hold: running stays true at end of log")
	}
	// further ticks are no-ops, the cursor never exceeds the log length
	for i := 0; i < 3; i++ {
		if got := e.Tick(testBase.Add(time.Hour)); got != 0 {
			t.Errorf("tick after end consumed %d events", got)
		}
	}
	if e.Cursor() != 1 {
		t.Errorf("cursor not correct: %d", e.Cursor())
	}
}

func TestEngineRestart(t *testing.T) {
	e := NewEngine([]model.TelemetryEvent{ev(1, 0, 0, 100), ev(2, 1, 0, 50)})
	e.Start(testBase)
	e.Tick(testBase.Add(time.Second))
	if e.Cursor() != 1 {
		t.Fatalf("cursor not correct: %d", e.Cursor())
	}
	restartAt := testBase.Add(2 * time.Second)
	e.Start(restartAt)
	if e.Cursor() != 0 {
		t.Errorf("cursor after restart not correct: %d", e.Cursor())
	}
	want := restartAt.Add(100 * time.Millisecond)
	if !e.Deadline().Equal(want) {
		t.Errorf("deadline after restart not correct: %v, want %v", e.Deadline(), want)
	}
}

func TestEngineReset(t *testing.T) {
	e := NewEngine([]model.TelemetryEvent{ev(1, 0, 0, 100)})
	e.Start(testBase)
	e.Tick(testBase.Add(time.Second))
	resetAt := testBase.Add(2 * time.Second)
	e.Reset(resetAt)
	if e.Running() {
		t.Error("engine must not run after Reset")
	}
	if e.Cursor() != 0 {
		t.Errorf("cursor not correct: %d", e.Cursor())
	}
	// deadlines are re-anchored just like Start does
	want := resetAt.Add(100 * time.Millisecond)
	if !e.Deadline().Equal(want) {
		t.Errorf("deadline after reset not correct: %v, want %v", e.Deadline(), want)
	}
	// a stopped engine ignores ticks
	if got := e.Tick(testBase.Add(time.Hour)); got != 0 {
		t.Errorf("stopped engine consumed %d events", got)
	}
}

func TestEngineEmptyLog(t *testing.T) {
	e := NewEngine(nil)
	e.Start(testBase)
	if !e.Done() {
		t.Error("empty log should be done immediately")
	}
	if got := e.Tick(testBase.Add(time.Second)); got != 0 {
		t.Errorf("tick on empty log consumed %d events", got)
	}
	if e.Cursor() != 0 {
		t.Errorf("cursor not correct: %d", e.Cursor())
	}
}

func TestEngineCurrent(t *testing.T) {
	first := ev(1, 0, 0, 100)
	second := ev(2, 1, 0, 50)
	e := NewEngine([]model.TelemetryEvent{first, second})
	e.Start(testBase)
	if current, ok := e.Current(); !ok || current.EntityID != 1 {
		t.Errorf("current not correct: %+v ok=%v", current, ok)
	}
	e.Tick(testBase.Add(time.Second))
	if current, ok := e.Current(); !ok || current.EntityID != 2 {
		t.Errorf("current not correct: %+v ok=%v", current, ok)
	}
	e.Tick(testBase.Add(2 * time.Second))
	if _, ok := e.Current(); ok {
		t.Error("current should not be present at end of log")
	}
}
