package replay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
)

type recordingSink struct {
	mu     sync.Mutex
	frames []*model.Frame
	states []*model.PlaybackState
}

func (s *recordingSink) SinkFrame(frame *model.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
	return nil
}

func (s *recordingSink) SinkState(state *model.PlaybackState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *recordingSink) lastFrame() *model.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *recordingSink) collectedStates() []*model.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.PlaybackState{}, s.states...)
}

func TestRunnerIdleEmitsFrames(t *testing.T) {
	rec := &recordingSink{}
	engine := NewEngine([]model.TelemetryEvent{ev(5, 0, 0, 100)})
	runner := NewRunner(engine, newTestCompositor(),
		WithSink(rec), WithFPS(100))

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if rec.frameCount() == 0 {
		t.Fatal("idle runner should still emit frames")
	}
	// engine never started: every frame shows the empty prefix
	var lastSeq uint64
	for i, frame := range rec.frames {
		if frame.Cursor != 0 {
			t.Errorf("frame %d cursor not correct: %d", i, frame.Cursor)
		}
		if frame.Seq <= lastSeq {
			t.Errorf("frame %d seq not monotonic: %d after %d", i, frame.Seq, lastSeq)
		}
		lastSeq = frame.Seq
	}
}

func TestRunnerEmitOnAdvanceOnly(t *testing.T) {
	rec := &recordingSink{}
	engine := NewEngine([]model.TelemetryEvent{ev(5, 0, 0, 100)})
	runner := NewRunner(engine, newTestCompositor(),
		WithSink(rec), WithFPS(100), WithEmitOnAdvanceOnly())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := rec.frameCount(); got != 0 {
		t.Errorf("stopped engine emitted %d frames", got)
	}
}

func TestRunnerStopWhenDone(t *testing.T) {
	rec := &recordingSink{}
	engine := NewEngine([]model.TelemetryEvent{ev(5, 0, 0, 1), ev(7, 0, 0, 1)})
	runner := NewRunner(engine, newTestCompositor(),
		WithSink(rec), WithFPS(200), WithStopWhenDone(), WithSessionKey("test-key"))

	runner.Start()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !runner.State().Done {
		t.Fatal("runner should be done")
	}
	last := rec.lastFrame()
	if last == nil || last.Cursor != 2 {
		t.Fatalf("final frame not correct: %+v", last)
	}

	var doneAnnounced bool
	for _, state := range rec.collectedStates() {
		if state.Done {
			doneAnnounced = true
			if state.SessionKey != "test-key" {
				t.Errorf("session key not correct: %s", state.SessionKey)
			}
		}
	}
	if !doneAnnounced {
		t.Error("done state was not announced")
	}
}

func TestRunnerStartStop(t *testing.T) {
	rec := &recordingSink{}
	engine := NewEngine([]model.TelemetryEvent{ev(5, 0, 0, 100)})
	runner := NewRunner(engine, newTestCompositor(), WithSink(rec))

	runner.Start()
	runner.Stop()

	states := rec.collectedStates()
	if len(states) != 2 {
		t.Fatalf("state announcements not correct: %d", len(states))
	}
	if !states[0].Running {
		t.Error("first announcement should be running")
	}
	if states[1].Running {
		t.Error("second announcement should be stopped")
	}
	if states[1].Cursor != 0 {
		t.Errorf("cursor after stop not correct: %d", states[1].Cursor)
	}
}

func TestRunnerCurrentFrame(t *testing.T) {
	engine := NewEngine([]model.TelemetryEvent{ev(5, 0, 0, 100)})
	runner := NewRunner(engine, newTestCompositor())
	frame := runner.CurrentFrame()
	if frame.Cursor != 0 {
		t.Errorf("cursor not correct: %d", frame.Cursor)
	}
	if len(frame.Ops) != len(testGrid) {
		t.Errorf("ops count not correct: %d", len(frame.Ops))
	}
}

func TestRunnerStateLabel(t *testing.T) {
	stamp := time.Date(2023, 8, 27, 13, 32, 5, 342_000_000, time.UTC)
	events := []model.TelemetryEvent{{
		Timestamp: stamp, EntityID: 5, DelayMs: 100,
	}}
	runner := NewRunner(NewEngine(events), newTestCompositor())
	state := runner.State()
	if state.Current != "13:32:05.342" {
		t.Errorf("current label not correct: %s", state.Current)
	}
	if state.Total != 1 {
		t.Errorf("total not correct: %d", state.Total)
	}
}
