package replay

import (
	"context"
	"sync"
	"time"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/sink"
)

// Runner drives an Engine with wall clock time and hands composed
// frames to a sink. The loop runs at a fixed frame rate; every pass
// ticks the engine and emits the resulting picture. Control methods
// may be called from other goroutines.
type Runner struct {
	mu     sync.Mutex
	engine *Engine
	comp   *Compositor
	out    sink.Sink

	key               string
	fps               int
	emitOnAdvanceOnly bool
	stopWhenDone      bool
	clock             func() time.Time

	seq      uint64
	wasDone  bool
	doneChan chan struct{}
	doneOnce sync.Once
}

type RunnerOption func(*Runner)

func WithSink(s sink.Sink) RunnerOption {
	return func(r *Runner) { r.out = s }
}

func WithFPS(fps int) RunnerOption {
	return func(r *Runner) {
		if fps > 0 {
			r.fps = fps
		}
	}
}

func WithSessionKey(key string) RunnerOption {
	return func(r *Runner) { r.key = key }
}

// WithEmitOnAdvanceOnly emits frames only when the cursor moved.
// Useful for file sinks where idle frames just repeat the picture.
func WithEmitOnAdvanceOnly() RunnerOption {
	return func(r *Runner) { r.emitOnAdvanceOnly = true }
}

// WithStopWhenDone terminates Run once the log is exhausted.
func WithStopWhenDone() RunnerOption {
	return func(r *Runner) { r.stopWhenDone = true }
}

// WithClock replaces the wall clock. Used by tests.
func WithClock(clock func() time.Time) RunnerOption {
	return func(r *Runner) { r.clock = clock }
}

func NewRunner(engine *Engine, comp *Compositor, opts ...RunnerOption) *Runner {
	ret := &Runner{
		engine:   engine,
		comp:     comp,
		out:      &sink.Discard{},
		fps:      30,
		clock:    time.Now,
		doneChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Run drives the playback loop until ctx is done. With WithStopWhenDone
// the loop also ends once the log is exhausted (after the final picture
// was emitted).
func (r *Runner) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(r.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Debug("runner loop started", log.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			log.Debug("runner loop terminated")
			return nil
		case <-r.doneChan:
			log.Debug("event log exhausted")
			return nil
		case <-ticker.C:
			r.step()
		}
	}
}

func (r *Runner) step() {
	r.mu.Lock()
	now := r.clock()
	consumed := r.engine.Tick(now)
	becameDone := r.engine.Running() && r.engine.Done() && !r.wasDone
	if becameDone {
		r.wasDone = true
	}
	var frame *model.Frame
	if consumed > 0 || !r.emitOnAdvanceOnly {
		frame = r.comp.Compose(r.engine.Events(), r.engine.Cursor())
		r.seq++
		frame.Seq = r.seq
		frame.Timestamp = now
	}
	var state *model.PlaybackState
	if becameDone {
		state = r.buildState()
	}
	r.mu.Unlock()

	if frame != nil {
		if err := r.out.SinkFrame(frame); err != nil {
			log.Error("could not sink frame", log.ErrorField(err))
		}
	}
	if state != nil {
		r.announce(state)
	}
	if becameDone && r.stopWhenDone {
		r.doneOnce.Do(func() { close(r.doneChan) })
	}
}

// Start begins the playback. A running playback restarts at the
// beginning.
func (r *Runner) Start() {
	r.mu.Lock()
	r.engine.Start(r.clock())
	r.wasDone = false
	state := r.buildState()
	r.mu.Unlock()
	log.Info("playback started", log.String("session", r.key))
	r.announce(state)
}

// Stop halts the playback and rewinds to the beginning.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.engine.Reset(r.clock())
	r.wasDone = false
	state := r.buildState()
	r.mu.Unlock()
	log.Info("playback stopped", log.String("session", r.key))
	r.announce(state)
}

// State returns the current playback state.
func (r *Runner) State() *model.PlaybackState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buildState()
}

// CurrentFrame composes the picture for the current cursor position
// without advancing anything. Used to serve the initial picture to
// fresh stream subscribers.
func (r *Runner) CurrentFrame() *model.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	frame := r.comp.Compose(r.engine.Events(), r.engine.Cursor())
	frame.Seq = r.seq
	frame.Timestamp = r.clock()
	return frame
}

func (r *Runner) buildState() *model.PlaybackState {
	ret := &model.PlaybackState{
		SessionKey: r.key,
		Running:    r.engine.Running(),
		Done:       r.engine.Done(),
		Cursor:     r.engine.Cursor(),
		Total:      r.engine.Len(),
	}
	if current, ok := r.engine.Current(); ok {
		ret.Current = current.Timestamp.Format("15:04:05.000")
	}
	return ret
}

func (r *Runner) announce(state *model.PlaybackState) {
	if err := r.out.SinkState(state); err != nil {
		log.Error("could not sink state", log.ErrorField(err))
	}
}
