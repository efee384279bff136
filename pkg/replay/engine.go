package replay

import (
	"time"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
)

// Engine advances a cursor through an event log at the recorded pace.
// Each event carries the gap to its predecessor. The engine tracks the
// absolute deadline of the event at the cursor and consumes the event
// once that deadline has passed. The deadline is maintained as a running
// sum of the delays, anchored at the start time:
//
//	deadline == startedAt + sum(delay[0..cursor])
//
// The engine has no clock of its own. Callers pass the current time into
// Start, Reset and Tick. Methods are not safe for concurrent use; the
// Runner serializes access.
type Engine struct {
	events []model.TelemetryEvent

	running    bool
	cursor     int
	startedAt  time.Time
	cumulative time.Duration
	deadline   time.Time

	catchUp bool
}

type Option func(*Engine)

// WithCatchUp lets a single Tick consume every event whose deadline has
// passed. Without this option a tick consumes at most one event, so a
// starved caller stretches the playback instead of jumping ahead.
func WithCatchUp() Option {
	return func(e *Engine) { e.catchUp = true }
}

func NewEngine(events []model.TelemetryEvent, opts ...Option) *Engine {
	ret := &Engine{events: events}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Start begins the playback at the first event. Calling Start on a
// running engine restarts from the beginning. Start always succeeds.
func (e *Engine) Start(now time.Time) {
	e.running = true
	e.rewind(now)
}

// Reset stops the playback and rewinds to the first event.
func (e *Engine) Reset(now time.Time) {
	e.running = false
	e.rewind(now)
}

func (e *Engine) rewind(now time.Time) {
	e.cursor = 0
	e.startedAt = now
	e.cumulative = 0
	if len(e.events) > 0 {
		e.cumulative = e.events[0].Delay()
	}
	e.deadline = now.Add(e.cumulative)
}

// Tick consumes the events due at now and returns how many were
// consumed. While the engine is stopped or the log is exhausted this is
// a no-op. At the end of the log the engine holds: running stays true
// and the final picture remains until an explicit Start or Reset.
func (e *Engine) Tick(now time.Time) int {
	if !e.running {
		return 0
	}
	consumed := 0
	for e.cursor < len(e.events) && !now.Before(e.deadline) {
		e.advance()
		consumed++
		if !e.catchUp {
			break
		}
	}
	return consumed
}

func (e *Engine) advance() {
	e.cursor++
	if e.cursor < len(e.events) {
		e.cumulative += e.events[e.cursor].Delay()
		e.deadline = e.startedAt.Add(e.cumulative)
	}
}

func (e *Engine) Running() bool { return e.running }

// Cursor returns the number of consumed events.
// Events [0,Cursor()) contribute to the lit state.
func (e *Engine) Cursor() int { return e.cursor }

func (e *Engine) Len() int { return len(e.events) }

func (e *Engine) Done() bool { return e.cursor == len(e.events) }

// Deadline returns the point in time the event at the cursor is due.
func (e *Engine) Deadline() time.Time { return e.deadline }

// Current returns the event at the cursor (the next one to be consumed).
// The second return value is false once the log is exhausted.
func (e *Engine) Current() (model.TelemetryEvent, bool) {
	if e.cursor < len(e.events) {
		return e.events[e.cursor], true
	}
	return model.TelemetryEvent{}, false
}

// Events returns the underlying event log.
func (e *Engine) Events() []model.TelemetryEvent { return e.events }
