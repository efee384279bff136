package sink

import (
	"errors"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
)

// Sink receives composed frames and playback state changes.
// Implementations must be safe for use from the runner goroutine plus
// the control flow calling Start/Stop.
type Sink interface {
	SinkFrame(frame *model.Frame) error
	SinkState(state *model.PlaybackState) error
	Close() error
}

// Discard is a Sink that drops all data.
type Discard struct{}

var _ Sink = (*Discard)(nil)

func (d *Discard) SinkFrame(frame *model.Frame) error         { return nil }
func (d *Discard) SinkState(state *model.PlaybackState) error { return nil }
func (d *Discard) Close() error                               { return nil }

// Multi forwards everything to all children. A failing child does not
// stop delivery to the others.
type Multi struct {
	sinks []Sink
}

var _ Sink = (*Multi)(nil)

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) SinkFrame(frame *model.Frame) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.SinkFrame(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) SinkState(state *model.PlaybackState) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.SinkState(state); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
