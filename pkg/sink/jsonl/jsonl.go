// Package jsonl writes playback output as newline delimited JSON.
// Each line carries either a frame or a state change, marked by the
// type attribute. This is the output format of headless replays.
package jsonl

import (
	"io"
	"sync"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/sink"
)

type line struct {
	Type  string               `json:"type"`
	Frame *model.Frame         `json:"frame,omitempty"`
	State *model.PlaybackState `json:"state,omitempty"`
}

type Sink struct {
	mu sync.Mutex
	w  io.Writer
}

var _ sink.Sink = (*Sink)(nil)

func New(w io.Writer) *Sink {
	return &Sink{w: w}
}

func (s *Sink) SinkFrame(frame *model.Frame) error {
	return s.writeLine(&line{Type: "frame", Frame: frame})
}

func (s *Sink) SinkState(state *model.PlaybackState) error {
	return s.writeLine(&line{Type: "state", State: state})
}

// Close flushes nothing (lines are written unbuffered) but closes the
// underlying writer when it supports it.
func (s *Sink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Sink) writeLine(l *line) error {
	data, err := sink.MarshalWire(l)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(append(data, '\n'))
	return err
}
