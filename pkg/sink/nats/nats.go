// Package nats publishes playback output to NATS.
// Frames go to frame.<sessionKey>, state changes to
// playback.state.<sessionKey>, both in the common wire format.
package nats

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/sink"
)

type (
	Sink struct {
		conn       *nats.Conn
		sessionKey string
		l          *log.Logger
	}
	Option func(*Sink)
)

var _ sink.Sink = (*Sink)(nil)

// NewSink takes ownership of conn. Close flushes and closes it.
func NewSink(conn *nats.Conn, sessionKey string, opts ...Option) *Sink {
	ret := &Sink{
		conn:       conn,
		sessionKey: sessionKey,
		l:          log.Default().Named("nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func WithLogger(l *log.Logger) Option {
	return func(s *Sink) {
		s.l = l
	}
}

func (s *Sink) SinkFrame(frame *model.Frame) error {
	data, err := sink.MarshalWire(frame)
	if err != nil {
		return err
	}
	return s.conn.Publish(fmt.Sprintf("frame.%s", s.sessionKey), data)
}

func (s *Sink) SinkState(state *model.PlaybackState) error {
	data, err := sink.MarshalWire(state)
	if err != nil {
		return err
	}
	s.l.Debug("publish state",
		log.String("sessionKey", s.sessionKey),
		log.Bool("running", state.Running),
		log.Bool("done", state.Done))
	return s.conn.Publish(fmt.Sprintf("playback.state.%s", s.sessionKey), data)
}

func (s *Sink) Close() error {
	if err := s.conn.Flush(); err != nil {
		s.l.Warn("flush on close", log.ErrorField(err))
	}
	s.conn.Close()
	return nil
}
