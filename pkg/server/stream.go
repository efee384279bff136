package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/server/permission"
	"github.com/mpapenbr/ledtrack-go/pkg/sink"
)

// handleFrames streams composed frames as server-sent events. Fresh
// subscribers get the current picture right away, afterwards every
// frame the runner emits. Periodic comment lines keep idle connections
// alive.
func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	if !s.checkPermission(r, w, permission.PermissionViewFrames) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	ctx, span := s.tracer.Start(r.Context(), "frames.stream")
	defer span.End()

	s.l.Debug("frame stream opened", log.String("remote", r.RemoteAddr))
	dataChan := s.fan.SubscribeFrames()
	if err := sendFrame(w, s.runner.CurrentFrame()); err != nil {
		s.fan.CancelFrames(dataChan)
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			s.fan.CancelFrames(dataChan)
			s.l.Debug("frame stream closed", log.String("remote", r.RemoteAddr))
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				s.fan.CancelFrames(dataChan)
				return
			}
			flusher.Flush()
		case frame, more := <-dataChan:
			if !more {
				return
			}
			if err := sendFrame(w, frame); err != nil {
				s.fan.CancelFrames(dataChan)
				return
			}
			flusher.Flush()
		}
	}
}

func sendFrame(w io.Writer, frame *model.Frame) error {
	data, err := sink.MarshalWire(frame)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: frame\ndata: %s\n\n", data)
	return err
}
