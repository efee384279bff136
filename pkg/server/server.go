package server

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/dataset"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/replay"
	"github.com/mpapenbr/ledtrack-go/pkg/server/permission"
	"github.com/mpapenbr/ledtrack-go/pkg/sink/fanout"
)

// Server exposes the playback control and stream API on a ServeMux.
// It owns no goroutines itself; the runner loop and the fanout do the
// concurrent work.
type Server struct {
	runner    *replay.Runner
	comp      *replay.Compositor
	fan       *fanout.Fanout
	session   *model.Session
	stats     *dataset.Stats
	pe        permission.PermissionEvaluator
	heartbeat time.Duration
	tracer    trace.Tracer
	l         *log.Logger
}

type Option func(*Server)

func WithRunner(r *replay.Runner) Option {
	return func(srv *Server) { srv.runner = r }
}

func WithCompositor(c *replay.Compositor) Option {
	return func(srv *Server) { srv.comp = c }
}

func WithFanout(f *fanout.Fanout) Option {
	return func(srv *Server) { srv.fan = f }
}

func WithSession(s *model.Session) Option {
	return func(srv *Server) { srv.session = s }
}

func WithStats(s *dataset.Stats) Option {
	return func(srv *Server) { srv.stats = s }
}

func WithPermissionEvaluator(pe permission.PermissionEvaluator) Option {
	return func(srv *Server) { srv.pe = pe }
}

// WithHeartbeat sets the keep-alive interval of the frame stream.
func WithHeartbeat(d time.Duration) Option {
	return func(srv *Server) { srv.heartbeat = d }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(srv *Server) { srv.tracer = tracer }
}

func NewServer(opts ...Option) *Server {
	ret := &Server{
		heartbeat: 15 * time.Second,
		tracer:    otel.Tracer("ledtrack"),
		l:         log.Default().Named("server"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("GET /api/layout", s.handleLayout)
	mux.HandleFunc("GET /api/playback", s.handlePlaybackState)
	mux.HandleFunc("POST /api/playback/start", s.handlePlaybackStart)
	mux.HandleFunc("POST /api/playback/stop", s.handlePlaybackStop)
	mux.HandleFunc("GET /api/frames", s.handleFrames)
}
