package server

import (
	"net/http"
	"time"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/server/auth"
	"github.com/mpapenbr/ledtrack-go/pkg/server/permission"
	"github.com/mpapenbr/ledtrack-go/pkg/sink"
)

type sessionInfo struct {
	Session *model.Session `json:"session"`
	Stats   *statsInfo     `json:"stats,omitempty"`
}

type statsInfo struct {
	GridPoints    int       `json:"gridPoints"`
	Events        int       `json:"events"`
	Entities      int       `json:"entities"`
	LitCoords     int       `json:"litCoords"`
	DurationMs    int64     `json:"durationMs"`
	OffGridEvents int       `json:"offGridEvents"`
	First         time.Time `json:"first"`
	Last          time.Time `json:"last"`
}

type layoutInfo struct {
	Canvas model.Canvas      `json:"canvas"`
	Points []model.GridPoint `json:"points"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if !s.checkPermission(r, w, permission.PermissionReadSession) {
		return
	}
	ret := sessionInfo{Session: s.session}
	if s.stats != nil {
		ret.Stats = &statsInfo{
			GridPoints:    s.stats.GridPoints,
			Events:        s.stats.Events,
			Entities:      s.stats.Entities,
			LitCoords:     s.stats.LitCoords,
			DurationMs:    s.stats.Duration.Milliseconds(),
			OffGridEvents: s.stats.OffGridEvents,
			First:         s.stats.First,
			Last:          s.stats.Last,
		}
	}
	s.writeJSON(w, http.StatusOK, &ret)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	if !s.checkPermission(r, w, permission.PermissionReadSession) {
		return
	}
	s.writeJSON(w, http.StatusOK, &layoutInfo{
		Canvas: s.comp.Canvas(),
		Points: s.comp.Points(),
	})
}

func (s *Server) handlePlaybackState(w http.ResponseWriter, r *http.Request) {
	if !s.checkPermission(r, w, permission.PermissionViewFrames) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.runner.State())
}

func (s *Server) handlePlaybackStart(w http.ResponseWriter, r *http.Request) {
	if !s.checkPermission(r, w, permission.PermissionControlPlayback) {
		return
	}
	s.runner.Start()
	s.writeJSON(w, http.StatusOK, s.runner.State())
}

func (s *Server) handlePlaybackStop(w http.ResponseWriter, r *http.Request) {
	if !s.checkPermission(r, w, permission.PermissionControlPlayback) {
		return
	}
	s.runner.Stop()
	s.writeJSON(w, http.StatusOK, s.runner.State())
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Server) checkPermission(
	r *http.Request,
	w http.ResponseWriter,
	perm permission.Permission,
) bool {
	ctx := r.Context()
	a := auth.FromContext(&ctx)
	if a == nil || !s.pe.HasPermission(a, perm) {
		http.Error(w, auth.ErrPermissionDenied.Error(), http.StatusForbidden)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sink.MarshalWire(v)
	if err != nil {
		s.l.Error("could not marshal response", log.ErrorField(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.l.Error("could not write response", log.ErrorField(err))
	}
}
