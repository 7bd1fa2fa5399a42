// Package api is the polling surface a dashboard reads run state from, and
// the publish surface stage executors report through. It carries no
// pipeline logic of its own; all state lives in the monitor package.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/dwload/internal/monitor"
)

const defaultEventLimit = 100

// Server exposes a run's progress board and event log over HTTP.
type Server struct {
	board  *monitor.Board
	events *monitor.EventLog
	log    zerolog.Logger
	mux    *http.ServeMux
}

// NewServer wires the handlers for a single run's monitor state.
func NewServer(board *monitor.Board, events *monitor.EventLog, log zerolog.Logger) *Server {
	s := &Server{board: board, events: events, log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("/api/progress", s.handleProgress)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/run", s.handleRun)
	return s
}

// Handler returns the route table for mounting on an http.Server.
func (s *Server) Handler() http.Handler { return s.mux }

type progressJSON struct {
	Name    string `json:"name"`
	Current int    `json:"current"`
	Final   int    `json:"final"`
}

type eventJSON struct {
	Target    string  `json:"target"`
	Step      string  `json:"step"`
	Event     string  `json:"event"`
	Timestamp string  `json:"timestamp"`
	Elapsed   float64 `json:"elapsed"`
}

type progressUpdate struct {
	Name  string `json:"name"`
	Final *int   `json:"final,omitempty"`
	Delta *int   `json:"delta,omitempty"`
}

type eventUpdate struct {
	Target string `json:"target"`
	Step   string `json:"step"`
	Event  string `json:"event"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		snap := s.board.Snapshot()
		out := make([]progressJSON, 0, len(snap))
		for _, p := range snap {
			out = append(out, progressJSON{Name: p.Name, Current: p.Current, Final: p.Final})
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var upd progressUpdate
		if err := decodeBody(r, &upd); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if upd.Name == "" {
			writeError(w, http.StatusBadRequest, fmt.Errorf("name is required"))
			return
		}
		if upd.Final != nil {
			s.board.SetFinal(upd.Name, *upd.Final)
		}
		if upd.Delta != nil {
			s.board.Advance(upd.Name, *upd.Delta)
		}
		s.log.Debug().Str("relation", upd.Name).Msg("progress update")
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := defaultEventLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
				return
			}
			limit = n
		}
		recs := s.events.Recent(limit)
		out := make([]eventJSON, 0, len(recs))
		for _, e := range recs {
			out = append(out, eventJSON{
				Target:    e.Target,
				Step:      e.Step,
				Event:     e.Event,
				Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
				Elapsed:   e.Elapsed.Seconds(),
			})
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var upd eventUpdate
		if err := decodeBody(r, &upd); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if upd.Target == "" || upd.Step == "" || upd.Event == "" {
			writeError(w, http.StatusBadRequest, fmt.Errorf("target, step, and event are required"))
			return
		}
		s.events.Append(upd.Target, upd.Step, upd.Event)
		s.log.Debug().Str("target", upd.Target).Str("step", upd.Step).Str("event", upd.Event).Msg("event recorded")
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"run_id": s.board.RunID()})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
