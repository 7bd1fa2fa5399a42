package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/dwload/internal/monitor"
)

func newTestServer(t *testing.T) (*Server, *monitor.Board, *monitor.EventLog) {
	t.Helper()
	board := monitor.NewBoard()
	events := monitor.NewEventLog(0)
	return NewServer(board, events, zerolog.Nop()), board, events
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func post(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestProgress_EmptyMeansWaiting(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := get(t, s, "/api/progress")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("empty board must serialize as [], got %q", body)
	}
}

func TestProgress_Listing(t *testing.T) {
	s, board, _ := newTestServer(t)
	board.SetFinal("public.orders", 10)
	board.Advance("public.orders", 4)
	board.SetFinal("public.users", 2)

	rec := get(t, s, "/api/progress")
	var out []progressJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Name != "public.orders" || out[0].Current != 4 || out[0].Final != 10 {
		t.Errorf("first entry = %+v", out[0])
	}
}

func TestEvents_Listing(t *testing.T) {
	s, _, events := newTestServer(t)
	events.Append("public.orders", "extract", "start")
	events.Append("public.orders", "extract", "finish")

	rec := get(t, s, "/api/events")
	var out []eventJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Event != "start" || out[1].Event != "finish" {
		t.Errorf("arrival order broken: %+v", out)
	}
	ts, err := time.Parse(time.RFC3339, out[1].Timestamp)
	if err != nil {
		t.Fatalf("timestamp not ISO-8601: %v", err)
	}
	if ts.Location() != time.UTC {
		t.Errorf("timestamp not UTC: %v", ts)
	}
	if out[1].Elapsed < 0 {
		t.Errorf("elapsed seconds negative: %v", out[1].Elapsed)
	}
}

func TestEvents_LimitParam(t *testing.T) {
	s, _, events := newTestServer(t)
	for i := 0; i < 5; i++ {
		events.Append("t", "s", "tick")
	}
	rec := get(t, s, "/api/events?limit=2")
	var out []eventJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("len = %d, want 2", len(out))
	}

	if rec := get(t, s, "/api/events?limit=bogus"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d, want 400", rec.Code)
	}
}

func TestRun_Identifier(t *testing.T) {
	s, board, _ := newTestServer(t)
	rec := get(t, s, "/api/run")
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["run_id"] != board.RunID() {
		t.Errorf("run_id = %q, want %q", out["run_id"], board.RunID())
	}
}

func TestProgress_Publish(t *testing.T) {
	s, board, _ := newTestServer(t)

	if rec := post(t, s, "/api/progress", `{"name":"public.orders","final":3}`); rec.Code != http.StatusNoContent {
		t.Fatalf("set final: status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec := post(t, s, "/api/progress", `{"name":"public.orders","delta":2}`); rec.Code != http.StatusNoContent {
		t.Fatalf("advance: status = %d", rec.Code)
	}

	snap := board.Snapshot()
	if len(snap) != 1 || snap[0].Current != 2 || snap[0].Final != 3 {
		t.Errorf("snapshot = %+v", snap)
	}

	if rec := post(t, s, "/api/progress", `{"final":3}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing name: status = %d, want 400", rec.Code)
	}
	if rec := post(t, s, "/api/progress", `{broken`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestEvents_Publish(t *testing.T) {
	s, _, events := newTestServer(t)

	if rec := post(t, s, "/api/events", `{"target":"public.orders","step":"copy","event":"start"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("publish: status = %d", rec.Code)
	}
	recs := events.Recent(0)
	if len(recs) != 1 || recs[0].Step != "copy" {
		t.Errorf("recorded = %+v", recs)
	}

	if rec := post(t, s, "/api/events", `{"target":"t"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("incomplete event: status = %d, want 400", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodDelete, "/api/run", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
