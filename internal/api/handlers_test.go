package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Briareos12/amiws-queue/internal/store"
	"github.com/Briareos12/amiws-queue/internal/types"
)

func newHandler() (*Handler, *store.Store) {
	st := store.New()
	logger := zerolog.New(&bytes.Buffer{})
	return NewHandler(st, logger), st
}

func seed(st *store.Store) {
	st.UpsertServer(types.ServerStatus{ID: "srv-1", Name: "ami srv-1"})
	st.UpsertQueue(types.QueueParams{ServerID: "srv-1", Name: "support", Max: 10, Strategy: "ringall"})
	st.UpsertQueue(types.QueueParams{ServerID: "srv-1", Name: "sales", Max: 5, Strategy: "leastrecent"})
	st.UpsertMember("srv-1", "support", types.MemberUpdate{Name: "alice", Interface: "SIP/100"})
	st.InsertCaller("srv-1", "support", types.CallerEntry{
		Channel:  "SIP/200-0001",
		UniqueID: "u1",
		Status:   types.CallerJoined,
		Position: 1,
	})
}

func TestServersEndpoint(t *testing.T) {
	h, st := newHandler()
	seed(st)

	rec := httptest.NewRecorder()
	h.Servers(rec, httptest.NewRequest(http.MethodGet, "/api/servers", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}

	var servers []types.Server
	if err := json.Unmarshal(rec.Body.Bytes(), &servers); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(servers) != 1 {
		t.Fatalf("expected 1 server, got %d", len(servers))
	}
	if servers[0].QueueCount != 2 {
		t.Errorf("expected live queue count 2, got %d", servers[0].QueueCount)
	}
}

func TestQueuesEndpoint(t *testing.T) {
	h, st := newHandler()
	seed(st)

	rec := httptest.NewRecorder()
	h.Queues(rec, httptest.NewRequest(http.MethodGet, "/api/queues", nil))

	var queues []types.Queue
	if err := json.Unmarshal(rec.Body.Bytes(), &queues); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(queues) != 2 {
		t.Fatalf("expected 2 queues, got %d", len(queues))
	}
	if len(queues[0].Members) != 1 || queues[0].Members[0].Name != "alice" {
		t.Errorf("expected member alice in first queue, got %+v", queues[0].Members)
	}
}

func TestStatsEndpoint(t *testing.T) {
	h, st := newHandler()
	seed(st)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	var stats types.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if stats.Servers != 1 || stats.Queues != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.WaitingCalls != 1 {
		t.Errorf("expected 1 waiting call, got %d", stats.WaitingCalls)
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	h, st := newHandler()
	seed(st)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/selected", strings.NewReader(`{"queue":"support"}`))
	h.SetSelected(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.GetSelected(rec, httptest.NewRequest(http.MethodGet, "/api/selected", nil))

	var body struct {
		Queue   string         `json:"queue"`
		Members []types.Member `json:"members"`
		Callers []types.Caller `json:"callers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Queue != "support" {
		t.Errorf("expected selected queue support, got %q", body.Queue)
	}
	if len(body.Members) != 1 || body.Members[0].Name != "alice" {
		t.Errorf("unexpected members: %+v", body.Members)
	}
	if len(body.Callers) != 1 || body.Callers[0].UniqueID != "u1" {
		t.Errorf("unexpected callers: %+v", body.Callers)
	}
}

func TestSetSelectedUnknownQueue(t *testing.T) {
	h, st := newHandler()
	seed(st)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/selected", strings.NewReader(`{"queue":"ghost"}`))
	h.SetSelected(rec, req)

	// The name is accepted as-is; the miss shows up as empty reads.
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.GetSelected(rec, httptest.NewRequest(http.MethodGet, "/api/selected", nil))

	var body struct {
		Queue   string         `json:"queue"`
		Members []types.Member `json:"members"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Queue != "ghost" || body.Members != nil {
		t.Errorf("expected empty selection for unknown queue, got %+v", body)
	}
}

func TestSetSelectedInvalidJSON(t *testing.T) {
	h, _ := newHandler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/selected", strings.NewReader(`{"queue":`))
	h.SetSelected(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
