package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	cfgpkg "github.com/cmeiklejohn/riak-repl/internal/config"
	"github.com/cmeiklejohn/riak-repl/internal/runtime"
	logpkg "github.com/cmeiklejohn/riak-repl/pkg/log"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Format: "text"})
	return New(rt, logger)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	s := newServer(t)
	w := do(t, s, http.MethodGet, "/v1/healthz", "")
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestPushHandler(t *testing.T) {
	s := newServer(t)
	w := do(t, s, http.MethodPost, "/v1/queue/push", `{"payload":"aGVsbG8="}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status: %d body: %s", w.Code, w.Body.String())
	}
	var resp pushResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Seq != 1 {
		t.Fatalf("seq = %d, want 1", resp.Seq)
	}
}

func TestPushHandlerRejectsEmpty(t *testing.T) {
	s := newServer(t)
	w := do(t, s, http.MethodPost, "/v1/queue/push", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestRegisterAckStatusFlow(t *testing.T) {
	s := newServer(t)

	w := do(t, s, http.MethodPost, "/v1/queue/register", `{"name":"site-b"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status: %d body: %s", w.Code, w.Body.String())
	}
	var reg map[string]uint64
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reg["start_seq"] != 0 {
		t.Fatalf("start_seq = %d, want 0", reg["start_seq"])
	}

	if w := do(t, s, http.MethodPost, "/v1/queue/push", `{"payload":"YQ=="}`); w.Code != http.StatusAccepted {
		t.Fatalf("push status: %d", w.Code)
	}

	w = do(t, s, http.MethodGet, "/v1/queue/status", "")
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
	var st statusResp
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Stats.LastSeq != 1 || len(st.Consumers) != 1 {
		t.Fatalf("stats = %+v consumers = %+v", st.Stats, st.Consumers)
	}

	if w := do(t, s, http.MethodPost, "/v1/queue/ack", `{"name":"site-b","seq":1}`); w.Code != http.StatusNoContent {
		t.Fatalf("ack status: %d", w.Code)
	}

	w = do(t, s, http.MethodGet, "/v1/queue/dump", "")
	var dump struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &dump); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dump.Count != 0 {
		t.Fatalf("retained after ack = %d, want 0", dump.Count)
	}
}

func TestUnregisterUnknownIs404(t *testing.T) {
	s := newServer(t)
	w := do(t, s, http.MethodPost, "/v1/queue/unregister", `{"name":"ghost"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newServer(t)
	if w := do(t, s, http.MethodGet, "/v1/queue/push", ""); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("push GET status: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/queue/status", `{}`); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status POST status: %d", w.Code)
	}
}

func TestSubscribeSSE(t *testing.T) {
	s := newServer(t)
	if w := do(t, s, http.MethodPost, "/v1/queue/push", `{"payload":"YQ=="}`); w.Code != http.StatusAccepted {
		t.Fatalf("push status: %d", w.Code)
	}
	w := do(t, s, http.MethodGet, "/v1/queue/subscribe?limit=1", "")
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %q", ct)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "data: ") {
		t.Fatalf("body = %q, want SSE data frame", body)
	}
	var it struct {
		Seq     uint64 `json:"seq"`
		Payload []byte `json:"payload"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(body), "data: ")), &it); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if it.Seq != 1 || string(it.Payload) != "a" {
		t.Fatalf("frame = %+v", it)
	}
}

func TestSubscribeBadLimit(t *testing.T) {
	s := newServer(t)
	w := do(t, s, http.MethodGet, "/v1/queue/subscribe?limit=nope", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
}
