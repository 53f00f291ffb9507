package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/totegamma/concrnt-loadtest"
)

type recordingObserver struct {
	mu        sync.Mutex
	names     []string
	durations []time.Duration
}

func (o *recordingObserver) ObserveRequest(name string, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.names = append(o.names, name)
	o.durations = append(o.durations, d)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordingObserver) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	obs := &recordingObserver{}
	target := strings.TrimPrefix(srv.URL, "http://")
	return New(target, Options{Observer: obs}), obs
}

func TestCommit(t *testing.T) {
	var got concrnt.Commit
	var raw map[string]any
	cl, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/commit" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode: %v", err)
		}
		got.Document, _ = raw["document"].(string)
		w.WriteHeader(http.StatusCreated)
	})

	resp, err := cl.Commit(context.Background(), concrnt.Commit{Document: `{"type":"message"}`, Signature: "abcd"})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.StatusCode)
	}
	if got.Document != `{"type":"message"}` {
		t.Fatalf("unexpected document %q", got.Document)
	}
	if _, present := raw["option"]; present {
		t.Fatalf("option must be omitted when empty")
	}
	if len(obs.names) != 1 || obs.names[0] != EndpointCommit {
		t.Fatalf("unexpected observations %v", obs.names)
	}
}

func TestNon2xxIsNotAnError(t *testing.T) {
	cl, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":"error"}`))
	})

	resp, err := cl.Commit(context.Background(), concrnt.Commit{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"status":"error"}` {
		t.Fatalf("unexpected body %s", resp.Body)
	}
}

func TestObservedLatencyIncludesBody(t *testing.T) {
	const bodyDelay = 100 * time.Millisecond
	cl, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		time.Sleep(bodyDelay)
		w.Write([]byte(`{"status":"ok","content":[]}`))
	})

	resp, err := cl.Recent(context.Background(), []string{"t1"})
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(obs.durations) != 1 {
		t.Fatalf("expected one observation, got %d", len(obs.durations))
	}
	if obs.durations[0] < bodyDelay {
		t.Fatalf("observed %s, expected at least %s", obs.durations[0], bodyDelay)
	}
	if obs.durations[0] != resp.Duration {
		t.Fatalf("observed %s but response reports %s", obs.durations[0], resp.Duration)
	}
}

func TestRecentAndMessage(t *testing.T) {
	cl, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/timelines/recent":
			if q := r.URL.Query().Get("timelines"); q != "tl1,world.concrnt.t-home@con1abc" {
				t.Errorf("unexpected timelines query %q", q)
			}
			w.Write([]byte(`{"status":"ok","content":[]}`))
		case strings.HasPrefix(r.URL.Path, "/api/v1/message/"):
			if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
				t.Errorf("unexpected auth header %q", auth)
			}
			w.Write([]byte(`{"status":"ok"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	if _, err := cl.Recent(context.Background(), []string{"tl1", "world.concrnt.t-home@con1abc"}); err != nil {
		t.Fatalf("recent: %v", err)
	}
	resp, err := cl.Message(context.Background(), "m1", "tok")
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	if len(obs.names) != 2 || obs.names[0] != EndpointRecent || obs.names[1] != EndpointMessage {
		t.Fatalf("unexpected observations %v", obs.names)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	cl := New(target, Options{Timeout: time.Second})
	if _, err := cl.Recent(context.Background(), []string{"tl"}); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestURLs(t *testing.T) {
	cl := New("example.com:8080", Options{})
	if cl.BaseURL() != "http://example.com:8080/api/v1" {
		t.Fatalf("unexpected base %s", cl.BaseURL())
	}
	if cl.RealtimeURL() != "ws://example.com:8080/api/v1/timelines/realtime" {
		t.Fatalf("unexpected realtime %s", cl.RealtimeURL())
	}

	secure := New("example.com", Options{Secure: true})
	if secure.BaseURL() != "https://example.com/api/v1" || secure.RealtimeURL() != "wss://example.com/api/v1/timelines/realtime" {
		t.Fatalf("unexpected secure urls %s %s", secure.BaseURL(), secure.RealtimeURL())
	}
}
