package timeline

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/totegamma/concrnt-loadtest/client"
	"github.com/totegamma/concrnt-loadtest/internal/domain"
)

type mockAPI struct {
	recentStatus int
	recentBody   string
	recentErr    error
	queried      [][]string
	lookups      []string
	tokens       []string
}

func (m *mockAPI) Recent(ctx context.Context, timelines []string) (*client.Response, error) {
	m.queried = append(m.queried, timelines)
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	return &client.Response{StatusCode: m.recentStatus, Body: []byte(m.recentBody)}, nil
}

func (m *mockAPI) Message(ctx context.Context, resourceID, token string) (*client.Response, error) {
	m.lookups = append(m.lookups, resourceID)
	m.tokens = append(m.tokens, token)
	return &client.Response{StatusCode: http.StatusOK}, nil
}

type mockChecks map[string][]bool

func (m mockChecks) Check(name string, ok bool) { m[name] = append(m[name], ok) }

const twoItems = `{"status":"ok","content":[
	{"resourceID":"m1","owner":"con1a","timelineID":"t1"},
	{"resourceID":"m2","owner":"con1b","timelineID":"t2"}
]}`

func TestReadTimelineResolvesEveryItem(t *testing.T) {
	api := &mockAPI{recentStatus: http.StatusOK, recentBody: twoItems}
	checks := mockChecks{}
	r := NewReader(api, checks, "tfixed")

	items, err := r.ReadTimeline(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(items) != 2 || items[0].ResourceID != "m1" || items[1].Owner != "con1b" {
		t.Fatalf("unexpected items %+v", items)
	}
	if len(api.queried) != 1 || len(api.queried[0]) != 1 || api.queried[0][0] != "tfixed" {
		t.Fatalf("unexpected query %v", api.queried)
	}
	if len(api.lookups) != 2 || api.lookups[0] != "m1" || api.lookups[1] != "m2" {
		t.Fatalf("expected N lookups in order, got %v", api.lookups)
	}
	for _, tok := range api.tokens {
		if tok != "" {
			t.Fatalf("unauthenticated read sent token %q", tok)
		}
	}
	if got := checks[domain.CheckTimelineQueried]; len(got) != 1 || !got[0] {
		t.Fatalf("unexpected timeline check %v", got)
	}
	if got := checks[domain.CheckMessageFound]; len(got) != 2 {
		t.Fatalf("expected 2 message checks got %v", got)
	}
}

func TestReadTimelinesSendsToken(t *testing.T) {
	api := &mockAPI{recentStatus: http.StatusOK, recentBody: twoItems}
	checks := mockChecks{}
	r := NewReader(api, checks, "tfixed")

	if _, err := r.ReadTimelines(context.Background(), []string{"t1", "t2"}, "tok"); err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, tok := range api.tokens {
		if tok != "tok" {
			t.Fatalf("expected bearer token, got %q", tok)
		}
	}
	if got := checks[domain.CheckTimelinesQueried]; len(got) != 1 || !got[0] {
		t.Fatalf("unexpected timelines check %v", got)
	}
}

func TestReadEmptyTimeline(t *testing.T) {
	api := &mockAPI{recentStatus: http.StatusOK, recentBody: `{"status":"ok","content":[]}`}
	r := NewReader(api, mockChecks{}, "tfixed")

	items, err := r.ReadTimelines(context.Background(), []string{"t1"}, "tok")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty result got %+v", items)
	}
	if len(api.lookups) != 0 {
		t.Fatalf("expected zero lookups got %d", len(api.lookups))
	}
}

func TestReadFailedStatusIsRecorded(t *testing.T) {
	api := &mockAPI{recentStatus: http.StatusInternalServerError, recentBody: `{"status":"error","error":"boom"}`}
	checks := mockChecks{}
	r := NewReader(api, checks, "tfixed")

	items, err := r.ReadTimeline(context.Background())
	if err != nil {
		t.Fatalf("status failure must not be fatal: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items")
	}
	if got := checks[domain.CheckTimelineQueried]; len(got) != 1 || got[0] {
		t.Fatalf("expected failed check got %v", got)
	}
}

func TestReadMalformedBody(t *testing.T) {
	api := &mockAPI{recentStatus: http.StatusBadGateway, recentBody: `<html>bad gateway</html>`}
	r := NewReader(api, mockChecks{}, "tfixed")

	_, err := r.ReadTimeline(context.Background())
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected malformed response error got %v", err)
	}
}

func TestReadTransportError(t *testing.T) {
	api := &mockAPI{recentErr: errors.New("connection refused")}
	r := NewReader(api, mockChecks{}, "tfixed")

	if _, err := r.ReadTimeline(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
}
