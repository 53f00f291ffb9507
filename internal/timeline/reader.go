// Package timeline reads recent timeline items and resolves each one.
package timeline

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/totegamma/concrnt-loadtest"
	"github.com/totegamma/concrnt-loadtest/client"
	"github.com/totegamma/concrnt-loadtest/internal/domain"
)

type API interface {
	Recent(ctx context.Context, timelines []string) (*client.Response, error)
	Message(ctx context.Context, resourceID, token string) (*client.Response, error)
}

type Checker interface {
	Check(name string, ok bool)
}

// Reader issues one recent query plus one lookup per returned item.
type Reader struct {
	api        API
	checks     Checker
	timelineID string
}

// NewReader creates a reader whose unauthenticated reads target timelineID.
func NewReader(api API, checks Checker, timelineID string) *Reader {
	return &Reader{api: api, checks: checks, timelineID: timelineID}
}

// ReadTimeline reads the configured timeline without credentials.
func (r *Reader) ReadTimeline(ctx context.Context) ([]concrnt.TimelineItem, error) {
	return r.read(ctx, []string{r.timelineID}, "", domain.CheckTimelineQueried)
}

// ReadTimelines reads timelines, resolving each item with token as bearer.
func (r *Reader) ReadTimelines(ctx context.Context, timelines []string, token string) ([]concrnt.TimelineItem, error) {
	return r.read(ctx, timelines, token, domain.CheckTimelinesQueried)
}

func (r *Reader) read(ctx context.Context, timelines []string, token, check string) ([]concrnt.TimelineItem, error) {
	resp, err := r.api.Recent(ctx, timelines)
	if err != nil {
		return nil, err
	}
	r.checks.Check(check, resp.StatusCode == http.StatusOK)

	var body concrnt.Response[[]concrnt.TimelineItem]
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, errors.Wrapf(domain.ErrMalformedResponse, "recent timelines (status %d): %v", resp.StatusCode, err)
	}

	items := body.Content
	for _, item := range items {
		msg, err := r.api.Message(ctx, item.ResourceID, token)
		if err != nil {
			return nil, err
		}
		r.checks.Check(domain.CheckMessageFound, msg.StatusCode == http.StatusOK)
	}

	return items, nil
}
