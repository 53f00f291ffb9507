// Package stub is a small in-memory stand-in for the target API, for dry runs and tests.
package stub

import (
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/totegamma/concrnt-loadtest"
	"github.com/totegamma/concrnt-loadtest/internal/document"
	"github.com/totegamma/concrnt-loadtest/internal/domain"
)

type Options struct {
	// FQDN is the audience authenticated lookups must carry. Empty skips the check.
	FQDN string
	// StatusOverrides replaces the commit status for the given document types.
	StatusOverrides map[document.Type]int
	// Delay is added to every HTTP response.
	Delay time.Duration
	// EmptyRecent makes every recent query return no items.
	EmptyRecent bool
}

// Stats counts what the stub has seen.
type Stats struct {
	Commits       map[document.Type]int
	RecentQueries int
	Lookups       int
	Connections   int
	Listens       [][]string
	Closes        int
	Denied        int
}

type Handler struct {
	opts   Options
	store  *Store
	auth   *AuthService
	hub    *hub
	logger *zap.Logger

	mu    sync.Mutex
	stats Stats
}

func NewHandler(opts Options, store *Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		opts:   opts,
		store:  store,
		auth:   NewAuthService(opts.FQDN),
		logger: logger,
		stats:  Stats{Commits: make(map[document.Type]int)},
	}
	h.hub = newHub(h)
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.POST("/commit", h.handleCommit, h.delay)
	api.GET("/timelines/recent", h.handleTimelineRecent, h.delay)
	api.GET("/message/:id", h.handleMessage, h.delay, h.identify)
	api.GET("/timelines/realtime", h.handleRealtime)
}

func (h *Handler) delay(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.opts.Delay > 0 {
			time.Sleep(h.opts.Delay)
		}
		return next(c)
	}
}

// Stats returns a snapshot of the counters.
func (h *Handler) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.stats
	out.Commits = make(map[document.Type]int, len(h.stats.Commits))
	for k, v := range h.stats.Commits {
		out.Commits[k] = v
	}
	out.Listens = append([][]string(nil), h.stats.Listens...)
	return out
}

func (h *Handler) count(fn func(s *Stats)) {
	h.mu.Lock()
	fn(&h.stats)
	h.mu.Unlock()
}

func (h *Handler) handleCommit(c echo.Context) error {
	var commit concrnt.Commit
	err := c.Bind(&commit)
	if err != nil {
		return badRequest(c, err)
	}

	doc, err := document.Parse(commit.Document)
	if err != nil {
		return badRequest(c, err)
	}
	h.count(func(s *Stats) { s.Commits[doc.DocumentType()]++ })

	signature, err := hex.DecodeString(commit.Signature)
	if err != nil {
		return badRequest(c, errors.New("invalid signature encoding"))
	}
	err = concrnt.VerifySignature([]byte(commit.Document), signature, doc.Author())
	if err != nil {
		return badRequest(c, err)
	}

	if status, ok := h.opts.StatusOverrides[doc.DocumentType()]; ok {
		return fail(c, status, errors.New("injected failure"))
	}

	switch doc := doc.(type) {
	case *document.Timeline[map[string]any]:
		if err := h.registerTimeline(doc); err != nil {
			return badRequest(c, err)
		}
	case *document.Message[map[string]any]:
		if err := h.authorizeDistribute(doc.Signer, doc.Timelines); err != nil {
			h.count(func(s *Stats) { s.Denied++ })
			return forbidden(c, err)
		}
		items, stored := h.store.PutMessage(doc.Signer, commit.Document, doc.Timelines)
		h.hub.publish(items)
		return respond(c, http.StatusCreated, stored)
	}

	return respond[any](c, http.StatusCreated, nil)
}

func (h *Handler) handleTimelineRecent(c echo.Context) error {
	h.count(func(s *Stats) { s.RecentQueries++ })

	timelines := strings.Split(c.QueryParam("timelines"), ",")

	items := []concrnt.TimelineItem{}
	if !h.opts.EmptyRecent {
		items = h.store.Recent(timelines, defaultRecentLimit)
	}
	return respond(c, http.StatusOK, items)
}

func (h *Handler) handleMessage(c echo.Context) error {
	h.count(func(s *Stats) { s.Lookups++ })

	msg, err := h.store.GetMessage(c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c, err)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}

	if requester, ok := requesterFrom(c.Request().Context()); ok {
		h.logger.Debug("authenticated lookup", zap.String("requester", requester), zap.String("message", msg.ID))
	}
	return respond(c, http.StatusOK, msg)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Handler) handleRealtime(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Debug("failed to upgrade", zap.Error(err))
		return nil
	}
	h.count(func(s *Stats) { s.Connections++ })

	h.hub.serve(conn)
	return nil
}
