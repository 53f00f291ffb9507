// Package scenario drives one virtual actor through its full lifecycle against the target.
package scenario

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/totegamma/concrnt-loadtest"
	"github.com/totegamma/concrnt-loadtest/client"
	"github.com/totegamma/concrnt-loadtest/internal/commit"
	"github.com/totegamma/concrnt-loadtest/internal/document"
	"github.com/totegamma/concrnt-loadtest/internal/domain"
	"github.com/totegamma/concrnt-loadtest/internal/realtime"
	"github.com/totegamma/concrnt-loadtest/internal/timeline"
	"github.com/totegamma/concrnt-loadtest/jwt"
)

const DefaultIterations = 3

type Settings struct {
	// Domain is the target's FQDN, used for affiliation and token audience.
	Domain string
	// TimelineID is the well-known timeline read at discovery and posted to every iteration.
	TimelineID string
	Iterations int
	PaceBase   time.Duration
	PaceJitter time.Duration
	// Seed makes message bodies and pacing reproducible for each (vu, nth run of that vu)
	// regardless of how slots interleave. Zero picks a random seed per run.
	Seed int64
}

func DefaultSettings() Settings {
	return Settings{
		Iterations: DefaultIterations,
		PaceBase:   3 * time.Second,
		PaceJitter: 10 * time.Second,
	}
}

type Checker interface {
	Check(name string, ok bool)
}

// State is owned by exactly one actor run and passed through every step.
type State struct {
	VU             int
	Stage          domain.Stage
	StartedAt      time.Time
	Identity       concrnt.Identity
	Token          string
	HomeTimelineID string
	Channels       []string
	Iterations     int

	builder *document.Builder
	sampler *document.Sampler
	rnd     *rand.Rand
	stream  *realtime.Subscription
}

type Scenario struct {
	settings Settings
	poster   *commit.Poster
	reader   *timeline.Reader
	dialer   *realtime.Dialer
	checks   Checker
	logger   *zap.Logger

	// Entropy feeds identity generation; nil uses crypto/rand.
	Entropy io.Reader
	Now     func() time.Time

	// runs counts actor runs per vu.
	runs sync.Map
}

func New(
	settings Settings,
	poster *commit.Poster,
	reader *timeline.Reader,
	dialer *realtime.Dialer,
	checks Checker,
	logger *zap.Logger,
) *Scenario {
	if settings.Iterations <= 0 {
		settings.Iterations = DefaultIterations
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scenario{
		settings: settings,
		poster:   poster,
		reader:   reader,
		dialer:   dialer,
		checks:   checks,
		logger:   logger,
		Now:      time.Now,
	}
}

// NewFromClient wires a scenario on top of a single HTTP client.
func NewFromClient(settings Settings, cl *client.Client, checks Checker, handler realtime.FrameHandler, logger *zap.Logger) *Scenario {
	return New(
		settings,
		commit.NewPoster(cl, nil),
		timeline.NewReader(cl, checks, settings.TimelineID),
		realtime.NewDialer(cl.RealtimeURL(), handler),
		checks,
		logger,
	)
}

type step struct {
	stage domain.Stage
	run   func(ctx context.Context, st *State) error
}

// Run executes one actor to completion. Failed checks are recorded and the actor carries on;
// any returned error means the actor was aborted.
func (s *Scenario) Run(ctx context.Context, vu int) error {
	st := &State{VU: vu, StartedAt: s.Now()}

	defer func() {
		if st.stream != nil {
			if err := st.stream.Close(); err != nil {
				s.logger.Debug("failed to close realtime stream", zap.Int("vu", vu), zap.Error(err))
			}
		}
		st.Stage = domain.StageTerminal
	}()

	steps := []step{
		{domain.StageInit, s.initialize},
		{domain.StageRegister, s.register},
		{domain.StageProfile, s.profile},
		{domain.StageHome, s.home},
		{domain.StageDiscover, s.discover},
		{domain.StageOpen, s.open},
		{domain.StageSubscribe, s.subscribe},
		{domain.StageIterate, s.iterate},
	}

	for _, stp := range steps {
		st.Stage = stp.stage
		if err := stp.run(ctx, st); err != nil {
			s.logger.Debug("actor aborted",
				zap.Int("vu", vu),
				zap.Stringer("stage", stp.stage),
				zap.Int("iterations", st.Iterations),
				zap.Duration("elapsed", s.Now().Sub(st.StartedAt)),
				zap.Error(err),
			)
			return errors.Wrapf(err, "vu %d aborted at %s", vu, stp.stage)
		}
	}

	s.logger.Debug("actor finished",
		zap.Int("vu", vu),
		zap.Int("iterations", st.Iterations),
		zap.Duration("elapsed", s.Now().Sub(st.StartedAt)),
	)
	return nil
}

func (s *Scenario) initialize(ctx context.Context, st *State) error {
	identity, err := concrnt.GenerateIdentity(s.Entropy)
	if err != nil {
		return err
	}

	token, err := jwt.GenerateAuthToken(identity, s.settings.Domain)
	if err != nil {
		return errors.Wrap(err, "failed to generate auth token")
	}

	seed := s.settings.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	seed = document.SeedFor(seed, st.VU, s.nextRun(st.VU))

	st.Identity = identity
	st.Token = token
	st.builder = document.NewBuilder(identity.Address, s.Now)
	st.sampler = document.NewSampler(seed)
	st.rnd = rand.New(rand.NewSource(seed ^ 0x5deece66d))
	return nil
}

// nextRun returns the 1-based run number for vu. A slot runs its actors one after another,
// so this does not depend on scheduling across slots.
func (s *Scenario) nextRun(vu int) int64 {
	counter, _ := s.runs.LoadOrStore(vu, new(atomic.Int64))
	return counter.(*atomic.Int64).Add(1)
}

func (s *Scenario) expect(st *State, check string, resp *client.Response, status int) {
	ok := resp.StatusCode == status
	s.checks.Check(check, ok)
	if !ok {
		s.logger.Debug("check failed",
			zap.Int("vu", st.VU),
			zap.String("check", check),
			zap.Int("status", resp.StatusCode),
		)
	}
}

func (s *Scenario) post(ctx context.Context, st *State, check string, doc document.Document, option any) error {
	resp, err := s.poster.Post(ctx, st.Identity, doc, option)
	if err != nil {
		return err
	}
	s.expect(st, check, resp, http.StatusCreated)
	return nil
}

func (s *Scenario) register(ctx context.Context, st *State) error {
	doc := st.builder.Affiliation(s.settings.Domain)
	return s.post(ctx, st, domain.CheckAffiliationCreated, doc, concrnt.CommitOption{Info: "{}"})
}

func (s *Scenario) profile(ctx context.Context, st *State) error {
	doc := st.builder.Profile(fmt.Sprintf("VU%d", st.VU))
	return s.post(ctx, st, domain.CheckProfileCreated, doc, nil)
}

func (s *Scenario) home(ctx context.Context, st *State) error {
	doc, err := st.builder.HomeTimeline()
	if err != nil {
		return err
	}
	st.HomeTimelineID = document.HomeTimelineID(st.Identity.Address)
	return s.post(ctx, st, domain.CheckHomeCreated, doc, nil)
}

func (s *Scenario) discover(ctx context.Context, st *State) error {
	items, err := s.reader.ReadTimeline(ctx)
	if err != nil {
		return err
	}
	st.Channels = channelsOf(items)
	return nil
}

func (s *Scenario) open(ctx context.Context, st *State) error {
	stream, err := s.dialer.Dial(ctx)
	if err != nil {
		return err
	}
	st.stream = stream
	return nil
}

func (s *Scenario) subscribe(ctx context.Context, st *State) error {
	return st.stream.Listen(st.Channels)
}

func (s *Scenario) iterate(ctx context.Context, st *State) error {
	for st.Iterations < s.settings.Iterations {
		items, err := s.reader.ReadTimelines(ctx, st.Channels, st.Token)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return errors.Wrapf(domain.ErrEmptyTimeline, "iteration %d", st.Iterations)
		}

		like := st.builder.Like(items[0].ResourceID, items[0].Owner)
		if err := s.post(ctx, st, domain.CheckAssociationCreated, like, nil); err != nil {
			return err
		}

		msg := st.builder.Message(st.sampler.Post(), s.settings.TimelineID, st.HomeTimelineID)
		if err := s.post(ctx, st, domain.CheckPostCreated, msg, nil); err != nil {
			return err
		}

		st.Iterations++

		if err := sleep(ctx, s.pace(st)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scenario) pace(st *State) time.Duration {
	d := s.settings.PaceBase
	if s.settings.PaceJitter > 0 {
		d += time.Duration(st.rnd.Int63n(int64(s.settings.PaceJitter)))
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// channelsOf returns the distinct timeline ids of items in first-seen order.
func channelsOf(items []concrnt.TimelineItem) []string {
	seen := make(map[string]struct{}, len(items))
	channels := make([]string, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.TimelineID]; dup {
			continue
		}
		seen[item.TimelineID] = struct{}{}
		channels = append(channels, item.TimelineID)
	}
	return channels
}
