// Package scheduler runs the periodic fetch-diff-emit cycle against the
// portal.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gradewatch/internal/authcode"
	"gradewatch/internal/classname"
	"gradewatch/internal/failure"
	"gradewatch/internal/grades"
	"gradewatch/internal/logger"
	"gradewatch/internal/model"
	"gradewatch/internal/portal"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultInterval is used when Options.Interval is zero.
const DefaultInterval = 10 * time.Minute

// State is the phase of the controller.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateDiffing
	StateEmitting
	StateAuthRetry
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateDiffing:
		return "diffing"
	case StateEmitting:
		return "emitting"
	case StateAuthRetry:
		return "auth_retry"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Options configures polling. A zero Interval means DefaultInterval, a
// negative one means a single cycle. A zero StartDate means now.
type Options struct {
	Interval  time.Duration
	StartDate time.Time
}

// WatermarkStore persists committed watermarks.
type WatermarkStore interface {
	SaveWatermark(ctx context.Context, t time.Time) error
}

// GradeHandler receives one new grade.
type GradeHandler func(model.NotificationGrade)

// ErrorHandler receives one surfaced cycle failure.
type ErrorHandler func(*failure.Error)

// Controller owns the watermark and drives cycles.
type Controller struct {
	Cron      *cron.Cron
	Portal    portal.Portal
	AuthCodes authcode.Source

	creds     *model.Credentials
	interval  time.Duration
	names     *classname.Normalizer
	gradeOpts []grades.Option
	store     WatermarkStore
	log       zerolog.Logger

	mu            sync.Mutex
	watermark     time.Time
	gradeHandlers []GradeHandler
	errorHandlers []ErrorHandler

	running sync.Mutex // held while a cycle is in flight
	state   atomic.Int32
	wg      sync.WaitGroup
}

// Option customizes a Controller.
type Option func(*Controller)

// WithWatermarkStore persists the watermark after each committed cycle.
func WithWatermarkStore(s WatermarkStore) Option {
	return func(c *Controller) { c.store = s }
}

// WithGradeOptions passes averaging options to the diff engine.
func WithGradeOptions(opts ...grades.Option) Option {
	return func(c *Controller) { c.gradeOpts = opts }
}

// WithClassNames replaces the class name normalizer.
func WithClassNames(n *classname.Normalizer) Option {
	return func(c *Controller) { c.names = n }
}

// WithLogger replaces the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New creates a Controller. creds is updated in place when the school is
// resolved or a new auth code is adopted. codes may be nil for portals
// that need no auth code.
func New(p portal.Portal, codes authcode.Source, creds *model.Credentials, opts Options, options ...Option) *Controller {
	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}
	if opts.StartDate.IsZero() {
		opts.StartDate = time.Now()
	}
	c := &Controller{
		Portal:    p,
		AuthCodes: codes,
		creds:     creds,
		interval:  opts.Interval,
		names:     classname.New(),
		watermark: opts.StartDate,
		log:       logger.Get().With().Str("component", "scheduler").Logger(),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// OnGrade registers a handler for new grades.
func (c *Controller) OnGrade(h GradeHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gradeHandlers = append(c.gradeHandlers, h)
}

// OnError registers a handler for surfaced failures.
func (c *Controller) OnError(h ErrorHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorHandlers = append(c.errorHandlers, h)
}

// Watermark returns the committed watermark.
func (c *Controller) Watermark() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watermark
}

// State returns the current phase.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Interval returns the effective polling interval.
func (c *Controller) Interval() time.Duration {
	return c.interval
}

func (c *Controller) setState(s State) {
	c.state.Store(int32(s))
}

// Start fires a cycle immediately. With a positive interval it then keeps
// polling in the background until Stop; otherwise it runs the single cycle
// synchronously and returns.
func (c *Controller) Start(ctx context.Context) error {
	if c.interval < 0 {
		c.log.Info().Msg("running single cycle")
		c.RunCycle(ctx)
		return nil
	}

	cl := cronLogger{log: c.log}
	c.Cron = cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	c.Cron.Schedule(cron.Every(c.interval), cron.FuncJob(func() { c.RunCycle(ctx) }))
	c.Cron.Start()
	c.log.Info().Dur("interval", c.interval).Str("portal", c.Portal.Name()).Msg("scheduler started")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.RunCycle(ctx)
	}()
	return nil
}

// Stop stops periodic polling and waits for a running cycle to finish.
func (c *Controller) Stop() {
	if c.Cron != nil {
		<-c.Cron.Stop().Done()
	}
	c.wg.Wait()
	c.log.Info().Msg("scheduler stopped")
}

// RunCycle performs one fetch-diff-emit cycle. It returns false without
// doing anything when another cycle is still in flight.
func (c *Controller) RunCycle(ctx context.Context) (ran bool) {
	if !c.running.TryLock() {
		c.log.Warn().Msg("previous cycle still running, skipping tick")
		return false
	}
	defer c.running.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.setState(StateFailed)
			c.emitError(failure.New(failure.KindGeneric, fmt.Sprintf("cycle panicked: %v", r)))
		}
	}()

	notes, watermark, err := c.cycle(ctx, c.Watermark())
	if err != nil {
		c.handleFailure(ctx, err)
		return true
	}

	c.commit(ctx, watermark)

	c.setState(StateEmitting)
	for _, n := range notes {
		c.emitGrade(n)
	}
	c.setState(StateIdle)
	c.log.Info().Int("new_grades", len(notes)).Time("watermark", watermark).Msg("cycle complete")
	return true
}

func (c *Controller) cycle(ctx context.Context, watermark time.Time) ([]model.NotificationGrade, time.Time, error) {
	c.setState(StateFetching)

	if !c.creds.SchoolResolved() {
		id, err := c.Portal.ResolveSchool(ctx, c.creds.SchoolName)
		if err != nil {
			return nil, watermark, err
		}
		c.creds.SchoolID = id
		c.log.Info().Str("school", c.creds.SchoolName).Str("school_id", id).Msg("school resolved")
	}

	if c.creds.AuthCode == "" && c.AuthCodes != nil {
		code, err := c.AuthCodes.AuthCode(ctx)
		if err != nil {
			return nil, watermark, fmt.Errorf("obtain auth code: %w", err)
		}
		c.creds.AuthCode = code
	}

	sess, err := c.Portal.Authenticate(ctx, *c.creds)
	if err != nil {
		return nil, watermark, err
	}
	course, err := sess.CurrentCourse(ctx)
	if err != nil {
		return nil, watermark, err
	}

	var (
		classes []model.ClassInfo
		listing []model.RawGrade
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		classes, err = course.Classes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		listing, err = course.Grades(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, watermark, err
	}

	c.setState(StateDiffing)
	res := grades.Diff(listing, watermark, c.gradeOpts...)
	byID := classname.Index(classes)
	profile := sess.Profile()

	notes := make([]model.NotificationGrade, 0, len(res.Grades))
	for _, rg := range res.Grades {
		n := model.NotificationGrade{
			Text:           rg.Value,
			IsPass:         rg.Passed,
			Description:    rg.Description,
			Weight:         rg.Weight,
			ClassName:      c.names.Normalize(rg.Class, byID),
			ClassAverage:   res.ClassAverage(rg.Class.ID),
			OverallAverage: res.Overall,
			OverallPoints:  res.OverallPoints,
			FirstName:      profile.FirstName,
			FilledIn:       rg.FilledIn,
		}
		if v, ok := model.ParseGrade(rg.Value); ok {
			n.Grade = decimal.NullDecimal{Decimal: v, Valid: true}
		}
		notes = append(notes, n)
	}
	c.log.Debug().Int("listing", len(listing)).Int("classes", len(classes)).Msg("grades diffed")
	return notes, res.Watermark, nil
}

// handleFailure surfaces err, except for a rejected credential that a
// fresh auth code may fix on the next tick.
func (c *Controller) handleFailure(ctx context.Context, err error) {
	fe := failure.FromError(err)

	if fe.Kind == failure.KindInvalidCredential && c.AuthCodes != nil {
		c.setState(StateAuthRetry)
		code, cerr := c.AuthCodes.AuthCode(ctx)
		switch {
		case cerr != nil:
			c.log.Warn().Err(cerr).Msg("auth code refresh failed")
		case code != "" && code != c.creds.AuthCode:
			c.creds.AuthCode = code
			c.log.Info().Str("reason", fe.Message).Msg("adopted new auth code, retrying next tick")
			return
		default:
			c.log.Warn().Msg("auth code unchanged")
		}
	}

	c.setState(StateFailed)
	c.log.Error().Str("kind", fe.Kind.String()).Msg(fe.Message)
	c.emitError(fe)
}

func (c *Controller) commit(ctx context.Context, watermark time.Time) {
	c.mu.Lock()
	if watermark.After(c.watermark) {
		c.watermark = watermark
	}
	committed := c.watermark
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.SaveWatermark(ctx, committed); err != nil {
		c.log.Warn().Err(err).Msg("persist watermark")
	}
}

func (c *Controller) emitGrade(n model.NotificationGrade) {
	c.mu.Lock()
	handlers := append([]GradeHandler(nil), c.gradeHandlers...)
	c.mu.Unlock()
	for _, h := range handlers {
		h(n)
	}
}

func (c *Controller) emitError(fe *failure.Error) {
	c.mu.Lock()
	handlers := append([]ErrorHandler(nil), c.errorHandlers...)
	c.mu.Unlock()
	for _, h := range handlers {
		h(fe)
	}
}
