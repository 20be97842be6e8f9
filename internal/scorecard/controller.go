// Package scorecard owns the scoring session state machine.
package scorecard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/verte-zerg/scorecard/internal/catalog"
	"github.com/verte-zerg/scorecard/internal/events"
	"github.com/verte-zerg/scorecard/internal/model"
	"github.com/verte-zerg/scorecard/internal/scoring"
	"github.com/verte-zerg/scorecard/internal/store"
	"github.com/verte-zerg/scorecard/pkg/logger"
	"github.com/verte-zerg/scorecard/pkg/metrics"
)

// Storage persists named JSON blobs. store.Service implements it.
type Storage interface {
	Save(ctx context.Context, key string, v any) error
	Load(ctx context.Context, key string, dst any) (bool, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// State is the controller's position in the session life cycle.
type State int

// Session life cycle states.
const (
	StateNoSession State = iota
	StateConfiguring
	StateEndInProgress
	StateEndFull
)

func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateEndInProgress:
		return "end-in-progress"
	case StateEndFull:
		return "end-full"
	default:
		return "no-session"
	}
}

// Selection is what the archer picks before starting. Zero overrides keep the round defaults.
// Distance and FaceSize turn a configurable round into a custom one.
type Selection struct {
	RoundID      string
	BowID        string
	ArrowsPerEnd int
	TotalEnds    int
	Distance     int
	FaceSize     int
	Metadata     model.SessionMetadata
}

// Controller drives one archer's sessions. It is not safe for concurrent use;
// callers serialize actions the way a UI event loop does.
type Controller struct {
	storage Storage
	bus     *events.Bus
	log     logger.Logger
	metrics metrics.Recorder
	now     func() time.Time
	newID   func(time.Time) string

	configured *model.RoundType
	current    *model.Session
	buffer     []model.Arrow
	sessions   []model.Session
	view       model.View
	lastStamp  time.Time
	lastErr    error

	// historyLoaded is false until the stored sessions record has been read.
	historyLoaded bool
}

// New builds a Controller. A nil bus gets a private one.
func New(storage Storage, bus *events.Bus, opts ...Option) *Controller {
	c := &Controller{
		storage: storage,
		bus:     bus,
		log:     logger.Nop(),
		metrics: metrics.Nop(),
		now:     time.Now,
		newID:   NewSessionID,
		view:    model.ViewScoring,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.bus == nil {
		c.bus = events.NewBus(c.log)
	}
	c.log = c.log.Named("scorecard")
	return c
}

// Init loads history and resumes an unfinished session. Storage failures are
// reported and returned, but the controller stays usable with whatever loaded.
func (c *Controller) Init(ctx context.Context) error {
	var errs []error

	var sessions []model.Session
	if _, err := c.storage.Load(ctx, store.KeySessions, &sessions); err != nil {
		c.storageFailed(ctx, "load", err)
		errs = append(errs, err)
	} else {
		c.sessions = sessions
		c.historyLoaded = true
	}

	var current model.Session
	found, err := c.storage.Load(ctx, store.KeyCurrentSession, &current)
	switch {
	case err != nil:
		c.storageFailed(ctx, "load", err)
		errs = append(errs, err)
	case found && !current.IsComplete && len(current.Ends) < current.RoundType.TotalEnds:
		c.current = &current
		c.buffer = nil
		c.observeStamp(current.StartTime)
		for _, end := range current.Ends {
			c.observeStamp(end.Timestamp)
		}
		c.log.Info(ctx, "resumed session", logger.String("session", current.ID), logger.Int("ends", len(current.Ends)))
	case found:
		if err := c.storage.Delete(ctx, store.KeyCurrentSession); err != nil {
			c.storageFailed(ctx, "delete", err)
		}
	}
	c.log.Info(ctx, "history loaded", logger.Int("sessions", len(c.sessions)))
	return errors.Join(errs...)
}

// State reports the current life cycle state.
func (c *Controller) State() State {
	switch {
	case c.current == nil && c.configured != nil:
		return StateConfiguring
	case c.current == nil:
		return StateNoSession
	case len(c.buffer) >= c.current.RoundType.ArrowsPerEnd:
		return StateEndFull
	default:
		return StateEndInProgress
	}
}

// Configure validates a selection and returns the round it resolves to.
func (c *Controller) Configure(sel Selection) (model.RoundType, error) {
	if c.current != nil {
		return model.RoundType{}, c.reject(invalid("", CodeSessionActive, ErrSessionActive, "finish the current session first"))
	}
	rt, _, err := c.resolve(sel)
	if err != nil {
		return model.RoundType{}, c.reject(err)
	}
	c.configured = &rt
	return rt, nil
}

func (c *Controller) resolve(sel Selection) (model.RoundType, model.BowType, error) {
	if sel.RoundID == "" {
		return model.RoundType{}, model.BowType{}, invalid("roundType", CodeRequired, ErrMissing, "select a round type")
	}
	if sel.BowID == "" {
		return model.RoundType{}, model.BowType{}, invalid("bowType", CodeRequired, ErrMissing, "select a bow type")
	}
	rt, ok := catalog.Round(sel.RoundID)
	if !ok {
		return model.RoundType{}, model.BowType{}, invalid("roundType", CodeNotFound, ErrUnknown, "unknown round type %q", sel.RoundID)
	}
	bow, ok := catalog.Bow(sel.BowID)
	if !ok {
		return model.RoundType{}, model.BowType{}, invalid("bowType", CodeNotFound, ErrUnknown, "unknown bow type %q", sel.BowID)
	}
	rt, err := catalog.Specialize(rt, catalog.Overrides{ArrowsPerEnd: sel.ArrowsPerEnd, TotalEnds: sel.TotalEnds})
	if err != nil {
		return model.RoundType{}, model.BowType{}, invalid("overrides", CodeOutOfRange, err, "%v", err)
	}
	if sel.Distance == 0 && sel.FaceSize == 0 {
		return rt, bow, nil
	}
	custom, err := customize(rt, sel.Distance, sel.FaceSize)
	if err != nil {
		return model.RoundType{}, model.BowType{}, err
	}
	return custom, bow, nil
}

func customize(rt model.RoundType, distance, faceSize int) (model.RoundType, error) {
	if !rt.IsConfigurable() {
		return model.RoundType{}, invalid("roundType", CodeNotConfigurable, ErrNotConfigurable, "%s has a fixed distance and face", rt.Name)
	}
	if distance < 0 {
		return model.RoundType{}, invalid("distance", CodeOutOfRange, catalog.ErrInvalidRound, "distance must be positive")
	}
	if distance == 0 {
		distance = rt.Distance
	}
	if faceSize == 0 {
		faceSize = rt.TargetFace.Size
	}
	if _, ok := catalog.TargetFace(faceSize); !ok {
		return model.RoundType{}, invalid("targetFace", CodeNotFound, ErrUnknown, "no %dcm target face", faceSize)
	}
	return catalog.CustomRound(distance, rt.ArrowsPerEnd, rt.TotalEnds, faceSize), nil
}

// Start begins a session. On failure nothing changes.
func (c *Controller) Start(ctx context.Context, sel Selection) (*model.Session, error) {
	if c.current != nil {
		return nil, c.reject(invalid("", CodeSessionActive, ErrSessionActive, "finish the current session first"))
	}
	rt, bow, err := c.resolve(sel)
	if err != nil {
		return nil, c.reject(err)
	}
	start := c.stamp()
	meta := sel.Metadata
	meta.BowType = &bow
	session := model.Session{
		ID:        c.newID(start),
		RoundType: rt,
		StartTime: start,
		Ends:      []model.End{},
		Metadata:  meta,
	}
	c.current = &session
	c.configured = nil
	c.buffer = nil
	c.lastErr = nil
	c.metrics.SessionStarted()
	c.log.Info(ctx, "session started",
		logger.String("session", session.ID),
		logger.String("round", rt.ID),
		logger.String("bow", bow.ID),
		logger.Int("arrows_per_end", rt.ArrowsPerEnd),
		logger.Int("total_ends", rt.TotalEnds))
	c.bus.Emit(events.SessionStarted, cloneSession(session))
	out := cloneSession(session)
	return &out, nil
}

// RecordArrow appends a score to the end in progress.
func (c *Controller) RecordArrow(score model.ArrowScore) (model.Arrow, error) {
	if c.current == nil {
		return model.Arrow{}, c.reject(invalid("", CodeNoSession, ErrNoSession, "start a session first"))
	}
	if !score.Valid() {
		return model.Arrow{}, c.reject(invalid("score", CodeInvalidScore, scoring.ErrInvalidScore, "invalid score %q: use 1-10, X, or M", string(score)))
	}
	if len(c.buffer) >= c.current.RoundType.ArrowsPerEnd {
		return model.Arrow{}, c.reject(invalid("", CodeEndFull, ErrEndFull, "all %d arrows recorded; complete or clear the end", c.current.RoundType.ArrowsPerEnd))
	}
	arrow := model.Arrow{
		Value:      score,
		IsInnerTen: score == model.InnerTen,
		Timestamp:  c.stamp(),
	}
	c.buffer = append(c.buffer, arrow)
	c.lastErr = nil
	c.metrics.ArrowRecorded(string(score))
	c.bus.Emit(events.ArrowScored, events.ArrowScoredEvent{Arrow: arrow, EndNumber: c.EndNumber()})
	return arrow, nil
}

// RecordArrowText parses free-text input and records it.
func (c *Controller) RecordArrowText(text string) (model.Arrow, error) {
	score, err := scoring.ParseScore(text)
	if err != nil {
		return model.Arrow{}, c.reject(invalid("score", CodeInvalidScore, err, "invalid score %q: use 1-10, X, or M", text))
	}
	return c.RecordArrow(score)
}

// UndoArrow drops the most recent arrow of the end in progress. It reports whether one was removed.
func (c *Controller) UndoArrow() bool {
	if len(c.buffer) == 0 {
		return false
	}
	c.buffer = c.buffer[:len(c.buffer)-1]
	return true
}

// ClearEnd discards the end in progress.
func (c *Controller) ClearEnd() {
	c.buffer = nil
}

// CompleteEnd finalizes a full end. An empty end is a no-op returning (nil, nil);
// a partially filled end is rejected. Completing the last end completes the session.
func (c *Controller) CompleteEnd(ctx context.Context) (*model.End, error) {
	if c.current == nil {
		return nil, c.reject(invalid("", CodeNoSession, ErrNoSession, "start a session first"))
	}
	if len(c.buffer) == 0 {
		return nil, nil
	}
	want := c.current.RoundType.ArrowsPerEnd
	if len(c.buffer) != want {
		return nil, c.reject(invalid("", CodeEndIncomplete, ErrEndIncomplete, "%d of %d arrows recorded", len(c.buffer), want))
	}

	arrows := append([]model.Arrow(nil), c.buffer...)
	end := model.End{
		Number:    len(c.current.Ends) + 1,
		Arrows:    arrows,
		Timestamp: c.stamp(),
		Total:     scoring.EndTotal(arrows),
	}
	c.current.Ends = append(c.current.Ends, end)
	c.buffer = nil
	c.lastErr = nil
	c.metrics.EndCompleted()
	c.log.Debug(ctx, "end completed",
		logger.String("session", c.current.ID),
		logger.Int("end", end.Number),
		logger.Int("total", end.Total),
		logger.Int("running_total", c.RunningTotal()))

	if err := c.storage.Save(ctx, store.KeyCurrentSession, c.current); err != nil {
		c.storageFailed(ctx, "save", err)
	}
	c.bus.Emit(events.EndCompleted, cloneEnd(end))

	if len(c.current.Ends) >= c.current.RoundType.TotalEnds {
		c.completeSession(ctx)
	}
	out := cloneEnd(end)
	return &out, nil
}

func (c *Controller) completeSession(ctx context.Context) {
	session := c.current
	endTime := c.stamp()
	session.EndTime = &endTime
	session.IsComplete = true
	c.sessions = append(c.sessions, *session)
	c.current = nil
	c.buffer = nil
	c.metrics.SessionCompleted()
	c.log.Info(ctx, "session completed",
		logger.String("session", session.ID),
		logger.Int("total", session.Total()),
		logger.Int("max", session.RoundType.MaxScore))

	saved := c.saveHistory(ctx) == nil
	if err := c.storage.Delete(ctx, store.KeyCurrentSession); err != nil {
		c.storageFailed(ctx, "delete", err)
	}
	done := cloneSession(*session)
	c.bus.Emit(events.SessionEnded, done)
	if saved {
		c.bus.Emit(events.SessionSaved, done)
	}
}

// syncHistory reads the stored sessions record if Init could not, placing stored
// sessions ahead of those added since. It fails while the record stays unreadable.
func (c *Controller) syncHistory(ctx context.Context) error {
	if c.historyLoaded {
		return nil
	}
	var stored []model.Session
	if _, err := c.storage.Load(ctx, store.KeySessions, &stored); err != nil {
		return fmt.Errorf("%w: %w", ErrHistoryUnreadable, err)
	}
	c.sessions = append(stored, c.sessions...)
	c.historyLoaded = true
	return nil
}

// saveHistory persists the session list. The write is skipped while stored
// history is unreadable so it never replaces records that were not loaded.
func (c *Controller) saveHistory(ctx context.Context) error {
	if err := c.syncHistory(ctx); err != nil {
		c.storageFailed(ctx, "save", err)
		return err
	}
	if err := c.storage.Save(ctx, store.KeySessions, c.sessions); err != nil {
		c.storageFailed(ctx, "save", err)
		return err
	}
	return nil
}

// Current returns a copy of the session in progress.
func (c *Controller) Current() (model.Session, bool) {
	if c.current == nil {
		return model.Session{}, false
	}
	return cloneSession(*c.current), true
}

// Buffer returns the arrows of the end in progress.
func (c *Controller) Buffer() []model.Arrow {
	return append([]model.Arrow(nil), c.buffer...)
}

// EndNumber is the 1-based number of the end being shot, or 0 without a session.
func (c *Controller) EndNumber() int {
	if c.current == nil {
		return 0
	}
	return len(c.current.Ends) + 1
}

// LiveEndTotal sums the end in progress.
func (c *Controller) LiveEndTotal() int {
	return scoring.EndTotal(c.buffer)
}

// RunningTotal sums the completed ends of the current session.
func (c *Controller) RunningTotal() int {
	if c.current == nil {
		return 0
	}
	return scoring.RunningTotal(c.current.Ends)
}

// Percentage is the running total against the round's max score.
func (c *Controller) Percentage() float64 {
	if c.current == nil {
		return 0
	}
	return scoring.Percentage(c.RunningTotal(), c.current.RoundType.MaxScore)
}

// Sessions returns completed sessions in the order they were added.
func (c *Controller) Sessions() []model.Session {
	out := make([]model.Session, len(c.sessions))
	for i, s := range c.sessions {
		out[i] = cloneSession(s)
	}
	return out
}

// History returns completed sessions, newest start time first.
func (c *Controller) History() []model.Session {
	out := c.Sessions()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

// View returns the active view.
func (c *Controller) View() model.View { return c.view }

// SwitchView changes the active view.
func (c *Controller) SwitchView(v model.View) error {
	if v != model.ViewScoring && v != model.ViewHistory {
		return c.reject(invalid("view", CodeInvalidView, ErrInvalidView, "unknown view %q", string(v)))
	}
	from := c.view
	c.view = v
	c.bus.Emit(events.ViewChanged, events.ViewChangedEvent{From: from, To: v})
	return nil
}

// LastError returns the most recent failure surfaced to the user, if any.
func (c *Controller) LastError() error { return c.lastErr }

// DismissError clears the last surfaced failure.
func (c *Controller) DismissError() { c.lastErr = nil }

// Bus exposes the event bus for observers.
func (c *Controller) Bus() *events.Bus { return c.bus }

func (c *Controller) reject(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		c.metrics.ValidationFailed(ve.Code)
	}
	c.lastErr = err
	c.bus.Emit(events.ErrorOccurred, err)
	return err
}

func (c *Controller) storageFailed(ctx context.Context, op string, err error) {
	c.metrics.StorageFailed(op)
	c.log.Error(ctx, "storage call failed", logger.String("op", op), logger.Error(err))
	c.lastErr = err
	c.bus.Emit(events.ErrorOccurred, err)
}

// stamp returns the current time, never earlier than a previous stamp.
func (c *Controller) stamp() time.Time {
	t := c.now()
	if t.Before(c.lastStamp) {
		t = c.lastStamp
	}
	c.lastStamp = t
	return t
}

func (c *Controller) observeStamp(t time.Time) {
	if t.After(c.lastStamp) {
		c.lastStamp = t
	}
}

func cloneEnd(e model.End) model.End {
	out := e
	out.Arrows = append([]model.Arrow(nil), e.Arrows...)
	return out
}

func cloneSession(s model.Session) model.Session {
	out := s
	out.Ends = make([]model.End, len(s.Ends))
	for i, e := range s.Ends {
		out.Ends[i] = cloneEnd(e)
	}
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	if s.Metadata.BowType != nil {
		b := *s.Metadata.BowType
		out.Metadata.BowType = &b
	}
	if s.RoundType.Overrides != nil {
		o := *s.RoundType.Overrides
		out.RoundType.Overrides = &o
	}
	out.RoundType.TargetFace.Rings = append([]model.ScoringRing(nil), s.RoundType.TargetFace.Rings...)
	return out
}
