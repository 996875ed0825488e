// Package engine is the command surface of the scheduler. Each command takes
// the stored snapshot of a schedule, applies its change to a copy, runs the
// recompute step where the change can move dates, and commits the copy only
// on success. Returned schedules are copies and never alias engine state.
//
// An Engine is not safe for concurrent use; callers serialise mutations.
package engine

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joshharrison/planloom/internal/config"
	"github.com/joshharrison/planloom/internal/cpm"
	"github.com/joshharrison/planloom/internal/graph"
	"github.com/joshharrison/planloom/internal/idgen"
	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/progress"
)

// Clock supplies the current time for deadline queries.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// Settings are the calculation policies applied by Recompute.
type Settings struct {
	Progress  progress.Policy
	TargetEnd string // config.TargetEndComputed or config.TargetEndDeclared
}

// DefaultSettings mirrors config.Default.
func DefaultSettings() Settings {
	return Settings{Progress: progress.DefaultPolicy(), TargetEnd: config.TargetEndComputed}
}

// SettingsFrom converts loaded configuration.
func SettingsFrom(cfg config.EngineConfig) Settings {
	return Settings{
		Progress:  progress.Policy{InProgressDefault: cfg.InProgressDefault},
		TargetEnd: cfg.TargetEnd,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(g idgen.Generator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithSettings sets the calculation policies.
func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// Engine holds every schedule's latest snapshot.
type Engine struct {
	schedules map[string]*model.Schedule
	order     []string            // schedule ids in creation order
	index     map[string][]string // schedule id -> task ids

	ids      idgen.Generator
	clock    Clock
	log      *zap.Logger
	settings Settings
}

// New creates an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		schedules: make(map[string]*model.Schedule),
		index:     make(map[string][]string),
		ids:       idgen.UUID{},
		clock:     ClockFunc(time.Now),
		log:       zap.NewNop(),
		settings:  DefaultSettings(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recompute refreshes the critical path, per-task CPM fields and progress of s.
// It fails with a *model.CycleError if the dependencies are not acyclic.
func Recompute(s *model.Schedule, settings Settings) error {
	if err := RecomputeCriticalPath(s, settings); err != nil {
		return err
	}
	s.Progress = progress.Compute(s.Tasks, settings.Progress)
	return nil
}

// RecomputeCriticalPath refreshes only the CPM-derived fields of s.
func RecomputeCriticalPath(s *model.Schedule, settings Settings) error {
	result, err := Analyze(s, settings)
	if err != nil {
		return err
	}
	cpm.Apply(s.Tasks, result)
	s.CriticalPath = result.CriticalPath
	return nil
}

// Analyze runs the critical path calculation on s without modifying it.
func Analyze(s *model.Schedule, settings Settings) (*cpm.Result, error) {
	g, err := graph.Build(s.Tasks)
	if err != nil {
		return nil, err
	}
	var opts cpm.Options
	if settings.TargetEnd == config.TargetEndDeclared {
		opts.TargetEnd = s.EndDate
	}
	return cpm.Analyze(g, opts)
}

type recompute int

const (
	recomputeNone recompute = iota
	recomputeCriticalPath
	recomputeAll
)

// mutate applies fn to a copy of the stored schedule and commits it.
func (e *Engine) mutate(scheduleID, op string, rc recompute, fn func(s *model.Schedule) error) (*model.Schedule, error) {
	cur, ok := e.schedules[scheduleID]
	if !ok {
		return nil, model.NewNotFoundError("schedule", scheduleID)
	}

	next := cur.Clone()
	if err := fn(next); err != nil {
		e.log.Warn("command rejected",
			zap.String("op", op), zap.String("schedule_id", scheduleID), zap.Error(err))
		return nil, err
	}

	var err error
	switch rc {
	case recomputeCriticalPath:
		err = RecomputeCriticalPath(next, e.settings)
	case recomputeAll:
		err = Recompute(next, e.settings)
	}
	if err != nil {
		e.log.Warn("recompute failed",
			zap.String("op", op), zap.String("schedule_id", scheduleID), zap.Error(err))
		return nil, err
	}

	e.commit(next)
	e.log.Debug("command applied",
		zap.String("op", op),
		zap.String("schedule_id", scheduleID),
		zap.Strings("critical_path", next.CriticalPath),
		zap.Float64("progress", next.Progress))
	return next.Clone(), nil
}

func (e *Engine) commit(s *model.Schedule) {
	if _, exists := e.schedules[s.ID]; !exists {
		e.order = append(e.order, s.ID)
	}
	e.schedules[s.ID] = s
	e.index[s.ID] = s.TaskIDs()
}

// Load replaces the engine state with caller-persisted schedules. Every
// schedule is validated and recomputed; on error nothing is replaced.
func (e *Engine) Load(schedules []*model.Schedule) error {
	loaded := make([]*model.Schedule, 0, len(schedules))
	seen := make(map[string]bool, len(schedules))
	for _, src := range schedules {
		if src.ID == "" {
			return model.NewValidationError("schedule id", "", "must not be empty")
		}
		if seen[src.ID] {
			return model.NewValidationError("schedule id", src.ID, "duplicate")
		}
		seen[src.ID] = true

		s := src.Clone()
		if err := validateSchedule(s); err != nil {
			return fmt.Errorf("schedule %s: %w", s.ID, err)
		}
		if err := Recompute(s, e.settings); err != nil {
			return fmt.Errorf("schedule %s: %w", s.ID, err)
		}
		loaded = append(loaded, s)
	}

	e.schedules = make(map[string]*model.Schedule, len(loaded))
	e.index = make(map[string][]string, len(loaded))
	e.order = nil
	for _, s := range loaded {
		e.commit(s)
	}
	e.log.Debug("schedules loaded", zap.Int("count", len(loaded)))
	return nil
}

func validateSchedule(s *model.Schedule) error {
	taskIDs := make(map[string]bool, len(s.Tasks))
	for _, t := range s.Tasks {
		if t.ID == "" || taskIDs[t.ID] {
			return model.NewValidationError("task id", t.ID, "must be unique and not empty")
		}
		taskIDs[t.ID] = true
		t.ScheduleID = s.ID
		if t.Status == "" {
			t.Status = model.StatusNew
		}
		if err := validateTask(t); err != nil {
			return err
		}
	}

	depIDs := make(map[string]bool)
	for _, t := range s.Tasks {
		preds := make(map[string]bool, len(t.Dependencies))
		for _, d := range t.Dependencies {
			if d.ID == "" || depIDs[d.ID] {
				return model.NewValidationError("dependency id", d.ID, "must be unique and not empty")
			}
			depIDs[d.ID] = true
			if d.SuccessorID != t.ID {
				return model.NewValidationError("dependency "+d.ID+" successor", d.SuccessorID, "must be the owning task "+t.ID)
			}
			if !taskIDs[d.PredecessorID] {
				return model.NewNotFoundError("task", d.PredecessorID)
			}
			if preds[d.PredecessorID] {
				return model.NewValidationError("dependency", d.PredecessorID+" -> "+t.ID, "already exists")
			}
			preds[d.PredecessorID] = true
			if err := validateDependencyType(d.Type); err != nil {
				return err
			}
		}
	}
	for _, r := range s.Resources {
		if err := validateWindows(r.Availability); err != nil {
			return err
		}
	}
	return nil
}

// AddSchedule creates an empty schedule.
func (e *Engine) AddSchedule(in ScheduleInput) (*model.Schedule, error) {
	s := &model.Schedule{
		ID:          e.ids.NewID("schedule"),
		Name:        in.Name,
		Description: in.Description,
		ProjectID:   in.ProjectID,
		Status:      in.Status,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() {
		if err := model.CheckInterval("schedule '"+s.Name+"'", in.StartDate, in.EndDate); err != nil {
			return nil, err
		}
	}
	e.commit(s)
	e.log.Debug("schedule added", zap.String("schedule_id", s.ID), zap.String("name", s.Name))
	return s.Clone(), nil
}

// UpdateSchedule changes schedule-level fields. A new end date only moves
// slack when the declared target end policy is active, so the critical
// path is refreshed either way.
func (e *Engine) UpdateSchedule(scheduleID string, p SchedulePatch) (*model.Schedule, error) {
	return e.mutate(scheduleID, "update_schedule", recomputeCriticalPath, func(s *model.Schedule) error {
		if p.Name != nil {
			s.Name = *p.Name
		}
		if p.Description != nil {
			s.Description = *p.Description
		}
		if p.ProjectID != nil {
			s.ProjectID = *p.ProjectID
		}
		if p.Status != nil {
			s.Status = *p.Status
		}
		if p.StartDate != nil {
			s.StartDate = *p.StartDate
		}
		if p.EndDate != nil {
			s.EndDate = *p.EndDate
		}
		if !s.StartDate.IsZero() && !s.EndDate.IsZero() {
			return model.CheckInterval("schedule '"+s.Name+"'", s.StartDate, s.EndDate)
		}
		return nil
	})
}

// RemoveSchedule deletes a schedule and everything it owns.
func (e *Engine) RemoveSchedule(scheduleID string) error {
	if _, ok := e.schedules[scheduleID]; !ok {
		return model.NewNotFoundError("schedule", scheduleID)
	}
	delete(e.schedules, scheduleID)
	delete(e.index, scheduleID)
	e.order = slices.DeleteFunc(e.order, func(id string) bool { return id == scheduleID })
	e.log.Debug("schedule removed", zap.String("schedule_id", scheduleID))
	return nil
}

// Schedule returns a snapshot of one schedule.
func (e *Engine) Schedule(scheduleID string) (*model.Schedule, error) {
	s, ok := e.schedules[scheduleID]
	if !ok {
		return nil, model.NewNotFoundError("schedule", scheduleID)
	}
	return s.Clone(), nil
}

// Schedules returns snapshots of every schedule in creation order.
func (e *Engine) Schedules() []*model.Schedule {
	return e.filter(func(*model.Schedule) bool { return true })
}

// TaskIDs returns the ids of the tasks a schedule owns, in schedule order.
func (e *Engine) TaskIDs(scheduleID string) ([]string, error) {
	ids, ok := e.index[scheduleID]
	if !ok {
		return nil, model.NewNotFoundError("schedule", scheduleID)
	}
	return slices.Clone(ids), nil
}

// ScheduleOf returns the id of the schedule owning taskID.
func (e *Engine) ScheduleOf(taskID string) (string, error) {
	for _, sid := range e.order {
		if slices.Contains(e.index[sid], taskID) {
			return sid, nil
		}
	}
	return "", model.NewNotFoundError("task", taskID)
}

// SchedulesByProject returns schedules attached to a project.
func (e *Engine) SchedulesByProject(projectID string) []*model.Schedule {
	return e.filter(func(s *model.Schedule) bool { return s.ProjectID == projectID })
}

// SchedulesByStatus returns schedules with the given status.
func (e *Engine) SchedulesByStatus(status string) []*model.Schedule {
	return e.filter(func(s *model.Schedule) bool { return s.Status == status })
}

// SearchSchedules matches query case-insensitively against name and description.
func (e *Engine) SearchSchedules(query string) []*model.Schedule {
	q := strings.ToLower(query)
	return e.filter(func(s *model.Schedule) bool {
		return strings.Contains(strings.ToLower(s.Name), q) ||
			strings.Contains(strings.ToLower(s.Description), q)
	})
}

func (e *Engine) filter(pred func(*model.Schedule) bool) []*model.Schedule {
	var out []*model.Schedule
	for _, id := range e.order {
		if s := e.schedules[id]; pred(s) {
			out = append(out, s.Clone())
		}
	}
	return out
}
