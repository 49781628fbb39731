package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"study-planner/internal/generator"
	"study-planner/internal/metrics"
	"study-planner/internal/model"
	"study-planner/internal/planner"
)

// PlanStore persists scheduled plans.
type PlanStore interface {
	Create(ctx context.Context, plan *model.Plan) error
	FindByID(ctx context.Context, id string) (*model.Plan, error)
	Latest(ctx context.Context, owner string) (*model.Plan, error)
	EntriesOn(ctx context.Context, planID, date string) ([]model.PlanEntry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Recorder receives plan outcomes for monitoring.
type Recorder interface {
	PlanCreated(mode string, instances int)
	PlanFailed(reason string)
	ObserveGenerate(d time.Duration)
}

// PlanRequest is a validated request for a new plan.
type PlanRequest struct {
	Topic       string
	Constraints planner.Constraints
}

// ScheduledPlan is a stored plan with its dated instances in emission order.
type ScheduledPlan struct {
	ID          string
	Owner       string
	Topic       string
	Constraints planner.Constraints
	Mode        string
	StartDate   string
	CreatedAt   time.Time
	Instances   []planner.Instance
}

// PlanService generates, schedules and stores study plans.
type PlanService struct {
	store     PlanStore
	generator generator.Generator
	recorder  Recorder
	log       zerolog.Logger
	newID     func() string
}

func NewPlanService(store PlanStore, gen generator.Generator, recorder Recorder, log zerolog.Logger) *PlanService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &PlanService{
		store:     store,
		generator: gen,
		recorder:  recorder,
		log:       log.With().Str("component", "plans").Logger(),
		newID:     uuid.NewString,
	}
}

// Generate asks the generator for tasks, lays them out starting on the day of
// now and stores the result under owner. Constraints are checked before the
// generator is called.
func (s *PlanService) Generate(ctx context.Context, owner string, req PlanRequest, now time.Time) (*ScheduledPlan, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, ErrInvalidInput
	}
	if err := req.Constraints.Validate(); err != nil {
		s.recorder.PlanFailed(metrics.ReasonInvalidConstraints)
		return nil, err
	}
	if s.generator == nil {
		return nil, ErrNoGenerator
	}

	started := time.Now()
	raw, err := s.generator.Generate(ctx, generator.Request{
		Topic:         topic,
		HoursPerDay:   req.Constraints.HoursPerDay,
		DeadlineWeeks: req.Constraints.DeadlineWeeks,
		DaysPerWeek:   req.Constraints.DaysPerWeek,
	})
	s.recorder.ObserveGenerate(time.Since(started))
	if err != nil {
		s.recorder.PlanFailed(metrics.ReasonGeneration)
		return nil, err
	}

	plan, err := planner.Normalize(raw)
	if err != nil {
		s.recorder.PlanFailed(metrics.ReasonMalformedPlan)
		s.log.Warn().Err(err).Str("topic", topic).Msg("generator output rejected")
		return nil, err
	}
	instances, err := planner.Allocate(plan, req.Constraints, now)
	if err != nil {
		s.recorder.PlanFailed(metrics.ReasonMalformedPlan)
		return nil, err
	}

	record := &model.Plan{
		ID:            s.newID(),
		Owner:         owner,
		Topic:         topic,
		HoursPerDay:   req.Constraints.HoursPerDay,
		DeadlineWeeks: req.Constraints.DeadlineWeeks,
		DaysPerWeek:   req.Constraints.DaysPerWeek,
		Mode:          plan.Mode.String(),
		StartDate:     now.Format(planner.DateLayout),
		CreatedAt:     now.UTC(),
		Entries:       toEntries(instances),
	}
	if err := s.store.Create(ctx, record); err != nil {
		s.recorder.PlanFailed(metrics.ReasonStorage)
		return nil, err
	}

	s.recorder.PlanCreated(record.Mode, len(instances))
	s.log.Info().Str("plan", record.ID).Str("owner", owner).Str("mode", record.Mode).
		Int("tasks", plan.Len()).Int("instances", len(instances)).Msg("plan scheduled")
	return fromRecord(record), nil
}

func (s *PlanService) Get(ctx context.Context, id string) (*ScheduledPlan, error) {
	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return fromRecord(record), nil
}

func (s *PlanService) Latest(ctx context.Context, owner string) (*ScheduledPlan, error) {
	record, err := s.store.Latest(ctx, owner)
	if err != nil {
		return nil, notFound(err)
	}
	return fromRecord(record), nil
}

// Today returns the latest plan of owner and its instances dated on now.
func (s *PlanService) Today(ctx context.Context, owner string, now time.Time) (*ScheduledPlan, []planner.Instance, error) {
	record, err := s.store.Latest(ctx, owner)
	if err != nil {
		return nil, nil, notFound(err)
	}
	entries, err := s.store.EntriesOn(ctx, record.ID, now.Format(planner.DateLayout))
	if err != nil {
		return nil, nil, fmt.Errorf("entries for today: %w", err)
	}
	return fromRecord(record), toInstances(entries), nil
}

// Purge deletes plans older than retention. A non-positive retention keeps everything.
func (s *PlanService) Purge(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	removed, err := s.store.DeleteOlderThan(ctx, now.UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info().Int64("plans", removed).Msg("purged stale plans")
	}
	return removed, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func toEntries(instances []planner.Instance) []model.PlanEntry {
	entries := make([]model.PlanEntry, 0, len(instances))
	for i, inst := range instances {
		entries = append(entries, model.PlanEntry{
			Position:  i,
			Task:      inst.Task,
			Duration:  inst.Duration,
			Date:      inst.Date,
			Recurring: inst.Recurring,
		})
	}
	return entries
}

func toInstances(entries []model.PlanEntry) []planner.Instance {
	out := make([]planner.Instance, 0, len(entries))
	for _, e := range entries {
		out = append(out, planner.Instance{Task: e.Task, Duration: e.Duration, Date: e.Date, Recurring: e.Recurring})
	}
	return out
}

func fromRecord(p *model.Plan) *ScheduledPlan {
	return &ScheduledPlan{
		ID:    p.ID,
		Owner: p.Owner,
		Topic: p.Topic,
		Constraints: planner.Constraints{
			HoursPerDay:   p.HoursPerDay,
			DeadlineWeeks: p.DeadlineWeeks,
			DaysPerWeek:   p.DaysPerWeek,
		},
		Mode:      p.Mode,
		StartDate: p.StartDate,
		CreatedAt: p.CreatedAt,
		Instances: toInstances(p.Entries),
	}
}

type nopRecorder struct{}

func (nopRecorder) PlanCreated(string, int)       {}
func (nopRecorder) PlanFailed(string)             {}
func (nopRecorder) ObserveGenerate(time.Duration) {}
