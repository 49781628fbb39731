package planner

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Task is a unit of work proposed by the plan generator.
type Task struct {
	Name            string `json:"task"`
	DurationMinutes int    `json:"duration"`
	Recurring       bool   `json:"recurring,omitempty"`
}

// Instance is a task (or a fragment of one) placed on a calendar date.
type Instance struct {
	Task      string `json:"task"`
	Duration  int    `json:"duration"`
	Date      string `json:"date"`
	Recurring bool   `json:"recurring,omitempty"`
}

// Span returns the calendar event interval [date, date+duration] in loc.
func (i Instance) Span(loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(DateLayout, i.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", i.Date, err)
	}
	return start, start.Add(time.Duration(i.Duration) * time.Minute), nil
}

// fragmentLabel annotates a split chunk so its origin task stays recognisable.
func fragmentLabel(name string, minutes int) string {
	return fmt.Sprintf("%s (%d mins)", name, minutes)
}

// Mode tells the allocator which algorithm the plan was normalized for.
type Mode int

const (
	ModeFlat Mode = iota
	ModeGrouped
)

func (m Mode) String() string {
	switch m {
	case ModeFlat:
		return "flat"
	case ModeGrouped:
		return "grouped"
	default:
		return "unknown"
	}
}

// DayGroup is the list of tasks generated for one weekday label of a template week.
type DayGroup struct {
	Weekday string
	Tasks   []Task
}

// TaggedTask is a task together with the weekday label it was grouped under, if any.
type TaggedTask struct {
	Task
	Weekday string
}

// Plan is the canonical, normalized form of generator output.
type Plan struct {
	Mode   Mode
	Tasks  []Task
	Groups []DayGroup
}

// Flatten returns every task of the plan in canonical order.
func (p Plan) Flatten() []TaggedTask {
	if p.Mode == ModeFlat {
		out := make([]TaggedTask, 0, len(p.Tasks))
		for _, t := range p.Tasks {
			out = append(out, TaggedTask{Task: t})
		}
		return out
	}
	var out []TaggedTask
	for _, g := range p.Groups {
		for _, t := range g.Tasks {
			out = append(out, TaggedTask{Task: t, Weekday: g.Weekday})
		}
	}
	return out
}

// Len reports the number of tasks in the plan.
func (p Plan) Len() int {
	if p.Mode == ModeFlat {
		return len(p.Tasks)
	}
	n := 0
	for _, g := range p.Groups {
		n += len(g.Tasks)
	}
	return n
}

// FlatPlan wraps an ordered task list as a flat plan.
func FlatPlan(tasks []Task) Plan {
	return Plan{Mode: ModeFlat, Tasks: tasks}
}
