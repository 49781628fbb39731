package planner

import "time"

type pendingTask struct {
	task      Task
	remaining int
}

// Allocate lays the plan out on the calendar starting at the day of start.
//
// The result is a pure function of its arguments: the same plan, constraints
// and start always produce the same instances in the same order.
func Allocate(plan Plan, c Constraints, start time.Time) ([]Instance, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if plan.Len() == 0 {
		return []Instance{}, nil
	}

	switch plan.Mode {
	case ModeFlat:
		tasks, err := NormalizeTasks(plan.Tasks)
		if err != nil {
			return nil, err
		}
		return allocateFlat(tasks, c, start), nil
	case ModeGrouped:
		groups := make([]DayGroup, 0, len(plan.Groups))
		for _, g := range plan.Groups {
			tasks, err := NormalizeTasks(g.Tasks)
			if err != nil {
				return nil, err
			}
			groups = append(groups, DayGroup{Weekday: g.Weekday, Tasks: tasks})
		}
		return allocateGrouped(groups, c, start), nil
	default:
		return nil, malformed("unknown plan mode %d", plan.Mode)
	}
}

// allocateFlat emits every recurring task once per working day of the
// horizon and pours the one-off tasks into whatever budget is left, splitting
// them at day boundaries. One-off work that does not fit inside the horizon
// keeps flowing into the following working days.
func allocateFlat(tasks []Task, c Constraints, start time.Time) []Instance {
	var recurring []Task
	var queue []pendingTask
	for _, t := range tasks {
		if t.Recurring {
			recurring = append(recurring, t)
			continue
		}
		queue = append(queue, pendingTask{task: t, remaining: t.DurationMinutes})
	}

	daysPerWeek := c.daysPerWeek()
	cursor := NewDayCursor(start, c.DailyMinutes())
	horizonEnd := cursor.Date().AddDate(0, 0, c.HorizonDays())
	out := make([]Instance, 0, len(tasks))

	for {
		AdvancePastNonWorkingDays(cursor, daysPerWeek)
		inHorizon := cursor.Date().Before(horizonEnd)
		if len(queue) == 0 && (!inHorizon || len(recurring) == 0) {
			break
		}
		date := cursor.DateString()

		if inHorizon {
			for _, t := range recurring {
				cursor.Consume(t.DurationMinutes)
				out = append(out, Instance{Task: t.Name, Duration: t.DurationMinutes, Date: date, Recurring: true})
			}
		}

		for len(queue) > 0 {
			head := &queue[0]
			chunk := cursor.Consume(head.remaining)
			if chunk <= 0 {
				break
			}
			name := head.task.Name
			if chunk < head.task.DurationMinutes {
				name = fragmentLabel(name, chunk)
			}
			out = append(out, Instance{Task: name, Duration: chunk, Date: date})
			head.remaining -= chunk
			if head.remaining == 0 {
				queue = queue[1:]
			}
		}

		cursor.Advance()
	}
	return out
}

// allocateGrouped replays the template week deadlineWeeks times. Each weekday
// slot lands on the next working day; its tasks are trusted to fit and are
// never split.
func allocateGrouped(groups []DayGroup, c Constraints, start time.Time) []Instance {
	recurring := recurringTasks(groups)
	daysPerWeek := c.daysPerWeek()
	cursor := NewDayCursor(start, c.DailyMinutes())
	var out []Instance

	for week := 0; week < c.DeadlineWeeks; week++ {
		for _, g := range groups {
			AdvancePastNonWorkingDays(cursor, daysPerWeek)
			date := cursor.DateString()
			for _, t := range recurring {
				out = append(out, Instance{Task: t.Name, Duration: t.DurationMinutes, Date: date, Recurring: true})
			}
			for _, t := range g.Tasks {
				if t.Recurring {
					continue
				}
				out = append(out, Instance{Task: t.Name, Duration: t.DurationMinutes, Date: date})
			}
			cursor.Advance()
		}
	}
	if out == nil {
		out = []Instance{}
	}
	return out
}

// recurringTasks collects the recurring tasks of every group, first
// occurrence wins.
func recurringTasks(groups []DayGroup) []Task {
	type key struct {
		name     string
		duration int
	}
	seen := make(map[key]bool)
	var out []Task
	for _, g := range groups {
		for _, t := range g.Tasks {
			if !t.Recurring {
				continue
			}
			k := key{t.Name, t.DurationMinutes}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, t)
		}
	}
	return out
}

// Schedule normalizes raw generator output and allocates it in one step.
func Schedule(raw []byte, c Constraints, start time.Time) ([]Instance, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	plan, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	return Allocate(plan, c, start)
}
