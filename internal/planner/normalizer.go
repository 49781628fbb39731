package planner

import (
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	keyTasks     = "tasks"
	keySchedule  = "schedule"
	keyName      = "task"
	keyDuration  = "duration"
	keyRecurring = "recurring"
)

// Normalize turns raw generator output into a Plan.
//
// Two shapes are accepted: {"tasks": [...]} (a bare top-level array is
// treated the same way) and {"schedule": {"<Weekday>": [...], ...}}. Weekday
// keys keep the order in which they appear in the document.
func Normalize(raw []byte) (Plan, error) {
	if !gjson.ValidBytes(raw) {
		return Plan{}, malformed("not valid JSON")
	}
	root := gjson.ParseBytes(raw)

	if root.IsArray() {
		tasks, err := parseTaskList(root, "")
		if err != nil {
			return Plan{}, err
		}
		return FlatPlan(tasks), nil
	}
	if !root.IsObject() {
		return Plan{}, malformed("top-level value must be an object")
	}

	tasks := root.Get(keyTasks)
	schedule := root.Get(keySchedule)
	switch {
	case tasks.Exists() && schedule.Exists():
		return Plan{}, malformed("both %q and %q present", keyTasks, keySchedule)
	case tasks.Exists():
		if !tasks.IsArray() {
			return Plan{}, malformed("%q must be an array", keyTasks)
		}
		list, err := parseTaskList(tasks, "")
		if err != nil {
			return Plan{}, err
		}
		return FlatPlan(list), nil
	case schedule.Exists():
		if !schedule.IsObject() {
			return Plan{}, malformed("%q must be an object", keySchedule)
		}
		return parseSchedule(schedule)
	default:
		return Plan{}, malformed("expected %q or %q", keyTasks, keySchedule)
	}
}

// NormalizeTasks validates an already decoded task list and returns a
// cleaned copy with trimmed names.
func NormalizeTasks(tasks []Task) ([]Task, error) {
	out := make([]Task, 0, len(tasks))
	for i, t := range tasks {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, malformed("task %d: empty name", i)
		}
		if t.DurationMinutes <= 0 {
			return nil, malformed("task %d (%s): duration must be positive", i, name)
		}
		out = append(out, Task{Name: name, DurationMinutes: t.DurationMinutes, Recurring: t.Recurring})
	}
	return out, nil
}

func parseSchedule(schedule gjson.Result) (Plan, error) {
	plan := Plan{Mode: ModeGrouped}
	index := make(map[string]int)
	var err error
	schedule.ForEach(func(key, value gjson.Result) bool {
		label := strings.TrimSpace(key.String())
		if label == "" {
			err = malformed("empty weekday label")
			return false
		}
		if !value.IsArray() {
			err = malformed("%s: tasks must be an array", label)
			return false
		}
		var tasks []Task
		tasks, err = parseTaskList(value, label)
		if err != nil {
			return false
		}
		if i, ok := index[label]; ok {
			plan.Groups[i].Tasks = append(plan.Groups[i].Tasks, tasks...)
			return true
		}
		index[label] = len(plan.Groups)
		plan.Groups = append(plan.Groups, DayGroup{Weekday: label, Tasks: tasks})
		return true
	})
	if err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func parseTaskList(list gjson.Result, weekday string) ([]Task, error) {
	prefix := ""
	if weekday != "" {
		prefix = weekday + ": "
	}
	tasks := []Task{}
	var err error
	i := 0
	list.ForEach(func(_, entry gjson.Result) bool {
		var task Task
		task, err = parseTask(entry)
		if err != nil {
			err = malformed("%stask %d: %v", prefix, i, err)
			return false
		}
		tasks = append(tasks, task)
		i++
		return true
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func parseTask(entry gjson.Result) (Task, error) {
	if !entry.IsObject() {
		return Task{}, fmt.Errorf("entry must be an object")
	}

	name := entry.Get(keyName)
	if name.Type != gjson.String || strings.TrimSpace(name.Str) == "" {
		return Task{}, fmt.Errorf("missing %q", keyName)
	}

	duration := entry.Get(keyDuration)
	if duration.Type != gjson.Number {
		return Task{}, fmt.Errorf("%q must be a number", keyDuration)
	}
	if duration.Num <= 0 || duration.Num != math.Trunc(duration.Num) || duration.Num > math.MaxInt32 {
		return Task{}, fmt.Errorf("%q must be a positive whole number of minutes", keyDuration)
	}

	task := Task{
		Name:            strings.TrimSpace(name.Str),
		DurationMinutes: int(duration.Num),
	}

	if recurring := entry.Get(keyRecurring); recurring.Exists() {
		if recurring.Type != gjson.True && recurring.Type != gjson.False {
			return Task{}, fmt.Errorf("%q must be a boolean", keyRecurring)
		}
		task.Recurring = recurring.Bool()
	}
	return task, nil
}
