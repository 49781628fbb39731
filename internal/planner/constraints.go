package planner

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

const (
	// DefaultDaysPerWeek is used when no working-week length is given.
	DefaultDaysPerWeek = 7
	daysInWeek         = 7
	minutesPerHour     = 60
)

// Constraints bound a single scheduling run.
type Constraints struct {
	HoursPerDay   float64
	DeadlineWeeks int
	DaysPerWeek   int
}

// Validate fails with ErrInvalidConstraints on non-positive or out of range values.
func (c Constraints) Validate() error {
	if math.IsNaN(c.HoursPerDay) || math.IsInf(c.HoursPerDay, 0) || c.HoursPerDay <= 0 {
		return invalidConstraints("hoursPerDay must be positive")
	}
	if c.HoursPerDay > 24 {
		return invalidConstraints("hoursPerDay must not exceed 24")
	}
	if c.DailyMinutes() <= 0 {
		return invalidConstraints("hoursPerDay is less than one minute")
	}
	if c.DeadlineWeeks <= 0 {
		return invalidConstraints("deadline must be a positive number of weeks")
	}
	if d := c.daysPerWeek(); d < 1 || d > daysInWeek {
		return invalidConstraints("daysPerWeek must be between 1 and 7")
	}
	return nil
}

// DailyMinutes is the full budget of one day.
func (c Constraints) DailyMinutes() int {
	return int(math.Round(c.HoursPerDay * minutesPerHour))
}

// HorizonDays is the planning horizon in calendar days.
func (c Constraints) HorizonDays() int {
	return c.DeadlineWeeks * daysInWeek
}

func (c Constraints) daysPerWeek() int {
	if c.DaysPerWeek == 0 {
		return DefaultDaysPerWeek
	}
	return c.DaysPerWeek
}

// ParseConstraints converts loosely typed request values (JSON numbers or
// numeric strings) into Constraints. A nil daysPerWeek means a full week.
func ParseConstraints(hoursPerDay, deadlineWeeks, daysPerWeek any) (Constraints, error) {
	hours, err := toFloat(hoursPerDay)
	if err != nil {
		return Constraints{}, invalidConstraints("hoursPerDay: %v", err)
	}
	weeks, err := toWhole(deadlineWeeks)
	if err != nil {
		return Constraints{}, invalidConstraints("deadline: %v", err)
	}
	c := Constraints{HoursPerDay: hours, DeadlineWeeks: weeks, DaysPerWeek: DefaultDaysPerWeek}
	if !isBlank(daysPerWeek) {
		days, err := toWhole(daysPerWeek)
		if err != nil {
			return Constraints{}, invalidConstraints("daysPerWeek: %v", err)
		}
		if days < 1 || days > daysInWeek {
			return Constraints{}, invalidConstraints("daysPerWeek must be between 1 and 7")
		}
		c.DaysPerWeek = days
	}
	if err := c.Validate(); err != nil {
		return Constraints{}, err
	}
	return c, nil
}

func toFloat(v any) (float64, error) {
	if isBlank(v) {
		return 0, errMissing
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	if _, ok := v.(bool); ok {
		return 0, errNotNumeric
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, errNotNumeric
	}
	return f, nil
}

func toWhole(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, errNotWhole
	}
	return int(f), nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
