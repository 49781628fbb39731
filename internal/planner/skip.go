package planner

import "time"

// IsWorkingDay reports whether day falls inside a working week of the given
// length. Working days are counted from Monday, so five days is Monday to
// Friday and six adds Saturday. A full week, or an unset length, has no
// days off.
func IsWorkingDay(day time.Weekday, daysPerWeek int) bool {
	if daysPerWeek <= 0 || daysPerWeek >= daysInWeek {
		return true
	}
	// Monday=0 ... Sunday=6
	offset := (int(day) + 6) % daysInWeek
	return offset < daysPerWeek
}

// AdvancePastNonWorkingDays moves the cursor forward until it sits on a
// working day.
func AdvancePastNonWorkingDays(c *DayCursor, daysPerWeek int) {
	if daysPerWeek <= 0 || daysPerWeek >= daysInWeek {
		return
	}
	for !IsWorkingDay(c.Date().Weekday(), daysPerWeek) {
		c.Advance()
	}
}
