package planner

import "time"

// DayCursor walks the calendar one day at a time and tracks how many
// minutes are still free on the current day. It belongs to a single run.
type DayCursor struct {
	date      time.Time
	budget    int
	remaining int
}

// NewDayCursor starts at the calendar day of start with a full budget.
func NewDayCursor(start time.Time, dailyMinutes int) *DayCursor {
	y, m, d := start.Date()
	return &DayCursor{
		date:      time.Date(y, m, d, 0, 0, 0, 0, start.Location()),
		budget:    dailyMinutes,
		remaining: dailyMinutes,
	}
}

// Consume takes up to minutes from the current day and returns what was
// actually granted. The remaining budget never drops below zero.
func (c *DayCursor) Consume(minutes int) int {
	if minutes <= 0 || c.remaining <= 0 {
		return 0
	}
	granted := min(minutes, c.remaining)
	c.remaining -= granted
	return granted
}

// Advance moves to the next calendar day and resets the budget.
func (c *DayCursor) Advance() {
	c.date = c.date.AddDate(0, 0, 1)
	c.remaining = c.budget
}

func (c *DayCursor) Date() time.Time {
	return c.date
}

func (c *DayCursor) Remaining() int {
	return c.remaining
}

// DateString formats the current day for output.
func (c *DayCursor) DateString() string {
	return c.date.Format(DateLayout)
}
