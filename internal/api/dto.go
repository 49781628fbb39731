package api

import "study-planner/internal/planner"

// GeneratePlanRequest accepts numbers or numeric strings for every constraint.
type GeneratePlanRequest struct {
	Topic       string `json:"topic"`
	HoursPerDay any    `json:"hoursPerDay"`
	Deadline    any    `json:"deadline"`
	DaysPerWeek any    `json:"daysPerWeek,omitempty"`
}

type PlanResponse struct {
	Success     bool               `json:"success"`
	ID          string             `json:"id"`
	Topic       string             `json:"topic"`
	StartDate   string             `json:"startDate"`
	HoursPerDay float64            `json:"hoursPerDay"`
	Deadline    int                `json:"deadline"`
	DaysPerWeek int                `json:"daysPerWeek"`
	Plan        []planner.Instance `json:"plan"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
