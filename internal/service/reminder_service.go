package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"study-planner/internal/model"
	"study-planner/internal/planner"
)

const (
	iconTask      = "📘"
	iconRecurring = "♻️"
)

// ReminderService builds human-readable agendas for chat notifications.
type ReminderService struct {
	plans *PlanService
}

func NewReminderService(plans *PlanService) *ReminderService {
	return &ReminderService{plans: plans}
}

// DailyAgenda renders today's part of the subscriber's latest plan. The
// boolean is false when there is nothing scheduled today.
func (s *ReminderService) DailyAgenda(ctx context.Context, sub model.Subscriber, now time.Time) (string, bool, error) {
	plan, today, err := s.plans.Today(ctx, sub.Owner(), now)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if len(today) == 0 {
		return "", false, nil
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Today's study plan</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s · %s\n\n", now.Format("02.01.2006"), html.EscapeString(plan.Topic)))
	for _, inst := range today {
		builder.WriteString(formatInstance(inst))
	}
	builder.WriteString(fmt.Sprintf("\n⏱ Total: %s", formatMinutes(totalMinutes(today))))
	return builder.String(), true, nil
}

// FormatPlan renders a plan grouped by date, showing at most maxDays dates.
func FormatPlan(plan *ScheduledPlan, maxDays int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📚 <b>%s</b>\n", html.EscapeString(plan.Topic)))
	sb.WriteString(fmt.Sprintf("%s h/day · %d weeks · %d days/week\n",
		trimFloat(plan.Constraints.HoursPerDay), plan.Constraints.DeadlineWeeks, plan.Constraints.DaysPerWeek))

	if len(plan.Instances) == 0 {
		sb.WriteString("\n— the plan has no tasks")
		return sb.String()
	}

	days := 0
	current := ""
	for i, inst := range plan.Instances {
		if inst.Date != current {
			if maxDays > 0 && days == maxDays {
				sb.WriteString(fmt.Sprintf("\n… and %d more entries", len(plan.Instances)-i))
				break
			}
			current = inst.Date
			days++
			sb.WriteString(fmt.Sprintf("\n🗓 <b>%s</b>\n", formatDate(inst.Date)))
		}
		sb.WriteString(formatInstance(inst))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatInstance(inst planner.Instance) string {
	icon := iconTask
	if inst.Recurring {
		icon = iconRecurring
	}
	return fmt.Sprintf("%s %s · %s\n", icon, html.EscapeString(strings.TrimSpace(inst.Task)), formatMinutes(inst.Duration))
}

func formatDate(date string) string {
	d, err := time.Parse(planner.DateLayout, date)
	if err != nil {
		return html.EscapeString(date)
	}
	return d.Format("Mon 02.01.2006")
}

func formatMinutes(m int) string {
	h, rest := m/60, m%60
	switch {
	case h == 0:
		return fmt.Sprintf("%d min", rest)
	case rest == 0:
		return fmt.Sprintf("%d h", h)
	default:
		return fmt.Sprintf("%d h %d min", h, rest)
	}
}

func totalMinutes(instances []planner.Instance) int {
	total := 0
	for _, inst := range instances {
		total += inst.Duration
	}
	return total
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
