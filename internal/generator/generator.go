package generator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrGeneration wraps every failure to obtain a plan from the model.
	ErrGeneration = errors.New("plan generation failed")
	// ErrEmptyResponse is returned when the model answers without content.
	ErrEmptyResponse = errors.New("model returned no content")
)

// Request describes the plan the model is asked for.
type Request struct {
	Topic         string
	HoursPerDay   float64
	DeadlineWeeks int
	DaysPerWeek   int
}

// Generator produces raw plan JSON for a request. Implementations may block
// on the network; the returned bytes are validated by the caller.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}

const systemPrompt = "You are a study planner AI. Generate a structured study plan with subtasks and differing time allocations based on your judgement."

// userPrompt asks for the flat task shape the scheduler understands.
func userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a study plan for %s to be completed in %d weeks with %s hours per day",
		strings.TrimSpace(req.Topic), req.DeadlineWeeks, formatHours(req.HoursPerDay))
	if req.DaysPerWeek > 0 && req.DaysPerWeek < 7 {
		fmt.Fprintf(&b, ", studying %d days per week", req.DaysPerWeek)
	}
	b.WriteString(".\n")
	b.WriteString("Split into subtopics with weighted and differing time allocations. Prioritize fundamentals first. ")
	b.WriteString("Durations are whole minutes. Mark short daily habits with \"recurring\": true and keep their total well below the daily hours. ")
	b.WriteString(`Return only a JSON object like: {"tasks": [{"task": "Learn Flexbox", "duration": 60}, {"task": "Review flashcards", "duration": 10, "recurring": true}]}`)
	return b.String()
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
