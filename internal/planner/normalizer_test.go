package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("Should keep flat task order and recurring flags", func(t *testing.T) {
		raw := []byte(`{"tasks":[
			{"task":" Learn Flexbox ","duration":60},
			{"task":"Warmup","duration":15,"recurring":true},
			{"task":"Practice JavaScript methods","duration":20}
		]}`)

		plan, err := Normalize(raw)
		require.NoError(t, err)
		assert.Equal(t, ModeFlat, plan.Mode)
		assert.Equal(t, []Task{
			{Name: "Learn Flexbox", DurationMinutes: 60},
			{Name: "Warmup", DurationMinutes: 15, Recurring: true},
			{Name: "Practice JavaScript methods", DurationMinutes: 20},
		}, plan.Tasks)
	})

	t.Run("Should accept a bare array as a flat plan", func(t *testing.T) {
		plan, err := Normalize([]byte(`[{"task":"A","duration":30}]`))
		require.NoError(t, err)
		assert.Equal(t, ModeFlat, plan.Mode)
		assert.Equal(t, []Task{{Name: "A", DurationMinutes: 30}}, plan.Tasks)
	})

	t.Run("Should keep weekday keys in document order", func(t *testing.T) {
		raw := []byte(`{"schedule":{
			"Wednesday":[{"task":"Closures","duration":45}],
			"Monday":[{"task":"Syntax","duration":30},{"task":"Types","duration":20}],
			"Friday":[]
		}}`)

		plan, err := Normalize(raw)
		require.NoError(t, err)
		assert.Equal(t, ModeGrouped, plan.Mode)
		require.Len(t, plan.Groups, 3)
		assert.Equal(t, "Wednesday", plan.Groups[0].Weekday)
		assert.Equal(t, "Monday", plan.Groups[1].Weekday)
		assert.Equal(t, "Friday", plan.Groups[2].Weekday)
		assert.Empty(t, plan.Groups[2].Tasks)
		assert.Equal(t, 3, plan.Len())

		flat := plan.Flatten()
		require.Len(t, flat, 3)
		assert.Equal(t, TaggedTask{Task: Task{Name: "Closures", DurationMinutes: 45}, Weekday: "Wednesday"}, flat[0])
		assert.Equal(t, "Syntax", flat[1].Name)
		assert.Equal(t, "Types", flat[2].Name)
		assert.Equal(t, "Monday", flat[2].Weekday)
	})

	t.Run("Should merge repeated weekday labels into the first slot", func(t *testing.T) {
		raw := []byte(`{"schedule":{"Monday":[{"task":"A","duration":10}],"Tuesday":[],"Monday":[{"task":"B","duration":10}]}}`)
		plan, err := Normalize(raw)
		require.NoError(t, err)
		require.Len(t, plan.Groups, 2)
		assert.Equal(t, []Task{{Name: "A", DurationMinutes: 10}, {Name: "B", DurationMinutes: 10}}, plan.Groups[0].Tasks)
	})

	t.Run("Should treat an empty plan as valid", func(t *testing.T) {
		plan, err := Normalize([]byte(`{"tasks":[]}`))
		require.NoError(t, err)
		assert.Equal(t, 0, plan.Len())
		assert.Empty(t, plan.Flatten())

		plan, err = Normalize([]byte(`{"schedule":{}}`))
		require.NoError(t, err)
		assert.Equal(t, 0, plan.Len())
	})

	t.Run("Should reject malformed plans", func(t *testing.T) {
		cases := map[string]string{
			"unknown container":     `{"foo":[]}`,
			"not json":              `tasks: none`,
			"empty body":            ``,
			"scalar":                `42`,
			"tasks not array":       `{"tasks":{}}`,
			"schedule not object":   `{"schedule":[]}`,
			"both containers":       `{"tasks":[],"schedule":{}}`,
			"zero duration":         `{"tasks":[{"task":"A","duration":0}]}`,
			"negative duration":     `{"tasks":[{"task":"A","duration":-5}]}`,
			"string duration":       `{"tasks":[{"task":"A","duration":"60"}]}`,
			"fractional duration":   `{"tasks":[{"task":"A","duration":12.5}]}`,
			"missing duration":      `{"tasks":[{"task":"A"}]}`,
			"blank name":            `{"tasks":[{"task":"  ","duration":10}]}`,
			"entry not object":      `{"tasks":["A"]}`,
			"recurring not boolean": `{"tasks":[{"task":"A","duration":10,"recurring":"yes"}]}`,
			"weekday not array":     `{"schedule":{"Monday":{"task":"A","duration":10}}}`,
			"weekday entry invalid": `{"schedule":{"Monday":[{"task":"A","duration":0}]}}`,
			"blank weekday label":   `{"schedule":{" ":[]}}`,
		}
		for name, raw := range cases {
			t.Run(name, func(t *testing.T) {
				plan, err := Normalize([]byte(raw))
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedPlan)
				assert.NotErrorIs(t, err, ErrInvalidConstraints)
				assert.Equal(t, 0, plan.Len())
			})
		}
	})
}

func TestNormalizeTasks(t *testing.T) {
	t.Run("Should trim names and keep order", func(t *testing.T) {
		tasks, err := NormalizeTasks([]Task{{Name: " B ", DurationMinutes: 5}, {Name: "A", DurationMinutes: 1, Recurring: true}})
		require.NoError(t, err)
		assert.Equal(t, []Task{{Name: "B", DurationMinutes: 5}, {Name: "A", DurationMinutes: 1, Recurring: true}}, tasks)
	})

	t.Run("Should reject non-positive durations", func(t *testing.T) {
		_, err := NormalizeTasks([]Task{{Name: "A", DurationMinutes: 0}})
		assert.ErrorIs(t, err, ErrMalformedPlan)
	})
}
