package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-planner/internal/planner"
)

var friday = time.Date(2026, time.October, 23, 9, 0, 0, 0, time.Local)

func TestRunSchedule(t *testing.T) {
	t.Run("Should schedule stdin input from the start date", func(t *testing.T) {
		var out bytes.Buffer
		in := strings.NewReader(`{"tasks":[{"task":"A","duration":90}]}`)

		err := runSchedule(in, &out, scheduleFlags{file: "-", hours: "1", weeks: "1", start: "2026-10-19"}, friday)
		require.NoError(t, err)

		var got []planner.Instance
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, []planner.Instance{
			{Task: "A (60 mins)", Duration: 60, Date: "2026-10-19"},
			{Task: "A (30 mins)", Duration: 30, Date: "2026-10-20"},
		}, got)
	})

	t.Run("Should skip the weekend for a five day week", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plan.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"tasks":[{"task":"A","duration":120}]}`), 0o600))

		var out bytes.Buffer
		err := runSchedule(nil, &out, scheduleFlags{file: path, hours: "1", weeks: "2", days: "5"}, friday)
		require.NoError(t, err)

		var got []planner.Instance
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "2026-10-23", got[0].Date)
		assert.Equal(t, "2026-10-26", got[1].Date)
	})

	t.Run("Should print an empty array for an empty plan", func(t *testing.T) {
		var out bytes.Buffer
		err := runSchedule(strings.NewReader(`{"tasks":[]}`), &out, scheduleFlags{hours: "2", weeks: "1"}, friday)
		require.NoError(t, err)
		assert.Equal(t, "[]", strings.TrimSpace(out.String()))
	})

	t.Run("Should surface typed errors", func(t *testing.T) {
		err := runSchedule(strings.NewReader(`{"tasks":[]}`), &bytes.Buffer{}, scheduleFlags{hours: "abc", weeks: "1"}, friday)
		assert.ErrorIs(t, err, planner.ErrInvalidConstraints)

		err = runSchedule(strings.NewReader(`{"foo":[]}`), &bytes.Buffer{}, scheduleFlags{hours: "1", weeks: "1"}, friday)
		assert.ErrorIs(t, err, planner.ErrMalformedPlan)

		err = runSchedule(strings.NewReader(`{"tasks":[]}`), &bytes.Buffer{}, scheduleFlags{hours: "1", weeks: "1", start: "19.10.2026"}, friday)
		assert.Error(t, err)
	})
}

func TestRootCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetIn(strings.NewReader(`{"tasks":[{"task":"A","duration":30}]}`))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"schedule", "--hours", "1", "--weeks", "1", "--start", "2026-10-19"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"date": "2026-10-19"`)
}
