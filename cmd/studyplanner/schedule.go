package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"study-planner/internal/planner"
)

type scheduleFlags struct {
	file  string
	hours string
	weeks string
	days  string
	start string
}

func scheduleCmd() *cobra.Command {
	var flags scheduleFlags

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a task list from a JSON file without calling the model",
		Long: `Reads generator output ({"tasks": [...]} or {"schedule": {...}}) and prints
the dated plan as JSON. Use --file - to read from stdin.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchedule(cmd.InOrStdin(), cmd.OutOrStdout(), flags, time.Now())
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "-", "plan JSON file, - for stdin")
	cmd.Flags().StringVar(&flags.hours, "hours", "", "study hours per day")
	cmd.Flags().StringVar(&flags.weeks, "weeks", "", "weeks until the deadline")
	cmd.Flags().StringVar(&flags.days, "days", "", "study days per week, 1-7 (default 7)")
	cmd.Flags().StringVar(&flags.start, "start", "", "first day as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("hours")
	_ = cmd.MarkFlagRequired("weeks")

	return cmd
}

func runSchedule(stdin io.Reader, out io.Writer, flags scheduleFlags, now time.Time) error {
	var days any
	if flags.days != "" {
		days = flags.days
	}
	constraints, err := planner.ParseConstraints(flags.hours, flags.weeks, days)
	if err != nil {
		return err
	}

	start := now
	if flags.start != "" {
		start, err = time.ParseInLocation(planner.DateLayout, flags.start, time.Local)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}

	raw, err := readInput(stdin, flags.file)
	if err != nil {
		return err
	}

	instances, err := planner.Schedule(raw, constraints, start)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(instances)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return raw, nil
}
