package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/czar/internal/model"
	"github.com/sandeepkv93/czar/internal/service"
)

func newHabitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Track daily habits",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List habits with their current streaks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				habits, err := a.habits.List(ctx, a.now())
				if err != nil {
					return err
				}
				t := newTable("#", "habit", "today", "streak", "formed")
				for i, h := range habits {
					today := ""
					if h.DoneToday {
						today = "x"
					}
					formed := ""
					if h.Habit.Completed {
						formed = "yes"
						if h.Habit.CompletedAt != nil {
							formed = model.DayKey(h.Habit.CompletedAt.In(a.cfg.Location()))
						}
					}
					t.Row(strconv.Itoa(i+1), h.Habit.Title, today, strconv.Itoa(h.Streak), formed)
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <title>",
		Short: "Start tracking a habit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				h, err := a.habits.Create(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), h.ID)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "done <habit>",
		Short: "Toggle today's check for a habit (number, id or title)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				h, err := findHabit(ctx, a, strings.Join(args, " "))
				if err != nil {
					return err
				}
				res, err := a.habits.ToggleToday(ctx, h.Habit.ID, a.now())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case res.Promoted:
					fmt.Fprintf(out, "🎉 %s: %d days in a row, habit formed!\n", h.Habit.Title, res.Streak)
				case res.Done:
					fmt.Fprintf(out, "%s done today (streak %d)\n", h.Habit.Title, res.Streak)
				default:
					fmt.Fprintf(out, "%s unmarked for today\n", h.Habit.Title)
				}
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <habit>",
		Short: "Delete a habit and its history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				h, err := findHabit(ctx, a, strings.Join(args, " "))
				if err != nil {
					return err
				}
				if err := a.habits.Delete(ctx, h.Habit.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", h.Habit.Title)
				return nil
			})
		},
	})
	return cmd
}

// findHabit resolves a 1-based list number, an id or a case-insensitive title.
func findHabit(ctx context.Context, a *app, ref string) (service.HabitView, error) {
	habits, err := a.habits.List(ctx, a.now())
	if err != nil {
		return service.HabitView{}, err
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(habits) {
		return habits[n-1], nil
	}
	for _, h := range habits {
		if h.Habit.ID == ref || strings.EqualFold(h.Habit.Title, ref) {
			return h, nil
		}
	}
	return service.HabitView{}, fmt.Errorf("no habit %q", ref)
}
