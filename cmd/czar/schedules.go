package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/czar/internal/model"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage recurring task templates",
	}

	var timezone string
	add := &cobra.Command{
		Use:   "add <daily|weekly|monthly> <title>",
		Short: "Create a task from a template at every period boundary",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			freq, err := model.ParseFrequency(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				tpl := model.Template{Title: strings.Join(args[1:], " "), Frequency: freq}
				s, err := a.schedules.Create(ctx, tpl, timezone, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s first due %s\n", s.ID, s.NextAt.Format(time.RFC1123))
				return nil
			})
		},
	}
	add.Flags().StringVar(&timezone, "tz", "", "IANA timezone for period boundaries (default: config timezone)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List schedules by next due time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				schedules, err := a.schedules.List(ctx)
				if err != nil {
					return err
				}
				now := time.Now()
				t := newTable("#", "id", "title", "every", "next")
				for i, s := range schedules {
					next := s.NextAt.Format("2006-01-02 15:04 MST") + " (" + humanize.RelTime(s.NextAt, now, "ago", "from now") + ")"
					t.Row(strconv.Itoa(i+1), s.ID, s.Template.Title, string(s.Template.Frequency), next)
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <schedule>",
		Short: "Delete a schedule by list number or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				id := args[0]
				if n, err := strconv.Atoi(id); err == nil {
					schedules, err := a.schedules.List(ctx)
					if err != nil {
						return err
					}
					if n < 1 || n > len(schedules) {
						return fmt.Errorf("no schedule #%d", n)
					}
					id = schedules[n-1].ID
				}
				if err := a.schedules.Delete(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed schedule %s\n", id)
				return nil
			})
		},
	})
	return cmd
}

func newMaterializeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "materialize",
		Short: "Create tasks for every schedule that has come due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				n, err := a.schedules.Materialize(ctx, time.Now())
				fmt.Fprintf(cmd.OutOrStdout(), "%d task(s) created\n", n)
				return err
			})
		},
	}
}

// newNextCmd prints upcoming period boundaries. It needs no database.
func newNextCmd() *cobra.Command {
	var (
		from  string
		count int
	)
	cmd := &cobra.Command{
		Use:   "next <daily|weekly|monthly>",
		Short: "Show when a frequency next comes due",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			freq, err := model.ParseFrequency(args[0])
			if err != nil {
				return err
			}
			ref := time.Now()
			if from != "" {
				ref, err = model.ParseDayKey(from, time.Local)
				if err != nil {
					return err
				}
			}
			upcoming, err := model.PreviewOccurrences(freq, ref, count)
			if err != nil {
				return err
			}
			for _, at := range upcoming {
				fmt.Fprintln(cmd.OutOrStdout(), at.Format("Mon 2006-01-02 15:04 MST"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "reference day as YYYY-MM-DD (default: now)")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of boundaries to show")
	return cmd
}
