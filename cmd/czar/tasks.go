package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/czar/internal/board"
	"github.com/sandeepkv93/czar/internal/commands"
	"github.com/sandeepkv93/czar/internal/model"
	"github.com/sandeepkv93/czar/internal/views"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func newAddCmd() *cobra.Command {
	var (
		priority string
		due      string
		tags     []string
		note     string
		every    string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to the bottom of Pending",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				in := board.NewTask{Title: strings.Join(args, " "), Note: note, Tags: tags}
				p, err := model.ParsePriority(priority)
				if err != nil {
					return err
				}
				in.Priority = p
				if due != "" {
					at, err := commands.ResolveDate(due, a.now())
					if err != nil {
						return err
					}
					in.DueAt = &at
				}
				if every != "" {
					freq, err := model.ParseFrequency(every)
					if err != nil {
						return err
					}
					in.Recurrence = freq
				}

				id, _, err := a.boards.Create(ctx, board.Empty(), in)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Urgent, Important or Inevitably important (prefix ok)")
	cmd.Flags().StringVar(&due, "due", "", "today, tomorrow, +Nd, a weekday or YYYY-MM-DD")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag, repeatable")
	cmd.Flags().StringVar(&note, "note", "", "markdown note")
	cmd.Flags().StringVar(&every, "every", "", "repeat daily, weekly or monthly")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the board column by column",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				snap, err := a.boards.Refresh(ctx)
				if err != nil {
					return err
				}
				now := a.now()
				t := newTable("column", "id", "title", "priority", "due", "tags")
				for _, c := range model.Columns {
					for _, task := range snap.Tasks(c) {
						dueLabel := views.DueLabel(task.DueAt, now)
						if model.IsOverdue(task, c == model.ColumnDone, now) {
							dueLabel += " (overdue)"
						}
						t.Row(c.Title(), task.ID, task.Title, string(task.Priority), dueLabel, strings.Join(task.Tags, ","))
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
				return nil
			})
		},
	}
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <task-id> <target>",
		Short: "Move a task before another task, or to the top of a column",
		Long: `Target is either another task id, which places the task just before it,
or a column (pending, inprogress, action, done or an alias such as wip),
which places it at the top of that column.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				snap, err := a.boards.Refresh(ctx)
				if err != nil {
					return err
				}
				over := args[1]
				if column, err := commands.ResolveColumn(over); err == nil {
					over = string(column)
				}
				if _, ok := snap.ColumnOf(args[0]); !ok {
					return fmt.Errorf("no task %q on the board", args[0])
				}

				celebrate := false
				a.boards.OnMoveBetween = func(from, to model.Column) {
					celebrate = board.Celebrates(from, to)
				}
				next, err := a.boards.Move(ctx, snap, args[0], over)
				if err != nil {
					return err
				}
				_, col, _ := next.Find(args[0])
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s -> %s\n", args[0], col.Title())
				if celebrate {
					fmt.Fprintln(out, "🎉 task completed!")
				}
				return nil
			})
		},
	}
}

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <task-id>",
		Short: "Hide a task from the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				snap, err := a.boards.Refresh(ctx)
				if err != nil {
					return err
				}
				if _, err := a.boards.Archive(ctx, snap, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "archived %s\n", args[0])
				return nil
			})
		},
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <task-id>",
		Short: "Bring an archived task back to the column it was archived from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				snap, err := a.boards.Refresh(ctx)
				if err != nil {
					return err
				}
				next, err := a.boards.Restore(ctx, snap, args[0])
				if err != nil {
					return err
				}
				_, col, _ := next.Find(args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "restored %s to %s\n", args[0], col.Title())
				return nil
			})
		},
	}
}

func newArchivedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archived",
		Short: "List archived tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				tasks, err := a.boards.Archived(ctx)
				if err != nil {
					return err
				}
				t := newTable("id", "title", "created")
				for _, task := range tasks {
					t.Row(task.ID, task.Title, humanize.Time(task.CreatedAt))
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
				return nil
			})
		},
	}
}
