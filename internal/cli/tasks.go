package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"leadboard/board"
	"leadboard/domain"
	"leadboard/forms"
	"leadboard/kanban"
)

func (a *app) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and change tasks",
	}
	cmd.AddCommand(
		a.tasksListCmd(),
		a.tasksBoardCmd(),
		a.tasksCreateCmd(),
		a.tasksStatusCmd(),
		a.tasksMoveCmd(),
		a.tasksDeleteCmd(),
		a.tasksCommentCmd(),
		a.tasksCheckCmd(),
		a.tasksDoneItemCmd(),
		a.tasksStatsCmd(),
	)
	return cmd
}

func addFilterFlags(cmd *cobra.Command, f *filterFlags) {
	cmd.Flags().StringVar(&f.search, "search", "", "substring of title or description")
	cmd.Flags().StringVar(&f.status, "status", "", "task status")
	cmd.Flags().StringVar(&f.priority, "priority", "", "task priority")
	cmd.Flags().StringVar(&f.typ, "type", "", "task type")
	cmd.Flags().StringVar(&f.assignee, "assignee", "", "assignee user id")
}

type filterFlags struct {
	search, status, priority, typ, assignee string
}

func (f filterFlags) filter() (board.Filter, error) {
	out := board.Filter{Search: f.search, AssigneeID: f.assignee}
	if f.status != "" {
		s, err := domain.ParseStatus(f.status)
		if err != nil {
			return out, err
		}
		out.Status = s
	}
	if f.priority != "" {
		p, err := domain.ParsePriority(f.priority)
		if err != nil {
			return out, err
		}
		out.Priority = p
	}
	if f.typ != "" {
		t, err := domain.ParseTaskType(f.typ)
		if err != nil {
			return out, err
		}
		out.Type = t
	}
	return out, nil
}

func (a *app) tasksListCmd() *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks matching the filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			b, err := a.loadBoard(cmd.Context())
			if err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), b.Filter(f))
		},
	}
	addFilterFlags(cmd, &ff)
	return cmd
}

func (a *app) tasksBoardCmd() *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show tasks grouped into board columns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			k, err := a.loadKanban(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, col := range k.View(f) {
				fmt.Fprintf(out, "== %s (%d)\n", col.Binding.Title, len(col.Tasks))
				for _, t := range col.Tasks {
					fmt.Fprintf(out, "  %s  %s [%s]\n", t.ID, t.Title, t.Priority)
				}
			}
			return nil
		},
	}
	addFilterFlags(cmd, &ff)
	return cmd
}

func (a *app) tasksCreateCmd() *cobra.Command {
	var (
		tf  forms.TaskForm
		due string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if due != "" {
				d, err := parseDate(due)
				if err != nil {
					return err
				}
				tf.DueDate = &d
			}
			ctx := cmd.Context()
			return forms.Submit(ctx, tf, func(ctx context.Context) error {
				t, err := a.api.CreateTask(ctx, tf.Input())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", t.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tf.Title, "title", "", "task title")
	cmd.Flags().StringVar(&tf.Description, "description", "", "task description")
	cmd.Flags().StringVar(&tf.Type, "type", "", "task type")
	cmd.Flags().StringVar(&tf.Priority, "priority", "", "task priority")
	cmd.Flags().StringVar(&tf.Status, "status", "", "initial status")
	cmd.Flags().StringVar(&tf.AssignedTo, "assignee", "", "assignee user id")
	cmd.Flags().StringSliceVar(&tf.Tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD or RFC3339)")
	return cmd
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

func (a *app) tasksStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Change a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := domain.ParseStatus(args[1])
			if err != nil {
				return err
			}
			b, err := a.loadBoard(cmd.Context())
			if err != nil {
				return err
			}
			if err := b.SetStatus(cmd.Context(), args[0], s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], s)
			return nil
		},
	}
}

func (a *app) tasksMoveCmd() *cobra.Command {
	var (
		to          string
		left, right bool
		index       int
	)
	cmd := &cobra.Command{
		Use:   "move ID",
		Short: "Move a task to another column or position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if left && right {
				return errors.New("--left and --right are mutually exclusive")
			}
			ctx := cmd.Context()
			k, err := a.loadKanban(ctx)
			if err != nil {
				return err
			}
			switch {
			case left:
				return k.Shift(ctx, id, -1)
			case right:
				return k.Shift(ctx, id, 1)
			}
			from, err := a.columnOf(k, id)
			if err != nil {
				return err
			}
			if to == "" {
				to = from
			}
			if to == from && !cmd.Flags().Changed("index") {
				return errors.New("nothing to do: give --to, --left, --right or --index")
			}
			return k.Drop(ctx, kanban.DropEvent{TaskID: id, FromColumn: from, ToColumn: to, Index: index})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "target column id")
	cmd.Flags().BoolVar(&left, "left", false, "move one column left")
	cmd.Flags().BoolVar(&right, "right", false, "move one column right")
	cmd.Flags().IntVar(&index, "index", 0, "position within the target column")
	return cmd
}

func (a *app) columnOf(k *kanban.Board, id string) (string, error) {
	for _, col := range k.View(board.Filter{}) {
		for _, t := range col.Tasks {
			if t.ID == id {
				return col.Binding.ID, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", board.ErrTaskNotFound, id)
}

func (a *app) tasksDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.loadBoard(cmd.Context())
			if err != nil {
				return err
			}
			if err := b.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (a *app) tasksCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment ID TEXT",
		Short: "Add a comment to a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.api.AddComment(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s has %d comments\n", t.ID, len(t.Comments))
			return nil
		},
	}
}

func (a *app) tasksCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check ID ITEM",
		Short: "Add a checklist item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.api.AddChecklistItem(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added item %d to %s\n", len(t.Checklist)-1, t.ID)
			return nil
		},
	}
}

func (a *app) tasksDoneItemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done-item ID INDEX",
		Short: "Mark a checklist item complete",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("index must be a number: %w", err)
			}
			t, err := a.api.CompleteChecklistItem(cmd.Context(), args[0], idx)
			if err != nil {
				return err
			}
			if idx < len(t.Checklist) {
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %q\n", t.Checklist[idx].Item)
			}
			return nil
		},
	}
}

func (a *app) tasksStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.api.TaskStats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total: %d\noverdue: %d\ncompleted this week: %d\n", st.Total, st.Overdue, st.CompletedThisWeek)
			for _, s := range domain.Statuses {
				fmt.Fprintf(out, "  %s: %d\n", s, st.ByStatus[s])
			}
			return nil
		},
	}
}
