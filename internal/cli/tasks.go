package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/isdelr/smarttodo-be/internal/models"
	"github.com/spf13/cobra"
)

func (a *app) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage your tasks",
	}
	cmd.AddCommand(
		a.tasksListCmd(),
		a.tasksAddCmd(),
		a.tasksUpdateCmd(),
		a.tasksDoneCmd(),
		a.tasksRmCmd(),
		a.tasksStatsCmd(),
	)
	return cmd
}

func (a *app) tasksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your tasks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.client().ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks yet")
				return nil
			}
			printTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
}

func (a *app) tasksAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := models.NewTask{Title: args[0]}
			input.Description, _ = cmd.Flags().GetString("description")
			if cmd.Flags().Changed("category") {
				category, _ := cmd.Flags().GetString("category")
				input.CategoryID = &category
			}
			if cmd.Flags().Changed("due") {
				due, _ := cmd.Flags().GetString("due")
				input.DueDate = &due
			}

			task, err := a.client().CreateTask(cmd.Context(), input)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s: %s [%s, %s]\n", task.ID, task.Title, task.Priority, task.Estimate)
			for _, s := range task.Suggestions {
				fmt.Fprintf(out, "  - %s\n", s)
			}
			return nil
		},
	}
	cmd.Flags().StringP("description", "d", "", "task description")
	cmd.Flags().String("category", "", "category id")
	cmd.Flags().String("due", "", "due date (YYYY-MM-DD or RFC 3339)")
	return cmd
}

func (a *app) tasksUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task; unspecified fields are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := taskUpdateFromFlags(cmd)
			if err != nil {
				return err
			}
			task, err := a.client().UpdateTask(cmd.Context(), args[0], update)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", task.ID, task.Title)
			return nil
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().StringP("description", "d", "", "new description")
	cmd.Flags().String("category", "", "category id")
	cmd.Flags().Bool("no-category", false, "remove the category")
	cmd.Flags().String("due", "", "due date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().Bool("no-due", false, "remove the due date")
	cmd.Flags().String("priority", "", "override priority (Low, Medium, High)")
	cmd.Flags().String("estimate", "", "override estimate")
	cmd.Flags().Bool("completed", false, "mark completed or not")
	return cmd
}

// taskUpdateFromFlags includes only the flags the user actually set.
func taskUpdateFromFlags(cmd *cobra.Command) (models.TaskUpdate, error) {
	var update models.TaskUpdate
	flags := cmd.Flags()

	if flags.Changed("category") && flags.Changed("no-category") {
		return update, fmt.Errorf("--category and --no-category are mutually exclusive")
	}
	if flags.Changed("due") && flags.Changed("no-due") {
		return update, fmt.Errorf("--due and --no-due are mutually exclusive")
	}

	setString := func(name string, field *models.Optional[string]) {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			*field = models.Some(v)
		}
	}
	setString("title", &update.Title)
	setString("description", &update.Description)
	setString("category", &update.CategoryID)
	setString("due", &update.DueDate)
	setString("priority", &update.Priority)
	setString("estimate", &update.Estimate)

	if clear, _ := flags.GetBool("no-category"); clear {
		update.CategoryID = models.Null[string]()
	}
	if clear, _ := flags.GetBool("no-due"); clear {
		update.DueDate = models.Null[string]()
	}
	if flags.Changed("completed") {
		v, _ := flags.GetBool("completed")
		update.Completed = models.Some(v)
	}
	return update, nil
}

func (a *app) tasksDoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			undo, _ := cmd.Flags().GetBool("undo")
			task, err := a.client().UpdateTask(cmd.Context(), args[0], models.TaskUpdate{Completed: models.Some(!undo)})
			if err != nil {
				return err
			}
			state := "done"
			if !task.Completed {
				state = "open"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", task.Title, state)
			return nil
		},
	}
	cmd.Flags().Bool("undo", false, "reopen the task instead")
	return cmd
}

func (a *app) tasksRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (a *app) tasksStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many tasks are done",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.client().TaskStats(cmd.Context())
			if err != nil {
				return err
			}
			percent := 0
			if stats.Total > 0 {
				percent = stats.Completed * 100 / stats.Total
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d tasks completed (%d%%)\n", stats.Completed, stats.Total, percent)
			return nil
		},
	}
}

func (a *app) suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <title> <description>",
		Short: "Preview suggestions without creating a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			suggestions, err := a.client().Suggest(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			for _, s := range suggestions {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", s)
			}
			return nil
		},
	}
}

func printTasks(out io.Writer, tasks []models.Task) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tTITLE\tPRIORITY\tESTIMATE\tCATEGORY\tDUE")
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t[%s]\t%s\t%s\t%s\t%s\t%s\n", t.ID, done, t.Title, t.Priority, t.Estimate, t.CategoryName, due)
	}
	tw.Flush()
}
