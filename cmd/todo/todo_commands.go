package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"forgetodo/internal/api"
	"forgetodo/internal/store"
)

func newListCmd() *cobra.Command {
	var status, priority string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := requireClient(cmd.Context())
			if err != nil {
				return err
			}
			todos, err := client.ListTodos(cmd.Context(), api.ListOptions{Status: status, Priority: priority})
			if err != nil {
				return err
			}
			if len(todos) == 0 {
				fmt.Println("no todos")
				return nil
			}
			for _, t := range todos {
				printTodo(t)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "all, pending or completed")
	cmd.Flags().StringVar(&priority, "priority", "", "all, low, medium or high")
	return cmd
}

func newAddCmd() *cobra.Command {
	var description, priority string
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := requireClient(cmd.Context())
			if err != nil {
				return err
			}
			in := api.CreateTodoInput{Title: args[0], Priority: priority}
			if description != "" {
				in.Description = &description
			}
			todo, err := client.CreateTodo(cmd.Context(), in)
			if err != nil {
				return err
			}
			printTodo(*todo)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "optional description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high (default medium)")
	return cmd
}

func newEditCmd() *cobra.Command {
	var title, description, priority string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a todo's title, description or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := requireClient(cmd.Context())
			if err != nil {
				return err
			}
			var in api.UpdateTodoInput
			if cmd.Flags().Changed("title") {
				in.Title = &title
			}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("priority") {
				in.Priority = &priority
			}
			todo, err := client.UpdateTodo(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			printTodo(*todo)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description (empty clears it)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high")
	return cmd
}

// newDoneCmd builds both `done` and `undone`.
func newDoneCmd(completed bool) *cobra.Command {
	use, short := "done ID", "Mark a todo completed"
	if !completed {
		use, short = "undone ID", "Mark a todo pending again"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := requireClient(cmd.Context())
			if err != nil {
				return err
			}
			c := completed
			todo, err := client.UpdateTodo(cmd.Context(), id, api.UpdateTodoInput{Completed: &c})
			if err != nil {
				return err
			}
			printTodo(*todo)
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := requireClient(cmd.Context())
			if err != nil {
				return err
			}
			todo, err := client.DeleteTodo(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("deleted #%d %s\n", todo.ID, todo.Title)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := requireClient(cmd.Context())
			if err != nil {
				return err
			}
			st, err := client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("total: %d  completed: %d  pending: %d  rate: %d%%\n",
				st.Total, st.Completed, st.Pending, st.CompletionRate)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", s)
	}
	return id, nil
}

func printTodo(t store.Todo) {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	line := fmt.Sprintf("[%s] #%d (%s) %s", mark, t.ID, t.Priority, t.Title)
	if t.Description != nil {
		line += ": " + *t.Description
	}
	fmt.Println(line)
}
