package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shift-tracker/internal/catalog"
)

var (
	editTaskName         string
	editTaskCompleted    bool
	editTaskCompletedSet bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage locations, companies and their tasks",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the task catalog",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

// catalogEdit describes a subcommand that applies one mutation to the
// catalog.
type catalogEdit struct {
	use   string
	short string
	apply func(c *catalog.Catalog, args []string) error
}

var catalogEdits = []catalogEdit{
	{"add-location <location>", "Add a location",
		func(c *catalog.Catalog, a []string) error { return c.AddLocation(a[0]) }},
	{"rename-location <location> <new-name>", "Rename a location",
		func(c *catalog.Catalog, a []string) error { return c.RenameLocation(a[0], a[1]) }},
	{"delete-location <location>", "Delete a location with everything under it",
		func(c *catalog.Catalog, a []string) error { return c.DeleteLocation(a[0]) }},
	{"add-company <location> <company>", "Offer work to a company at a location",
		func(c *catalog.Catalog, a []string) error { return c.AddCompany(a[0], a[1]) }},
	{"rename-company <location> <company> <new-name>", "Rename a company at a location",
		func(c *catalog.Catalog, a []string) error { return c.RenameCompany(a[0], a[1], a[2]) }},
	{"delete-company <location> <company>", "Remove a company from a location",
		func(c *catalog.Catalog, a []string) error { return c.DeleteCompany(a[0], a[1]) }},
	{"add-task <location> <company> <task>", "Add a task",
		func(c *catalog.Catalog, a []string) error { return c.AddTask(a[0], a[1], a[2]) }},
	{"edit-task <location> <company> <task>", "Rename a task or change its completed flag",
		editTask},
	{"delete-task <location> <company> <task>", "Delete a task",
		func(c *catalog.Catalog, a []string) error { return c.DeleteTask(a[0], a[1], a[2]) }},
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	for _, e := range catalogEdits {
		catalogCmd.AddCommand(newCatalogEditCmd(e))
	}
}

func newCatalogEditCmd(e catalogEdit) *cobra.Command {
	c := &cobra.Command{
		Use:   e.use,
		Short: e.short,
		Args:  cobra.ExactArgs(countArgs(e.use)),
		RunE: func(cmd *cobra.Command, args []string) error {
			editTaskCompletedSet = cmd.Flags().Changed("completed")
			if err := app.svc.UpdateCatalog(cmd.Context(), func(c *catalog.Catalog) error {
				return e.apply(c, args)
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Catalog updated.")
			return nil
		},
	}
	if c.Name() == "edit-task" {
		c.Flags().StringVar(&editTaskName, "name", "", "New task name")
		c.Flags().BoolVar(&editTaskCompleted, "completed", false, "Mark the task completed")
	}
	return c
}

// editTask keeps the current name and flag unless overridden.
func editTask(c *catalog.Catalog, a []string) error {
	name := a[2]
	if editTaskName != "" {
		name = editTaskName
	}
	completed := editTaskCompleted
	if !editTaskCompletedSet {
		completed = false
		for _, t := range c.TasksFor(a[1], a[0]) {
			if t.Name == a[2] {
				completed = t.Completed
			}
		}
	}
	return c.EditTask(a[0], a[1], a[2], name, completed)
}

// countArgs counts the <placeholders> in a Use line.
func countArgs(use string) int {
	n := 0
	for _, r := range use {
		if r == '<' {
			n++
		}
	}
	return n
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	c, err := app.svc.Catalog(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	locs := c.Locations()
	if len(locs) == 0 {
		fmt.Fprintln(w, "The catalog is empty.")
		return nil
	}
	for _, loc := range locs {
		fmt.Fprintln(w, loc)
		companies, err := c.Companies(loc)
		if err != nil {
			return err
		}
		for _, comp := range companies {
			fmt.Fprintf(w, "  %s\n", comp)
			for _, t := range c.TasksFor(comp, loc) {
				mark := " "
				if t.Completed {
					mark = "x"
				}
				fmt.Fprintf(w, "    [%s] %s\n", mark, t.Name)
			}
		}
	}
	return nil
}
