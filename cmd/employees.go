package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shift-tracker/internal/model"
)

var (
	empAddName    string
	empAddCompany string
	empAddPIN     string
)

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Manage employees",
}

var employeesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		emps, err := app.svc.Employees(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(emps) == 0 {
			fmt.Fprintln(w, "No employees.")
			return nil
		}
		for _, e := range emps {
			fmt.Fprintf(w, "%-12s%-24s%s\n", e.ID, e.Name, e.Company)
		}
		return nil
	},
}

var employeesAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add an employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := app.svc.AddEmployee(cmd.Context(), model.Employee{
			ID:      args[0],
			Name:    empAddName,
			Company: empAddCompany,
			PIN:     empAddPIN,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) to %s\n", e.Name, e.ID, e.Company)
		return nil
	},
}

var employeesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an employee; their shifts and requests are kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.svc.DeleteEmployee(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted employee %s\n", args[0])
		return nil
	},
}

func init() {
	employeesAddCmd.Flags().StringVar(&empAddName, "name", "", "Full name")
	employeesAddCmd.Flags().StringVar(&empAddCompany, "company", "", "Company")
	employeesAddCmd.Flags().StringVar(&empAddPIN, "pin", "", "Clock-in PIN")
	for _, name := range []string{"name", "company", "pin"} {
		_ = employeesAddCmd.MarkFlagRequired(name)
	}
	employeesCmd.AddCommand(employeesListCmd, employeesAddCmd, employeesDeleteCmd)
}
