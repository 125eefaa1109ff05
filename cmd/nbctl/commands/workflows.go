package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nifiops/nifibridge/cmd/nbctl/cmdutil"
	"github.com/nifiops/nifibridge/internal/cli/output"
	"github.com/nifiops/nifibridge/pkg/apiclient"
)

var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "Browse and run guided workflows",
}

var workflowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered workflows",
	RunE:  runWorkflowsList,
}

var workflowsValidateCmd = &cobra.Command{
	Use:   "validate <name>",
	Short: "Check a workflow definition for structural errors",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflowsValidate,
}

var workflowsRunInputs string

var workflowsRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a workflow to completion against the selected NiFi server",
	Long: `Run a workflow to completion against the selected NiFi server.

Inputs are passed as a JSON object via --inputs and become the initial
workflow state.

Example:
  nbctl workflows run diagnose_flow -s prod --inputs '{"process_group_id": "root"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflowsRun,
}

func init() {
	workflowsRunCmd.Flags().StringVar(&workflowsRunInputs, "inputs", "{}", "Workflow inputs as a JSON object")

	workflowsCmd.AddCommand(workflowsListCmd)
	workflowsCmd.AddCommand(workflowsValidateCmd)
	workflowsCmd.AddCommand(workflowsRunCmd)
}

// workflowList renders the workflow catalog as a table.
type workflowList struct {
	workflows []apiclient.Workflow
}

func (l *workflowList) Headers() []string {
	return []string{"NAME", "START", "NODES", "DESCRIPTION"}
}

func (l *workflowList) Rows() [][]string {
	rows := make([][]string, 0, len(l.workflows))
	for _, w := range l.workflows {
		rows = append(rows, []string{
			w.Name,
			w.Start,
			fmt.Sprintf("%d", len(w.Nodes)),
			cmdutil.EmptyOr(w.Description, "-"),
		})
	}
	return rows
}

func runWorkflowsList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	workflows, err := client.ListWorkflows()
	if err != nil {
		return err
	}

	return cmdutil.PrintOutput(os.Stdout, workflows, len(workflows) == 0,
		"No workflows registered.", &workflowList{workflows: workflows})
}

func runWorkflowsValidate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	valid, detail, err := client.ValidateWorkflow(args[0])
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("workflow %q is invalid: %s", args[0], detail)
	}
	fmt.Printf("Workflow %q is valid.\n", args[0])
	return nil
}

func runWorkflowsRun(cmd *cobra.Command, args []string) error {
	var inputs map[string]any
	if err := json.Unmarshal([]byte(workflowsRunInputs), &inputs); err != nil {
		return fmt.Errorf("invalid --inputs JSON: %w", err)
	}

	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}
	server, err := cmdutil.ResolveServer(client)
	if err != nil {
		return err
	}
	client = client.WithServer(server)

	outcome, err := client.ExecuteWorkflow(args[0], inputs)
	if err != nil {
		return err
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return output.NewPrinter(os.Stdout, format, false).Print(outcome)
	}

	printOutcome(outcome)
	return nil
}

func printOutcome(outcome *apiclient.WorkflowOutcome) {
	printer := output.NewPrinter(os.Stdout, output.FormatTable, !cmdutil.Flags.NoColor)

	if outcome.Success {
		printer.Success(fmt.Sprintf("Workflow %q completed (%d actions, final node %s)",
			outcome.Workflow, outcome.ActionsTaken, cmdutil.EmptyOr(outcome.FinalNode, "-")))
	} else {
		printer.Error(fmt.Sprintf("Workflow %q failed: %s", outcome.Workflow, outcome.Error))
	}

	if len(outcome.Steps) > 0 {
		fmt.Println("\nSteps:")
		names := make([]string, 0, len(outcome.Steps))
		for name := range outcome.Steps {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return outcome.Steps[names[i]].Start.Before(outcome.Steps[names[j]].Start)
		})
		for _, name := range names {
			step := outcome.Steps[name]
			fmt.Printf("  %-20s %-10s %d actions\n", name, step.Status, step.ActionsTaken)
		}
	}

	if len(outcome.Milestones) > 0 {
		fmt.Println("\nMilestones:")
		for _, m := range outcome.Milestones {
			fmt.Printf("  %s  %-20s %s\n", m.Time.Format("15:04:05"), m.Node, m.Message)
		}
	}

	if len(outcome.State) > 0 && string(outcome.State) != "null" {
		var state map[string]any
		if err := json.Unmarshal(outcome.State, &state); err == nil && len(state) > 0 {
			fmt.Println("\nFinal state:")
			keys := make([]string, 0, len(state))
			for k := range state {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %s: %v\n", k, state[k])
			}
		}
	}
}
