package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nifiops/nifibridge/cmd/nbctl/cmdutil"
	"github.com/nifiops/nifibridge/internal/cli/output"
	"github.com/nifiops/nifibridge/pkg/apiclient"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Browse and call the tool catalog",
}

var toolsListPhase string

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available tools",
	RunE:  runToolsList,
}

var toolsDescribeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Show the full description and parameter schema of a tool",
	Args:  cobra.ExactArgs(1),
	RunE:  runToolsDescribe,
}

var (
	toolsCallArgs  string
	toolsCallForce bool
)

var toolsCallCmd = &cobra.Command{
	Use:   "call <name>",
	Short: "Call a tool against the selected NiFi server",
	Long: `Call a tool against the selected NiFi server.

Arguments are passed as a JSON object via --args. Tools that delete or
drop data prompt for confirmation unless --force is given.

Examples:
  nbctl tools call list_nifi_objects -s prod --args '{"object_type": "processors"}'
  nbctl tools call delete_nifi_objects -s dev --args '{"object_type": "processors", "objects": [...]}' --force`,
	Args: cobra.ExactArgs(1),
	RunE: runToolsCall,
}

func init() {
	toolsListCmd.Flags().StringVar(&toolsListPhase, "phase", "",
		"Only show tools tagged with this phase (review, build, modify, operate, debug, query, verify)")
	toolsCallCmd.Flags().StringVar(&toolsCallArgs, "args", "{}", "Tool arguments as a JSON object")
	toolsCallCmd.Flags().BoolVar(&toolsCallForce, "force", false, "Skip the confirmation prompt for destructive tools")

	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsDescribeCmd)
	toolsCmd.AddCommand(toolsCallCmd)
}

// destructiveTools require confirmation before dispatch.
var destructiveTools = map[string]string{
	"delete_nifi_objects":  "Delete the given NiFi objects",
	"purge_flowfiles":      "Drop queued flowfiles",
	"operate_nifi_objects": "Change the run state of NiFi objects",
}

// toolList renders the tool catalog as a table.
type toolList struct {
	tools []apiclient.Tool
}

func (l *toolList) Headers() []string {
	return []string{"NAME", "PHASES", "DESCRIPTION"}
}

func (l *toolList) Rows() [][]string {
	rows := make([][]string, 0, len(l.tools))
	for _, t := range l.tools {
		rows = append(rows, []string{
			t.Name,
			cmdutil.EmptyOr(strings.Join(t.Phases, ","), "-"),
			t.Description.Short,
		})
	}
	return rows
}

func runToolsList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	tools, err := client.ListTools(toolsListPhase)
	if err != nil {
		return err
	}

	return cmdutil.PrintOutput(os.Stdout, tools, len(tools) == 0,
		"No tools available.", &toolList{tools: tools})
}

func runToolsDescribe(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	tools, err := client.ListTools("")
	if err != nil {
		return err
	}

	name := args[0]
	for _, t := range tools {
		if t.Name != name {
			continue
		}
		format, err := cmdutil.GetOutputFormatParsed()
		if err != nil {
			return err
		}
		if format != output.FormatTable {
			return output.NewPrinter(os.Stdout, format, false).Print(t)
		}

		fmt.Printf("Name:        %s\n", t.Name)
		fmt.Printf("Phases:      %s\n", cmdutil.EmptyOr(strings.Join(t.Phases, ", "), "-"))
		fmt.Printf("Description: %s\n", t.Description.Short)
		if t.Description.Long != "" {
			fmt.Printf("\n%s\n", t.Description.Long)
		}
		if t.Description.Returns != "" {
			fmt.Printf("\nReturns: %s\n", t.Description.Returns)
		}
		if t.Description.Example != "" {
			fmt.Printf("\nExample: %s\n", t.Description.Example)
		}
		if len(t.Parameters) > 0 {
			fmt.Println("\nParameters:")
			var pretty map[string]any
			if err := json.Unmarshal(t.Parameters, &pretty); err == nil {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("  ", "  ")
				_ = enc.Encode(pretty)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown tool %q (see: nbctl tools list)", name)
}

func runToolsCall(cmd *cobra.Command, args []string) error {
	name := args[0]

	var arguments map[string]any
	if err := json.Unmarshal([]byte(toolsCallArgs), &arguments); err != nil {
		return fmt.Errorf("invalid --args JSON: %w", err)
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

	if label, ok := destructiveTools[name]; ok {
		question := fmt.Sprintf("%s on server %q. Continue?", label, server)
		var confirmed bool
		if name == "purge_flowfiles" {
			// Dropped flowfiles cannot be recovered.
			confirmed, err = cmdutil.ConfirmTyped(question, "purge", toolsCallForce)
		} else {
			confirmed, err = cmdutil.ConfirmDestructive(question, toolsCallForce)
		}
		if err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
	}

	result, err := client.CallTool(name, arguments)
	if err != nil {
		return err
	}

	return printRaw(result)
}

// printRaw pretty-prints a raw JSON result in the selected format. Table
// format falls back to indented JSON since tool results are free-form.
func printRaw(raw json.RawMessage) error {
	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return err
	}

	if format == output.FormatYAML {
		return output.PrintYAML(os.Stdout, value)
	}
	return output.PrintJSON(os.Stdout, value)
}
