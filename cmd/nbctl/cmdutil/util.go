// Package cmdutil provides shared utilities for nbctl commands.
package cmdutil

import (
	"fmt"
	"io"
	"os"

	"github.com/nifiops/nifibridge/internal/cli/output"
	"github.com/nifiops/nifibridge/internal/cli/prompt"
	"github.com/nifiops/nifibridge/pkg/apiclient"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	BridgeURL string
	Server    string
	RequestID string
	Output    string
	NoColor   bool
}

// GetClient returns a bridge API client configured from the global flags.
func GetClient() (*apiclient.Client, error) {
	url := Flags.BridgeURL
	if url == "" {
		url = os.Getenv("NIFIBRIDGE_URL")
	}
	if url == "" {
		url = "http://localhost:8089"
	}

	c := apiclient.New(url)
	if Flags.Server != "" {
		c = c.WithServer(Flags.Server)
	}
	if Flags.RequestID != "" {
		c = c.WithCorrelation(Flags.RequestID, "")
	}
	return c, nil
}

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// PrintOutput prints data in the selected format. For table format it
// displays emptyMsg when the data is empty, otherwise renders the table.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, tableRenderer)
	}
}

// ResolveServer returns the NiFi server id to target. An explicit --server
// flag wins; otherwise the bridge's server catalog is consulted, with a
// selection prompt when more than one is configured.
func ResolveServer(client *apiclient.Client) (string, error) {
	if Flags.Server != "" {
		return Flags.Server, nil
	}

	servers, err := client.ListNiFiServers()
	if err != nil {
		return "", fmt.Errorf("failed to list NiFi servers: %w", err)
	}
	switch len(servers) {
	case 0:
		return "", fmt.Errorf("the bridge has no NiFi servers configured")
	case 1:
		return servers[0].ID, nil
	}

	options := make([]prompt.SelectOption, 0, len(servers))
	for _, s := range servers {
		options = append(options, prompt.SelectOption{
			Label: fmt.Sprintf("%s (%s)", s.ID, s.Name),
			Value: s.ID,
		})
	}
	id, err := prompt.Select("Select NiFi server", options)
	if err != nil {
		if prompt.IsAborted(err) {
			return "", fmt.Errorf("aborted")
		}
		return "", err
	}
	return id, nil
}

// ConfirmDestructive prompts before a destructive call unless force is set.
// Returns false when the user declined or aborted.
func ConfirmDestructive(label string, force bool) (bool, error) {
	confirmed, err := prompt.ConfirmWithForce(label, force)
	if err != nil {
		if prompt.IsAborted(err) {
			fmt.Println("\nAborted.")
			return false, nil
		}
		return false, err
	}
	if !confirmed && !force {
		fmt.Println("Aborted.")
	}
	return confirmed, nil
}

// ConfirmTyped requires typing a confirmation word before an irreversible
// call, unless force is set.
func ConfirmTyped(label, word string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	confirmed, err := prompt.ConfirmDanger(label, word)
	if err != nil {
		if prompt.IsAborted(err) {
			fmt.Println("\nAborted.")
			return false, nil
		}
		return false, err
	}
	if !confirmed {
		fmt.Println("Aborted.")
	}
	return confirmed, nil
}

// EmptyOr returns value when non-empty, otherwise fallback. Useful for table
// cells that should show "-".
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
