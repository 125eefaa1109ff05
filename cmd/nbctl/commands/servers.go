package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nifiops/nifibridge/cmd/nbctl/cmdutil"
	"github.com/nifiops/nifibridge/pkg/apiclient"
)

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List the NiFi servers the bridge knows about",
	RunE:  runServersList,
}

// serverList renders the server catalog as a table.
type serverList struct {
	servers []apiclient.NiFiServer
}

func (l *serverList) Headers() []string {
	return []string{"ID", "NAME"}
}

func (l *serverList) Rows() [][]string {
	rows := make([][]string, 0, len(l.servers))
	for _, s := range l.servers {
		rows = append(rows, []string{s.ID, cmdutil.EmptyOr(s.Name, "-")})
	}
	return rows
}

func runServersList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	servers, err := client.ListNiFiServers()
	if err != nil {
		return err
	}

	return cmdutil.PrintOutput(os.Stdout, servers, len(servers) == 0,
		"No NiFi servers configured.", &serverList{servers: servers})
}
