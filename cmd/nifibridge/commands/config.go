package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/nifiops/nifibridge/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the bridge configuration",
}

var initForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write a sample configuration file with one local NiFi server entry.

The file goes to the --config path when given, otherwise to the default
location at $XDG_CONFIG_HOME/nifibridge/config.yaml.`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE:  runConfigValidate,
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	RunE:  runConfigSchema,
}

func init() {
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configSchemaCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), path); err != nil {
		return err
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the file and point it at your NiFi instances")
	fmt.Println("  2. Start the server with: nifibridge start")
	fmt.Printf("  3. Or with an explicit path: nifibridge start --config %s\n", path)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	fmt.Println("Configuration is valid.")
	fmt.Printf("  NiFi servers: %d\n", len(cfg.NiFiServers))
	for _, s := range cfg.NiFiServers {
		fmt.Printf("    - %s (%s): %s\n", s.ID, s.Name, s.URL)
	}
	fmt.Printf("  API port: %d\n", cfg.Server.Port)
	fmt.Printf("  Expert help: %v\n", cfg.ExpertHelp.Enabled)
	return nil
}

func runConfigSchema(cmd *cobra.Command, args []string) error {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&config.Config{})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(schema)
}
