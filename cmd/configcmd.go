package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/webook-dev/webook-client/pkg/config"
	"gopkg.in/yaml.v3"
)

var configForce bool

var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and write the client configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	Long: `Write the effective configuration (defaults, environment and flags) to
--config, or to $HOME/.webook/config.yaml. An existing file is only replaced
with --force.

Example:
  webook config init --api-base https://webook.example.com/api --log-level info`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationConfigOptional: "true"},
	RunE:        runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "replace an existing config file")

	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
	RootCmd.AddCommand(ConfigCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultFile()
	}
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists, use --force to replace it", path)
	}
	if err := config.WriteFile(path, current.conf); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(current.out, "Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	shown := *current.conf
	if shown.EncryptionKey != "" {
		shown.EncryptionKey = "<redacted>"
	}
	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, _ = fmt.Fprintf(current.out, "# base URL: %s\n%s", current.client.BaseURL(), data)
	return nil
}
