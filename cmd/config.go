package cmd

import (
	"fmt"
	"os"

	"github.com/shaharia-lab/cypherchat/internal/cli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd creates a config command
func NewConfigCmd(container *cli.Container) *cobra.Command {
	cfgCmd := &cobra.Command{
		Version: container.Config.Version.VersionText(),
		Use:     "config",
		Short:   "Manage CypherChat configuration",
		Long:    `Commands to manage and view your CypherChat configuration.`,
	}

	cfgCmd.AddCommand(NewConfigPreviewCmd(container), NewConfigEffectiveCmd(container))
	return cfgCmd
}

// NewConfigPreviewCmd creates a command to preview the config file
func NewConfigPreviewCmd(container *cli.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview the current configuration file",
		Long:  `Display the content of your CypherChat configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := container.ThemeMgr.GetCurrentTheme()
			configPath := container.ConfigMgr.Path()
			configData, err := os.ReadFile(configPath)
			if err != nil {
				t.Error().Println(fmt.Sprintf("Error reading config file: %v", err))
				return fmt.Errorf("failed to read config file: %w", err)
			}

			t.Primary().Println("\nConfiguration File")
			t.Subtle().Printf("Located at: %s\n\n", configPath)

			fmt.Println(string(configData))
			return nil
		},
	}

	return cmd
}

// NewConfigEffectiveCmd prints the configuration after environment overrides
func NewConfigEffectiveCmd(container *cli.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "effective",
		Short: "Show the configuration in use, including environment overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(container.Runtime)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
