package cmd

import (
	"fmt"

	"github.com/shaharia-lab/cypherchat/internal/cli"
	"github.com/shaharia-lab/cypherchat/internal/logger"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command
func NewRootCmd(container *cli.Container) *cobra.Command {
	rootCmd := &cobra.Command{
		Version: container.Config.Version.VersionText(),
		Use:     "cypherchat",
		Short:   "Chat with your Cypher query assistant",
		Long: `CypherChat turns plain language questions into Cypher queries.

Talk to the query generation backend from your terminal, keep an eye on its live
metrics and copy the generated queries straight into your clipboard.`,
		PersistentPreRun: func(cm *cobra.Command, args []string) {
			if _, err := container.ThemeMgr.Load(cm.Context()); err != nil {
				container.Logger.Warn("failed to load theme", map[string]interface{}{logger.ErrorKey: err})
			}
		},
		RunE: func(cm *cobra.Command, args []string) error {
			container.ThemeMgr.DisplayBanner(container.Config)
			fmt.Println("")
			container.ThemeMgr.GetCurrentTheme().Info().Println("Run 'cypherchat chat' to start a chat session.")

			return nil
		},
	}

	return rootCmd
}
