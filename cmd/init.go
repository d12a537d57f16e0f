package cmd

import (
	"fmt"

	"github.com/shaharia-lab/cypherchat/internal/cli"
	"github.com/shaharia-lab/cypherchat/internal/initializer"
	"github.com/shaharia-lab/cypherchat/internal/logger"
	"github.com/spf13/cobra"
)

// NewInitCmd creates an interactive init command
func NewInitCmd(container *cli.Container) *cobra.Command {
	cmd := &cobra.Command{
		Version: container.Config.Version.VersionText(),
		Use:     "init",
		Short:   "Configure CypherChat with a guided setup",
		Long:    `Start an interactive wizard that asks where the backend and its live metrics channel run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := container.Logger
			log.Info("starting initialization", nil)

			wizard := initializer.NewInitializer(log, container.Config, container.ThemeMgr, container.ConfigMgr)
			if err := wizard.Run(); err != nil {
				log.Error("initialization failed", map[string]interface{}{logger.ErrorKey: err})
				container.ThemeMgr.GetCurrentTheme().Error().Println(fmt.Sprintf("Initialization failed: %v", err))
				return err
			}

			log.Info("initialization complete", nil)
			container.ThemeMgr.GetCurrentTheme().Info().Println("Run 'cypherchat help' to see the available commands.")
			return nil
		},
	}

	return cmd
}
