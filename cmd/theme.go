package cmd

import (
	"fmt"

	"github.com/shaharia-lab/cypherchat/internal/cli"
	"github.com/spf13/cobra"
)

// NewThemeCmd creates the theme command
func NewThemeCmd(container *cli.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the current color theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := container.ThemeMgr.GetCurrentTheme()
			t.Info().Println(fmt.Sprintf("Current theme: %s (toggle: %s)", t.Name(), t.ToggleIcon()))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between the light and dark theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := container.ThemeMgr.Toggle(cmd.Context())
			if err != nil {
				return err
			}
			t.Success().Println(fmt.Sprintf("Switched to the %s theme", t.Name()))
			return nil
		},
	})

	return cmd
}
