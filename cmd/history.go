package cmd

import (
	"fmt"

	"github.com/shaharia-lab/cypherchat/internal/chat"
	"github.com/shaharia-lab/cypherchat/internal/cli"
	"github.com/spf13/cobra"
)

// NewHistoryCmd groups the commands acting on the backend's chat history
func NewHistoryCmd(container *cli.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Export or clear the chat history kept by the backend",
	}

	cmd.AddCommand(newHistoryExportCmd(container), newHistoryClearCmd(container))
	return cmd
}

func newHistoryExportCmd(container *cli.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the chat history to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(container, nil)
			if err != nil {
				return err
			}

			path, err := ctrl.ExportChat(cmd.Context())
			if err != nil {
				container.ThemeMgr.GetCurrentTheme().Error().Println(fmt.Sprintf("Export failed: %v", err))
				return err
			}
			container.ThemeMgr.GetCurrentTheme().Success().Println(fmt.Sprintf("Chat exported to %s", path))
			return nil
		},
	}
}

func newHistoryClearCmd(container *cli.Container) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the chat history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := chat.SurveyConfirmer{}.Confirm(chat.ClearConfirmation)
				if err != nil {
					return err
				}
				if !ok {
					container.ThemeMgr.GetCurrentTheme().Warning().Println("Clear cancelled")
					return nil
				}
			}

			if err := container.API.ClearHistory(cmd.Context()); err != nil {
				container.ThemeMgr.GetCurrentTheme().Error().Println(fmt.Sprintf("Failed to clear chat: %v", err))
				return err
			}
			container.ThemeMgr.GetCurrentTheme().Success().Println("Chat history cleared")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Clear without asking for confirmation")
	return cmd
}
