package cmd

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/shaharia-lab/cypherchat/internal/chat"
	"github.com/shaharia-lab/cypherchat/internal/cli"
	"github.com/shaharia-lab/cypherchat/internal/logger"
	"github.com/shaharia-lab/cypherchat/internal/theme"
	"github.com/spf13/cobra"
)

// NewHealthCmd checks the backend health and optionally shows its metrics summary
func NewHealthCmd(container *cli.Container) *cobra.Command {
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the backend health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			colors := container.ThemeMgr.GetCurrentTheme().IsEnabled()

			ctrl, err := newController(container, nil)
			if err != nil {
				return err
			}
			h := ctrl.CheckHealth(ctx)

			table := theme.NewTable(nil, container.ThemeMgr.GetCurrentTheme(), "Component", "Status", "Details")
			row := []string{"Backend", h.Label, container.API.BaseURL()}
			if colors {
				table.Rich(row, append(statusColors(h.Level), tablewriter.Colors{}))
			} else {
				table.Append(row)
			}

			if showMetrics && h != chat.HealthOffline {
				u, err := container.API.Metrics(ctx)
				switch {
				case err != nil:
					container.Logger.Warn("failed to fetch metrics", map[string]interface{}{logger.ErrorKey: err})
					table.Append([]string{"Metrics", "Unavailable", err.Error()})
				case u.Failed():
					table.Append([]string{"Metrics", "Unavailable", u.Error})
				default:
					d := u.Display()
					table.Append([]string{"Active requests", d.ActiveRequests, ""})
					table.Append([]string{"Tokens/sec", d.TokensPerSecond, ""})
					table.Append([]string{"Total requests", d.RequestsTotal, ""})
					table.Append([]string{"Total tokens", d.TokensTotal, ""})
					table.Append([]string{"Avg generation", d.AvgGeneration, ""})
				}
			}
			table.Render()

			if h == chat.HealthOffline {
				return fmt.Errorf("backend at %s is not reachable", container.API.BaseURL())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Also show the backend metrics summary")
	return cmd
}
