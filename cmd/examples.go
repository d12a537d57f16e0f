package cmd

import (
	"fmt"
	"strconv"

	"github.com/shaharia-lab/cypherchat/internal/cli"
	"github.com/shaharia-lab/cypherchat/internal/theme"
	"github.com/spf13/cobra"
)

// NewExamplesCmd lists the example prompts offered by the backend
func NewExamplesCmd(container *cli.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "List the example prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			examples, err := container.API.Examples(cmd.Context())
			if err != nil {
				container.ThemeMgr.GetCurrentTheme().Error().Println(fmt.Sprintf("Failed to load examples: %v", err))
				return err
			}

			table := theme.NewTable(nil, container.ThemeMgr.GetCurrentTheme(), "#", "Title", "Category", "Prompt")
			for i, e := range examples {
				table.Append([]string{strconv.Itoa(i + 1), e.Title, e.Category, e.Prompt})
			}
			table.Render()
			return nil
		},
	}
}
