package cmd

import (
	"fmt"
	"strconv"

	"github.com/shaharia-lab/cypherchat/internal/chat"
	"github.com/shaharia-lab/cypherchat/internal/cli"
	"github.com/shaharia-lab/cypherchat/internal/preferences"
	"github.com/shaharia-lab/cypherchat/internal/theme"
	"github.com/spf13/cobra"
)

// NewSettingsCmd creates the settings command and its subcommands
func NewSettingsCmd(container *cli.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the generation settings sent with every prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := preferences.LoadSettings(cmd.Context(), container.Store)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			printSettings(container, s)
			return nil
		},
	}

	cmd.AddCommand(
		newSettingsEditCmd(container),
		newSettingsSetCmd(container),
		newSettingsResetCmd(container),
	)
	return cmd
}

func printSettings(container *cli.Container, s preferences.Settings) {
	table := theme.NewTable(nil, container.ThemeMgr.GetCurrentTheme(), "Setting", "Value", "Range")
	table.Append([]string{"Max tokens", strconv.Itoa(s.MaxTokens),
		fmt.Sprintf("%d-%d", preferences.MinMaxTokens, preferences.MaxMaxTokens)})
	table.Append([]string{"Temperature", strconv.FormatFloat(s.Temperature, 'f', -1, 64),
		fmt.Sprintf("%.1f-%.1f", preferences.MinTemperature, preferences.MaxTemperature)})
	table.Append([]string{"Top P", strconv.FormatFloat(s.TopP, 'f', -1, 64),
		fmt.Sprintf("%.1f-%.1f", preferences.MinTopP, preferences.MaxTopP)})
	table.Render()
}

func newSettingsEditCmd(container *cli.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the settings interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			current, err := preferences.LoadSettings(ctx, container.Store)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}

			updated, err := chat.SurveySettingsEditor{}.Edit(current)
			if err != nil {
				return err
			}
			return saveSettings(cmd, container, updated)
		},
	}
}

func newSettingsSetCmd(container *cli.Container) *cobra.Command {
	var maxTokens int
	var temperature, topP float64

	cmd := &cobra.Command{
		Use:     "set",
		Short:   "Change individual settings",
		Example: "  cypherchat settings set --max-tokens 1024 --temperature 0.2",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := preferences.LoadSettings(cmd.Context(), container.Store)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}

			flags := cmd.Flags()
			if !flags.Changed("max-tokens") && !flags.Changed("temperature") && !flags.Changed("top-p") {
				return fmt.Errorf("nothing to set, use --max-tokens, --temperature or --top-p")
			}
			if flags.Changed("max-tokens") {
				s.MaxTokens = maxTokens
			}
			if flags.Changed("temperature") {
				s.Temperature = temperature
			}
			if flags.Changed("top-p") {
				s.TopP = topP
			}
			return saveSettings(cmd, container, s)
		},
	}

	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Maximum number of tokens to generate")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Sampling temperature")
	cmd.Flags().Float64Var(&topP, "top-p", 0, "Nucleus sampling probability")
	return cmd
}

func newSettingsResetCmd(container *cli.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the saved settings and use the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Store.Delete(cmd.Context(), preferences.SettingsKey); err != nil {
				return fmt.Errorf("failed to reset settings: %w", err)
			}
			container.ThemeMgr.GetCurrentTheme().Success().Println("Settings reset to defaults")
			printSettings(container, preferences.DefaultSettings())
			return nil
		},
	}
}

func saveSettings(cmd *cobra.Command, container *cli.Container, s preferences.Settings) error {
	ctrl, err := newController(container, nil)
	if err != nil {
		return err
	}
	if err := ctrl.SaveSettings(cmd.Context(), s); err != nil {
		container.ThemeMgr.GetCurrentTheme().Error().Println(err.Error())
		return err
	}

	container.ThemeMgr.GetCurrentTheme().Success().Println(chat.SettingsSavedToast)
	printSettings(container, s)
	return nil
}
