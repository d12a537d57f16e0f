package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/shaharia-lab/cypherchat/internal/cli"
	"github.com/shaharia-lab/cypherchat/internal/config"
	"github.com/shaharia-lab/cypherchat/internal/logger"
	"github.com/shaharia-lab/cypherchat/internal/theme"
	"github.com/spf13/cobra"
)

// NewUpdateCmd creates a new update command
func NewUpdateCmd(c *cli.Container) *cobra.Command {
	var yes bool

	updateCmd := &cobra.Command{
		Version: c.Config.Version.VersionText(),
		Use:     "update",
		Short:   "Check for updates and update the CLI",
		Long:    "Check for updates and if a new version is available, download and install it",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runUpdate(c.ThemeMgr.GetCurrentTheme(), c.Config.Repository, c.Config.Version.Version, yes)
			if err != nil {
				c.Logger.Error("update failed", map[string]interface{}{logger.ErrorKey: err})
			}
			return err
		},
	}

	updateCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Install the update without asking")
	return updateCmd
}

func runUpdate(t theme.Theme, repository config.Repository, currentAppVersion string, yes bool) error {
	t.Info().Println(
		fmt.Sprintf("Checking for updates for %s/%s... [Current version: %s]",
			repository.Owner,
			repository.Repo,
			currentAppVersion,
		),
	)

	latest, found, err := selfupdate.DetectLatest(fmt.Sprintf("%s/%s", repository.Owner, repository.Repo))
	if err != nil {
		return fmt.Errorf("error detecting version: %w", err)
	}

	if latest == nil {
		t.Warning().Println("No updates found")
		return nil
	}

	currentVersionNoV := strings.TrimPrefix(currentAppVersion, "v")
	latestVersionNoV := strings.TrimPrefix(latest.Version.String(), "v")

	if !found || latestVersionNoV == currentVersionNoV {
		t.Success().Println(fmt.Sprintf("Current version (%s) is the latest", currentAppVersion))
		return nil
	}

	t.Primary().Println(fmt.Sprintf("New version available: %s (current: %s)", latest.Version, currentAppVersion))
	t.Subtle().Println(fmt.Sprintf("Release notes:\n%s", latest.ReleaseNotes))

	if !yes {
		confirmed := false
		if err := survey.AskOne(&survey.Confirm{Message: "Do you want to update?", Default: false}, &confirmed); err != nil {
			return err
		}
		if !confirmed {
			t.Warning().Println("Update cancelled")
			return nil
		}
	}

	t.Info().Println("Downloading and installing update...")
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
		return fmt.Errorf("error updating binary: %w", err)
	}

	t.Success().Println(fmt.Sprintf("Successfully updated to version %s", latest.Version))
	return nil
}
