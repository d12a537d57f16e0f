package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shaharia-lab/cypherchat/cmd"
	"github.com/shaharia-lab/cypherchat/internal/cli"
)

var version = "0.0.1"
var commit = "none"
var date = "unknown"

func main() {
	container, err := cli.NewContainer(cli.InitOptions{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error during initialization: %v\n", err)
		os.Exit(1)
	}

	log := container.Logger
	log.Info(fmt.Sprintf("%s started", container.Config.Name), map[string]interface{}{
		"version": container.Config.Version.Version,
	})

	rootCmd := cmd.NewRootCmd(container)
	rootCmd.AddCommand(
		cmd.NewInitCmd(container),
		cmd.NewChatCmd(container),
		cmd.NewSettingsCmd(container),
		cmd.NewThemeCmd(container),
		cmd.NewExamplesCmd(container),
		cmd.NewHealthCmd(container),
		cmd.NewHistoryCmd(container),
		cmd.NewConfigCmd(container),
		cmd.NewUpdateCmd(container),
		cmd.NewDemoServerCmd(container),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error(fmt.Sprintf("%s exited with error", container.Config.Name), map[string]interface{}{"error": err})
		_ = container.Close()
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("%s exited successfully", container.Config.Name), nil)
	_ = container.Close()
}
