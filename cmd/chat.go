package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaharia-lab/cypherchat/internal/chat"
	"github.com/shaharia-lab/cypherchat/internal/cli"
	"github.com/shaharia-lab/cypherchat/internal/logger"
	"github.com/shaharia-lab/cypherchat/internal/push"
	"github.com/spf13/cobra"
)

// NewChatCmd creates a new chat command
func NewChatCmd(container *cli.Container) *cobra.Command {
	var noPush, noAnimation bool

	cmd := &cobra.Command{
		Version: container.Config.Version.VersionText(),
		Use:     "chat",
		Short:   "Start an interactive chat session",
		Long: `Begin an interactive chat session with the Cypher query assistant.

Plain lines are sent as prompts. Type /help inside the session for the list of commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return startChatSession(ctx, container, noPush, noAnimation)
		},
	}

	cmd.Flags().BoolVar(&noPush, "no-push", false, "Do not connect to the live metrics channel")
	cmd.Flags().BoolVar(&noAnimation, "no-animation", false, "Disable the thinking animation")

	return cmd
}

func startChatSession(ctx context.Context, container *cli.Container, noPush, noAnimation bool) error {
	log := container.Logger.WithField("command", "chat")

	session, err := chat.NewSession(chat.Deps{
		Backend:   container.API,
		Store:     container.Store,
		Clipboard: chat.SystemClipboard{},
		Confirmer: chat.SurveyConfirmer{},
		Logger:    log,
		ExportDir: container.ExportDir(),
	}, container.ThemeMgr, chat.WithAnimation(!noAnimation))
	if err != nil {
		return err
	}

	var ch push.Channel
	if !noPush {
		ch = container.PushChannel()
	}

	log.Info("chat session started", map[string]interface{}{"push": ch != nil})
	if err := session.Run(ctx, ch); err != nil {
		log.Error("chat session failed", map[string]interface{}{logger.ErrorKey: err})
		return err
	}
	log.Info("chat session ended", nil)
	return nil
}
