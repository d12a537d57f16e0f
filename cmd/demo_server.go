package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaharia-lab/cypherchat/internal/cli"
	"github.com/shaharia-lab/cypherchat/internal/webserver"
	"github.com/spf13/cobra"
)

// NewDemoServerCmd runs a local stand-in for the query generation backend
func NewDemoServerCmd(container *cli.Container) *cobra.Command {
	var addr string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "demo-server",
		Short: "Run a local stand-in backend that answers with canned Cypher queries",
		Long: `Serve the chat, history, examples, health and metrics endpoints plus the
live metrics channel, answering every prompt with a fixed Cypher query.
Useful to try the chat session without a model backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := container.Logger.WithField("command", "demo-server")

			ws := webserver.NewWebServer(addr, webserver.NewBackend(nil),
				webserver.WithLogger(log),
				webserver.WithPushInterval(interval),
			)
			if err := ws.Start(); err != nil {
				return fmt.Errorf("failed to start demo server: %w", err)
			}

			t := container.ThemeMgr.GetCurrentTheme()
			t.Success().Println(fmt.Sprintf("Demo server listening on %s", addr))
			t.Subtle().Println("Press Ctrl+C to stop")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			t.Info().Println("Stopping demo server...")
			return ws.Stop()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:5000", "Address to listen on")
	cmd.Flags().DurationVar(&interval, "push-interval", 5*time.Second, "How often metrics are pushed to connected clients")
	return cmd
}
