package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat and report API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := app.NewServer()
			errc := make(chan error, 1)
			go func() { errc <- srv.Listen(addr) }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			app.logger().Info("shutting_down", zap.String("addr", addr))
			if err := srv.Shutdown(); err != nil {
				return err
			}
			return <-errc
		},
	}
	cmd.Flags().StringVar(&addr, "addr", app.HTTPAddr, "listen address")
	return cmd
}
