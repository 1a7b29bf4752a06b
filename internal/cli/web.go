package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/pdfbabel/internal/logger"
	"codeberg.org/snonux/pdfbabel/internal/web"
)

func newWebCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Start the web interface",
		Long: `web serves the upload form on / and the JSON API under /api/. See the
form footer for the available endpoints.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWeb(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Host, "host", "", "listen address (default 127.0.0.1)")
	cmd.Flags().IntVar(&flags.Port, "port", 0, "listen port (default 5000)")

	viper.BindPFlag("web.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("web.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runWeb(cmd *cobra.Command, flags *Flags) error {
	server := web.New(&web.Options{Host: flags.Host, Port: flags.Port})

	ctx, stop := commandContext(cmd)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
