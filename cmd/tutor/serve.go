package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurotutor-backend/internal/platform/envutil"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if envutil.Bool("DB_AUTO_MIGRATE", true) {
			if err := a.Migrate(); err != nil {
				return err
			}
		}
		if err := a.Wire(ctx); err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		return a.Serve(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides ADDR / PORT)")
}
