package cli

import (
	"github.com/spf13/cobra"

	"formfill/config"
	"formfill/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	app := &server.App{}
	if err := app.Initialize(cfg); err != nil {
		return err
	}
	return app.Run()
}
