// Package cli - команды formfill: сервер и служебные операции над хранилищем и CRM.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"formfill/config"
	"formfill/internal/logs"
	"formfill/server"
)

// Execute запускает корневую команду. Без подкоманды поднимается HTTP-сервер.
func Execute(version string) error {
	if err := newRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "formfill",
		Short:         "PDF form templates, bundles and CRM autofill",
		RunE:          runServe, // по умолчанию serve
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newCRMCmd())
	root.AddCommand(newTemplatesCmd())
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logs.Init(logs.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	return cfg, nil
}

// withStores открывает хранилище на время fn.
func withStores(ctx context.Context, cfg *config.Config, fn func(*server.Stores) error) error {
	stores, err := server.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close(context.Background()) }()
	return fn(stores)
}
