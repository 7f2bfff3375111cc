package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"formfill/internal/redtail"
	"formfill/server"
)

func newCRMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crm",
		Short: "Query the Redtail CRM",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "lookup <email>",
		Short: "Print the flattened CRM record for a client",
		Args:  cobra.ExactArgs(1),
		RunE:  runCRMLookup,
	})
	return cmd
}

func runCRMLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rec, err := redtail.NewClient(server.RedtailConfig(cfg)).Gather(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
