package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"formfill/internal/forms"
	"formfill/internal/redtail"
	"formfill/server"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage stored form templates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List templates with usage statistics",
		Args:  cobra.NoArgs,
		RunE:  runTemplatesList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.pdf>...",
		Short: "Upload PDF files as templates",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTemplatesImport,
	})
	return cmd
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return withStores(cmd.Context(), cfg, func(s *server.Stores) error {
		tpls, err := s.Templates.List(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FILENAME\tCATEGORY\tFIELDS\tUSED\tLAST USED")
		for _, t := range tpls {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
				t.Filename, t.FormCategory, len(t.FieldJSON), t.TimesUsed, t.LastUsed.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	})
}

func runTemplatesImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return withStores(cmd.Context(), cfg, func(s *server.Stores) error {
		svc := forms.New(s.Templates, s.Bundles, redtail.NewClient(server.RedtailConfig(cfg)))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			t, err := svc.UploadTemplate(cmd.Context(), filepath.Base(path), data)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s as %s (%d fields)\n", path, t.Filename, len(t.FieldJSON))
		}
		return nil
	})
}
