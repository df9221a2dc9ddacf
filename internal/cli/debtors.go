package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
	"github.com/noah-isme/dojo-admin-api/internal/service"
	"github.com/noah-isme/dojo-admin-api/pkg/storage"
)

// NewDebtorsCommand creates the debtors command.
func NewDebtorsCommand(rootOpts *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "debtors",
		Short: "List clients whose current subscription is not paid",
		Long: `List clients whose current subscription is missing, unpaid or expired.

With --out the list is exported instead; the file extension (.csv, .pdf,
.xlsx) selects the format.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rootOpts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()
			svcs := rt.services()

			if out != "" {
				format := dto.ReportFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), "."))
				file, err := svcs.Reports.Debtors(cmd.Context(), format)
				if err != nil {
					return err
				}
				store, err := storage.NewLocalStorage(filepath.Dir(out))
				if err != nil {
					return err
				}
				path, err := store.Save(filepath.Base(out), file.Body)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return err
			}

			debtors, err := svcs.Subscriptions.Debtors(cmd.Context())
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), debtors)
			}
			table := service.DebtorsDataset(debtors)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-32s %-18s %-8s %s\n", table.Headers[0], table.Headers[1], table.Headers[2], table.Headers[3])
			for _, row := range table.Rows {
				fmt.Fprintf(w, "%-32s %-18s %-8s %s\n", row[0], row[1], row[2], row[3])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "export to file (.csv, .pdf or .xlsx)")

	return cmd
}
