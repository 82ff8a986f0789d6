package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/fetcher"
	"github.com/sells-group/bigaward-cli/internal/store"
)

var exportTables []string

var exportCmd = &cobra.Command{
	Use:   "export <out.xlsx>",
	Short: "Export stored tables to a spreadsheet, one sheet per table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := exportWorkbook(ctx, st, args[0], exportTables)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows to %s\n", n, args[0])
		return nil
	},
}

// exportWorkbook writes tables (all when empty) to path and returns the
// number of rows written.
func exportWorkbook(ctx context.Context, st store.Store, path string, tables []string) (int, error) {
	if len(tables) == 0 {
		tables = store.ExportableTables()
	}

	sheets := make([]fetcher.Sheet, 0, len(tables))
	total := 0
	for _, t := range tables {
		data, err := st.Export(ctx, t)
		if err != nil {
			return 0, eris.Wrapf(err, "export: table %s", t)
		}
		sheets = append(sheets, fetcher.Sheet{Name: data.Table, Header: data.Columns, Rows: data.Rows})
		total += len(data.Rows)
		zap.L().Debug("export: table read", zap.String("table", t), zap.Int("rows", len(data.Rows)))
	}

	if err := fetcher.WriteXLSX(path, sheets); err != nil {
		return 0, eris.Wrap(err, "export: write workbook")
	}
	return total, nil
}

func init() {
	exportCmd.Flags().StringSliceVar(&exportTables, "tables", nil, "tables to export (default: all)")
	rootCmd.AddCommand(exportCmd)
}
