package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/bigaward-cli/internal/store"
)

func TestExportWorkbook_AllTables(t *testing.T) {
	st := newTestStore(t)
	seedCompany(t, st, "BIG-1", "Acme Bio")
	seedCompany(t, st, "BIG-2", "Beta Labs")

	path := filepath.Join(t.TempDir(), "out.xlsx")
	n, err := exportWorkbook(context.Background(), st, path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, len(store.ExportableTables()))

	companies, ok := f.Sheet[store.TableCompanies]
	require.True(t, ok)
	assert.Len(t, companies.Rows, 3, "header plus two companies")
}

func TestExportWorkbook_SelectedTables(t *testing.T) {
	st := newTestStore(t)
	seedCompany(t, st, "BIG-1", "Acme Bio")

	path := filepath.Join(t.TempDir(), "out.xlsx")
	_, err := exportWorkbook(context.Background(), st, path, []string{store.TableCompanies, store.TablePeople})
	require.NoError(t, err)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Sheets, 2)
}

func TestExportWorkbook_UnknownTable(t *testing.T) {
	st := newTestStore(t)

	_, err := exportWorkbook(context.Background(), st, filepath.Join(t.TempDir(), "out.xlsx"), []string{"users"})
	assert.Error(t, err)
}
