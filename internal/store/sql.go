package store

import (
	"fmt"
	"strings"
)

// placeholder renders the bind marker for the i-th (zero based) argument.
type placeholder func(i int) string

func dollar(i int) string { return fmt.Sprintf("$%d", i+1) }
func question(int) string { return "?" }

func insertSQL(table string, cols []string, ph placeholder) string {
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = ph(i)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "))
}

// upsertSQL renders a single-row INSERT ... ON CONFLICT DO UPDATE. extraSet
// is appended verbatim to the SET list.
func upsertSQL(table string, cols, keys []string, ph placeholder, extraSet ...string) string {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	var set []string
	for _, c := range cols {
		if !isKey[c] {
			set = append(set, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	set = append(set, extraSet...)

	action := "DO NOTHING"
	if len(set) > 0 {
		action = "DO UPDATE SET " + strings.Join(set, ", ")
	}
	return fmt.Sprintf("%s ON CONFLICT (%s) %s",
		insertSQL(table, cols, ph), strings.Join(keys, ", "), action)
}

var (
	pgUpsertCompany = upsertSQL(TableCompanies, Tables[TableCompanies], []string{"big_award_id"}, dollar,
		"updated_at = now()") + " RETURNING big_award_id"
	pgInsertLog = insertSQL(TableExtractionLog, Tables[TableExtractionLog], dollar)

	liteUpsertCompany = upsertSQL(TableCompanies, Tables[TableCompanies], []string{"big_award_id"}, question,
		"updated_at = datetime('now')") + " RETURNING big_award_id"
	liteInsertLog = insertSQL(TableExtractionLog, Tables[TableExtractionLog], question)
)
