package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/bigaward-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// foreign_keys is per connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	big_award_id       TEXT PRIMARY KEY,
	registered_name    TEXT NOT NULL,
	original_awardee   TEXT,
	big_award_year     INTEGER,
	website_url        TEXT,
	cin                TEXT UNIQUE,
	incorporation_date DATE,
	location           TEXT,
	mca_status         TEXT,
	data_quality_score REAL NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS people (
	person_id    INTEGER PRIMARY KEY AUTOINCREMENT,
	big_award_id TEXT NOT NULL REFERENCES companies(big_award_id) ON DELETE CASCADE,
	full_name    TEXT NOT NULL,
	designation  TEXT,
	role_type    TEXT,
	source       TEXT,
	source_url   TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS products_services (
	product_id        INTEGER PRIMARY KEY AUTOINCREMENT,
	big_award_id      TEXT NOT NULL REFERENCES companies(big_award_id) ON DELETE CASCADE,
	product_name      TEXT NOT NULL,
	development_stage TEXT,
	source            TEXT,
	source_url        TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS patents (
	patent_id            INTEGER PRIMARY KEY AUTOINCREMENT,
	big_award_id         TEXT NOT NULL REFERENCES companies(big_award_id) ON DELETE CASCADE,
	patent_number        TEXT NOT NULL UNIQUE,
	patent_type          TEXT,
	title                TEXT,
	inventors            TEXT,
	filing_year          INTEGER,
	indian_jurisdiction  BOOLEAN,
	foreign_jurisdiction BOOLEAN,
	jurisdiction_list    TEXT,
	source               TEXT,
	source_url           TEXT,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS publications (
	publication_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	big_award_id     TEXT NOT NULL REFERENCES companies(big_award_id) ON DELETE CASCADE,
	pubmed_id        TEXT,
	title            TEXT NOT NULL,
	journal          TEXT,
	publication_year INTEGER,
	citation_text    TEXT,
	source           TEXT,
	source_url       TEXT,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (big_award_id, title)
);

CREATE TABLE IF NOT EXISTS funding_rounds (
	funding_id     INTEGER PRIMARY KEY AUTOINCREMENT,
	big_award_id   TEXT NOT NULL REFERENCES companies(big_award_id) ON DELETE CASCADE,
	stage          TEXT,
	amount_inr     REAL,
	source_name    TEXT,
	source_type    TEXT,
	funding_type   TEXT,
	announced_date DATE,
	data_source    TEXT,
	source_url     TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS news_coverage (
	news_id        INTEGER PRIMARY KEY AUTOINCREMENT,
	big_award_id   TEXT NOT NULL REFERENCES companies(big_award_id) ON DELETE CASCADE,
	headline       TEXT NOT NULL,
	published_date DATE,
	news_category  TEXT,
	article_url    TEXT,
	scraped_at     DATE,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS extraction_log (
	log_id            INTEGER PRIMARY KEY AUTOINCREMENT,
	big_award_id      TEXT NOT NULL,
	run_id            TEXT,
	data_type         TEXT NOT NULL,
	extraction_status TEXT NOT NULL,
	records_found     INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT,
	source_url        TEXT,
	extracted_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_people_award ON people(big_award_id);
CREATE INDEX IF NOT EXISTS idx_products_award ON products_services(big_award_id);
CREATE INDEX IF NOT EXISTS idx_patents_award ON patents(big_award_id);
CREATE INDEX IF NOT EXISTS idx_funding_award ON funding_rounds(big_award_id);
CREATE INDEX IF NOT EXISTS idx_news_award ON news_coverage(big_award_id);
CREATE INDEX IF NOT EXISTS idx_extraction_log_award ON extraction_log(big_award_id);
CREATE INDEX IF NOT EXISTS idx_extraction_log_run ON extraction_log(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCompany(ctx context.Context, row Row) (string, error) {
	args := values([]Row{row}, Tables[TableCompanies])[0]

	var id string
	if err := s.db.QueryRowContext(ctx, liteUpsertCompany, args...).Scan(&id); err != nil {
		return "", eris.Wrapf(err, "sqlite: upsert company %v", row["big_award_id"])
	}
	return id, nil
}

func (s *SQLiteStore) ReplacePeople(ctx context.Context, awardID string, rows []Row) error {
	return s.replace(ctx, TablePeople, awardID, rows)
}

func (s *SQLiteStore) ReplaceProducts(ctx context.Context, awardID string, rows []Row) error {
	return s.replace(ctx, TableProducts, awardID, rows)
}

func (s *SQLiteStore) replace(ctx context.Context, table, awardID string, rows []Row) error {
	return s.inTx(ctx, table, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE big_award_id = ?", table), awardID); err != nil {
			return eris.Wrapf(err, "sqlite: replace %s: delete %s", table, awardID)
		}
		return execRows(ctx, tx, insertSQL(table, Tables[table], question), Tables[table], withAwardID(rows, awardID))
	})
}

func (s *SQLiteStore) UpsertPatents(ctx context.Context, awardID string, rows []Row) error {
	return s.upsert(ctx, TablePatents, patentKeys, withAwardID(rows, awardID))
}

func (s *SQLiteStore) UpsertPublications(ctx context.Context, awardID string, rows []Row) error {
	return s.upsert(ctx, TablePublications, publicationKeys, withAwardID(rows, awardID))
}

func (s *SQLiteStore) upsert(ctx context.Context, table string, keys []string, rows []Row) error {
	cols := Tables[table]
	return s.inTx(ctx, table, func(tx *sql.Tx) error {
		return execRows(ctx, tx, upsertSQL(table, cols, keys, question), cols, rows)
	})
}

func (s *SQLiteStore) InsertFundingRounds(ctx context.Context, rows []Row) error {
	return s.insert(ctx, TableFunding, rows)
}

func (s *SQLiteStore) InsertNews(ctx context.Context, rows []Row) error {
	return s.insert(ctx, TableNews, rows)
}

func (s *SQLiteStore) insert(ctx context.Context, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	cols := Tables[table]
	return s.inTx(ctx, table, func(tx *sql.Tx) error {
		return execRows(ctx, tx, insertSQL(table, cols, question), cols, rows)
	})
}

func (s *SQLiteStore) LogExtraction(ctx context.Context, entry model.ExtractionLog) error {
	if entry.ExtractedAt.IsZero() {
		entry.ExtractedAt = time.Now().UTC()
	}
	args := values([]Row{LogRow(entry)}, Tables[TableExtractionLog])[0]
	if _, err := s.db.ExecContext(ctx, liteInsertLog, args...); err != nil {
		return eris.Wrapf(err, "sqlite: log extraction %s", entry.BigAwardID)
	}
	return nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]Row, error) {
	data, err := s.Export(ctx, TableCompanies)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(data.Rows))
	for i, vals := range data.Rows {
		r := make(Row, len(data.Columns))
		for j, c := range data.Columns {
			r[c] = vals[j]
		}
		out[i] = r
	}
	return out, nil
}

func (s *SQLiteStore) UpdateQualityScores(ctx context.Context, scores map[string]float64) error {
	if len(scores) == 0 {
		return nil
	}
	return s.inTx(ctx, TableCompanies, func(tx *sql.Tx) error {
		for _, id := range sortedIDs(scores) {
			if _, err := tx.ExecContext(ctx,
				`UPDATE companies SET data_quality_score = ?, updated_at = datetime('now') WHERE big_award_id = ?`,
				scores[id], id,
			); err != nil {
				return eris.Wrapf(err, "sqlite: update quality score %s", id)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) DeleteCompany(ctx context.Context, awardID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE big_award_id = ?`, awardID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete company %s", awardID)
	}
	return checkRowsAffected(res, "company", awardID)
}

func (s *SQLiteStore) Export(ctx context.Context, table string) (*TableData, error) {
	if _, err := columnsFor(table); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY 1", table))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: export %s", table)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: columns %s", table)
	}
	out := &TableData{Table: table, Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", table)
		}
		out.Rows = append(out.Rows, vals)
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: export %s", table)
}

func (s *SQLiteStore) inTx(ctx context.Context, table string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: %s: begin tx", table)
	}
	if err := fn(tx); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	return eris.Wrapf(tx.Commit(), "sqlite: %s: commit tx", table)
}

func execRows(ctx context.Context, tx *sql.Tx, query string, cols []string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare")
	}
	defer stmt.Close()

	for _, args := range values(rows, cols) {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrapf(err, "sqlite: exec %v", args[0])
		}
	}
	return nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
