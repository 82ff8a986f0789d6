package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/db"
	"github.com/sells-group/bigaward-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const pgUpdateScore = `UPDATE companies SET data_quality_score = $1, updated_at = now() WHERE big_award_id = $2`

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"upsert_company":       pgUpsertCompany,
	"insert_extraction":    pgInsertLog,
	"update_quality_score": pgUpdateScore,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	big_award_id       VARCHAR(50) PRIMARY KEY,
	registered_name    VARCHAR(255) NOT NULL,
	original_awardee   VARCHAR(255),
	big_award_year     INTEGER,
	website_url        VARCHAR(500),
	cin                VARCHAR(21) UNIQUE,
	incorporation_date DATE,
	location           VARCHAR(255),
	mca_status         VARCHAR(100),
	data_quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS people (
	person_id    BIGSERIAL PRIMARY KEY,
	big_award_id VARCHAR(50) NOT NULL REFERENCES companies(big_award_id) ON DELETE CASCADE,
	full_name    VARCHAR(255) NOT NULL,
	designation  VARCHAR(255),
	role_type    VARCHAR(50),
	source       VARCHAR(100),
	source_url   VARCHAR(500),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products_services (
	product_id        BIGSERIAL PRIMARY KEY,
	big_award_id      VARCHAR(50) NOT NULL REFERENCES companies(big_award_id) ON DELETE CASCADE,
	product_name      VARCHAR(255) NOT NULL,
	development_stage VARCHAR(100),
	source            VARCHAR(100),
	source_url        VARCHAR(500),
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS patents (
	patent_id            BIGSERIAL PRIMARY KEY,
	big_award_id         VARCHAR(50) NOT NULL REFERENCES companies(big_award_id) ON DELETE CASCADE,
	patent_number        VARCHAR(100) NOT NULL UNIQUE,
	patent_type          VARCHAR(50),
	title                TEXT,
	inventors            TEXT,
	filing_year          INTEGER,
	indian_jurisdiction  BOOLEAN,
	foreign_jurisdiction BOOLEAN,
	jurisdiction_list    TEXT,
	source               VARCHAR(100),
	source_url           VARCHAR(500),
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS publications (
	publication_id   BIGSERIAL PRIMARY KEY,
	big_award_id     VARCHAR(50) NOT NULL REFERENCES companies(big_award_id) ON DELETE CASCADE,
	pubmed_id        VARCHAR(50),
	title            TEXT NOT NULL,
	journal          VARCHAR(255),
	publication_year INTEGER,
	citation_text    TEXT,
	source           VARCHAR(100),
	source_url       VARCHAR(500),
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (big_award_id, title)
);

CREATE TABLE IF NOT EXISTS funding_rounds (
	funding_id     BIGSERIAL PRIMARY KEY,
	big_award_id   VARCHAR(50) NOT NULL REFERENCES companies(big_award_id) ON DELETE CASCADE,
	stage          VARCHAR(100),
	amount_inr     NUMERIC(20,2),
	source_name    VARCHAR(255),
	source_type    VARCHAR(100),
	funding_type   VARCHAR(100),
	announced_date DATE,
	data_source    VARCHAR(100),
	source_url     VARCHAR(500),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS news_coverage (
	news_id        BIGSERIAL PRIMARY KEY,
	big_award_id   VARCHAR(50) NOT NULL REFERENCES companies(big_award_id) ON DELETE CASCADE,
	headline       TEXT NOT NULL,
	published_date DATE,
	news_category  VARCHAR(100),
	article_url    VARCHAR(500),
	scraped_at     DATE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS extraction_log (
	log_id            BIGSERIAL PRIMARY KEY,
	big_award_id      VARCHAR(50) NOT NULL,
	run_id            VARCHAR(64),
	data_type         VARCHAR(50) NOT NULL,
	extraction_status VARCHAR(20) NOT NULL,
	records_found     INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT,
	source_url        VARCHAR(500),
	extracted_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_people_award ON people(big_award_id);
CREATE INDEX IF NOT EXISTS idx_products_award ON products_services(big_award_id);
CREATE INDEX IF NOT EXISTS idx_patents_award ON patents(big_award_id);
CREATE INDEX IF NOT EXISTS idx_funding_award ON funding_rounds(big_award_id);
CREATE INDEX IF NOT EXISTS idx_news_award ON news_coverage(big_award_id);
CREATE INDEX IF NOT EXISTS idx_extraction_log_award ON extraction_log(big_award_id);
CREATE INDEX IF NOT EXISTS idx_extraction_log_run ON extraction_log(run_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertCompany(ctx context.Context, row Row) (string, error) {
	args := values([]Row{row}, Tables[TableCompanies])[0]

	var id string
	if err := s.pool.QueryRow(ctx, pgUpsertCompany, args...).Scan(&id); err != nil {
		return "", eris.Wrapf(err, "postgres: upsert company %v", row["big_award_id"])
	}
	return id, nil
}

func (s *PostgresStore) ReplacePeople(ctx context.Context, awardID string, rows []Row) error {
	return s.replace(ctx, TablePeople, awardID, rows)
}

func (s *PostgresStore) ReplaceProducts(ctx context.Context, awardID string, rows []Row) error {
	return s.replace(ctx, TableProducts, awardID, rows)
}

// replace deletes the company's rows in table and copies the new set in,
// inside one transaction.
func (s *PostgresStore) replace(ctx context.Context, table, awardID string, rows []Row) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrapf(err, "postgres: replace %s: begin tx", table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE big_award_id = $1", table), awardID); err != nil {
		return eris.Wrapf(err, "postgres: replace %s: delete %s", table, awardID)
	}

	cols := Tables[table]
	if _, err := db.CopyFrom(ctx, tx, table, cols, values(withAwardID(rows, awardID), cols)); err != nil {
		return eris.Wrapf(err, "postgres: replace %s", table)
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrapf(err, "postgres: replace %s: commit tx", table)
	}
	return nil
}

func (s *PostgresStore) UpsertPatents(ctx context.Context, awardID string, rows []Row) error {
	return s.upsert(ctx, TablePatents, patentKeys, withAwardID(rows, awardID))
}

func (s *PostgresStore) UpsertPublications(ctx context.Context, awardID string, rows []Row) error {
	return s.upsert(ctx, TablePublications, publicationKeys, withAwardID(rows, awardID))
}

func (s *PostgresStore) upsert(ctx context.Context, table string, keys []string, rows []Row) error {
	cols := Tables[table]
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        table,
		Columns:      cols,
		ConflictKeys: keys,
	}, values(rows, cols))
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert %s", table)
	}
	zap.L().Debug("postgres: upserted rows", zap.String("table", table), zap.Int64("rows", n))
	return nil
}

func (s *PostgresStore) InsertFundingRounds(ctx context.Context, rows []Row) error {
	return s.copyRows(ctx, TableFunding, rows)
}

func (s *PostgresStore) InsertNews(ctx context.Context, rows []Row) error {
	return s.copyRows(ctx, TableNews, rows)
}

func (s *PostgresStore) copyRows(ctx context.Context, table string, rows []Row) error {
	cols := Tables[table]
	if _, err := db.CopyFrom(ctx, s.pool, table, cols, values(rows, cols)); err != nil {
		return eris.Wrapf(err, "postgres: insert %s", table)
	}
	return nil
}

func (s *PostgresStore) LogExtraction(ctx context.Context, entry model.ExtractionLog) error {
	if entry.ExtractedAt.IsZero() {
		entry.ExtractedAt = time.Now().UTC()
	}
	args := values([]Row{LogRow(entry)}, Tables[TableExtractionLog])[0]
	if _, err := s.pool.Exec(ctx, pgInsertLog, args...); err != nil {
		return eris.Wrapf(err, "postgres: log extraction %s", entry.BigAwardID)
	}
	return nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]Row, error) {
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

func (s *PostgresStore) UpdateQualityScores(ctx context.Context, scores map[string]float64) error {
	if len(scores) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: update quality scores: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, id := range sortedIDs(scores) {
		if _, err := tx.Exec(ctx, pgUpdateScore, scores[id], id); err != nil {
			return eris.Wrapf(err, "postgres: update quality score %s", id)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: update quality scores: commit tx")
}

func (s *PostgresStore) DeleteCompany(ctx context.Context, awardID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE big_award_id = $1`, awardID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete company %s", awardID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("company not found: %s", awardID)
	}
	return nil
}

func (s *PostgresStore) Export(ctx context.Context, table string) (*TableData, error) {
	if _, err := columnsFor(table); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY 1", table))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: export %s", table)
	}
	defer rows.Close()

	out := &TableData{Table: table}
	for _, fd := range rows.FieldDescriptions() {
		out.Columns = append(out.Columns, fd.Name)
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s", table)
		}
		out.Rows = append(out.Rows, vals)
	}
	return out, eris.Wrapf(rows.Err(), "postgres: export %s", table)
}
