package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"emas-scraper/models"
	"emas-scraper/utils"
)

// PostgresStore persists price snapshots to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresStore. The initial ping
// goes through retry since the database may still be coming up.
func NewPostgresStore(dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do("postgres-connect", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS price_snapshots (
			id           SERIAL PRIMARY KEY,
			source       VARCHAR(32)   NOT NULL,
			category     VARCHAR(64)   NOT NULL,
			weight       NUMERIC(10,3) NOT NULL,
			sell_price   BIGINT        NOT NULL DEFAULT 0,
			buy_price    BIGINT        NOT NULL DEFAULT 0,
			published_at TEXT          NOT NULL DEFAULT '',
			observed_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			UNIQUE (source, category, weight, published_at)
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_series   ON price_snapshots(source, category, weight);
		CREATE INDEX IF NOT EXISTS idx_snapshots_observed ON price_snapshots(observed_at);
	`)
	return err
}

// Upsert batch-inserts the run's snapshot. Rows already stored for the
// same (source, category, weight, published_at) are left untouched, which
// makes concurrent runs for the same source race benignly.
func (ps *PostgresStore) Upsert(records []*models.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := ps.insertBatch(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (ps *PostgresStore) insertBatch(batch []*models.PriceRecord) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*7)

	for idx, r := range batch {
		base := idx * 7
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		valueArgs = append(valueArgs,
			r.Source, r.Category, r.Weight, r.SellPrice, r.BuyPrice, r.PublishedAt, r.ObservedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO price_snapshots (source, category, weight, sell_price, buy_price, published_at, observed_at)
		VALUES %s
		ON CONFLICT (source, category, weight, published_at) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := ps.db.Exec(query, valueArgs...)
	if err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// LatestBefore fetches the most recent prior snapshot per weight for one
// (source, category) pair, excluding the current run's published_at so a
// snapshot never diffs against itself.
func (ps *PostgresStore) LatestBefore(source, category string, weights []float64, excludePublishedAt string) (map[float64]*models.PriceRecord, error) {
	if len(weights) == 0 {
		return map[float64]*models.PriceRecord{}, nil
	}

	rows, err := ps.db.Query(`
		SELECT DISTINCT ON (weight)
			id, source, category, weight, sell_price, buy_price, published_at, observed_at
		FROM price_snapshots
		WHERE source = $1 AND category = $2 AND weight = ANY($3) AND published_at <> $4
		ORDER BY weight, observed_at DESC
	`, source, category, pq.Array(weights), excludePublishedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: latest before: %w", err)
	}
	defer rows.Close()

	out := make(map[float64]*models.PriceRecord, len(weights))
	for rows.Next() {
		r := &models.PriceRecord{}
		if err := rows.Scan(
			&r.ID, &r.Source, &r.Category, &r.Weight, &r.SellPrice,
			&r.BuyPrice, &r.PublishedAt, &r.ObservedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		out[r.Weight] = r
	}
	return out, rows.Err()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
