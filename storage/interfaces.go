package storage

import "emas-scraper/models"

// Store is the snapshot persistence contract. Upsert must deduplicate on
// (source, category, weight, published_at) and tolerate resubmission of
// identical rows without error, so re-ingesting an unchanged page is a
// no-op. LatestBefore returns at most one row per weight: the most recent
// by observed_at among rows whose published_at differs from
// excludePublishedAt.
type Store interface {
	Upsert(records []*models.PriceRecord) error
	LatestBefore(source, category string, weights []float64, excludePublishedAt string) (map[float64]*models.PriceRecord, error)
	Close() error
}

// RawFieldWriter is the interface for persisting unprocessed extracted
// fields, used as an audit trail for debugging source layout changes.
type RawFieldWriter interface {
	WriteRaw(fields []*models.RawField) error
	Close() error
}
