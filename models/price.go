package models

import (
	"fmt"
	"time"
)

// RawField holds one unprocessed candidate row straight from a source page.
// Nothing here is validated; header rows and decoration rows pass through
// and are dropped later during normalization.
type RawField struct {
	Source     string
	Category   string
	WeightText string
	SellText   string
	BuyText    string
}

// PriceRecord is the cleaned, validated price point ready for storage.
// Weight is the denomination in grams, prices are integer rupiah.
//
// BuyPrice 0 means the source did not publish a buyback price. A source
// publishing a literal zero would be indistinguishable; no current source
// does, so the conflation is accepted rather than widening the schema.
type PriceRecord struct {
	ID          int64     `json:"-"`
	Source      string    `json:"source"`
	Category    string    `json:"type"`
	Weight      float64   `json:"weight"`
	SellPrice   int64     `json:"sell"`
	BuyPrice    int64     `json:"buy"`
	PublishedAt string    `json:"published_at,omitempty"`
	ObservedAt  time.Time `json:"observed_at"`
}

// SeriesKey identifies the logical price series this record belongs to.
// PublishedAt is deliberately excluded: it versions snapshots within a
// series, it does not define the series.
func (r *PriceRecord) SeriesKey() string {
	return fmt.Sprintf("%s|%s|%g", r.Source, r.Category, r.Weight)
}

// Valid reports whether the record is worth keeping: a positive weight and
// at least one positive price.
func (r *PriceRecord) Valid() bool {
	return r.Weight > 0 && (r.SellPrice > 0 || r.BuyPrice > 0)
}

// PriceWithDelta is a PriceRecord annotated with the signed change against
// the most recent prior snapshot of the same series. Both changes are 0
// when no prior snapshot exists.
type PriceWithDelta struct {
	PriceRecord
	SellChange int64 `json:"sell_change"`
	BuyChange  int64 `json:"buy_change"`
}

// ScrapeResult is what one pipeline run returns to the caller.
type ScrapeResult struct {
	Source      string
	URL         string
	PublishedAt string
	ObservedAt  time.Time
	Records     []*PriceRecord
}

// MarketSummary holds the computed statistics over one run's records.
type MarketSummary struct {
	TotalRecords      int             `json:"total_records"`
	RecordsByCategory map[string]int  `json:"records_by_category"`
	MinSell           int64           `json:"min_sell"`
	MaxSell           int64           `json:"max_sell"`
	AvgSellPerGram    float64         `json:"avg_sell_per_gram"`
	BiggestGain       *PriceWithDelta `json:"biggest_gain,omitempty"`
	BiggestDrop       *PriceWithDelta `json:"biggest_drop,omitempty"`
}
