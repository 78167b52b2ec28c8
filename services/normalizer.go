package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"emas-scraper/models"
	"emas-scraper/utils"
)

var (
	// weightRegexp captures a leading numeric token, accepting "," as an
	// alternate decimal separator; an optional unit suffix may follow.
	weightRegexp = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(?:gr(?:am)?|g)?\b`)
	// nonDigitRegexp strips currency symbols and grouping from price tokens
	nonDigitRegexp = regexp.MustCompile(`[^\d]`)
)

// Normalizer converts raw extracted fields into canonical price records.
type Normalizer struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger, now: time.Now}
}

// Normalize parses, validates and deduplicates raw fields. Rows that fail
// to parse or fail the validity invariant (weight > 0 and at least one
// positive price) are dropped silently: source tables are full of header
// and decoration rows and one bad fragment must never fail the run.
func (n *Normalizer) Normalize(raw []*models.RawField, publishedAt string) []*models.PriceRecord {
	seen := utils.NewKeySet()
	result := make([]*models.PriceRecord, 0, len(raw))

	for _, rf := range raw {
		record := &models.PriceRecord{
			Source:      rf.Source,
			Category:    rf.Category,
			Weight:      parseWeight(rf.WeightText),
			SellPrice:   parsePrice(rf.SellText),
			BuyPrice:    parsePrice(rf.BuyText),
			PublishedAt: publishedAt,
			ObservedAt:  n.now(),
		}

		if !record.Valid() {
			n.logger.Debug("[normalizer] Dropping row %q / %q", rf.WeightText, rf.SellText)
			continue
		}
		if !seen.Add(record.SeriesKey()) {
			n.logger.Debug("[normalizer] Duplicate series skipped: %s", record.SeriesKey())
			continue
		}

		result = append(result, record)
	}

	n.logger.Debug("[normalizer] Normalized %d → %d records (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// FilterCategory returns the records whose category matches exactly. It is
// a pure view over the normalized set: persistence always receives the
// unfiltered records, filtering happens after.
func FilterCategory(records []*models.PriceRecord, category string) []*models.PriceRecord {
	if category == "" {
		return records
	}
	out := make([]*models.PriceRecord, 0, len(records))
	for _, r := range records {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// parseWeight extracts a gram denomination from a raw weight token.
// Examples:
//
//	"1 gram"   → 1
//	"0,5 gr"   → 0.5
//	"2.5"      → 2.5
//	"Berat"    → 0 (header row)
func parseWeight(raw string) float64 {
	raw = strings.ToLower(strings.TrimSpace(raw))
	match := weightRegexp.FindStringSubmatch(raw)
	if len(match) < 2 {
		return 0
	}
	val, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", "."), 64)
	if err != nil {
		return 0
	}
	return val
}

// parsePrice strips every non-digit character and parses the remainder as
// an integer rupiah amount. An empty or non-numeric token yields 0.
func parsePrice(raw string) int64 {
	digits := nonDigitRegexp.ReplaceAllString(raw, "")
	if digits == "" {
		return 0
	}
	val, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return val
}
