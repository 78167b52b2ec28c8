package feed

import (
	"time"

	"emas-scraper/models"
)

// Meta describes the provenance of one response payload.
type Meta struct {
	Source      string  `json:"source"`
	URL         string  `json:"url"`
	LastUpdated *string `json:"lastUpdated"` // as asserted by the page, null if none
	ScrapedAt   string  `json:"scrapedAt"`
}

// Envelope is the JSON response shape: the records (plain or
// delta-annotated) plus metadata about where and when they were observed.
type Envelope struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// NewEnvelope wraps a scrape result's records.
func NewEnvelope(res *models.ScrapeResult) Envelope {
	return Envelope{Data: res.Records, Meta: metaOf(res)}
}

// NewDeltaEnvelope wraps delta-annotated records.
func NewDeltaEnvelope(res *models.ScrapeResult, deltas []*models.PriceWithDelta) Envelope {
	return Envelope{Data: deltas, Meta: metaOf(res)}
}

func metaOf(res *models.ScrapeResult) Meta {
	m := Meta{
		Source:    res.Source,
		URL:       res.URL,
		ScrapedAt: res.ObservedAt.Format(time.RFC3339),
	}
	if res.PublishedAt != "" {
		published := res.PublishedAt
		m.LastUpdated = &published
	}
	return m
}
