package services

import (
	"emas-scraper/models"
	"emas-scraper/utils"
)

// PriorLookup returns, for one (source, category) pair, the most recent
// stored snapshot per requested weight whose publishedAt differs from
// excludePublishedAt. The exclusion keeps a re-scrape of an unchanged page
// from being compared against itself.
type PriorLookup func(source, category string, weights []float64, excludePublishedAt string) (map[float64]*models.PriceRecord, error)

// DiffEngine annotates fresh records with signed changes against the most
// recent prior snapshot of each series.
type DiffEngine struct {
	logger *utils.Logger
}

// NewDiffEngine creates a DiffEngine with the given logger.
func NewDiffEngine(logger *utils.Logger) *DiffEngine {
	return &DiffEngine{logger: logger}
}

type seriesGroup struct {
	source      string
	category    string
	publishedAt string
	weights     []float64
}

// ComputeDeltas matches each record against its prior snapshot by
// (source, category, weight) and returns the records in input order with
// signed sell/buy changes. Prior lookups are batched per (source,
// category) pair, so the number of store queries is bounded by the number
// of distinct categories in the batch. A series with no prior snapshot
// gets zero deltas; a failed lookup degrades to "no prior data" and is
// only logged.
func (d *DiffEngine) ComputeDeltas(current []*models.PriceRecord, lookup PriorLookup) []*models.PriceWithDelta {
	groups := make(map[string]*seriesGroup)
	var order []string
	for _, r := range current {
		key := r.Source + "|" + r.Category
		g, ok := groups[key]
		if !ok {
			g = &seriesGroup{source: r.Source, category: r.Category, publishedAt: r.PublishedAt}
			groups[key] = g
			order = append(order, key)
		}
		g.weights = append(g.weights, r.Weight)
	}

	priors := make(map[string]map[float64]*models.PriceRecord, len(groups))
	for _, key := range order {
		g := groups[key]
		found, err := lookup(g.source, g.category, g.weights, g.publishedAt)
		if err != nil {
			d.logger.Warn("[diff] Prior lookup failed for %s/%s: %v — treating as no history",
				g.source, g.category, err)
			continue
		}
		priors[key] = found
	}

	out := make([]*models.PriceWithDelta, len(current))
	for i, r := range current {
		delta := &models.PriceWithDelta{PriceRecord: *r}
		if prior, ok := priors[r.Source+"|"+r.Category][r.Weight]; ok {
			delta.SellChange = r.SellPrice - prior.SellPrice
			delta.BuyChange = r.BuyPrice - prior.BuyPrice
		}
		out[i] = delta
	}
	return out
}
