package services

import (
	"emas-scraper/models"
	"emas-scraper/utils"
)

// SummaryService computes aggregate statistics over one run's records.
type SummaryService struct {
	logger *utils.Logger
}

// NewSummaryService creates a SummaryService with the given logger.
func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

// Build computes a MarketSummary over delta-annotated records: category
// counts, sell price spread, average price per gram and the biggest
// movers by sell change.
func (s *SummaryService) Build(records []*models.PriceWithDelta) *models.MarketSummary {
	summary := &models.MarketSummary{
		RecordsByCategory: make(map[string]int),
	}

	if len(records) == 0 {
		return summary
	}

	summary.TotalRecords = len(records)

	var perGramTotal float64
	var perGramCount int

	for _, r := range records {
		summary.RecordsByCategory[r.Category]++

		if r.SellPrice > 0 {
			if summary.MinSell == 0 || r.SellPrice < summary.MinSell {
				summary.MinSell = r.SellPrice
			}
			if r.SellPrice > summary.MaxSell {
				summary.MaxSell = r.SellPrice
			}
			if r.Weight > 0 {
				perGramTotal += float64(r.SellPrice) / r.Weight
				perGramCount++
			}
		}

		if r.SellChange > 0 && (summary.BiggestGain == nil || r.SellChange > summary.BiggestGain.SellChange) {
			summary.BiggestGain = r
		}
		if r.SellChange < 0 && (summary.BiggestDrop == nil || r.SellChange < summary.BiggestDrop.SellChange) {
			summary.BiggestDrop = r
		}
	}

	if perGramCount > 0 {
		summary.AvgSellPerGram = round2(perGramTotal / float64(perGramCount))
	}

	return summary
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
