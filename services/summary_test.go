package services

import (
	"testing"

	"emas-scraper/models"
)

func sampleDeltas() []*models.PriceWithDelta {
	return []*models.PriceWithDelta{
		{PriceRecord: models.PriceRecord{Category: "antam", Weight: 1, SellPrice: 1000000}, SellChange: 5000},
		{PriceRecord: models.PriceRecord{Category: "antam", Weight: 5, SellPrice: 4950000}, SellChange: -10000},
		{PriceRecord: models.PriceRecord{Category: "ubs", Weight: 1, SellPrice: 980000}, SellChange: 12000},
		{PriceRecord: models.PriceRecord{Category: "ubs", Weight: 0.5, SellPrice: 520000}},
	}
}

func TestSummaryCounts(t *testing.T) {
	svc := NewSummaryService(newTestLogger())
	s := svc.Build(sampleDeltas())

	if s.TotalRecords != 4 {
		t.Errorf("TotalRecords: got %d, want 4", s.TotalRecords)
	}
	if s.RecordsByCategory["antam"] != 2 {
		t.Errorf("antam count: got %d, want 2", s.RecordsByCategory["antam"])
	}
	if s.RecordsByCategory["ubs"] != 2 {
		t.Errorf("ubs count: got %d, want 2", s.RecordsByCategory["ubs"])
	}
}

func TestSummaryPrices(t *testing.T) {
	svc := NewSummaryService(newTestLogger())
	s := svc.Build(sampleDeltas())

	if s.MinSell != 520000 {
		t.Errorf("MinSell: got %d, want 520000", s.MinSell)
	}
	if s.MaxSell != 4950000 {
		t.Errorf("MaxSell: got %d, want 4950000", s.MaxSell)
	}
	// per-gram: 1000000/1, 4950000/5, 980000/1, 520000/0.5 → avg 1002500
	if s.AvgSellPerGram != 1002500 {
		t.Errorf("AvgSellPerGram: got %.2f, want 1002500", s.AvgSellPerGram)
	}
}

func TestSummaryMovers(t *testing.T) {
	svc := NewSummaryService(newTestLogger())
	s := svc.Build(sampleDeltas())

	if s.BiggestGain == nil || s.BiggestGain.SellChange != 12000 {
		t.Errorf("BiggestGain: got %+v", s.BiggestGain)
	}
	if s.BiggestDrop == nil || s.BiggestDrop.SellChange != -10000 {
		t.Errorf("BiggestDrop: got %+v", s.BiggestDrop)
	}
}

func TestSummaryEmptyInput(t *testing.T) {
	svc := NewSummaryService(newTestLogger())
	s := svc.Build(nil)

	if s.TotalRecords != 0 {
		t.Error("expected 0 total records for empty input")
	}
	if s.BiggestGain != nil || s.BiggestDrop != nil {
		t.Error("movers must be nil for empty input")
	}
}
