package scraper

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"emas-scraper/models"
)

// tableLayout describes how one tabular source arranges its price tables.
type tableLayout struct {
	source       Source
	url          string
	tableSel     string
	timestampSel string
	// buyColumn is true when rows carry a third cell with a buyback price.
	buyColumn bool
	// headingCategories maps a substring of the nearest section heading to
	// a category. Empty means every row gets defaultCategory.
	headingCategories []headingRule
	defaultCategory   string
}

type headingRule struct {
	substr   string
	category string
}

var anekalogamLayout = tableLayout{
	source:          SourceAnekalogam,
	url:             "https://www.anekalogam.co.id/id",
	tableSel:        "table.lm-table",
	timestampSel:    ".last-update",
	buyColumn:       true,
	defaultCategory: "anekalogam",
}

var indogoldLayout = tableLayout{
	source:          SourceIndogold,
	url:             "https://www.indogold.id/harga-emas-hari-ini",
	tableSel:        "table.table-price",
	timestampSel:    ".update-time",
	buyColumn:       false,
	defaultCategory: "indogold",
}

var logamMuliaLayout = tableLayout{
	source:       SourceLogamMulia,
	url:          "https://www.logammulia.com/id/harga-emas-hari-ini",
	tableSel:     "table.gold-price",
	timestampSel: ".publish-date",
	buyColumn:    true,
	headingCategories: []headingRule{
		{substr: "certieye", category: "certieye"},
		{substr: "gift", category: "gift-series"},
	},
	defaultCategory: "antam",
}

// tableExtractor reads price rows out of marked HTML tables. The first
// cell is the weight token, the following one or two cells are price
// tokens. Header and decoration rows survive extraction and are dropped
// later by the normalizer.
type tableExtractor struct {
	layout tableLayout
}

func (e *tableExtractor) Source() Source { return e.layout.source }
func (e *tableExtractor) URL() string    { return e.layout.url }

func (e *tableExtractor) Extract(body []byte) ([]*models.RawField, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("%s: parse document: %w", e.layout.source, err)
	}

	var fields []*models.RawField
	doc.Find(e.layout.tableSel).Each(func(_ int, table *goquery.Selection) {
		category := e.categoryFor(table)

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 2 {
				return
			}

			field := &models.RawField{
				Source:     string(e.layout.source),
				Category:   category,
				WeightText: collapseSpace(cells.Eq(0).Text()),
				SellText:   collapseSpace(cells.Eq(1).Text()),
			}
			if e.layout.buyColumn && cells.Length() >= 3 {
				field.BuyText = collapseSpace(cells.Eq(2).Text())
			}
			fields = append(fields, field)
		})
	})

	publishedAt := collapseSpace(doc.Find(e.layout.timestampSel).First().Text())
	return fields, publishedAt, nil
}

// categoryFor classifies a table by the nearest section heading above it.
func (e *tableExtractor) categoryFor(table *goquery.Selection) string {
	if len(e.layout.headingCategories) == 0 {
		return e.layout.defaultCategory
	}

	heading := table.PrevAllFiltered("h2, h3").First()
	if heading.Length() == 0 {
		heading = table.Closest("section, div").Find("h2, h3").First()
	}

	text := strings.ToLower(collapseSpace(heading.Text()))
	for _, rule := range e.layout.headingCategories {
		if strings.Contains(text, rule.substr) {
			return rule.category
		}
	}
	return e.layout.defaultCategory
}

// collapseSpace trims a string and collapses internal whitespace runs.
func collapseSpace(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
