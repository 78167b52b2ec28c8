package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"emas-scraper/models"
)

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// RenderRSS builds an RSS 2.0 document for one run: one item per category,
// each carrying a human-readable price list with delta arrows.
func RenderRSS(res *models.ScrapeResult, deltas []*models.PriceWithDelta) ([]byte, error) {
	byCategory := make(map[string][]*models.PriceWithDelta)
	var order []string
	for _, d := range deltas {
		if _, ok := byCategory[d.Category]; !ok {
			order = append(order, d.Category)
		}
		byCategory[d.Category] = append(byCategory[d.Category], d)
	}

	items := make([]rssItem, 0, len(order))
	for _, category := range order {
		items = append(items, rssItem{
			Title:       fmt.Sprintf("Harga emas %s (%s)", category, res.Source),
			Link:        res.URL,
			GUID:        fmt.Sprintf("%s/%s/%s", res.Source, category, res.PublishedAt),
			PubDate:     res.ObservedAt.Format(time.RFC1123Z),
			Description: priceList(byCategory[category]),
		})
	}

	doc := rssDoc{
		Version: "2.0",
		Channel: rssChannel{
			Title:         fmt.Sprintf("Harga emas — %s", res.Source),
			Link:          res.URL,
			Description:   channelDescription(res),
			LastBuildDate: res.ObservedAt.Format(time.RFC1123Z),
			Items:         items,
		},
	}
	return marshalRSS(doc)
}

// RenderErrorRSS builds a well-formed RSS document describing a failed
// run, so feed readers get an annotated feed instead of a transport error.
func RenderErrorRSS(source string, runErr error) ([]byte, error) {
	now := time.Now()
	doc := rssDoc{
		Version: "2.0",
		Channel: rssChannel{
			Title:         fmt.Sprintf("Harga emas — %s", source),
			Description:   "Harga emas hari ini",
			LastBuildDate: now.Format(time.RFC1123Z),
			Items: []rssItem{{
				Title:       fmt.Sprintf("Gagal mengambil harga %s", source),
				PubDate:     now.Format(time.RFC1123Z),
				Description: runErr.Error(),
			}},
		},
	}
	return marshalRSS(doc)
}

func marshalRSS(doc rssDoc) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("rss: marshal: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

func channelDescription(res *models.ScrapeResult) string {
	if res.PublishedAt != "" {
		return fmt.Sprintf("Harga emas per %s", res.PublishedAt)
	}
	return "Harga emas hari ini"
}

// priceList renders one category's prices as a line-per-weight list with
// ▲/▼ arrows for the change against the prior snapshot.
func priceList(deltas []*models.PriceWithDelta) string {
	var b strings.Builder
	for i, d := range deltas {
		if i > 0 {
			b.WriteString("<br/>")
		}
		fmt.Fprintf(&b, "%s gram: jual %s%s", formatWeight(d.Weight),
			formatRupiah(d.SellPrice), arrow(d.SellChange))
		if d.BuyPrice > 0 {
			fmt.Fprintf(&b, " | beli %s%s", formatRupiah(d.BuyPrice), arrow(d.BuyChange))
		}
	}
	return b.String()
}

func arrow(change int64) string {
	switch {
	case change > 0:
		return fmt.Sprintf(" ▲%s", formatRupiah(change))
	case change < 0:
		return fmt.Sprintf(" ▼%s", formatRupiah(-change))
	default:
		return ""
	}
}

func formatWeight(w float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", w), "0"), ".")
}

// formatRupiah renders an amount with dot thousand separators, "Rp 1.000.000".
func formatRupiah(n int64) string {
	digits := fmt.Sprintf("%d", n)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	return "Rp " + strings.Join(groups, ".")
}
