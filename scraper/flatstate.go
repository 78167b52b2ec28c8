package scraper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"emas-scraper/models"
)

// The pegadaian page is client-rendered; its data rides in a serialized
// state blob embedded in a script tag. The blob holds a flat array of
// values where every distinct value appears once and anything referring to
// a value stores its integer position instead. Extraction walks a fixed
// chain of field names from the root entry down to the price entries,
// dereferencing positions along the way.
const (
	flatStateScriptSel = `script[type="qwik/json"]`
	// maxDerefDepth bounds reference chasing; the real payload never
	// chains more than two positions deep, longer chains are malformed.
	maxDerefDepth = 4
)

// stateChain is the field path from the root entry to the price entry array.
var stateChain = [...]string{"data", "goldPrice", "items"}

type flatState struct {
	Objs []any `json:"objs"`
}

type flatStateExtractor struct{}

func (e *flatStateExtractor) Source() Source { return SourcePegadaian }
func (e *flatStateExtractor) URL() string {
	return "https://www.pegadaian.co.id/harga-emas"
}

func (e *flatStateExtractor) Extract(body []byte) ([]*models.RawField, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("pegadaian: parse document: %w", err)
	}

	payload := doc.Find(flatStateScriptSel).First().Text()
	if strings.TrimSpace(payload) == "" {
		return nil, "", fmt.Errorf("pegadaian: no serialized state payload in document")
	}

	var state flatState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, "", fmt.Errorf("pegadaian: decode state payload: %w", err)
	}

	items, ok := walkChain(state.Objs)
	if !ok {
		return nil, "", nil
	}

	var fields []*models.RawField
	var publishedAt string
	for _, ref := range items {
		entry, ok := deref(state.Objs, ref)
		if !ok {
			continue
		}
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		denomination, ok := fieldString(state.Objs, m, "denomination")
		if !ok {
			continue
		}
		sell, ok := fieldString(state.Objs, m, "sellingPrice")
		if !ok {
			continue
		}
		// buyback, vendor and date are optional per entry
		buy, _ := fieldString(state.Objs, m, "buybackPrice")
		vendor, _ := fieldString(state.Objs, m, "vendorName")
		if date, ok := fieldString(state.Objs, m, "date"); ok && publishedAt == "" {
			publishedAt = collapseSpace(date)
		}

		fields = append(fields, &models.RawField{
			Source:     string(SourcePegadaian),
			Category:   vendorCategory(vendor),
			WeightText: collapseSpace(denomination),
			SellText:   collapseSpace(sell),
			BuyText:    collapseSpace(buy),
		})
	}

	return fields, publishedAt, nil
}

// walkChain follows stateChain from the root entry down to the slice of
// price entry references. Any broken link yields no items, not an error.
func walkChain(objs []any) ([]any, bool) {
	node, ok := resolveAt(objs, 0)
	if !ok {
		return nil, false
	}
	for _, name := range stateChain {
		m, isMap := node.(map[string]any)
		if !isMap {
			return nil, false
		}
		v, present := m[name]
		if !present {
			return nil, false
		}
		node, ok = deref(objs, v)
		if !ok {
			return nil, false
		}
	}
	items, isSlice := node.([]any)
	return items, isSlice
}

// resolveAt returns the value stored at position pos, transparently
// following references, or absent when pos is out of bounds or malformed.
func resolveAt(objs []any, pos int) (any, bool) {
	if pos < 0 || pos >= len(objs) {
		return nil, false
	}
	return deref(objs, objs[pos])
}

// deref follows position references until it lands on a literal. In this
// format a JSON number is always a reference and strings, objects and
// arrays are literals; anything else is malformed and resolves to absent.
// The chase is depth-bounded so a corrupted payload cannot loop.
func deref(objs []any, v any) (any, bool) {
	for i := 0; i < maxDerefDepth; i++ {
		switch t := v.(type) {
		case float64:
			if t != math.Trunc(t) || t < 0 || int(t) >= len(objs) {
				return nil, false
			}
			v = objs[int(t)]
		case string, map[string]any, []any:
			return v, true
		default:
			return nil, false
		}
	}
	return nil, false
}

// fieldString resolves a named entry field to its string literal.
func fieldString(objs []any, m map[string]any, name string) (string, bool) {
	v, present := m[name]
	if !present {
		return "", false
	}
	resolved, ok := deref(objs, v)
	if !ok {
		return "", false
	}
	s, isString := resolved.(string)
	return s, isString
}

// vendorCategories maps vendor-name substrings to categories; first match
// wins. Matching is case-insensitive.
var vendorCategories = []headingRule{
	{substr: "antam", category: "antam"},
	{substr: "ubs", category: "ubs"},
	{substr: "galeri", category: "galeri24"},
}

// vendorCategory classifies a price entry by its vendor name. Unknown
// vendors fall back to a slug of the name, empty names to "other".
func vendorCategory(vendor string) string {
	vendor = strings.TrimSpace(vendor)
	if vendor == "" {
		return "other"
	}
	lower := strings.ToLower(vendor)
	for _, rule := range vendorCategories {
		if strings.Contains(lower, rule.substr) {
			return rule.category
		}
	}
	return slugify(lower)
}

func slugify(s string) string {
	return strings.Join(strings.Fields(s), "-")
}
