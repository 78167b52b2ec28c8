package scraper

import (
	"fmt"
	"sort"

	"emas-scraper/models"
)

// Source identifies one supported origin site.
type Source string

const (
	SourceAnekalogam Source = "anekalogam"
	SourceIndogold   Source = "indogold"
	SourceLogamMulia Source = "logammulia"
	SourcePegadaian  Source = "pegadaian"
)

// ErrUnsupportedSource is returned when a selector is not in the known set.
// It is reported before any network call is attempted.
var ErrUnsupportedSource = fmt.Errorf("unsupported source")

// Extractor parses one source's document shape into raw candidate fields.
// Extract returns the fields in page order plus the update timestamp the
// page asserts for this batch of prices ("" if the source publishes none).
// Rows and entries that fail to parse are skipped, never errors.
type Extractor interface {
	Source() Source
	URL() string
	Extract(body []byte) (fields []*models.RawField, publishedAt string, err error)
}

var registry = map[Source]Extractor{
	SourceAnekalogam: &tableExtractor{layout: anekalogamLayout},
	SourceIndogold:   &tableExtractor{layout: indogoldLayout},
	SourceLogamMulia: &tableExtractor{layout: logamMuliaLayout},
	SourcePegadaian:  &flatStateExtractor{},
}

// For returns the extractor registered for the given selector. Unknown
// selectors fail with ErrUnsupportedSource, wrapped with the known set so
// callers can report it.
func For(selector string) (Extractor, error) {
	ext, ok := registry[Source(selector)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnsupportedSource, selector, Known())
	}
	return ext, nil
}

// Known returns the list of supported source selectors, sorted.
func Known() []string {
	out := make([]string, 0, len(registry))
	for s := range registry {
		out = append(out, string(s))
	}
	sort.Strings(out)
	return out
}
