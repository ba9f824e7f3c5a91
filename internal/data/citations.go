package data

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmespath-community/go-jmespath"

	"github.com/onco-dash/citewatch/internal/domain/model"
)

const (
	// DefaultCitationsExpr selects the stored citations array itself.
	DefaultCitationsExpr = "@"
	// DefaultCitationURLExpr reads the url field of one citation.
	DefaultCitationURLExpr = "url"
)

// CitationExtractorOptions configures NewCitationExtractor. Empty expressions use the defaults.
type CitationExtractorOptions struct {
	// CitationsExpr locates the ordered citations array in the stored JSON.
	CitationsExpr string
	// URLExpr is evaluated against each citation to read its URL.
	URLExpr string
}

// CitationExtractor narrows the loosely-typed citations JSON into ordered citations.
// Both expressions are compiled once and reused for every record.
type CitationExtractor struct {
	citations jmespath.JMESPath
	url       jmespath.JMESPath
}

// NewCitationExtractor compiles the citation expressions.
func NewCitationExtractor(opts CitationExtractorOptions) (*CitationExtractor, error) {
	citations, err := compileOr(opts.CitationsExpr, DefaultCitationsExpr)
	if err != nil {
		return nil, fmt.Errorf("compile citations expression: %w", err)
	}
	url, err := compileOr(opts.URLExpr, DefaultCitationURLExpr)
	if err != nil {
		return nil, fmt.Errorf("compile citation url expression: %w", err)
	}
	return &CitationExtractor{citations: citations, url: url}, nil
}

//nolint:ireturn // jmespath.JMESPath is the library's compiled-expression type.
func compileOr(expr, def string) (jmespath.JMESPath, error) {
	if expr = strings.TrimSpace(expr); expr == "" {
		expr = def
	}
	compiled, err := jmespath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", expr, err)
	}
	return compiled, nil
}

// Extract returns one citation per element of the citations array, in stored order.
// An element whose URL is missing, non-string or blank yields a Citation with an
// empty URL so later citations never shift into its position.
func (e *CitationExtractor) Extract(raw []byte) ([]model.Citation, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode citations: %w", err)
	}
	if doc == nil {
		return nil, nil
	}

	res, err := e.citations.Search(doc)
	if err != nil {
		return nil, fmt.Errorf("evaluate citations expression: %w", err)
	}
	items, ok := res.([]any)
	if !ok || len(items) == 0 {
		return nil, nil
	}

	out := make([]model.Citation, len(items))
	for i, item := range items {
		v, searchErr := e.url.Search(item)
		if searchErr != nil {
			return nil, fmt.Errorf("evaluate citation url expression at index %d: %w", i, searchErr)
		}
		if s, isString := v.(string); isString {
			out[i].URL = strings.TrimSpace(s)
		}
	}
	return out, nil
}
