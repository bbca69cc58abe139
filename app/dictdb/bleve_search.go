package dictdb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// GlossDoc is the bleve document indexed per term row: the headword
// fields as keywords plus the flattened gloss text.
type GlossDoc struct {
	Term       string `json:"term"`
	Reading    string `json:"reading"`
	Dictionary string `json:"dictionary"`
	GlossText  string `json:"gloss_text"`
}

// GlossHit is one full-text search result.
type GlossHit struct {
	Term       string  `json:"term"`
	Reading    string  `json:"reading"`
	Dictionary string  `json:"dictionary"`
	Score      float64 `json:"score"`
	Fragments  string  `json:"fragments,omitempty"`
}

// GlossIndex answers free-text queries over definition glosses. It is
// a sidecar of the SQLite store, populated by the importer.
type GlossIndex struct {
	idx bleve.Index
}

func glossIndexMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	keyword := bleve.NewKeywordFieldMapping()
	doc.AddFieldMappingsAt("term", keyword)
	doc.AddFieldMappingsAt("reading", keyword)
	doc.AddFieldMappingsAt("dictionary", keyword)
	doc.AddFieldMappingsAt("gloss_text", bleve.NewTextFieldMapping())

	im.DefaultMapping = doc
	return im
}

// OpenGlossIndex opens the index at path, creating it when absent.
func OpenGlossIndex(path string) (*GlossIndex, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		idx, err := bleve.New(path, glossIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create gloss index at %s: %w", path, err)
		}
		return &GlossIndex{idx: idx}, nil
	}
	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gloss index at %s: %w", path, err)
	}
	return &GlossIndex{idx: idx}, nil
}

// NewMemGlossIndex builds an in-memory index, used by tests and by
// imports targeting ephemeral stores.
func NewMemGlossIndex() (*GlossIndex, error) {
	idx, err := bleve.NewMemOnly(glossIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory gloss index: %w", err)
	}
	return &GlossIndex{idx: idx}, nil
}

func (g *GlossIndex) Close() error {
	return g.idx.Close()
}

// AddTerms indexes one batch of validated term-bank rows.
func (g *GlossIndex) AddTerms(dictName string, rows []TermBankRow) error {
	batch := g.idx.NewBatch()
	for i, row := range rows {
		doc := GlossDoc{
			Term:       row.Term,
			Reading:    row.Reading,
			Dictionary: dictName,
			GlossText:  flattenGlosses(row.Glosses),
		}
		id := fmt.Sprintf("%s:%s:%s:%d", dictName, row.Term, row.Reading, i)
		if err := batch.Index(id, &doc); err != nil {
			return err
		}
	}
	return g.idx.Batch(batch)
}

// Search runs a match query over the gloss text.
func (g *GlossIndex) Search(ctx context.Context, q string, limit int) ([]GlossHit, error) {
	if limit <= 0 {
		limit = 50
	}
	mq := bleve.NewMatchQuery(q)
	mq.SetField("gloss_text")

	searchRequest := bleve.NewSearchRequest(mq)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"term", "reading", "dictionary"}
	searchRequest.Highlight = bleve.NewHighlightWithStyle("html")

	searchResults, err := g.idx.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("gloss search failed: %w", err)
	}

	var hits []GlossHit
	for _, hit := range searchResults.Hits {
		h := GlossHit{Score: hit.Score}
		if v, ok := hit.Fields["term"].(string); ok {
			h.Term = v
		}
		if v, ok := hit.Fields["reading"].(string); ok {
			h.Reading = v
		}
		if v, ok := hit.Fields["dictionary"].(string); ok {
			h.Dictionary = v
		}
		if frags, ok := hit.Fragments["gloss_text"]; ok && len(frags) > 0 {
			h.Fragments = strings.Join(frags, " ... ")
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// flattenGlosses extracts the searchable text of the union-typed
// gloss payloads. Image and structured-content payloads contribute
// their text fields where present.
func flattenGlosses(glosses []json.RawMessage) string {
	var parts []string
	for _, raw := range glosses {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			parts = append(parts, s)
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			continue
		}
		parts = append(parts, structuredText(obj["text"])...)
		parts = append(parts, structuredText(obj["content"])...)
		parts = append(parts, structuredText(obj["description"])...)
	}
	return strings.Join(parts, " ")
}

func structuredText(node any) []string {
	switch v := node.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, structuredText(item)...)
		}
		return out
	case map[string]any:
		return structuredText(v["content"])
	}
	return nil
}
