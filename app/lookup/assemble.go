package lookup

import (
	"sort"

	"github.com/mkobayashi/jiten/app/dictdb"
)

// newTermEntry builds a single-headword, single-definition entry from
// one database hit and the candidate that produced it.
func newTermEntry(e dictdb.TermEntry, d *deinflection, isPrimary bool, opts *FindTermsOptions) *TermDictionaryEntry {
	reading := e.Reading
	if reading == "" {
		reading = e.Term
	}
	dictOpts := opts.dictionaryOptions(e.Dictionary)

	headword := TermHeadword{
		Index:   0,
		Term:    e.Term,
		Reading: reading,
		Sources: []TermSource{{
			OriginalText:    d.originalText,
			TransformedText: d.transformedText,
			DeinflectedText: d.deinflectedText,
			MatchType:       e.MatchType,
			MatchSource:     e.MatchSource,
			IsPrimary:       isPrimary,
		}},
		WordClasses: e.Rules,
	}
	if len(e.TermTags) > 0 {
		headword.TagGroups = []TagGroup{{Dictionary: e.Dictionary, TagNames: e.TermTags}}
	}

	definition := TermDefinition{
		Index:              0,
		HeadwordIndices:    []int{0},
		Dictionary:         e.Dictionary,
		DictionaryIndex:    dictOpts.Index,
		DictionaryPriority: dictOpts.Priority,
		ID:                 e.ID,
		Score:              e.Score,
		Sequences:          []int64{e.Sequence},
		IsPrimary:          isPrimary,
		Entries:            e.Glosses,
	}
	if len(e.DefinitionTags) > 0 {
		definition.TagGroups = []TagGroup{{Dictionary: e.Dictionary, TagNames: e.DefinitionTags}}
	}

	exactMatchCount := 0
	if isPrimary && d.deinflectedText == e.Term {
		exactMatchCount = 1
	}

	return &TermDictionaryEntry{
		IsPrimary:                 isPrimary,
		InflectionHypotheses:      d.hypotheses,
		Score:                     e.Score,
		DictionaryIndex:           dictOpts.Index,
		DictionaryPriority:        dictOpts.Priority,
		SourceTermExactMatchCount: exactMatchCount,
		MaxTransformedTextLength:  len([]rune(d.transformedText)),
		Headwords:                 []TermHeadword{headword},
		Definitions:               []TermDefinition{definition},
	}
}

// hypothesisEqual compares two hypotheses by their inflection name
// sets, ignoring order and multiplicity.
func hypothesisEqual(a, b InflectionHypothesis) bool {
	return nameSetKey(a.Inflections) == nameSetKey(b.Inflections)
}

func nameSetKey(names []string) string {
	if len(names) == 0 {
		return ""
	}
	sorted := make([]string, 0, len(names))
	seen := map[string]struct{}{}
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)
	key := sorted[0]
	for _, n := range sorted[1:] {
		key += "\x00" + n
	}
	return key
}

// hypothesesKey canonicalizes a whole hypothesis list, used as a
// grouping key component.
func hypothesesKey(hypotheses []InflectionHypothesis) string {
	keys := make([]string, len(hypotheses))
	for i, h := range hypotheses {
		keys[i] = nameSetKey(h.Inflections)
	}
	sort.Strings(keys)
	out := ""
	for _, k := range keys {
		out += k + "\x01"
	}
	return out
}

// mergeHypotheses adds the hypotheses of src into dst, joining the
// source lattice on collisions.
func mergeHypotheses(dst []InflectionHypothesis, src []InflectionHypothesis) []InflectionHypothesis {
	for _, h := range src {
		merged := false
		for i := range dst {
			if hypothesisEqual(dst[i], h) {
				dst[i].Source = dst[i].Source.Or(h.Source)
				merged = true
				break
			}
		}
		if !merged {
			dst = append(dst, h)
		}
	}
	return dst
}
