package lookup

import (
	"context"

	"github.com/mkobayashi/jiten/app/common"
	"github.com/mkobayashi/jiten/app/deinflect"
	"github.com/mkobayashi/jiten/app/dictdb"
)

// Translator is the lookup core: it scans text against the dictionary
// database and assembles display-ready entries.
type Translator struct {
	db          dictdb.Database
	deinflector *deinflect.Deinflector
	tagCache    *tagCache
}

func NewTranslator(db dictdb.Database, deinflector *deinflect.Deinflector) *Translator {
	return &Translator{
		db:          db,
		deinflector: deinflector,
		tagCache:    newTagCache(),
	}
}

// ClearDatabaseCaches drops memoised tag-bank lookups. Call after
// importing or deleting dictionaries.
func (t *Translator) ClearDatabaseCaches() {
	t.tagCache.flush()
}

// FindTerms scans text and returns dictionary entries combined
// according to mode, together with the rune length of the longest
// matched prefix of the original text.
func (t *Translator) FindTerms(ctx context.Context, mode FindTermsMode, text string, opts *FindTermsOptions) (*FindTermsResult, error) {
	if mode == ModeMerge && opts.MainDictionary == "" {
		return nil, common.NewInvalidOptionsError("merge mode requires a main dictionary")
	}

	candidates, err := t.findTermsInternal(ctx, text, opts)
	if err != nil {
		return nil, err
	}

	entries, originalTextLength := buildTermEntries(candidates, opts)

	if mode == ModeMerge {
		entries, err = t.mergeEntriesBySequence(ctx, entries, opts)
		if err != nil {
			return nil, err
		}
	} else {
		entries = groupEntriesByHeadword(entries)
	}

	if mode != ModeSimple {
		entries = excludeDictionaryDefinitions(entries, opts.ExcludeDictionaryDefinitions)
		if err := t.addTermMeta(ctx, entries, opts); err != nil {
			return nil, err
		}
		if err := t.expandTermTags(ctx, entries); err != nil {
			return nil, err
		}
		applyFrequencyOrder(entries, opts.SortFrequencyDictionary, opts.SortFrequencyDictionaryOrder)
	}

	sortTermEntries(entries)
	for _, entry := range entries {
		sortDefinitions(entry)
		if mode != ModeSimple {
			sortEntryMetadata(entry)
			flagRedundantPartOfSpeechTags(entry)
		}
	}

	return &FindTermsResult{
		Entries:            entries,
		OriginalTextLength: originalTextLength,
	}, nil
}

// buildTermEntries turns raw candidate hits into entries, collapsing
// repeat sightings of the same database row: a sighting with a shorter
// transformed text is dropped, one with an equal or longer text merges
// its hypothesis set and raises the recorded length. Every entry built
// here comes from the text scan, dictionary deinflections included, so
// all of them are primary.
func buildTermEntries(candidates []*deinflection, opts *FindTermsOptions) ([]*TermDictionaryEntry, int) {
	var entries []*TermDictionaryEntry
	byID := map[int64]*TermDictionaryEntry{}
	originalTextLength := 0

	for _, c := range candidates {
		if !c.isDictionaryDeinflection {
			if l := len([]rune(c.originalText)); l > originalTextLength {
				originalTextLength = l
			}
		}
		for _, hit := range c.entries {
			if isNonLemma(hit) {
				continue
			}
			existing, seen := byID[hit.ID]
			if !seen {
				entry := newTermEntry(hit, c, true, opts)
				byID[hit.ID] = entry
				entries = append(entries, entry)
				continue
			}
			length := len([]rune(c.transformedText))
			if length < existing.MaxTransformedTextLength {
				continue
			}
			existing.InflectionHypotheses = mergeHypotheses(existing.InflectionHypotheses, c.hypotheses)
			if length > existing.MaxTransformedTextLength {
				existing.MaxTransformedTextLength = length
			}
		}
	}
	return entries, originalTextLength
}
