package lookup

import (
	"context"

	"github.com/mkobayashi/jiten/app/common"
	"github.com/mkobayashi/jiten/app/dictdb"
	"github.com/mkobayashi/jiten/app/transform"
)

// deinflection is one candidate lemma for a slice of the scanned
// text, together with the database hits attached to it.
type deinflection struct {
	originalText    string
	transformedText string
	deinflectedText string
	ruleMask        common.RuleMask
	hypotheses      []InflectionHypothesis

	isDictionaryDeinflection bool
	entries                  []dictdb.TermEntry
}

// findTermsInternal runs steps 1–5 of the scan: variant generation,
// prefix descent, deinflection, bulk lookup and dictionary-sourced
// deinflection. It returns candidates that have at least one hit.
func (t *Translator) findTermsInternal(ctx context.Context, text string, opts *FindTermsOptions) ([]*deinflection, error) {
	if opts.RemoveNonJapaneseCharacters && opts.Language == common.Japanese {
		text = common.TruncateNonJapanese(text)
	}
	if text == "" {
		return nil, nil
	}

	candidates, err := t.algorithmDeinflections(text, opts)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	enabled := opts.enabledDictionaries()
	if err := t.attachEntries(ctx, candidates, enabled, opts); err != nil {
		return nil, err
	}

	if opts.DeinflectionSource != common.InflectionSourceAlgorithm {
		dictCandidates, err := t.dictionaryDeinflections(ctx, candidates, enabled, opts)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, dictCandidates...)
	}

	withHits := candidates[:0]
	for _, c := range candidates {
		if len(c.entries) > 0 {
			withHits = append(withHits, c)
		}
	}
	return withHits, nil
}

// algorithmDeinflections enumerates text variants and shrinking
// prefixes, deinflecting each unseen prefix.
func (t *Translator) algorithmDeinflections(text string, opts *FindTermsOptions) ([]*deinflection, error) {
	it, err := transform.NewVariantIterator(text, transform.VariantOptions{
		Language:                  opts.Language,
		TextReplacements:          opts.TextReplacements,
		CollapseEmphaticSequences: opts.CollapseEmphaticSequences,
		TextTransformations:       opts.TextTransformations,
	})
	if err != nil {
		return nil, err
	}

	origRunes := []rune(text)
	used := map[string]struct{}{}
	var candidates []*deinflection

	for {
		variant, ok := it.Next()
		if !ok {
			break
		}
		runes := []rune(variant.Text)
		for i := len(runes); i > 0; i = nextSubstringLength(runes, i, opts.SearchResolution) {
			source := string(runes[:i])
			if _, dup := used[source]; dup {
				continue
			}
			used[source] = struct{}{}

			origLen := variant.Map.OriginalLength(i)
			if origLen > len(origRunes) {
				origLen = len(origRunes)
			}
			rawSource := string(origRunes[:origLen])

			if opts.Deinflect && opts.DeinflectionSource != common.InflectionSourceDictionary {
				for _, r := range t.deinflector.Deinflect(source) {
					var hypotheses []InflectionHypothesis
					if len(r.Reasons) > 0 {
						hypotheses = []InflectionHypothesis{{
							Source:      common.InflectionSourceAlgorithm,
							Inflections: r.Reasons,
						}}
					}
					candidates = append(candidates, &deinflection{
						originalText:    rawSource,
						transformedText: source,
						deinflectedText: r.Term,
						ruleMask:        r.Rules,
						hypotheses:      hypotheses,
					})
				}
			} else {
				candidates = append(candidates, &deinflection{
					originalText:    rawSource,
					transformedText: source,
					deinflectedText: source,
				})
			}
		}
	}
	return candidates, nil
}

// nextSubstringLength shrinks the scanned prefix. Word resolution
// drops the whole trailing letter run instead of one rune; when the
// prefix ends in a non-letter rune, or the run covers the whole
// prefix, it drops one rune as letter resolution does.
func nextSubstringLength(runes []rune, i int, resolution common.SearchResolution) int {
	if resolution != common.ResolutionWord {
		return i - 1
	}
	j := i
	for j > 0 && common.IsLetterLike(runes[j-1]) {
		j--
	}
	if j == i || j == 0 {
		return i - 1
	}
	return j
}

// attachEntries bulk-looks-up all unique candidate lemmas and
// attaches each hit to every candidate it answers, subject to the
// part-of-speech fit test.
func (t *Translator) attachEntries(ctx context.Context, candidates []*deinflection, enabled []string, opts *FindTermsOptions) error {
	uniqueTerms := make([]string, 0, len(candidates))
	byTerm := map[string][]*deinflection{}
	for _, c := range candidates {
		if _, seen := byTerm[c.deinflectedText]; !seen {
			uniqueTerms = append(uniqueTerms, c.deinflectedText)
		}
		byTerm[c.deinflectedText] = append(byTerm[c.deinflectedText], c)
	}

	matchType := opts.MatchType
	if matchType == "" {
		matchType = common.MatchExact
	}
	entries, err := t.db.FindTermsBulk(ctx, uniqueTerms, enabled, matchType)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		for _, c := range byTerm[uniqueTerms[entry.Index]] {
			if opts.DeinflectionPosFilter && !c.ruleMask.Fits(entry.RuleMask) {
				continue
			}
			c.entries = append(c.entries, entry)
		}
	}
	return nil
}

// dictionaryDeinflections follows non-lemma hits to the lemmas their
// dictionaries declare, cross-multiplying the hypothesis sets.
func (t *Translator) dictionaryDeinflections(ctx context.Context, candidates []*deinflection, enabled []string, opts *FindTermsOptions) ([]*deinflection, error) {
	var synthesized []*deinflection
	for _, c := range candidates {
		for _, entry := range c.entries {
			if !isNonLemma(entry) || entry.FormOf == "" {
				continue
			}
			dictChains := entry.InflectionHypotheses
			if len(dictChains) == 0 {
				dictChains = [][]string{nil}
			}
			var hypotheses []InflectionHypothesis
			algHypotheses := c.hypotheses
			if len(algHypotheses) == 0 {
				algHypotheses = []InflectionHypothesis{{}}
			}
			for _, chain := range dictChains {
				for _, alg := range algHypotheses {
					source := common.InflectionSourceDictionary
					if len(alg.Inflections) > 0 {
						source = source.Or(common.InflectionSourceAlgorithm)
					}
					inflections := make([]string, 0, len(chain)+len(alg.Inflections))
					inflections = append(inflections, chain...)
					inflections = append(inflections, alg.Inflections...)
					hypotheses = append(hypotheses, InflectionHypothesis{
						Source:      source,
						Inflections: inflections,
					})
				}
			}
			synthesized = append(synthesized, &deinflection{
				originalText:             c.originalText,
				transformedText:          c.transformedText,
				deinflectedText:          entry.FormOf,
				hypotheses:               hypotheses,
				isDictionaryDeinflection: true,
			})
		}
	}
	if len(synthesized) == 0 {
		return nil, nil
	}

	uniqueTerms := make([]string, 0, len(synthesized))
	byTerm := map[string][]*deinflection{}
	for _, c := range synthesized {
		if _, seen := byTerm[c.deinflectedText]; !seen {
			uniqueTerms = append(uniqueTerms, c.deinflectedText)
		}
		byTerm[c.deinflectedText] = append(byTerm[c.deinflectedText], c)
	}

	entries, err := t.db.FindTermsBulk(ctx, uniqueTerms, enabled, common.MatchExact)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if isNonLemma(entry) {
			continue
		}
		for _, c := range byTerm[uniqueTerms[entry.Index]] {
			c.entries = append(c.entries, entry)
		}
	}
	return synthesized, nil
}

// isNonLemma reports whether a database entry is a dictionary-declared
// inflected form pointing at its lemma.
func isNonLemma(entry dictdb.TermEntry) bool {
	for _, tag := range entry.DefinitionTags {
		if tag == "non-lemma" {
			return true
		}
	}
	return false
}
