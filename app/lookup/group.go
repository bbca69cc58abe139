package lookup

import (
	"sort"
	"strings"

	"github.com/mkobayashi/jiten/app/common"
)

// groupEntriesByHeadword groups single-headword entries whose
// (term, reading, hypothesis name sets) coincide and folds each group
// into one entry.
func groupEntriesByHeadword(entries []*TermDictionaryEntry) []*TermDictionaryEntry {
	var order []string
	groups := map[string][]*TermDictionaryEntry{}
	for _, entry := range entries {
		hw := entry.Headwords[0]
		key := hw.Term + "\x00" + hw.Reading + "\x00" + hypothesesKey(entry.InflectionHypotheses)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], entry)
	}

	out := make([]*TermDictionaryEntry, 0, len(order))
	for _, key := range order {
		out = append(out, foldEntries(groups[key], false))
	}
	return out
}

// foldEntries merges a group of entries into one, sharing headwords
// keyed by (term, reading) and remapping definition headword indices.
// With checkDuplicateDefinitions, definitions carrying the same
// (dictionary, gloss payload) collapse into one.
func foldEntries(entries []*TermDictionaryEntry, checkDuplicateDefinitions bool) *TermDictionaryEntry {
	result := &TermDictionaryEntry{
		Score:           minIntSentinel,
		DictionaryIndex: maxIntSentinel,
	}

	headwordIndex := map[string]int{}
	definitionIndex := map[string]int{}

	var primaryHypotheses []InflectionHypothesis
	havePrimaryHypotheses := false

	for _, entry := range entries {
		indexMap := make([]int, len(entry.Headwords))
		for i, hw := range entry.Headwords {
			key := hw.Term + "\x00" + hw.Reading
			idx, exists := headwordIndex[key]
			if !exists {
				idx = len(result.Headwords)
				headwordIndex[key] = idx
				result.Headwords = append(result.Headwords, TermHeadword{
					Index:   idx,
					Term:    hw.Term,
					Reading: hw.Reading,
				})
			}
			indexMap[i] = idx
			target := &result.Headwords[idx]
			for _, src := range hw.Sources {
				if !containsSource(target.Sources, src) {
					target.Sources = append(target.Sources, src)
				}
			}
			target.TagGroups = mergeTagGroups(target.TagGroups, hw.TagGroups)
			target.WordClasses = appendUniqueStrings(target.WordClasses, hw.WordClasses)
		}

		if entry.Score > result.Score {
			result.Score = entry.Score
		}
		if entry.DictionaryIndex < result.DictionaryIndex {
			result.DictionaryIndex = entry.DictionaryIndex
		}
		if entry.DictionaryPriority > result.DictionaryPriority {
			result.DictionaryPriority = entry.DictionaryPriority
		}
		if entry.IsPrimary {
			result.IsPrimary = true
			if entry.MaxTransformedTextLength > result.MaxTransformedTextLength {
				result.MaxTransformedTextLength = entry.MaxTransformedTextLength
			}
			if !havePrimaryHypotheses || len(entry.InflectionHypotheses) < len(primaryHypotheses) {
				primaryHypotheses = entry.InflectionHypotheses
				havePrimaryHypotheses = true
			}
		}

		for _, def := range entry.Definitions {
			remapped := remapIndices(def.HeadwordIndices, indexMap)
			if checkDuplicateDefinitions {
				key := definitionKey(def)
				if existing, dup := definitionIndex[key]; dup {
					target := &result.Definitions[existing]
					target.Sequences = appendUniqueInt64s(target.Sequences, def.Sequences)
					target.TagGroups = mergeTagGroups(target.TagGroups, def.TagGroups)
					target.HeadwordIndices = unionSortedInts(target.HeadwordIndices, remapped)
					target.IsPrimary = target.IsPrimary || def.IsPrimary
					continue
				}
				definitionIndex[key] = len(result.Definitions)
			}
			clone := def
			clone.Index = len(result.Definitions)
			clone.HeadwordIndices = remapped
			clone.Sequences = append([]int64(nil), def.Sequences...)
			result.Definitions = append(result.Definitions, clone)
		}
	}

	result.InflectionHypotheses = primaryHypotheses
	if result.Score == minIntSentinel {
		result.Score = 0
	}
	if result.DictionaryIndex == maxIntSentinel {
		result.DictionaryIndex = 0
	}
	result.SourceTermExactMatchCount = countSourceTermExactMatches(result.Headwords)
	return result
}

const (
	maxIntSentinel = int(^uint(0) >> 1)
	minIntSentinel = -maxIntSentinel - 1
)

// countSourceTermExactMatches counts headwords with at least one
// primary source that matched on the term key.
func countSourceTermExactMatches(headwords []TermHeadword) int {
	count := 0
	for _, hw := range headwords {
		for _, src := range hw.Sources {
			if src.IsPrimary && src.MatchSource == common.MatchSourceTerm {
				count++
				break
			}
		}
	}
	return count
}

func definitionKey(def TermDefinition) string {
	var b strings.Builder
	b.WriteString(def.Dictionary)
	for _, e := range def.Entries {
		b.WriteByte(0)
		b.Write(e)
	}
	return b.String()
}

func containsSource(sources []TermSource, s TermSource) bool {
	for _, existing := range sources {
		if existing == s {
			return true
		}
	}
	return false
}

func mergeTagGroups(dst []TagGroup, src []TagGroup) []TagGroup {
	for _, group := range src {
		found := false
		for i := range dst {
			if dst[i].Dictionary == group.Dictionary {
				dst[i].TagNames = appendUniqueStrings(dst[i].TagNames, group.TagNames)
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, TagGroup{
				Dictionary: group.Dictionary,
				TagNames:   append([]string(nil), group.TagNames...),
			})
		}
	}
	return dst
}

func appendUniqueStrings(dst []string, src []string) []string {
	for _, s := range src {
		found := false
		for _, existing := range dst {
			if existing == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}

func appendUniqueInt64s(dst []int64, src []int64) []int64 {
	for _, v := range src {
		found := false
		for _, existing := range dst {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

func remapIndices(indices []int, indexMap []int) []int {
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		out = append(out, indexMap[idx])
	}
	sort.Ints(out)
	return dedupeSortedInts(out)
}

func unionSortedInts(a, b []int) []int {
	out := append(append([]int(nil), a...), b...)
	sort.Ints(out)
	return dedupeSortedInts(out)
}

func dedupeSortedInts(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
