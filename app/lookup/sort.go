package lookup

import (
	"sort"

	"github.com/mkobayashi/jiten/app/common"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// sortTermEntries applies the multi-key total order over entries.
// Ties keep insertion order.
func sortTermEntries(entries []*TermDictionaryEntry) {
	collator := collate.New(language.Japanese)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.MaxTransformedTextLength != b.MaxTransformedTextLength {
			return a.MaxTransformedTextLength > b.MaxTransformedTextLength
		}
		if len(a.InflectionHypotheses) != len(b.InflectionHypotheses) {
			return len(a.InflectionHypotheses) < len(b.InflectionHypotheses)
		}
		if a.SourceTermExactMatchCount != b.SourceTermExactMatchCount {
			return a.SourceTermExactMatchCount > b.SourceTermExactMatchCount
		}
		if a.FrequencyOrder != b.FrequencyOrder {
			return a.FrequencyOrder < b.FrequencyOrder
		}
		if a.DictionaryPriority != b.DictionaryPriority {
			return a.DictionaryPriority > b.DictionaryPriority
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		at, bt := firstHeadwordTerm(a), firstHeadwordTerm(b)
		if la, lb := len([]rune(at)), len([]rune(bt)); la != lb {
			return la > lb
		}
		if cmp := collator.CompareString(at, bt); cmp != 0 {
			return cmp < 0
		}
		if len(a.Definitions) != len(b.Definitions) {
			return len(a.Definitions) > len(b.Definitions)
		}
		return a.DictionaryIndex < b.DictionaryIndex
	})
}

func firstHeadwordTerm(e *TermDictionaryEntry) string {
	if len(e.Headwords) == 0 {
		return ""
	}
	return e.Headwords[0].Term
}

// sortDefinitions orders one entry's definitions and reassigns their
// indices.
func sortDefinitions(entry *TermDictionaryEntry) {
	defs := entry.Definitions
	sort.SliceStable(defs, func(i, j int) bool {
		a, b := defs[i], defs[j]
		if a.FrequencyOrder != b.FrequencyOrder {
			return a.FrequencyOrder < b.FrequencyOrder
		}
		if a.DictionaryPriority != b.DictionaryPriority {
			return a.DictionaryPriority > b.DictionaryPriority
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if cmp := compareIntSlices(a.HeadwordIndices, b.HeadwordIndices); cmp != 0 {
			return cmp < 0
		}
		if a.DictionaryIndex != b.DictionaryIndex {
			return a.DictionaryIndex < b.DictionaryIndex
		}
		if sa, sb := tagScoreSum(a.Tags), tagScoreSum(b.Tags); sa != sb {
			return sa > sb
		}
		return a.Index < b.Index
	})
	for i := range defs {
		defs[i].Index = i
	}
}

func compareIntSlices(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func tagScoreSum(tags []Tag) int {
	sum := 0
	for _, t := range tags {
		sum += t.Score
	}
	return sum
}

// sortEntryMetadata orders pronunciation and frequency lists.
func sortEntryMetadata(entry *TermDictionaryEntry) {
	sort.SliceStable(entry.Pronunciations, func(i, j int) bool {
		a, b := entry.Pronunciations[i], entry.Pronunciations[j]
		if a.DictionaryPriority != b.DictionaryPriority {
			return a.DictionaryPriority > b.DictionaryPriority
		}
		if a.HeadwordIndex != b.HeadwordIndex {
			return a.HeadwordIndex < b.HeadwordIndex
		}
		if a.DictionaryIndex != b.DictionaryIndex {
			return a.DictionaryIndex < b.DictionaryIndex
		}
		return a.Index < b.Index
	})
	sort.SliceStable(entry.Frequencies, func(i, j int) bool {
		a, b := entry.Frequencies[i], entry.Frequencies[j]
		if a.DictionaryPriority != b.DictionaryPriority {
			return a.DictionaryPriority > b.DictionaryPriority
		}
		if a.HeadwordIndex != b.HeadwordIndex {
			return a.HeadwordIndex < b.HeadwordIndex
		}
		if a.DictionaryIndex != b.DictionaryIndex {
			return a.DictionaryIndex < b.DictionaryIndex
		}
		return a.Index < b.Index
	})
}

// flagRedundantPartOfSpeechTags marks repeated part-of-speech runs:
// within one entry, a definition whose part-of-speech tag names equal
// the preceding definition's (same dictionary) gets its tags flagged.
func flagRedundantPartOfSpeechTags(entry *TermDictionaryEntry) {
	previous := map[string]string{}
	for di := range entry.Definitions {
		def := &entry.Definitions[di]
		key := partOfSpeechKey(def.Tags)
		if prev, seen := previous[def.Dictionary]; seen && prev == key && key != "" {
			for ti := range def.Tags {
				if def.Tags[ti].Category == common.TagCategoryPartOfSpeech {
					def.Tags[ti].Redundant = true
				}
			}
		}
		previous[def.Dictionary] = key
	}
}

func partOfSpeechKey(tags []Tag) string {
	key := ""
	for _, t := range tags {
		if t.Category == common.TagCategoryPartOfSpeech {
			key += t.Name + "\x00"
		}
	}
	return key
}

// applyFrequencyOrder recomputes FrequencyOrder for entries and their
// definitions from the nominated sorting dictionary. Ascending order
// ranks by smallest frequency; descending by negated largest.
func applyFrequencyOrder(entries []*TermDictionaryEntry, dictionary string, order SortOrder) {
	if dictionary == "" {
		return
	}
	ascending := order != SortDescending
	for _, entry := range entries {
		perHeadword := map[int][]int{}
		for _, f := range entry.Frequencies {
			if f.Dictionary == dictionary {
				perHeadword[f.HeadwordIndex] = append(perHeadword[f.HeadwordIndex], f.Frequency)
			}
		}

		all := make([]int, 0)
		for _, fs := range perHeadword {
			all = append(all, fs...)
		}
		entry.FrequencyOrder = frequencyRank(all, ascending)

		for di := range entry.Definitions {
			def := &entry.Definitions[di]
			scoped := make([]int, 0)
			for _, hi := range def.HeadwordIndices {
				scoped = append(scoped, perHeadword[hi]...)
			}
			def.FrequencyOrder = frequencyRank(scoped, ascending)
		}
	}
}

func frequencyRank(frequencies []int, ascending bool) int {
	if len(frequencies) == 0 {
		if ascending {
			return maxIntSentinel
		}
		return 0
	}
	if ascending {
		min := frequencies[0]
		for _, f := range frequencies[1:] {
			if f < min {
				min = f
			}
		}
		return min
	}
	max := frequencies[0]
	for _, f := range frequencies[1:] {
		if f > max {
			max = f
		}
	}
	return -max
}

// excludeDictionaryDefinitions strips everything an excluded
// dictionary contributed. Entries left without definitions are
// dropped; headwords no definition references any more collapse away.
func excludeDictionaryDefinitions(entries []*TermDictionaryEntry, excluded map[string]struct{}) []*TermDictionaryEntry {
	if len(excluded) == 0 {
		return entries
	}
	out := entries[:0]
	for _, entry := range entries {
		defs := entry.Definitions[:0]
		for _, def := range entry.Definitions {
			if _, drop := excluded[def.Dictionary]; !drop {
				defs = append(defs, def)
			}
		}
		entry.Definitions = defs
		if len(entry.Definitions) == 0 {
			continue
		}

		prons := entry.Pronunciations[:0]
		for _, p := range entry.Pronunciations {
			if _, drop := excluded[p.Dictionary]; !drop {
				prons = append(prons, p)
			}
		}
		entry.Pronunciations = prons

		freqs := entry.Frequencies[:0]
		for _, f := range entry.Frequencies {
			if _, drop := excluded[f.Dictionary]; !drop {
				freqs = append(freqs, f)
			}
		}
		entry.Frequencies = freqs

		for hi := range entry.Headwords {
			hw := &entry.Headwords[hi]
			groups := hw.TagGroups[:0]
			for _, g := range hw.TagGroups {
				if _, drop := excluded[g.Dictionary]; !drop {
					groups = append(groups, g)
				}
			}
			hw.TagGroups = groups
		}

		collapseUnusedHeadwords(entry)
		out = append(out, entry)
	}
	return out
}

// collapseUnusedHeadwords removes headwords no definition references
// and renumbers everything that points at them.
func collapseUnusedHeadwords(entry *TermDictionaryEntry) {
	used := map[int]struct{}{}
	for _, def := range entry.Definitions {
		for _, hi := range def.HeadwordIndices {
			used[hi] = struct{}{}
		}
	}
	if len(used) == len(entry.Headwords) {
		return
	}

	remap := make([]int, len(entry.Headwords))
	kept := entry.Headwords[:0]
	for i := range entry.Headwords {
		if _, keep := used[i]; keep {
			remap[i] = len(kept)
			hw := entry.Headwords[i]
			hw.Index = len(kept)
			kept = append(kept, hw)
		} else {
			remap[i] = -1
		}
	}
	entry.Headwords = kept

	for di := range entry.Definitions {
		def := &entry.Definitions[di]
		indices := def.HeadwordIndices[:0]
		for _, hi := range def.HeadwordIndices {
			indices = append(indices, remap[hi])
		}
		sort.Ints(indices)
		def.HeadwordIndices = indices
	}

	prons := entry.Pronunciations[:0]
	for _, p := range entry.Pronunciations {
		if remap[p.HeadwordIndex] < 0 {
			continue
		}
		p.HeadwordIndex = remap[p.HeadwordIndex]
		prons = append(prons, p)
	}
	entry.Pronunciations = prons

	freqs := entry.Frequencies[:0]
	for _, f := range entry.Frequencies {
		if remap[f.HeadwordIndex] < 0 {
			continue
		}
		f.HeadwordIndex = remap[f.HeadwordIndex]
		freqs = append(freqs, f)
	}
	entry.Frequencies = freqs

	entry.SourceTermExactMatchCount = countSourceTermExactMatches(entry.Headwords)
}
