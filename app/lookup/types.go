package lookup

import (
	"encoding/json"

	"github.com/mkobayashi/jiten/app/common"
)

// InflectionHypothesis is one explanation of how a surface form maps
// to a lemma. Inflections are rule names, lemma-outward.
type InflectionHypothesis struct {
	Source      common.InflectionSource `json:"source"`
	Inflections []string                `json:"inflections"`
}

// TermSource records the exact slice of scanned text an entry
// answers. OriginalText is the untransformed input slice,
// TransformedText the variant that matched, DeinflectedText the lemma
// that was looked up.
type TermSource struct {
	OriginalText    string             `json:"originalText"`
	TransformedText string             `json:"transformedText"`
	DeinflectedText string             `json:"deinflectedText"`
	MatchType       common.MatchType   `json:"matchType"`
	MatchSource     common.MatchSource `json:"matchSource"`
	IsPrimary       bool               `json:"isPrimary"`
}

// TagGroup is the unexpanded form of tag provenance: which dictionary
// asserted which tag names.
type TagGroup struct {
	Dictionary string   `json:"dictionary"`
	TagNames   []string `json:"tagNames"`
}

// Tag is an expanded tag record. Content and Dictionaries accumulate
// when similar tags merge.
type Tag struct {
	Name         string             `json:"name"`
	Category     common.TagCategory `json:"category"`
	Order        int                `json:"order"`
	Score        int                `json:"score"`
	Content      []string           `json:"content,omitempty"`
	Dictionaries []string           `json:"dictionaries"`
	Redundant    bool               `json:"redundant"`
}

// TermHeadword is a (term, reading) pair with everything the scan
// learned about it.
type TermHeadword struct {
	Index       int          `json:"index"`
	Term        string       `json:"term"`
	Reading     string       `json:"reading"`
	Sources     []TermSource `json:"sources"`
	TagGroups   []TagGroup   `json:"tagGroups,omitempty"`
	Tags        []Tag        `json:"tags,omitempty"`
	WordClasses []string     `json:"wordClasses,omitempty"`
}

// TermDefinition is one dictionary's gloss block attached to a subset
// of an entry's headwords.
type TermDefinition struct {
	Index              int               `json:"index"`
	HeadwordIndices    []int             `json:"headwordIndices"`
	Dictionary         string            `json:"dictionary"`
	DictionaryIndex    int               `json:"dictionaryIndex"`
	DictionaryPriority int               `json:"dictionaryPriority"`
	ID                 int64             `json:"id"`
	Score              int               `json:"score"`
	FrequencyOrder     int               `json:"frequencyOrder"`
	Sequences          []int64           `json:"sequences"`
	IsPrimary          bool              `json:"isPrimary"`
	TagGroups          []TagGroup        `json:"tagGroups,omitempty"`
	Tags               []Tag             `json:"tags,omitempty"`
	Entries            []json.RawMessage `json:"entries"`
}

type PitchAccent struct {
	Position         int      `json:"position"`
	NasalPositions   []int    `json:"nasalPositions,omitempty"`
	DevoicePositions []int    `json:"devoicePositions,omitempty"`
	TagNames         []string `json:"tagNames,omitempty"`
	Tags             []Tag    `json:"tags,omitempty"`
}

type PhoneticTranscription struct {
	IPA      string   `json:"ipa"`
	TagNames []string `json:"tagNames,omitempty"`
	Tags     []Tag    `json:"tags,omitempty"`
}

type TermPronunciation struct {
	Index                  int                     `json:"index"`
	HeadwordIndex          int                     `json:"headwordIndex"`
	Dictionary             string                  `json:"dictionary"`
	DictionaryIndex        int                     `json:"dictionaryIndex"`
	DictionaryPriority     int                     `json:"dictionaryPriority"`
	Pitches                []PitchAccent           `json:"pitches,omitempty"`
	PhoneticTranscriptions []PhoneticTranscription `json:"phoneticTranscriptions,omitempty"`
}

type TermFrequency struct {
	Index              int    `json:"index"`
	HeadwordIndex      int    `json:"headwordIndex"`
	Dictionary         string `json:"dictionary"`
	DictionaryIndex    int    `json:"dictionaryIndex"`
	DictionaryPriority int    `json:"dictionaryPriority"`
	HasReading         bool   `json:"hasReading"`
	Frequency          int    `json:"frequency"`
	DisplayValue       string `json:"displayValue,omitempty"`
	DisplayValueParsed bool   `json:"displayValueParsed"`
}

// TermDictionaryEntry is the assembled, grouped unit returned by
// FindTerms.
type TermDictionaryEntry struct {
	IsPrimary                 bool                   `json:"isPrimary"`
	InflectionHypotheses      []InflectionHypothesis `json:"inflectionHypotheses"`
	Score                     int                    `json:"score"`
	FrequencyOrder            int                    `json:"frequencyOrder"`
	DictionaryIndex           int                    `json:"dictionaryIndex"`
	DictionaryPriority        int                    `json:"dictionaryPriority"`
	SourceTermExactMatchCount int                    `json:"sourceTermExactMatchCount"`
	MaxTransformedTextLength  int                    `json:"maxTransformedTextLength"`
	Headwords                 []TermHeadword         `json:"headwords"`
	Definitions               []TermDefinition       `json:"definitions"`
	Pronunciations            []TermPronunciation    `json:"pronunciations,omitempty"`
	Frequencies               []TermFrequency        `json:"frequencies,omitempty"`
}

// FindTermsResult pairs the entries with the scanned length.
// OriginalTextLength counts runes of the longest consumed slice of
// the input.
type FindTermsResult struct {
	Entries            []*TermDictionaryEntry `json:"entries"`
	OriginalTextLength int                    `json:"originalTextLength"`
}

// KanjiStat is one expanded statistic of a kanji entry.
type KanjiStat struct {
	Name     string             `json:"name"`
	Category common.TagCategory `json:"category"`
	Content  string             `json:"content,omitempty"`
	Order    int                `json:"order"`
	Score    int                `json:"score"`
	Value    string             `json:"value"`
}

type KanjiFrequency struct {
	Index              int    `json:"index"`
	Dictionary         string `json:"dictionary"`
	DictionaryIndex    int    `json:"dictionaryIndex"`
	DictionaryPriority int    `json:"dictionaryPriority"`
	Frequency          int    `json:"frequency"`
	DisplayValue       string `json:"displayValue,omitempty"`
	DisplayValueParsed bool   `json:"displayValueParsed"`
}

type KanjiDictionaryEntry struct {
	Character          string                 `json:"character"`
	Dictionary         string                 `json:"dictionary"`
	DictionaryIndex    int                    `json:"dictionaryIndex"`
	DictionaryPriority int                    `json:"dictionaryPriority"`
	Onyomi             []string               `json:"onyomi"`
	Kunyomi            []string               `json:"kunyomi"`
	Tags               []Tag                  `json:"tags,omitempty"`
	Stats              map[string][]KanjiStat `json:"stats,omitempty"`
	Definitions        []string               `json:"definitions"`
	Frequencies        []KanjiFrequency       `json:"frequencies,omitempty"`
}

// TermFrequencyResult is one row of GetTermFrequencies.
type TermFrequencyResult struct {
	Term               string `json:"term"`
	Reading            string `json:"reading,omitempty"`
	Dictionary         string `json:"dictionary"`
	HasReading         bool   `json:"hasReading"`
	Frequency          int    `json:"frequency"`
	DisplayValue       string `json:"displayValue,omitempty"`
	DisplayValueParsed bool   `json:"displayValueParsed"`
}
