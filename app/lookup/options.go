package lookup

import (
	"github.com/mkobayashi/jiten/app/common"
	"github.com/mkobayashi/jiten/app/transform"
)

// FindTermsMode selects how raw hits are combined into entries.
type FindTermsMode string

const (
	ModeGroup  FindTermsMode = "group"
	ModeMerge  FindTermsMode = "merge"
	ModeSplit  FindTermsMode = "split"
	ModeSimple FindTermsMode = "simple"
)

type SortOrder string

const (
	SortAscending  SortOrder = "ascending"
	SortDescending SortOrder = "descending"
)

// DictionaryOptions configures one enabled dictionary for a lookup.
// Index is its position in the user's dictionary list, Priority the
// user-assigned weight.
type DictionaryOptions struct {
	Index                  int  `json:"index"`
	Priority               int  `json:"priority"`
	AllowSecondarySearches bool `json:"allowSecondarySearches"`
}

// FindTermsOptions carries everything a single find-terms call needs
// beyond mode and text.
type FindTermsOptions struct {
	Language             common.Language
	MatchType            common.MatchType
	EnabledDictionaryMap map[string]DictionaryOptions
	// DictionaryOrder fixes the iteration order of the enabled map;
	// entries absent from EnabledDictionaryMap are ignored.
	DictionaryOrder []string
	// MainDictionary is consulted only in merge mode.
	MainDictionary string

	Deinflect             bool
	DeinflectionSource    common.InflectionSource
	DeinflectionPosFilter bool

	TextReplacements            []transform.TextReplacement
	CollapseEmphaticSequences   transform.EmphaticMode
	TextTransformations         map[string]transform.TriState
	RemoveNonJapaneseCharacters bool
	SearchResolution            common.SearchResolution

	SortFrequencyDictionary      string
	SortFrequencyDictionaryOrder SortOrder
	ExcludeDictionaryDefinitions map[string]struct{}
}

func (o *FindTermsOptions) enabledDictionaries() []string {
	names := make([]string, 0, len(o.EnabledDictionaryMap))
	if len(o.DictionaryOrder) > 0 {
		for _, name := range o.DictionaryOrder {
			if _, ok := o.EnabledDictionaryMap[name]; ok {
				names = append(names, name)
			}
		}
		return names
	}
	for name := range o.EnabledDictionaryMap {
		names = append(names, name)
	}
	return names
}

func (o *FindTermsOptions) dictionaryOptions(name string) DictionaryOptions {
	return o.EnabledDictionaryMap[name]
}

type FindKanjiOptions struct {
	EnabledDictionaryMap map[string]DictionaryOptions
	DictionaryOrder      []string
}

func (o *FindKanjiOptions) dictionaryOptions(name string) DictionaryOptions {
	return o.EnabledDictionaryMap[name]
}

func (o *FindKanjiOptions) enabledDictionaries() []string {
	names := make([]string, 0, len(o.EnabledDictionaryMap))
	if len(o.DictionaryOrder) > 0 {
		for _, name := range o.DictionaryOrder {
			if _, ok := o.EnabledDictionaryMap[name]; ok {
				names = append(names, name)
			}
		}
		return names
	}
	for name := range o.EnabledDictionaryMap {
		names = append(names, name)
	}
	return names
}
