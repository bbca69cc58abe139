package dictdb

import (
	"context"
	"encoding/json"

	"github.com/mkobayashi/jiten/app/common"
)

// TermEntry is one term-bank record as returned by the bulk queries.
// Index is the 0-based position of the input query this row answers;
// the same stored row may be returned once per matching input.
type TermEntry struct {
	ID      int64
	Index   int
	Term    string
	Reading string
	// DefinitionTags annotate the glosses, TermTags the headword.
	DefinitionTags []string
	TermTags       []string
	Rules          []string
	RuleMask       common.RuleMask
	Score          int
	// Glosses keeps the raw union-typed payloads (string, text,
	// image or structured-content objects) validated at import time.
	Glosses    []json.RawMessage
	Sequence   int64
	Dictionary string

	MatchType   common.MatchType
	MatchSource common.MatchSource

	// FormOf and InflectionHypotheses are set for non-lemma rows that
	// point back at their lemma.
	FormOf               string
	InflectionHypotheses [][]string
}

// MetaMode discriminates term/kanji metadata payloads.
type MetaMode string

const (
	MetaFreq  MetaMode = "freq"
	MetaPitch MetaMode = "pitch"
	MetaIPA   MetaMode = "ipa"
)

type TermMetaEntry struct {
	Index      int
	Term       string
	Mode       MetaMode
	Data       json.RawMessage
	Dictionary string
}

type KanjiEntry struct {
	Index      int
	Character  string
	Onyomi     []string
	Kunyomi    []string
	Tags       []string
	Meanings   []string
	Stats      map[string]string
	Dictionary string
}

type KanjiMetaEntry struct {
	Index      int
	Character  string
	Mode       MetaMode
	Data       json.RawMessage
	Dictionary string
}

// TagQuery asks one dictionary for one tag name.
type TagQuery struct {
	Query      string
	Dictionary string
}

type TagRecord struct {
	Name     string
	Category string
	Order    int
	Score    int
	Notes    string
}

type SequenceQuery struct {
	Query      int64
	Dictionary string
}

type TermReading struct {
	Term    string
	Reading string
}

// DictionaryInfo describes one installed dictionary.
type DictionaryInfo struct {
	Name            string `json:"name"`
	Title           string `json:"title"`
	Revision        string `json:"revision"`
	Format          int    `json:"format"`
	Language        string `json:"language"`
	DescriptionHTML string `json:"descriptionHtml,omitempty"`
}

// Database is the read side consumed by the lookup pipeline. All
// operations are bulk: results carry the index of the input they
// answer, and FindTagMetaBulk is index-parallel with nil for misses.
type Database interface {
	FindTermsBulk(ctx context.Context, terms []string, dictionaries []string, matchType common.MatchType) ([]TermEntry, error)
	FindTermsExactBulk(ctx context.Context, pairs []TermReading, dictionaries []string) ([]TermEntry, error)
	FindTermsBySequenceBulk(ctx context.Context, queries []SequenceQuery) ([]TermEntry, error)
	FindTermMetaBulk(ctx context.Context, terms []string, dictionaries []string) ([]TermMetaEntry, error)
	FindKanjiBulk(ctx context.Context, chars []string, dictionaries []string) ([]KanjiEntry, error)
	FindKanjiMetaBulk(ctx context.Context, chars []string, dictionaries []string) ([]KanjiMetaEntry, error)
	FindTagMetaBulk(ctx context.Context, queries []TagQuery) ([]*TagRecord, error)
	ListDictionaries(ctx context.Context) ([]DictionaryInfo, error)
}
