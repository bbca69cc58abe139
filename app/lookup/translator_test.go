package lookup

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkobayashi/jiten/app/common"
	"github.com/mkobayashi/jiten/app/deinflect"
	"github.com/mkobayashi/jiten/app/dictdb"
	"github.com/mkobayashi/jiten/app/transform"
)

// fakeDatabase is an in-memory Database for pipeline tests. Matching
// mirrors the store contract: one result per matching input index,
// term matches preferred over reading matches.
type fakeDatabase struct {
	terms     []fakeTermRow
	termMeta  []fakeMetaRow
	kanji     []dictdb.KanjiEntry
	kanjiMeta []fakeMetaRow
	tags      map[string]*dictdb.TagRecord

	tagQueries int
}

type fakeTermRow struct {
	id         int64
	term       string
	reading    string
	defTags    []string
	termTags   []string
	rules      []string
	score      int
	glosses    []string
	sequence   int64
	dictionary string
	formOf     string
	hypotheses [][]string
}

type fakeMetaRow struct {
	key        string
	mode       dictdb.MetaMode
	data       string
	dictionary string
}

var _ dictdb.Database = &fakeDatabase{}

func (f *fakeDatabase) entryFor(row fakeTermRow, index int, matchType common.MatchType, source common.MatchSource) dictdb.TermEntry {
	glosses := make([]json.RawMessage, len(row.glosses))
	for i, g := range row.glosses {
		raw, _ := json.Marshal(g)
		glosses[i] = raw
	}
	return dictdb.TermEntry{
		ID:                   row.id,
		Index:                index,
		Term:                 row.term,
		Reading:              row.reading,
		DefinitionTags:       row.defTags,
		TermTags:             row.termTags,
		Rules:                row.rules,
		RuleMask:             common.ParseRuleNames(row.rules),
		Score:                row.score,
		Glosses:              glosses,
		Sequence:             row.sequence,
		Dictionary:           row.dictionary,
		MatchType:            matchType,
		MatchSource:          source,
		FormOf:               row.formOf,
		InflectionHypotheses: row.hypotheses,
	}
}

func dictEnabled(dictionaries []string, name string) bool {
	for _, d := range dictionaries {
		if d == name {
			return true
		}
	}
	return false
}

func (f *fakeDatabase) FindTermsBulk(_ context.Context, terms []string, dictionaries []string, matchType common.MatchType) ([]dictdb.TermEntry, error) {
	var out []dictdb.TermEntry
	for i, term := range terms {
		for _, row := range f.terms {
			if !dictEnabled(dictionaries, row.dictionary) {
				continue
			}
			switch {
			case row.term == term:
				out = append(out, f.entryFor(row, i, matchType, common.MatchSourceTerm))
			case row.reading == term:
				out = append(out, f.entryFor(row, i, matchType, common.MatchSourceReading))
			}
		}
	}
	return out, nil
}

func (f *fakeDatabase) FindTermsExactBulk(_ context.Context, pairs []dictdb.TermReading, dictionaries []string) ([]dictdb.TermEntry, error) {
	var out []dictdb.TermEntry
	for i, pair := range pairs {
		for _, row := range f.terms {
			if dictEnabled(dictionaries, row.dictionary) && row.term == pair.Term && row.reading == pair.Reading {
				out = append(out, f.entryFor(row, i, common.MatchExact, common.MatchSourceTerm))
			}
		}
	}
	return out, nil
}

func (f *fakeDatabase) FindTermsBySequenceBulk(_ context.Context, queries []dictdb.SequenceQuery) ([]dictdb.TermEntry, error) {
	var out []dictdb.TermEntry
	for i, q := range queries {
		for _, row := range f.terms {
			if row.dictionary == q.Dictionary && row.sequence == q.Query {
				out = append(out, f.entryFor(row, i, common.MatchExact, common.MatchSourceTerm))
			}
		}
	}
	return out, nil
}

func (f *fakeDatabase) FindTermMetaBulk(_ context.Context, terms []string, dictionaries []string) ([]dictdb.TermMetaEntry, error) {
	var out []dictdb.TermMetaEntry
	for i, term := range terms {
		for _, row := range f.termMeta {
			if row.key == term && dictEnabled(dictionaries, row.dictionary) {
				out = append(out, dictdb.TermMetaEntry{
					Index:      i,
					Term:       term,
					Mode:       row.mode,
					Data:       json.RawMessage(row.data),
					Dictionary: row.dictionary,
				})
			}
		}
	}
	return out, nil
}

func (f *fakeDatabase) FindKanjiBulk(_ context.Context, chars []string, dictionaries []string) ([]dictdb.KanjiEntry, error) {
	var out []dictdb.KanjiEntry
	for i, c := range chars {
		for _, row := range f.kanji {
			if row.Character == c && dictEnabled(dictionaries, row.Dictionary) {
				row.Index = i
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (f *fakeDatabase) FindKanjiMetaBulk(_ context.Context, chars []string, dictionaries []string) ([]dictdb.KanjiMetaEntry, error) {
	var out []dictdb.KanjiMetaEntry
	for i, c := range chars {
		for _, row := range f.kanjiMeta {
			if row.key == c && dictEnabled(dictionaries, row.dictionary) {
				out = append(out, dictdb.KanjiMetaEntry{
					Index:      i,
					Character:  c,
					Mode:       row.mode,
					Data:       json.RawMessage(row.data),
					Dictionary: row.dictionary,
				})
			}
		}
	}
	return out, nil
}

func (f *fakeDatabase) FindTagMetaBulk(_ context.Context, queries []dictdb.TagQuery) ([]*dictdb.TagRecord, error) {
	f.tagQueries += len(queries)
	out := make([]*dictdb.TagRecord, len(queries))
	for i, q := range queries {
		out[i] = f.tags[q.Dictionary+"\x00"+q.Query]
	}
	return out, nil
}

func (f *fakeDatabase) ListDictionaries(_ context.Context) ([]dictdb.DictionaryInfo, error) {
	return nil, nil
}

func newTestTranslator(t *testing.T, db *fakeDatabase) *Translator {
	t.Helper()
	d, err := deinflect.NewJapaneseDeinflector()
	require.NoError(t, err)
	return NewTranslator(db, d)
}

func defaultOptions(dictionaries ...string) *FindTermsOptions {
	opts := &FindTermsOptions{
		Language:             common.Japanese,
		EnabledDictionaryMap: map[string]DictionaryOptions{},
		DictionaryOrder:      dictionaries,
		Deinflect:            true,
		SearchResolution:     common.ResolutionLetter,
	}
	for i, name := range dictionaries {
		opts.EnabledDictionaryMap[name] = DictionaryOptions{Index: i}
	}
	return opts
}

func TestFindTermsDeinflectsToLemma(t *testing.T) {
	db := &fakeDatabase{terms: []fakeTermRow{
		{id: 1, term: "食べる", reading: "たべる", rules: []string{"v1"}, score: 10, glosses: []string{"to eat"}, sequence: 42, dictionary: "jmdict"},
	}}
	tr := newTestTranslator(t, db)

	result, err := tr.FindTerms(context.Background(), ModeGroup, "食べた", defaultOptions("jmdict"))
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)

	entry := result.Entries[0]
	assert.Equal(t, 3, result.OriginalTextLength)
	assert.Equal(t, 3, entry.MaxTransformedTextLength)
	require.Len(t, entry.Headwords, 1)
	assert.Equal(t, "食べる", entry.Headwords[0].Term)
	assert.Equal(t, "たべる", entry.Headwords[0].Reading)
	require.Len(t, entry.InflectionHypotheses, 1)
	assert.Equal(t, common.InflectionSourceAlgorithm, entry.InflectionHypotheses[0].Source)
	assert.Equal(t, []string{"past"}, entry.InflectionHypotheses[0].Inflections)
	require.Len(t, entry.Definitions, 1)
	assert.JSONEq(t, `"to eat"`, string(entry.Definitions[0].Entries[0]))
}

func TestFindTermsMatchesByReading(t *testing.T) {
	db := &fakeDatabase{terms: []fakeTermRow{
		{id: 1, term: "食べる", reading: "たべる", rules: []string{"v1"}, glosses: []string{"to eat"}, dictionary: "jmdict"},
	}}
	tr := newTestTranslator(t, db)

	result, err := tr.FindTerms(context.Background(), ModeGroup, "たべた", defaultOptions("jmdict"))
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	hw := result.Entries[0].Headwords[0]
	require.Len(t, hw.Sources, 1)
	assert.Equal(t, common.MatchSourceReading, hw.Sources[0].MatchSource)
	assert.Equal(t, 0, result.Entries[0].SourceTermExactMatchCount)
}

func TestFindTermsLongestPrefixWins(t *testing.T) {
	db := &fakeDatabase{terms: []fakeTermRow{
		{id: 1, term: "学校", reading: "がっこう", glosses: []string{"school"}, dictionary: "jmdict"},
		{id: 2, term: "学", reading: "がく", glosses: []string{"learning"}, dictionary: "jmdict"},
	}}
	tr := newTestTranslator(t, db)

	result, err := tr.FindTerms(context.Background(), ModeGroup, "学校に行く", defaultOptions("jmdict"))
	require.NoError(t, err)
	require.NotEmpty(t, result.Entries)
	assert.Equal(t, 2, result.OriginalTextLength)
	assert.Equal(t, "学校", result.Entries[0].Headwords[0].Term)
	assert.Greater(t, result.Entries[0].MaxTransformedTextLength, result.Entries[1].MaxTransformedTextLength)
}

func TestFindTermsRepeatSightingsCollapseByID(t *testing.T) {
	db := &fakeDatabase{terms: []fakeTermRow{
		{id: 1, term: "食べる", reading: "たべる", rules: []string{"v1"}, glosses: []string{"to eat"}, dictionary: "jmdict"},
	}}
	tr := newTestTranslator(t, db)

	// 食べさせられた and its shorter scan prefixes reach the same row
	// through different deinflection chains.
	result, err := tr.FindTerms(context.Background(), ModeGroup, "食べさせられた", defaultOptions("jmdict"))
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, 7, result.Entries[0].MaxTransformedTextLength)
}

func TestFindTermsMergeModeRequiresMainDictionary(t *testing.T) {
	tr := newTestTranslator(t, &fakeDatabase{})
	_, err := tr.FindTerms(context.Background(), ModeMerge, "食べた", defaultOptions("jmdict"))
	require.Error(t, err)
	var optErr *common.InvalidOptionsError
	assert.ErrorAs(t, err, &optErr)
}

func TestFindTermsMergeBySequence(t *testing.T) {
	db := &fakeDatabase{terms: []fakeTermRow{
		{id: 1, term: "食べる", reading: "たべる", rules: []string{"v1"}, score: 5, glosses: []string{"to eat"}, sequence: 42, dictionary: "jmdict"},
		{id: 2, term: "食う", reading: "くう", rules: []string{"v5"}, score: 3, glosses: []string{"to eat (vulgar)"}, sequence: 42, dictionary: "jmdict"},
		{id: 3, term: "食べる", reading: "たべる", score: 1, glosses: []string{"eat: secondary note"}, sequence: -1, dictionary: "notes"},
	}}
	tr := newTestTranslator(t, db)

	opts := defaultOptions("jmdict", "notes")
	opts.MainDictionary = "jmdict"
	sec := opts.EnabledDictionaryMap["notes"]
	sec.AllowSecondarySearches = true
	opts.EnabledDictionaryMap["notes"] = sec

	result, err := tr.FindTerms(context.Background(), ModeMerge, "食べる", opts)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)

	entry := result.Entries[0]
	headwords := map[string]bool{}
	for _, hw := range entry.Headwords {
		headwords[hw.Term] = true
	}
	assert.True(t, headwords["食べる"])
	assert.True(t, headwords["食う"], "sequence family member should join the group")
	require.Len(t, entry.Definitions, 3)

	seenDicts := map[string]bool{}
	for _, def := range entry.Definitions {
		seenDicts[def.Dictionary] = true
	}
	assert.True(t, seenDicts["notes"], "matching-headword entry should be absorbed into the group")
}

func TestFindTermsDictionaryDeinflection(t *testing.T) {
	db := &fakeDatabase{terms: []fakeTermRow{
		{id: 1, term: "better", reading: "better", defTags: []string{"non-lemma"}, glosses: []string{"comparative of good"}, sequence: -1, dictionary: "endict", formOf: "good", hypotheses: [][]string{{"comparative"}}},
		{id: 2, term: "good", reading: "good", glosses: []string{"of high quality"}, sequence: -1, dictionary: "endict"},
	}}
	tr := newTestTranslator(t, db)

	opts := defaultOptions("endict")
	opts.Language = common.English
	opts.SearchResolution = common.ResolutionWord

	result, err := tr.FindTerms(context.Background(), ModeGroup, "better", opts)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)

	entry := result.Entries[0]
	assert.Equal(t, "good", entry.Headwords[0].Term)
	require.NotEmpty(t, entry.InflectionHypotheses)
	hyp := entry.InflectionHypotheses[0]
	assert.Equal(t, common.InflectionSourceDictionary, hyp.Source)
	assert.Equal(t, []string{"comparative"}, hyp.Inflections)
}

func TestFindTermsExcludedDictionaryDropsEntries(t *testing.T) {
	db := &fakeDatabase{terms: []fakeTermRow{
		{id: 1, term: "学校", reading: "がっこう", glosses: []string{"school"}, dictionary: "jmdict"},
		{id: 2, term: "学校", reading: "がっこう", glosses: []string{"Schule"}, dictionary: "dedict"},
	}}
	tr := newTestTranslator(t, db)

	opts := defaultOptions("jmdict", "dedict")
	opts.ExcludeDictionaryDefinitions = map[string]struct{}{"dedict": {}}

	result, err := tr.FindTerms(context.Background(), ModeGroup, "学校", opts)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	for _, def := range result.Entries[0].Definitions {
		assert.NotEqual(t, "dedict", def.Dictionary)
	}
}

func TestFindTermsAttachesFrequencyAndPitch(t *testing.T) {
	db := &fakeDatabase{
		terms: []fakeTermRow{
			{id: 1, term: "学校", reading: "がっこう", glosses: []string{"school"}, dictionary: "jmdict"},
		},
		termMeta: []fakeMetaRow{
			{key: "学校", mode: dictdb.MetaFreq, data: `{"reading":"がっこう","frequency":275}`, dictionary: "freqdict"},
			{key: "学校", mode: dictdb.MetaPitch, data: `{"reading":"がっこう","pitches":[{"position":0}]}`, dictionary: "pitchdict"},
			{key: "学校", mode: dictdb.MetaFreq, data: `{"reading":"まなびや","frequency":9}`, dictionary: "freqdict"},
		},
	}
	tr := newTestTranslator(t, db)

	result, err := tr.FindTerms(context.Background(), ModeGroup, "学校", defaultOptions("jmdict", "freqdict", "pitchdict"))
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)

	entry := result.Entries[0]
	require.Len(t, entry.Frequencies, 1, "mismatched reading must not attach")
	assert.Equal(t, 275, entry.Frequencies[0].Frequency)
	assert.True(t, entry.Frequencies[0].HasReading)
	require.Len(t, entry.Pronunciations, 1)
	require.Len(t, entry.Pronunciations[0].Pitches, 1)
	assert.Equal(t, 0, entry.Pronunciations[0].Pitches[0].Position)
}

func TestFindTermsSortsByNominatedFrequency(t *testing.T) {
	db := &fakeDatabase{
		terms: []fakeTermRow{
			{id: 1, term: "生", reading: "なま", glosses: []string{"raw"}, dictionary: "jmdict"},
			{id: 2, term: "生", reading: "せい", glosses: []string{"life"}, dictionary: "jmdict"},
		},
		termMeta: []fakeMetaRow{
			{key: "生", mode: dictdb.MetaFreq, data: `{"reading":"なま","frequency":500}`, dictionary: "freqdict"},
			{key: "生", mode: dictdb.MetaFreq, data: `{"reading":"せい","frequency":20}`, dictionary: "freqdict"},
		},
	}
	tr := newTestTranslator(t, db)

	opts := defaultOptions("jmdict", "freqdict")
	opts.SortFrequencyDictionary = "freqdict"
	opts.SortFrequencyDictionaryOrder = SortAscending

	result, err := tr.FindTerms(context.Background(), ModeGroup, "生", opts)
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "せい", result.Entries[0].Headwords[0].Reading)
	assert.Equal(t, 20, result.Entries[0].FrequencyOrder)
}

func TestFindTermsExpandsAndCachesTags(t *testing.T) {
	db := &fakeDatabase{
		terms: []fakeTermRow{
			{id: 1, term: "食べる", reading: "たべる", defTags: []string{"v1", "ichi:1"}, glosses: []string{"to eat"}, dictionary: "jmdict"},
		},
		tags: map[string]*dictdb.TagRecord{
			"jmdict\x00v1":   {Name: "v1", Category: "partOfSpeech", Order: 1, Notes: "Ichidan verb"},
			"jmdict\x00ichi": {Name: "ichi", Category: "frequency", Order: 2, Notes: "common word"},
		},
	}
	tr := newTestTranslator(t, db)

	result, err := tr.FindTerms(context.Background(), ModeGroup, "食べる", defaultOptions("jmdict"))
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)

	tags := result.Entries[0].Definitions[0].Tags
	require.Len(t, tags, 2)
	assert.Equal(t, "v1", tags[0].Name)
	assert.Equal(t, common.TagCategoryPartOfSpeech, tags[0].Category)
	assert.Equal(t, []string{"Ichidan verb"}, tags[0].Content)
	assert.Equal(t, "ichi:1", tags[1].Name)
	assert.Equal(t, common.TagCategoryFrequency, tags[1].Category)

	queried := db.tagQueries
	_, err = tr.FindTerms(context.Background(), ModeGroup, "食べる", defaultOptions("jmdict"))
	require.NoError(t, err)
	assert.Equal(t, queried, db.tagQueries, "second lookup should be served from the tag cache")

	tr.ClearDatabaseCaches()
	_, err = tr.FindTerms(context.Background(), ModeGroup, "食べる", defaultOptions("jmdict"))
	require.NoError(t, err)
	assert.Greater(t, db.tagQueries, queried)
}

func TestFindTermsSimpleModeSkipsEnrichment(t *testing.T) {
	db := &fakeDatabase{
		terms: []fakeTermRow{
			{id: 1, term: "学校", reading: "がっこう", defTags: []string{"n"}, glosses: []string{"school"}, dictionary: "jmdict"},
		},
		termMeta: []fakeMetaRow{
			{key: "学校", mode: dictdb.MetaFreq, data: `100`, dictionary: "jmdict"},
		},
		tags: map[string]*dictdb.TagRecord{
			"jmdict\x00n": {Name: "n", Category: "partOfSpeech"},
		},
	}
	tr := newTestTranslator(t, db)

	result, err := tr.FindTerms(context.Background(), ModeSimple, "学校", defaultOptions("jmdict"))
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Empty(t, result.Entries[0].Frequencies)
	assert.Empty(t, result.Entries[0].Definitions[0].Tags)
	assert.Zero(t, db.tagQueries)
}

func TestGetTermFrequencies(t *testing.T) {
	db := &fakeDatabase{
		termMeta: []fakeMetaRow{
			{key: "学校", mode: dictdb.MetaFreq, data: `{"reading":"がっこう","frequency":{"value":275,"displayValue":"275/30k"}}`, dictionary: "freqdict"},
			{key: "学校", mode: dictdb.MetaPitch, data: `{"reading":"がっこう","pitches":[]}`, dictionary: "pitchdict"},
		},
	}
	tr := newTestTranslator(t, db)

	results, err := tr.GetTermFrequencies(context.Background(),
		[]dictdb.TermReading{{Term: "学校", Reading: "がっこう"}, {Term: "学校", Reading: "まなびや"}},
		[]string{"freqdict", "pitchdict"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "学校", results[0].Term)
	assert.Equal(t, "がっこう", results[0].Reading)
	assert.Equal(t, 275, results[0].Frequency)
	assert.Equal(t, "275/30k", results[0].DisplayValue)
}

func TestFindTermsDecapitalizeVariant(t *testing.T) {
	db := &fakeDatabase{terms: []fakeTermRow{
		{id: 1, term: "read", reading: "read", glosses: []string{"to look at and comprehend"}, dictionary: "endict"},
	}}
	tr := newTestTranslator(t, db)

	opts := defaultOptions("endict")
	opts.Language = common.English
	opts.TextTransformations = map[string]transform.TriState{
		transform.TransformDecapitalize: transform.TriOn,
	}

	result, err := tr.FindTerms(context.Background(), ModeGroup, "Read", opts)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)

	hw := result.Entries[0].Headwords[0]
	assert.Equal(t, "read", hw.Term)
	require.Len(t, hw.Sources, 1)
	assert.Equal(t, "Read", hw.Sources[0].OriginalText)
	assert.Equal(t, "read", hw.Sources[0].TransformedText)
}

func TestFindTermsWordResolutionDeduplicates(t *testing.T) {
	db := &fakeDatabase{terms: []fakeTermRow{
		{id: 1, term: "走る", reading: "はしる", rules: []string{"v5"}, glosses: []string{"to run"}, dictionary: "jmdict"},
	}}
	tr := newTestTranslator(t, db)

	opts := defaultOptions("jmdict")
	opts.SearchResolution = common.ResolutionWord

	result, err := tr.FindTerms(context.Background(), ModeGroup, "走って走って", opts)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "走る", result.Entries[0].Headwords[0].Term)
}
