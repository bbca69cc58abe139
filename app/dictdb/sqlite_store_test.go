package dictdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/mkobayashi/jiten/app/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open(SQLiteDriverName, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := NewSQLiteStore(db)
	require.NoError(t, store.Init())
	return store
}

func gloss(texts ...string) []json.RawMessage {
	var out []json.RawMessage
	for _, s := range texts {
		raw, _ := json.Marshal(s)
		out = append(out, raw)
	}
	return out
}

func seedTerms(t *testing.T, store *SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.AddDictionary(ctx, DictionaryInfo{Name: "jmdict", Title: "JMdict"}))
	require.NoError(t, store.AddTerms(ctx, "jmdict", []TermBankRow{
		{Term: "食べる", Reading: "たべる", Rules: []string{"v1"}, RuleMask: common.RuleV1,
			Score: 10, Glosses: gloss("to eat"), Sequence: 42, TermTags: []string{"common"}},
		{Term: "食べた", Reading: "たべた", Score: 0, Glosses: gloss("ate"), Sequence: -1,
			DefinitionTags: []string{"non-lemma"}, FormOf: "食べる",
			InflectionHypotheses: [][]string{{"past"}}},
		{Term: "走る", Reading: "はしる", Rules: []string{"v5"}, RuleMask: common.RuleV5,
			Score: 5, Glosses: gloss("to run"), Sequence: 7},
	}))
	require.NoError(t, store.AddTerms(ctx, "other", []TermBankRow{
		{Term: "食べる", Reading: "たべる", Rules: []string{"v1"}, RuleMask: common.RuleV1,
			Score: 1, Glosses: gloss("eat (other)"), Sequence: -1},
	}))
}

func TestFindTermsBulk_Exact(t *testing.T) {
	store := newTestStore(t)
	seedTerms(t, store)

	results, err := store.FindTermsBulk(context.Background(),
		[]string{"走る", "食べる"}, []string{"jmdict"}, common.MatchExact)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byTerm := map[string]TermEntry{}
	for _, r := range results {
		byTerm[r.Term] = r
	}
	taberu := byTerm["食べる"]
	assert.Equal(t, 1, taberu.Index)
	assert.Equal(t, "jmdict", taberu.Dictionary)
	assert.Equal(t, common.MatchSourceTerm, taberu.MatchSource)
	assert.True(t, taberu.RuleMask.Fits(common.RuleV1))
	assert.Equal(t, int64(42), taberu.Sequence)
	assert.Equal(t, 0, byTerm["走る"].Index)
}

func TestFindTermsBulk_ReadingMatch(t *testing.T) {
	store := newTestStore(t)
	seedTerms(t, store)

	results, err := store.FindTermsBulk(context.Background(),
		[]string{"たべる"}, []string{"jmdict"}, common.MatchExact)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "食べる", results[0].Term)
	assert.Equal(t, common.MatchSourceReading, results[0].MatchSource)
}

func TestFindTermsBulk_Prefix(t *testing.T) {
	store := newTestStore(t)
	seedTerms(t, store)

	results, err := store.FindTermsBulk(context.Background(),
		[]string{"食べ"}, []string{"jmdict"}, common.MatchPrefix)
	require.NoError(t, err)
	terms := map[string]bool{}
	for _, r := range results {
		assert.Equal(t, common.MatchPrefix, r.MatchType)
		terms[r.Term] = true
	}
	assert.True(t, terms["食べる"])
	assert.True(t, terms["食べた"])
	assert.False(t, terms["走る"])
}

func TestFindTermsBulk_DictionaryFilter(t *testing.T) {
	store := newTestStore(t)
	seedTerms(t, store)

	results, err := store.FindTermsBulk(context.Background(),
		[]string{"食べる"}, []string{"other"}, common.MatchExact)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "other", results[0].Dictionary)
}

func TestFindTermsBulk_FormOfRoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedTerms(t, store)

	results, err := store.FindTermsBulk(context.Background(),
		[]string{"食べた"}, []string{"jmdict"}, common.MatchExact)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "食べる", results[0].FormOf)
	assert.Contains(t, results[0].DefinitionTags, "non-lemma")
	require.Len(t, results[0].InflectionHypotheses, 1)
	assert.Equal(t, []string{"past"}, results[0].InflectionHypotheses[0])
}

func TestFindTermsExactBulk(t *testing.T) {
	store := newTestStore(t)
	seedTerms(t, store)

	results, err := store.FindTermsExactBulk(context.Background(),
		[]TermReading{{Term: "走る", Reading: "はしる"}, {Term: "走る", Reading: "ちがう"}},
		[]string{"jmdict"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Index)
}

func TestFindTermsBySequenceBulk(t *testing.T) {
	store := newTestStore(t)
	seedTerms(t, store)

	results, err := store.FindTermsBySequenceBulk(context.Background(),
		[]SequenceQuery{{Query: 42, Dictionary: "jmdict"}, {Query: 42, Dictionary: "other"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "食べる", results[0].Term)
	assert.Equal(t, 0, results[0].Index)
}

func TestFindTermMetaBulk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddTermMeta(ctx, "freqdict", []TermMetaBankRow{
		{Term: "食べる", Mode: MetaFreq, Data: json.RawMessage(`12`)},
		{Term: "食べる", Mode: MetaPitch, Data: json.RawMessage(`{"reading":"たべる","pitches":[{"position":2}]}`)},
	}))

	results, err := store.FindTermMetaBulk(ctx, []string{"走る", "食べる"}, []string{"freqdict"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, 1, r.Index)
		assert.Equal(t, "freqdict", r.Dictionary)
	}
}

func TestFindKanjiBulk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddKanji(ctx, "kanjidic", []KanjiBankRow{
		{Character: "食", Onyomi: []string{"ショク"}, Kunyomi: []string{"た.べる"},
			Tags: []string{"jouyou"}, Meanings: []string{"eat"}, Stats: map[string]string{"grade": "2"}},
	}))

	results, err := store.FindKanjiBulk(ctx, []string{"走", "食"}, []string{"kanjidic"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "食", results[0].Character)
	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, []string{"ショク"}, results[0].Onyomi)
	assert.Equal(t, "2", results[0].Stats["grade"])
}

func TestFindKanjiMetaBulk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddKanjiMeta(ctx, "kanjifreq", []KanjiMetaBankRow{
		{Character: "食", Mode: MetaFreq, Data: json.RawMessage(`120`)},
	}))

	results, err := store.FindKanjiMetaBulk(ctx, []string{"食"}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, MetaFreq, results[0].Mode)
	assert.Equal(t, "120", string(results[0].Data))
}

func TestFindTagMetaBulk_IndexParallel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddTags(ctx, "jmdict", []TagBankRow{
		{Name: "v1", Category: "partOfSpeech", Order: 1, Notes: "ichidan verb", Score: 0},
	}))

	results, err := store.FindTagMetaBulk(ctx, []TagQuery{
		{Query: "missing", Dictionary: "jmdict"},
		{Query: "v1", Dictionary: "jmdict"},
		{Query: "v1", Dictionary: "other"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Nil(t, results[0])
	require.NotNil(t, results[1])
	assert.Equal(t, "partOfSpeech", results[1].Category)
	assert.Equal(t, "ichidan verb", results[1].Notes)
	assert.Nil(t, results[2])
}

func TestListDictionaries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddDictionary(ctx, DictionaryInfo{Name: "b", Title: "B"}))
	require.NoError(t, store.AddDictionary(ctx, DictionaryInfo{Name: "a", Title: "A"}))

	infos, err := store.ListDictionaries(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
}

func TestFindTermsBulk_EmptyInput(t *testing.T) {
	store := newTestStore(t)
	results, err := store.FindTermsBulk(context.Background(), nil, nil, common.MatchExact)
	require.NoError(t, err)
	assert.Empty(t, results)
}
