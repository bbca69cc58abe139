package lookup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkobayashi/jiten/app/common"
	"github.com/mkobayashi/jiten/app/dictdb"
)

func defaultKanjiOptions(dictionaries ...string) *FindKanjiOptions {
	opts := &FindKanjiOptions{
		EnabledDictionaryMap: map[string]DictionaryOptions{},
		DictionaryOrder:      dictionaries,
	}
	for i, name := range dictionaries {
		opts.EnabledDictionaryMap[name] = DictionaryOptions{Index: i}
	}
	return opts
}

func TestFindKanjiBuildsEntries(t *testing.T) {
	db := &fakeDatabase{
		kanji: []dictdb.KanjiEntry{
			{
				Character:  "学",
				Onyomi:     []string{"ガク"},
				Kunyomi:    []string{"まな.ぶ"},
				Tags:       []string{"jouyou"},
				Meanings:   []string{"study", "learning"},
				Stats:      map[string]string{"grade": "1", "strokes": "8"},
				Dictionary: "kanjidic",
			},
			{
				Character:  "校",
				Onyomi:     []string{"コウ"},
				Meanings:   []string{"school building"},
				Dictionary: "kanjidic",
			},
		},
		kanjiMeta: []fakeMetaRow{
			{key: "学", mode: dictdb.MetaFreq, data: `63`, dictionary: "kanjifreq"},
		},
		tags: map[string]*dictdb.TagRecord{
			"kanjidic\x00jouyou":  {Name: "jouyou", Category: "frequency", Order: 1, Notes: "included in the jouyou list"},
			"kanjidic\x00grade":   {Name: "grade", Category: "class", Order: 1, Notes: "school grade"},
			"kanjidic\x00strokes": {Name: "strokes", Category: "misc", Order: 2},
		},
	}
	tr := newTestTranslator(t, db)

	entries, err := tr.FindKanji(context.Background(), "学校学", defaultKanjiOptions("kanjidic", "kanjifreq"))
	require.NoError(t, err)
	require.Len(t, entries, 2, "repeated characters deduplicate")

	first := entries[0]
	assert.Equal(t, "学", first.Character)
	assert.Equal(t, []string{"ガク"}, first.Onyomi)
	assert.Equal(t, []string{"study", "learning"}, first.Definitions)

	require.Contains(t, first.Stats, "class")
	require.Len(t, first.Stats["class"], 1)
	grade := first.Stats["class"][0]
	assert.Equal(t, "grade", grade.Name)
	assert.Equal(t, "1", grade.Value)
	assert.Equal(t, "school grade", grade.Content)
	require.Contains(t, first.Stats, "misc")
	assert.Equal(t, "8", first.Stats["misc"][0].Value)

	require.Len(t, first.Tags, 1)
	assert.Equal(t, "jouyou", first.Tags[0].Name)
	assert.Equal(t, common.TagCategoryFrequency, first.Tags[0].Category)

	require.Len(t, first.Frequencies, 1)
	assert.Equal(t, 63, first.Frequencies[0].Frequency)

	second := entries[1]
	assert.Equal(t, "校", second.Character)
	assert.Empty(t, second.Stats)
	assert.Empty(t, second.Frequencies)
}

func TestFindKanjiUnknownStatKeepsDefaultCategory(t *testing.T) {
	db := &fakeDatabase{
		kanji: []dictdb.KanjiEntry{
			{Character: "猫", Meanings: []string{"cat"}, Stats: map[string]string{"heisig": "259"}, Dictionary: "kanjidic"},
		},
	}
	tr := newTestTranslator(t, db)

	entries, err := tr.FindKanji(context.Background(), "猫", defaultKanjiOptions("kanjidic"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Contains(t, entries[0].Stats, string(common.TagCategoryDefault))
	stat := entries[0].Stats[string(common.TagCategoryDefault)][0]
	assert.Equal(t, "heisig", stat.Name)
	assert.Equal(t, "259", stat.Value)
}

func TestFindKanjiEmptyInput(t *testing.T) {
	tr := newTestTranslator(t, &fakeDatabase{})
	entries, err := tr.FindKanji(context.Background(), "", defaultKanjiOptions("kanjidic"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
