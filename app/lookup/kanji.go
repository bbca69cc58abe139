package lookup

import (
	"context"
	"sort"

	"github.com/mkobayashi/jiten/app/common"
	"github.com/mkobayashi/jiten/app/dictdb"
)

// FindKanji looks up every distinct character of text and assembles
// one entry per database hit, with expanded stats, frequency metadata
// and tags.
func (t *Translator) FindKanji(ctx context.Context, text string, opts *FindKanjiOptions) ([]*KanjiDictionaryEntry, error) {
	var chars []string
	seen := map[rune]struct{}{}
	for _, r := range text {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		chars = append(chars, string(r))
	}
	if len(chars) == 0 {
		return nil, nil
	}

	enabled := opts.enabledDictionaries()
	hits, err := t.db.FindKanjiBulk(ctx, chars, enabled)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Index < hits[j].Index
	})

	entries := make([]*KanjiDictionaryEntry, 0, len(hits))
	var jobs []tagJob
	for _, hit := range hits {
		dictOpts := opts.dictionaryOptions(hit.Dictionary)
		entry := &KanjiDictionaryEntry{
			Character:          hit.Character,
			Dictionary:         hit.Dictionary,
			DictionaryIndex:    dictOpts.Index,
			DictionaryPriority: dictOpts.Priority,
			Onyomi:             hit.Onyomi,
			Kunyomi:            hit.Kunyomi,
			Definitions:        hit.Meanings,
		}
		if len(hit.Tags) > 0 {
			jobs = append(jobs, tagJob{dictionary: hit.Dictionary, names: hit.Tags, dest: &entry.Tags})
		}
		entries = append(entries, entry)
	}

	if err := t.expandKanjiStats(ctx, hits, entries); err != nil {
		return nil, err
	}
	if err := t.addKanjiMeta(ctx, chars, entries, opts); err != nil {
		return nil, err
	}
	if len(jobs) > 0 {
		if err := t.expandTagJobs(ctx, jobs); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// expandKanjiStats resolves every stat key through the tag bank of the
// hit's dictionary and groups the expanded stats by tag category.
func (t *Translator) expandKanjiStats(ctx context.Context, hits []dictdb.KanjiEntry, entries []*KanjiDictionaryEntry) error {
	var missing []dictdb.TagQuery
	requested := map[string]struct{}{}
	for _, hit := range hits {
		for name := range hit.Stats {
			query := tagQueryName(name)
			key := tagCacheKey(hit.Dictionary, query)
			if _, dup := requested[key]; dup {
				continue
			}
			requested[key] = struct{}{}
			if _, cached := t.tagCache.get(hit.Dictionary, query); !cached {
				missing = append(missing, dictdb.TagQuery{Query: query, Dictionary: hit.Dictionary})
			}
		}
	}
	if len(missing) > 0 {
		records, err := t.db.FindTagMetaBulk(ctx, missing)
		if err != nil {
			return err
		}
		for i, q := range missing {
			t.tagCache.set(q.Dictionary, q.Query, records[i])
		}
	}

	for i, hit := range hits {
		if len(hit.Stats) == 0 {
			continue
		}
		stats := map[string][]KanjiStat{}
		for name, value := range hit.Stats {
			rec, _ := t.tagCache.get(hit.Dictionary, tagQueryName(name))
			stat := KanjiStat{
				Name:     name,
				Category: common.TagCategoryDefault,
				Value:    value,
			}
			if rec != nil {
				if rec.Category != "" {
					stat.Category = common.TagCategory(rec.Category)
				}
				stat.Content = rec.Notes
				stat.Order = rec.Order
				stat.Score = rec.Score
			}
			stats[string(stat.Category)] = append(stats[string(stat.Category)], stat)
		}
		for _, group := range stats {
			sort.SliceStable(group, func(a, b int) bool {
				if group[a].Order != group[b].Order {
					return group[a].Order < group[b].Order
				}
				return group[a].Name < group[b].Name
			})
		}
		entries[i].Stats = stats
	}
	return nil
}

// addKanjiMeta attaches frequency records to every matching entry.
func (t *Translator) addKanjiMeta(ctx context.Context, chars []string, entries []*KanjiDictionaryEntry, opts *FindKanjiOptions) error {
	metas, err := t.db.FindKanjiMetaBulk(ctx, chars, opts.enabledDictionaries())
	if err != nil {
		return err
	}
	for _, meta := range metas {
		if meta.Mode != dictdb.MetaFreq {
			continue
		}
		v, ok := parseFrequencyData(meta.Data)
		if !ok {
			continue
		}
		dictOpts := opts.dictionaryOptions(meta.Dictionary)
		for _, entry := range entries {
			if entry.Character != meta.Character {
				continue
			}
			entry.Frequencies = append(entry.Frequencies, KanjiFrequency{
				Index:              len(entry.Frequencies),
				Dictionary:         meta.Dictionary,
				DictionaryIndex:    dictOpts.Index,
				DictionaryPriority: dictOpts.Priority,
				Frequency:          v.Frequency,
				DisplayValue:       v.DisplayValue,
				DisplayValueParsed: v.DisplayValueParsed,
			})
		}
	}
	for _, entry := range entries {
		sort.SliceStable(entry.Frequencies, func(i, j int) bool {
			a, b := entry.Frequencies[i], entry.Frequencies[j]
			if a.DictionaryPriority != b.DictionaryPriority {
				return a.DictionaryPriority > b.DictionaryPriority
			}
			if a.DictionaryIndex != b.DictionaryIndex {
				return a.DictionaryIndex < b.DictionaryIndex
			}
			return a.Index < b.Index
		})
	}
	return nil
}
