package lookup

import (
	"context"
	"sort"
	"strings"

	"github.com/mkobayashi/jiten/app/common"
	"github.com/mkobayashi/jiten/app/dictdb"
	"github.com/patrickmn/go-cache"
)

// tagCache memoises tag-bank lookups across find calls. Misses are
// cached too (as nil records); the store is deterministic so racing
// writers are harmless. Flush drops everything when dictionaries
// change.
type tagCache struct {
	c *cache.Cache
}

func newTagCache() *tagCache {
	return &tagCache{c: cache.New(cache.NoExpiration, 0)}
}

func tagCacheKey(dictionary, query string) string {
	return dictionary + "\x00" + query
}

func (tc *tagCache) get(dictionary, query string) (*dictdb.TagRecord, bool) {
	v, found := tc.c.Get(tagCacheKey(dictionary, query))
	if !found {
		return nil, false
	}
	rec, _ := v.(*dictdb.TagRecord)
	return rec, true
}

func (tc *tagCache) set(dictionary, query string, rec *dictdb.TagRecord) {
	tc.c.Set(tagCacheKey(dictionary, query), rec, cache.NoExpiration)
}

func (tc *tagCache) flush() {
	tc.c.Flush()
}

// tagQueryName truncates a tag name at its first colon; tag banks key
// parameterised tags like "ichi:1" under their base name.
func tagQueryName(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return name
}

// tagJob asks for the tag names of one dictionary to be expanded into
// a destination list.
type tagJob struct {
	dictionary string
	names      []string
	dest       *[]Tag
}

// expandTagJobs resolves every job's tag names through the cache,
// coalescing all misses of this call into one bulk query.
func (t *Translator) expandTagJobs(ctx context.Context, jobs []tagJob) error {
	var missing []dictdb.TagQuery
	seen := map[string]struct{}{}
	for _, job := range jobs {
		for _, name := range job.names {
			query := tagQueryName(name)
			key := tagCacheKey(job.dictionary, query)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if _, cached := t.tagCache.get(job.dictionary, query); !cached {
				missing = append(missing, dictdb.TagQuery{Query: query, Dictionary: job.dictionary})
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

	for _, job := range jobs {
		for _, name := range job.names {
			rec, _ := t.tagCache.get(job.dictionary, tagQueryName(name))
			tag := Tag{
				Name:         name,
				Category:     common.TagCategoryDefault,
				Dictionaries: []string{job.dictionary},
			}
			if rec != nil {
				if rec.Category != "" {
					tag.Category = common.TagCategory(rec.Category)
				}
				tag.Order = rec.Order
				tag.Score = rec.Score
				if rec.Notes != "" {
					tag.Content = []string{rec.Notes}
				}
			}
			*job.dest = mergeTag(*job.dest, tag)
		}
		sortTags(*job.dest)
	}
	return nil
}

// mergeTag folds a tag into a list: same (name, category) keeps the
// smallest order, the largest score, and the union of content and
// dictionaries.
func mergeTag(tags []Tag, tag Tag) []Tag {
	for i := range tags {
		if tags[i].Name == tag.Name && tags[i].Category == tag.Category {
			if tag.Order < tags[i].Order {
				tags[i].Order = tag.Order
			}
			if tag.Score > tags[i].Score {
				tags[i].Score = tag.Score
			}
			tags[i].Content = appendUniqueStrings(tags[i].Content, tag.Content)
			tags[i].Dictionaries = appendUniqueStrings(tags[i].Dictionaries, tag.Dictionaries)
			return tags
		}
	}
	return append(tags, tag)
}

func sortTags(tags []Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		if tags[i].Order != tags[j].Order {
			return tags[i].Order < tags[j].Order
		}
		return tags[i].Name < tags[j].Name
	})
}

// expandTermTags expands every tag group of the given entries.
func (t *Translator) expandTermTags(ctx context.Context, entries []*TermDictionaryEntry) error {
	var jobs []tagJob
	for _, entry := range entries {
		for hi := range entry.Headwords {
			hw := &entry.Headwords[hi]
			for _, group := range hw.TagGroups {
				jobs = append(jobs, tagJob{dictionary: group.Dictionary, names: group.TagNames, dest: &hw.Tags})
			}
		}
		for di := range entry.Definitions {
			def := &entry.Definitions[di]
			for _, group := range def.TagGroups {
				jobs = append(jobs, tagJob{dictionary: group.Dictionary, names: group.TagNames, dest: &def.Tags})
			}
		}
		for pi := range entry.Pronunciations {
			pron := &entry.Pronunciations[pi]
			for qi := range pron.Pitches {
				pitch := &pron.Pitches[qi]
				if len(pitch.TagNames) > 0 {
					jobs = append(jobs, tagJob{dictionary: pron.Dictionary, names: pitch.TagNames, dest: &pitch.Tags})
				}
			}
			for qi := range pron.PhoneticTranscriptions {
				tr := &pron.PhoneticTranscriptions[qi]
				if len(tr.TagNames) > 0 {
					jobs = append(jobs, tagJob{dictionary: pron.Dictionary, names: tr.TagNames, dest: &tr.Tags})
				}
			}
		}
	}
	if len(jobs) == 0 {
		return nil
	}
	return t.expandTagJobs(ctx, jobs)
}
