package lookup

import (
	"context"
	"sort"

	"github.com/mkobayashi/jiten/app/dictdb"
)

// mergeEntriesBySequence implements merge mode: entries sharing a
// main-dictionary sequence collapse into one entry, pulling in the
// rest of their sequence family and, optionally, matching entries
// from secondary-search dictionaries.
func (t *Translator) mergeEntriesBySequence(ctx context.Context, entries []*TermDictionaryEntry, opts *FindTermsOptions) ([]*TermDictionaryEntry, error) {
	var sequenceOrder []int64
	groups := map[int64][]*TermDictionaryEntry{}
	ungrouped := map[int64]*TermDictionaryEntry{}
	var ungroupedOrder []int64

	for _, entry := range entries {
		def := entry.Definitions[0]
		seq := def.Sequences[0]
		if def.Dictionary == opts.MainDictionary && seq >= 0 {
			if _, seen := groups[seq]; !seen {
				sequenceOrder = append(sequenceOrder, seq)
			}
			groups[seq] = append(groups[seq], entry)
		} else {
			if _, seen := ungrouped[def.ID]; !seen {
				ungroupedOrder = append(ungroupedOrder, def.ID)
				ungrouped[def.ID] = entry
			}
		}
	}

	// complete each sequence family from the main dictionary
	if len(sequenceOrder) > 0 {
		queries := make([]dictdb.SequenceQuery, len(sequenceOrder))
		for i, seq := range sequenceOrder {
			queries[i] = dictdb.SequenceQuery{Query: seq, Dictionary: opts.MainDictionary}
		}
		related, err := t.db.FindTermsBySequenceBulk(ctx, queries)
		if err != nil {
			return nil, err
		}
		for _, entry := range related {
			seq := sequenceOrder[entry.Index]
			if groupContainsID(groups[seq], entry.ID) {
				continue
			}
			d := &deinflection{deinflectedText: entry.Term}
			groups[seq] = append(groups[seq], newTermEntry(entry, d, false, opts))
		}
	}

	// absorb ungrouped entries sharing a headword with a group
	for _, seq := range sequenceOrder {
		for _, member := range groups[seq] {
			for _, hw := range member.Headwords {
				for _, id := range ungroupedOrder {
					entry, present := ungrouped[id]
					if !present {
						continue
					}
					ohw := entry.Headwords[0]
					if ohw.Term == hw.Term && ohw.Reading == hw.Reading {
						groups[seq] = append(groups[seq], entry)
						delete(ungrouped, id)
					}
				}
			}
		}
	}

	if len(ungrouped) > 0 {
		if err := t.addSecondaryMembers(ctx, groups, sequenceOrder, opts); err != nil {
			return nil, err
		}
	}

	var result []*TermDictionaryEntry
	for _, seq := range sequenceOrder {
		members := groups[seq]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Definitions[0].ID < members[j].Definitions[0].ID
		})
		result = append(result, foldEntries(members, true))
	}

	var leftover []*TermDictionaryEntry
	for _, id := range ungroupedOrder {
		if entry, present := ungrouped[id]; present {
			leftover = append(leftover, entry)
		}
	}
	result = append(result, groupEntriesByHeadword(leftover)...)
	return result, nil
}

// addSecondaryMembers queries secondary-search dictionaries for the
// groups' headwords and attaches the hits as non-primary members.
func (t *Translator) addSecondaryMembers(ctx context.Context, groups map[int64][]*TermDictionaryEntry, sequenceOrder []int64, opts *FindTermsOptions) error {
	var secondaryDicts []string
	for _, name := range opts.enabledDictionaries() {
		if opts.EnabledDictionaryMap[name].AllowSecondarySearches {
			secondaryDicts = append(secondaryDicts, name)
		}
	}
	if len(secondaryDicts) == 0 {
		return nil
	}

	var pairs []dictdb.TermReading
	pairIndex := map[dictdb.TermReading]int{}
	pairGroups := map[int][]int64{}
	for _, seq := range sequenceOrder {
		for _, member := range groups[seq] {
			for _, hw := range member.Headwords {
				pair := dictdb.TermReading{Term: hw.Term, Reading: hw.Reading}
				idx, seen := pairIndex[pair]
				if !seen {
					idx = len(pairs)
					pairIndex[pair] = idx
					pairs = append(pairs, pair)
				}
				pairGroups[idx] = appendUniqueInt64s(pairGroups[idx], []int64{seq})
			}
		}
	}
	if len(pairs) == 0 {
		return nil
	}

	found, err := t.db.FindTermsExactBulk(ctx, pairs, secondaryDicts)
	if err != nil {
		return err
	}
	for _, entry := range found {
		for _, seq := range pairGroups[entry.Index] {
			if groupContainsID(groups[seq], entry.ID) {
				continue
			}
			d := &deinflection{deinflectedText: entry.Term}
			groups[seq] = append(groups[seq], newTermEntry(entry, d, false, opts))
		}
	}
	return nil
}

func groupContainsID(members []*TermDictionaryEntry, id int64) bool {
	for _, member := range members {
		for _, def := range member.Definitions {
			if def.ID == id {
				return true
			}
		}
	}
	return false
}
