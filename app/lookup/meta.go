package lookup

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/mkobayashi/jiten/app/dictdb"
)

// frequencyValue is the normalized form of the union-typed frequency
// payload: a bare number, a numeric string, {value, displayValue}, or
// {reading, frequency} wrapping any of those.
type frequencyValue struct {
	Frequency          int
	DisplayValue       string
	DisplayValueParsed bool
	Reading            string
	HasReading         bool
}

func parseFrequencyData(raw json.RawMessage) (frequencyValue, bool) {
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return frequencyValue{Frequency: int(number)}, true
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		v := frequencyValue{DisplayValue: str}
		if n, ok := parseLeadingInt(str); ok {
			v.Frequency = n
			v.DisplayValueParsed = true
		}
		return v, true
	}

	var obj struct {
		Value        *float64        `json:"value"`
		DisplayValue string          `json:"displayValue"`
		Reading      string          `json:"reading"`
		Frequency    json.RawMessage `json:"frequency"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return frequencyValue{}, false
	}

	if obj.Reading != "" || len(obj.Frequency) > 0 {
		inner, ok := parseFrequencyData(obj.Frequency)
		if !ok {
			return frequencyValue{}, false
		}
		inner.Reading = obj.Reading
		inner.HasReading = obj.Reading != ""
		return inner, true
	}

	v := frequencyValue{DisplayValue: obj.DisplayValue}
	if obj.Value != nil {
		v.Frequency = int(*obj.Value)
	} else if n, ok := parseLeadingInt(obj.DisplayValue); ok {
		v.Frequency = n
		v.DisplayValueParsed = true
	}
	return v, true
}

// parseLeadingInt extracts the integer prefix of a display value like
// "1234㋕" or "56/5000".
func parseLeadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

type pitchData struct {
	Reading string `json:"reading"`
	Pitches []struct {
		Position         int             `json:"position"`
		NasalPositions   json.RawMessage `json:"nasal"`
		DevoicePositions json.RawMessage `json:"devoice"`
		Tags             []string        `json:"tags"`
	} `json:"pitches"`
}

type ipaData struct {
	Reading        string `json:"reading"`
	Transcriptions []struct {
		IPA  string   `json:"ipa"`
		Tags []string `json:"tags"`
	} `json:"transcriptions"`
}

// intPositions accepts a single number or an array of numbers.
func intPositions(raw json.RawMessage) []int {
	if len(raw) == 0 {
		return nil
	}
	var single float64
	if err := json.Unmarshal(raw, &single); err == nil {
		return []int{int(single)}
	}
	var many []float64
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil
	}
	out := make([]int, len(many))
	for i, v := range many {
		out[i] = int(v)
	}
	return out
}

// addTermMeta attaches frequency, pitch and IPA records to every
// matching headword, in one bulk query over all entries.
func (t *Translator) addTermMeta(ctx context.Context, entries []*TermDictionaryEntry, opts *FindTermsOptions) error {
	var terms []string
	seen := map[string]struct{}{}
	for _, entry := range entries {
		for _, hw := range entry.Headwords {
			if _, dup := seen[hw.Term]; !dup {
				seen[hw.Term] = struct{}{}
				terms = append(terms, hw.Term)
			}
		}
	}
	if len(terms) == 0 {
		return nil
	}

	metas, err := t.db.FindTermMetaBulk(ctx, terms, opts.enabledDictionaries())
	if err != nil {
		return err
	}

	for _, meta := range metas {
		dictOpts := opts.dictionaryOptions(meta.Dictionary)
		for _, entry := range entries {
			for hi := range entry.Headwords {
				hw := &entry.Headwords[hi]
				if hw.Term != meta.Term {
					continue
				}
				switch meta.Mode {
				case dictdb.MetaFreq:
					v, ok := parseFrequencyData(meta.Data)
					if !ok {
						continue
					}
					if v.HasReading && v.Reading != hw.Reading {
						continue
					}
					entry.Frequencies = append(entry.Frequencies, TermFrequency{
						Index:              len(entry.Frequencies),
						HeadwordIndex:      hw.Index,
						Dictionary:         meta.Dictionary,
						DictionaryIndex:    dictOpts.Index,
						DictionaryPriority: dictOpts.Priority,
						HasReading:         v.HasReading,
						Frequency:          v.Frequency,
						DisplayValue:       v.DisplayValue,
						DisplayValueParsed: v.DisplayValueParsed,
					})
				case dictdb.MetaPitch:
					var data pitchData
					if err := json.Unmarshal(meta.Data, &data); err != nil {
						continue
					}
					if data.Reading != hw.Reading {
						continue
					}
					pron := TermPronunciation{
						Index:              len(entry.Pronunciations),
						HeadwordIndex:      hw.Index,
						Dictionary:         meta.Dictionary,
						DictionaryIndex:    dictOpts.Index,
						DictionaryPriority: dictOpts.Priority,
					}
					for _, p := range data.Pitches {
						pron.Pitches = append(pron.Pitches, PitchAccent{
							Position:         p.Position,
							NasalPositions:   intPositions(p.NasalPositions),
							DevoicePositions: intPositions(p.DevoicePositions),
							TagNames:         p.Tags,
						})
					}
					entry.Pronunciations = append(entry.Pronunciations, pron)
				case dictdb.MetaIPA:
					var data ipaData
					if err := json.Unmarshal(meta.Data, &data); err != nil {
						continue
					}
					if data.Reading != hw.Reading {
						continue
					}
					pron := TermPronunciation{
						Index:              len(entry.Pronunciations),
						HeadwordIndex:      hw.Index,
						Dictionary:         meta.Dictionary,
						DictionaryIndex:    dictOpts.Index,
						DictionaryPriority: dictOpts.Priority,
					}
					for _, tr := range data.Transcriptions {
						pron.PhoneticTranscriptions = append(pron.PhoneticTranscriptions, PhoneticTranscription{
							IPA:      tr.IPA,
							TagNames: tr.Tags,
						})
					}
					entry.Pronunciations = append(entry.Pronunciations, pron)
				}
			}
		}
	}
	return nil
}

// GetTermFrequencies answers the frequency surface of the core API:
// one row per matching freq meta record per queried pair.
func (t *Translator) GetTermFrequencies(ctx context.Context, pairs []dictdb.TermReading, dictionaries []string) ([]TermFrequencyResult, error) {
	var terms []string
	seen := map[string]struct{}{}
	for _, p := range pairs {
		if _, dup := seen[p.Term]; !dup {
			seen[p.Term] = struct{}{}
			terms = append(terms, p.Term)
		}
	}
	metas, err := t.db.FindTermMetaBulk(ctx, terms, dictionaries)
	if err != nil {
		return nil, err
	}

	var results []TermFrequencyResult
	for _, meta := range metas {
		if meta.Mode != dictdb.MetaFreq {
			continue
		}
		v, ok := parseFrequencyData(meta.Data)
		if !ok {
			continue
		}
		for _, p := range pairs {
			if p.Term != meta.Term {
				continue
			}
			if v.HasReading && p.Reading != "" && v.Reading != p.Reading {
				continue
			}
			reading := p.Reading
			if reading == "" {
				reading = v.Reading
			}
			results = append(results, TermFrequencyResult{
				Term:               meta.Term,
				Reading:            reading,
				Dictionary:         meta.Dictionary,
				HasReading:         v.HasReading,
				Frequency:          v.Frequency,
				DisplayValue:       v.DisplayValue,
				DisplayValueParsed: v.DisplayValueParsed,
			})
		}
	}
	return results, nil
}
