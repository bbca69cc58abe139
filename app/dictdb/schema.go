package dictdb

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mkobayashi/jiten/app/common"
)

// The bank formats are positional JSON tuples. Validation happens
// here, at the database boundary; the lookup core assumes
// schema-valid records.

type TermBankRow struct {
	Term                 string
	Reading              string
	DefinitionTags       []string
	Rules                []string
	RuleMask             common.RuleMask
	Score                int
	Glosses              []json.RawMessage
	Sequence             int64
	TermTags             []string
	FormOf               string
	InflectionHypotheses [][]string
}

// ParseTermBankRow validates one term-bank tuple:
// [term, reading, definitionTags, rules, score, glosses, sequence,
// termTags, formOf?, inflectionHypotheses?].
func ParseTermBankRow(raw json.RawMessage) (TermBankRow, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return TermBankRow{}, fmt.Errorf("term bank row is not an array: %w", err)
	}
	if len(tuple) < 8 {
		return TermBankRow{}, fmt.Errorf("term bank row has %d fields, want at least 8", len(tuple))
	}

	var row TermBankRow
	if err := json.Unmarshal(tuple[0], &row.Term); err != nil {
		return TermBankRow{}, fmt.Errorf("term: %w", err)
	}
	if row.Term == "" {
		return TermBankRow{}, fmt.Errorf("term is empty")
	}
	if err := json.Unmarshal(tuple[1], &row.Reading); err != nil {
		return TermBankRow{}, fmt.Errorf("reading: %w", err)
	}

	defTags, err := parseTagField(tuple[2])
	if err != nil {
		return TermBankRow{}, fmt.Errorf("definition tags: %w", err)
	}
	row.DefinitionTags = defTags

	var rules string
	if err := json.Unmarshal(tuple[3], &rules); err != nil {
		return TermBankRow{}, fmt.Errorf("rules: %w", err)
	}
	row.Rules, row.RuleMask = common.ParseRules(rules)

	var score float64
	if err := json.Unmarshal(tuple[4], &score); err != nil {
		return TermBankRow{}, fmt.Errorf("score: %w", err)
	}
	row.Score = int(score)

	if err := json.Unmarshal(tuple[5], &row.Glosses); err != nil {
		return TermBankRow{}, fmt.Errorf("glosses: %w", err)
	}
	for i, g := range row.Glosses {
		if err := validateGloss(g); err != nil {
			return TermBankRow{}, fmt.Errorf("gloss %d: %w", i, err)
		}
	}

	var seq float64
	if err := json.Unmarshal(tuple[6], &seq); err != nil {
		return TermBankRow{}, fmt.Errorf("sequence: %w", err)
	}
	row.Sequence = int64(seq)

	termTags, err := parseTagField(tuple[7])
	if err != nil {
		return TermBankRow{}, fmt.Errorf("term tags: %w", err)
	}
	row.TermTags = termTags

	if len(tuple) > 8 {
		if err := json.Unmarshal(tuple[8], &row.FormOf); err != nil {
			return TermBankRow{}, fmt.Errorf("form-of: %w", err)
		}
	}
	if len(tuple) > 9 {
		if err := json.Unmarshal(tuple[9], &row.InflectionHypotheses); err != nil {
			return TermBankRow{}, fmt.Errorf("inflection hypotheses: %w", err)
		}
	}
	return row, nil
}

// parseTagField accepts a space-separated string or null.
func parseTagField(raw json.RawMessage) ([]string, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return strings.Fields(s), nil
}

// validateGloss accepts a bare string or an object whose type field
// is one of text, image or structured-content.
func validateGloss(raw json.RawMessage) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return nil
	}
	var obj struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("neither string nor object: %w", err)
	}
	switch obj.Type {
	case "text", "image", "structured-content":
		return nil
	}
	return fmt.Errorf("unknown gloss type %q", obj.Type)
}

type TermMetaBankRow struct {
	Term string
	Mode MetaMode
	Data json.RawMessage
}

// ParseTermMetaBankRow validates one term-meta tuple: [term, mode, data].
func ParseTermMetaBankRow(raw json.RawMessage) (TermMetaBankRow, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return TermMetaBankRow{}, fmt.Errorf("term meta row is not an array: %w", err)
	}
	if len(tuple) != 3 {
		return TermMetaBankRow{}, fmt.Errorf("term meta row has %d fields, want 3", len(tuple))
	}
	var row TermMetaBankRow
	if err := json.Unmarshal(tuple[0], &row.Term); err != nil {
		return TermMetaBankRow{}, fmt.Errorf("term: %w", err)
	}
	var mode string
	if err := json.Unmarshal(tuple[1], &mode); err != nil {
		return TermMetaBankRow{}, fmt.Errorf("mode: %w", err)
	}
	switch MetaMode(mode) {
	case MetaFreq, MetaPitch, MetaIPA:
		row.Mode = MetaMode(mode)
	default:
		return TermMetaBankRow{}, fmt.Errorf("unknown meta mode %q", mode)
	}
	row.Data = tuple[2]
	return row, nil
}

type KanjiBankRow struct {
	Character string
	Onyomi    []string
	Kunyomi   []string
	Tags      []string
	Meanings  []string
	Stats     map[string]string
}

// ParseKanjiBankRow validates one kanji-bank tuple:
// [character, onyomi, kunyomi, tags, meanings, stats?].
func ParseKanjiBankRow(raw json.RawMessage) (KanjiBankRow, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return KanjiBankRow{}, fmt.Errorf("kanji bank row is not an array: %w", err)
	}
	if len(tuple) < 5 {
		return KanjiBankRow{}, fmt.Errorf("kanji bank row has %d fields, want at least 5", len(tuple))
	}
	var row KanjiBankRow
	if err := json.Unmarshal(tuple[0], &row.Character); err != nil {
		return KanjiBankRow{}, fmt.Errorf("character: %w", err)
	}
	if len([]rune(row.Character)) != 1 {
		return KanjiBankRow{}, fmt.Errorf("character %q is not a single rune", row.Character)
	}
	fields := []struct {
		name string
		dst  *[]string
	}{
		{"onyomi", &row.Onyomi},
		{"kunyomi", &row.Kunyomi},
		{"tags", &row.Tags},
	}
	for i, f := range fields {
		tags, err := parseTagField(tuple[i+1])
		if err != nil {
			return KanjiBankRow{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = tags
	}
	if err := json.Unmarshal(tuple[4], &row.Meanings); err != nil {
		return KanjiBankRow{}, fmt.Errorf("meanings: %w", err)
	}
	if len(tuple) > 5 {
		if err := json.Unmarshal(tuple[5], &row.Stats); err != nil {
			return KanjiBankRow{}, fmt.Errorf("stats: %w", err)
		}
	}
	return row, nil
}

type KanjiMetaBankRow struct {
	Character string
	Mode      MetaMode
	Data      json.RawMessage
}

// ParseKanjiMetaBankRow validates one kanji-meta tuple: [character, mode, data].
func ParseKanjiMetaBankRow(raw json.RawMessage) (KanjiMetaBankRow, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return KanjiMetaBankRow{}, fmt.Errorf("kanji meta row is not an array: %w", err)
	}
	if len(tuple) != 3 {
		return KanjiMetaBankRow{}, fmt.Errorf("kanji meta row has %d fields, want 3", len(tuple))
	}
	var row KanjiMetaBankRow
	if err := json.Unmarshal(tuple[0], &row.Character); err != nil {
		return KanjiMetaBankRow{}, fmt.Errorf("character: %w", err)
	}
	var mode string
	if err := json.Unmarshal(tuple[1], &mode); err != nil {
		return KanjiMetaBankRow{}, fmt.Errorf("mode: %w", err)
	}
	if MetaMode(mode) != MetaFreq {
		return KanjiMetaBankRow{}, fmt.Errorf("unknown kanji meta mode %q", mode)
	}
	row.Mode = MetaFreq
	row.Data = tuple[2]
	return row, nil
}

type TagBankRow struct {
	Name     string
	Category string
	Order    int
	Notes    string
	Score    int
}

// ParseTagBankRow validates one tag-bank tuple:
// [name, category, order, notes, score].
func ParseTagBankRow(raw json.RawMessage) (TagBankRow, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return TagBankRow{}, fmt.Errorf("tag bank row is not an array: %w", err)
	}
	if len(tuple) < 5 {
		return TagBankRow{}, fmt.Errorf("tag bank row has %d fields, want 5", len(tuple))
	}
	var row TagBankRow
	if err := json.Unmarshal(tuple[0], &row.Name); err != nil {
		return TagBankRow{}, fmt.Errorf("name: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &row.Category); err != nil {
		return TagBankRow{}, fmt.Errorf("category: %w", err)
	}
	var order, score float64
	if err := json.Unmarshal(tuple[2], &order); err != nil {
		return TagBankRow{}, fmt.Errorf("order: %w", err)
	}
	row.Order = int(order)
	if err := json.Unmarshal(tuple[3], &row.Notes); err != nil {
		return TagBankRow{}, fmt.Errorf("notes: %w", err)
	}
	if err := json.Unmarshal(tuple[4], &score); err != nil {
		return TagBankRow{}, fmt.Errorf("score: %w", err)
	}
	row.Score = int(score)
	return row, nil
}
