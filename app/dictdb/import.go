package dictdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
)

// bundleIndex mirrors a dictionary bundle's index.json.
type bundleIndex struct {
	Title    string `json:"title"`
	Revision string `json:"revision"`
	Format   int    `json:"format"`
	Version  int    `json:"version"`
	Language string `json:"sourceLanguage"`
}

// Importer loads a dictionary bundle directory into the store and the
// gloss index. A bundle holds index.json plus any number of
// term_bank_*.json, term_meta_bank_*.json, kanji_bank_*.json,
// kanji_meta_bank_*.json and tag_bank_*.json files, and optionally a
// README.md rendered into the dictionary description.
type Importer struct {
	store *SQLiteStore
	gloss *GlossIndex
}

func NewImporter(store *SQLiteStore, gloss *GlossIndex) *Importer {
	return &Importer{store: store, gloss: gloss}
}

// ImportStats reports what one bundle import loaded.
type ImportStats struct {
	Terms     int
	TermMeta  int
	Kanji     int
	KanjiMeta int
	Tags      int
	Rejected  int
}

// ImportBundle loads one bundle directory. The dictionary is named
// after the bundle's title. Malformed rows are rejected here, before
// anything reaches the lookup core; each rejection is logged with its
// file and row position.
func (im *Importer) ImportBundle(ctx context.Context, dir string) (ImportStats, error) {
	var stats ImportStats

	indexJSON, err := os.ReadFile(filepath.Join(dir, "index.json"))
	if err != nil {
		return stats, fmt.Errorf("failed to read bundle index: %w", err)
	}
	var index bundleIndex
	if err := json.Unmarshal(indexJSON, &index); err != nil {
		return stats, fmt.Errorf("failed to parse bundle index: %w", err)
	}
	if index.Title == "" {
		return stats, fmt.Errorf("bundle index has no title")
	}
	format := index.Format
	if format == 0 {
		format = index.Version
	}

	descriptionHTML, err := renderBundleReadme(dir)
	if err != nil {
		return stats, err
	}

	dictName := index.Title
	err = im.store.AddDictionary(ctx, DictionaryInfo{
		Name:            dictName,
		Title:           index.Title,
		Revision:        index.Revision,
		Format:          format,
		Language:        index.Language,
		DescriptionHTML: descriptionHTML,
	})
	if err != nil {
		return stats, err
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return stats, fmt.Errorf("failed to read bundle directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		var load func(context.Context, string, string, []json.RawMessage, *ImportStats) error
		switch {
		case strings.HasPrefix(f.Name(), "term_meta_bank_"):
			load = im.loadTermMetaBank
		case strings.HasPrefix(f.Name(), "term_bank_"):
			load = im.loadTermBank
		case strings.HasPrefix(f.Name(), "kanji_meta_bank_"):
			load = im.loadKanjiMetaBank
		case strings.HasPrefix(f.Name(), "kanji_bank_"):
			load = im.loadKanjiBank
		case strings.HasPrefix(f.Name(), "tag_bank_"):
			load = im.loadTagBank
		default:
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return stats, fmt.Errorf("failed to read %s: %w", f.Name(), err)
		}
		var tuples []json.RawMessage
		if err := json.Unmarshal(raw, &tuples); err != nil {
			return stats, fmt.Errorf("%s is not a JSON array: %w", f.Name(), err)
		}
		if err := load(ctx, dictName, f.Name(), tuples, &stats); err != nil {
			return stats, err
		}
	}

	slog.Info("imported dictionary bundle",
		"dictionary", dictName,
		"terms", stats.Terms, "termMeta", stats.TermMeta,
		"kanji", stats.Kanji, "kanjiMeta", stats.KanjiMeta,
		"tags", stats.Tags, "rejected", stats.Rejected)
	return stats, nil
}

func renderBundleReadme(dir string) (string, error) {
	md, err := os.ReadFile(filepath.Join(dir, "README.md"))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read bundle README: %w", err)
	}
	var buf bytes.Buffer
	if err := goldmark.Convert(md, &buf); err != nil {
		return "", fmt.Errorf("failed to render bundle README: %w", err)
	}
	return buf.String(), nil
}

func (im *Importer) loadTermBank(ctx context.Context, dictName, file string, tuples []json.RawMessage, stats *ImportStats) error {
	rows := make([]TermBankRow, 0, len(tuples))
	for i, tuple := range tuples {
		row, err := ParseTermBankRow(tuple)
		if err != nil {
			slog.Warn("rejected term bank row", "file", file, "row", i, "err", err)
			stats.Rejected++
			continue
		}
		rows = append(rows, row)
	}
	if err := im.store.AddTerms(ctx, dictName, rows); err != nil {
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	if im.gloss != nil {
		if err := im.gloss.AddTerms(dictName, rows); err != nil {
			return fmt.Errorf("failed to index %s: %w", file, err)
		}
	}
	stats.Terms += len(rows)
	return nil
}

func (im *Importer) loadTermMetaBank(ctx context.Context, dictName, file string, tuples []json.RawMessage, stats *ImportStats) error {
	rows := make([]TermMetaBankRow, 0, len(tuples))
	for i, tuple := range tuples {
		row, err := ParseTermMetaBankRow(tuple)
		if err != nil {
			slog.Warn("rejected term meta row", "file", file, "row", i, "err", err)
			stats.Rejected++
			continue
		}
		rows = append(rows, row)
	}
	if err := im.store.AddTermMeta(ctx, dictName, rows); err != nil {
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	stats.TermMeta += len(rows)
	return nil
}

func (im *Importer) loadKanjiBank(ctx context.Context, dictName, file string, tuples []json.RawMessage, stats *ImportStats) error {
	rows := make([]KanjiBankRow, 0, len(tuples))
	for i, tuple := range tuples {
		row, err := ParseKanjiBankRow(tuple)
		if err != nil {
			slog.Warn("rejected kanji bank row", "file", file, "row", i, "err", err)
			stats.Rejected++
			continue
		}
		rows = append(rows, row)
	}
	if err := im.store.AddKanji(ctx, dictName, rows); err != nil {
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	stats.Kanji += len(rows)
	return nil
}

func (im *Importer) loadKanjiMetaBank(ctx context.Context, dictName, file string, tuples []json.RawMessage, stats *ImportStats) error {
	rows := make([]KanjiMetaBankRow, 0, len(tuples))
	for i, tuple := range tuples {
		row, err := ParseKanjiMetaBankRow(tuple)
		if err != nil {
			slog.Warn("rejected kanji meta row", "file", file, "row", i, "err", err)
			stats.Rejected++
			continue
		}
		rows = append(rows, row)
	}
	if err := im.store.AddKanjiMeta(ctx, dictName, rows); err != nil {
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	stats.KanjiMeta += len(rows)
	return nil
}

func (im *Importer) loadTagBank(ctx context.Context, dictName, file string, tuples []json.RawMessage, stats *ImportStats) error {
	rows := make([]TagBankRow, 0, len(tuples))
	for i, tuple := range tuples {
		row, err := ParseTagBankRow(tuple)
		if err != nil {
			slog.Warn("rejected tag bank row", "file", file, "row", i, "err", err)
			stats.Rejected++
			continue
		}
		rows = append(rows, row)
	}
	if err := im.store.AddTags(ctx, dictName, rows); err != nil {
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	stats.Tags += len(rows)
	return nil
}
