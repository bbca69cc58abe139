package dictdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mkobayashi/jiten/app/common"
)

// SQLiteStore implements Database over an embedded SQLite file. All
// bulk queries are answered in one statement each; the index and
// match-source bookkeeping of §6-style results happens Go-side after
// the scan.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ Database = &SQLiteStore{}

func (s *SQLiteStore) Init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS jiten_dictionaries (
			name TEXT PRIMARY KEY,
			title TEXT,
			revision TEXT,
			format INTEGER,
			language TEXT,
			description_html TEXT
		);
		CREATE TABLE IF NOT EXISTS jiten_terms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dict_name TEXT,
			term TEXT,
			reading TEXT,
			definition_tags TEXT,
			term_tags TEXT,
			rules TEXT,
			score INTEGER,
			glosses BLOB,
			sequence INTEGER,
			form_of TEXT,
			inflection_hypotheses BLOB
		);
		CREATE INDEX IF NOT EXISTS idx_terms_term ON jiten_terms(term);
		CREATE INDEX IF NOT EXISTS idx_terms_reading ON jiten_terms(reading);
		CREATE INDEX IF NOT EXISTS idx_terms_sequence ON jiten_terms(dict_name, sequence);
		CREATE TABLE IF NOT EXISTS jiten_term_meta (
			dict_name TEXT,
			term TEXT,
			mode TEXT,
			data BLOB
		);
		CREATE INDEX IF NOT EXISTS idx_term_meta_term ON jiten_term_meta(term);
		CREATE TABLE IF NOT EXISTS jiten_kanji (
			dict_name TEXT,
			character TEXT,
			onyomi TEXT,
			kunyomi TEXT,
			tags TEXT,
			meanings BLOB,
			stats BLOB
		);
		CREATE INDEX IF NOT EXISTS idx_kanji_character ON jiten_kanji(character);
		CREATE TABLE IF NOT EXISTS jiten_kanji_meta (
			dict_name TEXT,
			character TEXT,
			mode TEXT,
			data BLOB
		);
		CREATE INDEX IF NOT EXISTS idx_kanji_meta_character ON jiten_kanji_meta(character);
		CREATE TABLE IF NOT EXISTS jiten_tags (
			dict_name TEXT,
			name TEXT,
			category TEXT,
			sort_order INTEGER,
			notes TEXT,
			score INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_tags_name ON jiten_tags(dict_name, name);
	`)
	if err != nil {
		return fmt.Errorf("failed to create jiten tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddDictionary(ctx context.Context, info DictionaryInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO jiten_dictionaries
			(name, title, revision, format, language, description_html)
		VALUES (?, ?, ?, ?, ?, ?)`,
		info.Name, info.Title, info.Revision, info.Format, info.Language, info.DescriptionHTML)
	if err != nil {
		return fmt.Errorf("failed to register dictionary %q: %w", info.Name, err)
	}
	return nil
}

func (s *SQLiteStore) AddTerms(ctx context.Context, dictName string, rows []TermBankRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO jiten_terms
			(dict_name, term, reading, definition_tags, term_tags, rules,
			 score, glosses, sequence, form_of, inflection_hypotheses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		glosses, err := json.Marshal(row.Glosses)
		if err != nil {
			return fmt.Errorf("failed to encode glosses for %q: %w", row.Term, err)
		}
		var hypotheses []byte
		if row.InflectionHypotheses != nil {
			hypotheses, err = json.Marshal(row.InflectionHypotheses)
			if err != nil {
				return fmt.Errorf("failed to encode hypotheses for %q: %w", row.Term, err)
			}
		}
		_, err = stmt.ExecContext(ctx,
			dictName, row.Term, row.Reading,
			strings.Join(row.DefinitionTags, " "), strings.Join(row.TermTags, " "),
			strings.Join(row.Rules, " "), row.Score, glosses, row.Sequence,
			row.FormOf, hypotheses)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) AddTermMeta(ctx context.Context, dictName string, rows []TermMetaBankRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO jiten_term_meta (dict_name, term, mode, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, dictName, row.Term, string(row.Mode), []byte(row.Data)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) AddKanji(ctx context.Context, dictName string, rows []KanjiBankRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO jiten_kanji
			(dict_name, character, onyomi, kunyomi, tags, meanings, stats)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		meanings, err := json.Marshal(row.Meanings)
		if err != nil {
			return fmt.Errorf("failed to encode meanings for %q: %w", row.Character, err)
		}
		stats, err := json.Marshal(row.Stats)
		if err != nil {
			return fmt.Errorf("failed to encode stats for %q: %w", row.Character, err)
		}
		_, err = stmt.ExecContext(ctx,
			dictName, row.Character,
			strings.Join(row.Onyomi, " "), strings.Join(row.Kunyomi, " "),
			strings.Join(row.Tags, " "), meanings, stats)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) AddKanjiMeta(ctx context.Context, dictName string, rows []KanjiMetaBankRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO jiten_kanji_meta (dict_name, character, mode, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, dictName, row.Character, string(row.Mode), []byte(row.Data)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) AddTags(ctx context.Context, dictName string, rows []TagBankRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO jiten_tags (dict_name, name, category, sort_order, notes, score)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, dictName, row.Name, row.Category, row.Order, row.Notes, row.Score); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListDictionaries(ctx context.Context) ([]DictionaryInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, title, revision, format, language, description_html
		FROM jiten_dictionaries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dictionaries: %w", err)
	}
	defer rows.Close()

	var infos []DictionaryInfo
	for rows.Next() {
		var info DictionaryInfo
		if err := rows.Scan(&info.Name, &info.Title, &info.Revision, &info.Format, &info.Language, &info.DescriptionHTML); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

const termColumns = `id, dict_name, term, reading, definition_tags, term_tags,
	rules, score, glosses, sequence, form_of, inflection_hypotheses`

func scanTermRow(rows *sql.Rows) (TermEntry, error) {
	var e TermEntry
	var defTags, termTags, rules, formOf string
	var glosses, hypotheses []byte
	err := rows.Scan(&e.ID, &e.Dictionary, &e.Term, &e.Reading, &defTags, &termTags,
		&rules, &e.Score, &glosses, &e.Sequence, &formOf, &hypotheses)
	if err != nil {
		return TermEntry{}, err
	}
	e.DefinitionTags = strings.Fields(defTags)
	e.TermTags = strings.Fields(termTags)
	e.Rules, e.RuleMask = common.ParseRules(rules)
	e.FormOf = formOf
	if err := json.Unmarshal(glosses, &e.Glosses); err != nil {
		return TermEntry{}, fmt.Errorf("failed to decode stored glosses for %q: %w", e.Term, err)
	}
	if len(hypotheses) > 0 {
		if err := json.Unmarshal(hypotheses, &e.InflectionHypotheses); err != nil {
			return TermEntry{}, fmt.Errorf("failed to decode stored hypotheses for %q: %w", e.Term, err)
		}
	}
	return e, nil
}

// placeholders returns "?,?,…" with n slots.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func dictFilter(dictionaries []string, args *[]any) string {
	if len(dictionaries) == 0 {
		return ""
	}
	for _, d := range dictionaries {
		*args = append(*args, d)
	}
	return " AND dict_name IN (" + placeholders(len(dictionaries)) + ")"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *SQLiteStore) FindTermsBulk(ctx context.Context, terms []string, dictionaries []string, matchType common.MatchType) ([]TermEntry, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	var args []any
	var where string
	switch matchType {
	case common.MatchExact, "":
		matchType = common.MatchExact
		where = "(term IN (" + placeholders(len(terms)) + ") OR reading IN (" + placeholders(len(terms)) + "))"
		for _, t := range terms {
			args = append(args, t)
		}
		for _, t := range terms {
			args = append(args, t)
		}
	case common.MatchPrefix, common.MatchSuffix:
		clauses := make([]string, len(terms))
		for i, t := range terms {
			pattern := likeEscaper.Replace(t)
			if matchType == common.MatchPrefix {
				pattern += "%"
			} else {
				pattern = "%" + pattern
			}
			clauses[i] = `(term LIKE ? ESCAPE '\' OR reading LIKE ? ESCAPE '\')`
			args = append(args, pattern, pattern)
		}
		where = "(" + strings.Join(clauses, " OR ") + ")"
	default:
		return nil, fmt.Errorf("unknown match type %q", matchType)
	}
	where += dictFilter(dictionaries, &args)

	rows, err := s.db.QueryContext(ctx, "SELECT "+termColumns+" FROM jiten_terms WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("term lookup failed: %w", err)
	}
	defer rows.Close()

	matches := func(stored, query string) bool {
		switch matchType {
		case common.MatchPrefix:
			return strings.HasPrefix(stored, query)
		case common.MatchSuffix:
			return strings.HasSuffix(stored, query)
		default:
			return stored == query
		}
	}

	var results []TermEntry
	for rows.Next() {
		entry, err := scanTermRow(rows)
		if err != nil {
			return nil, err
		}
		entry.MatchType = matchType
		// one result per input the row answers, term match preferred
		for i, t := range terms {
			out := entry
			out.Index = i
			if matches(entry.Term, t) {
				out.MatchSource = common.MatchSourceTerm
			} else if matches(entry.Reading, t) {
				out.MatchSource = common.MatchSourceReading
			} else {
				continue
			}
			results = append(results, out)
		}
	}
	return results, rows.Err()
}

func (s *SQLiteStore) FindTermsExactBulk(ctx context.Context, pairs []TermReading, dictionaries []string) ([]TermEntry, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	var args []any
	clauses := make([]string, len(pairs))
	for i, p := range pairs {
		clauses[i] = "(term = ? AND reading = ?)"
		args = append(args, p.Term, p.Reading)
	}
	where := "(" + strings.Join(clauses, " OR ") + ")" + dictFilter(dictionaries, &args)

	rows, err := s.db.QueryContext(ctx, "SELECT "+termColumns+" FROM jiten_terms WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("exact term lookup failed: %w", err)
	}
	defer rows.Close()

	var results []TermEntry
	for rows.Next() {
		entry, err := scanTermRow(rows)
		if err != nil {
			return nil, err
		}
		entry.MatchType = common.MatchExact
		entry.MatchSource = common.MatchSourceTerm
		for i, p := range pairs {
			if entry.Term == p.Term && entry.Reading == p.Reading {
				out := entry
				out.Index = i
				results = append(results, out)
			}
		}
	}
	return results, rows.Err()
}

func (s *SQLiteStore) FindTermsBySequenceBulk(ctx context.Context, queries []SequenceQuery) ([]TermEntry, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	var args []any
	clauses := make([]string, len(queries))
	for i, q := range queries {
		clauses[i] = "(dict_name = ? AND sequence = ?)"
		args = append(args, q.Dictionary, q.Query)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+termColumns+" FROM jiten_terms WHERE "+strings.Join(clauses, " OR "), args...)
	if err != nil {
		return nil, fmt.Errorf("sequence lookup failed: %w", err)
	}
	defer rows.Close()

	var results []TermEntry
	for rows.Next() {
		entry, err := scanTermRow(rows)
		if err != nil {
			return nil, err
		}
		entry.MatchType = common.MatchExact
		entry.MatchSource = common.MatchSourceTerm
		for i, q := range queries {
			if entry.Dictionary == q.Dictionary && entry.Sequence == q.Query {
				out := entry
				out.Index = i
				results = append(results, out)
			}
		}
	}
	return results, rows.Err()
}

func (s *SQLiteStore) FindTermMetaBulk(ctx context.Context, terms []string, dictionaries []string) ([]TermMetaEntry, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	var args []any
	for _, t := range terms {
		args = append(args, t)
	}
	where := "term IN (" + placeholders(len(terms)) + ")" + dictFilter(dictionaries, &args)

	rows, err := s.db.QueryContext(ctx,
		"SELECT dict_name, term, mode, data FROM jiten_term_meta WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("term meta lookup failed: %w", err)
	}
	defer rows.Close()

	var results []TermMetaEntry
	for rows.Next() {
		var e TermMetaEntry
		var mode string
		var data []byte
		if err := rows.Scan(&e.Dictionary, &e.Term, &mode, &data); err != nil {
			return nil, err
		}
		e.Mode = MetaMode(mode)
		e.Data = data
		for i, t := range terms {
			if e.Term == t {
				out := e
				out.Index = i
				results = append(results, out)
			}
		}
	}
	return results, rows.Err()
}

func (s *SQLiteStore) FindKanjiBulk(ctx context.Context, chars []string, dictionaries []string) ([]KanjiEntry, error) {
	if len(chars) == 0 {
		return nil, nil
	}

	var args []any
	for _, c := range chars {
		args = append(args, c)
	}
	where := "character IN (" + placeholders(len(chars)) + ")" + dictFilter(dictionaries, &args)

	rows, err := s.db.QueryContext(ctx, `
		SELECT dict_name, character, onyomi, kunyomi, tags, meanings, stats
		FROM jiten_kanji WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("kanji lookup failed: %w", err)
	}
	defer rows.Close()

	var results []KanjiEntry
	for rows.Next() {
		var e KanjiEntry
		var onyomi, kunyomi, tags string
		var meanings, stats []byte
		if err := rows.Scan(&e.Dictionary, &e.Character, &onyomi, &kunyomi, &tags, &meanings, &stats); err != nil {
			return nil, err
		}
		e.Onyomi = strings.Fields(onyomi)
		e.Kunyomi = strings.Fields(kunyomi)
		e.Tags = strings.Fields(tags)
		if err := json.Unmarshal(meanings, &e.Meanings); err != nil {
			return nil, fmt.Errorf("failed to decode stored meanings for %q: %w", e.Character, err)
		}
		if err := json.Unmarshal(stats, &e.Stats); err != nil {
			return nil, fmt.Errorf("failed to decode stored stats for %q: %w", e.Character, err)
		}
		for i, c := range chars {
			if e.Character == c {
				out := e
				out.Index = i
				results = append(results, out)
			}
		}
	}
	return results, rows.Err()
}

func (s *SQLiteStore) FindKanjiMetaBulk(ctx context.Context, chars []string, dictionaries []string) ([]KanjiMetaEntry, error) {
	if len(chars) == 0 {
		return nil, nil
	}

	var args []any
	for _, c := range chars {
		args = append(args, c)
	}
	where := "character IN (" + placeholders(len(chars)) + ")" + dictFilter(dictionaries, &args)

	rows, err := s.db.QueryContext(ctx,
		"SELECT dict_name, character, mode, data FROM jiten_kanji_meta WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("kanji meta lookup failed: %w", err)
	}
	defer rows.Close()

	var results []KanjiMetaEntry
	for rows.Next() {
		var e KanjiMetaEntry
		var mode string
		var data []byte
		if err := rows.Scan(&e.Dictionary, &e.Character, &mode, &data); err != nil {
			return nil, err
		}
		e.Mode = MetaMode(mode)
		e.Data = data
		for i, c := range chars {
			if e.Character == c {
				out := e
				out.Index = i
				results = append(results, out)
			}
		}
	}
	return results, rows.Err()
}

func (s *SQLiteStore) FindTagMetaBulk(ctx context.Context, queries []TagQuery) ([]*TagRecord, error) {
	results := make([]*TagRecord, len(queries))
	if len(queries) == 0 {
		return results, nil
	}

	var args []any
	clauses := make([]string, len(queries))
	for i, q := range queries {
		clauses[i] = "(dict_name = ? AND name = ?)"
		args = append(args, q.Dictionary, q.Query)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT dict_name, name, category, sort_order, notes, score
		FROM jiten_tags WHERE `+strings.Join(clauses, " OR "), args...)
	if err != nil {
		return nil, fmt.Errorf("tag lookup failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dictName string
		var rec TagRecord
		if err := rows.Scan(&dictName, &rec.Name, &rec.Category, &rec.Order, &rec.Notes, &rec.Score); err != nil {
			return nil, err
		}
		for i, q := range queries {
			if q.Dictionary == dictName && q.Query == rec.Name && results[i] == nil {
				r := rec
				results[i] = &r
			}
		}
	}
	return results, rows.Err()
}
