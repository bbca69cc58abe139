package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mkobayashi/jiten/app/common"
	"github.com/mkobayashi/jiten/app/config"
	"github.com/mkobayashi/jiten/app/dictdb"
	"github.com/mkobayashi/jiten/app/lookup"
)

type JitenController struct {
	translator *lookup.Translator
	store      *dictdb.SQLiteStore
	gloss      *dictdb.GlossIndex
	conf       *config.JitenConfig
}

func NewJitenController(translator *lookup.Translator, stores *config.Stores, conf *config.JitenConfig) *JitenController {
	return &JitenController{
		translator: translator,
		store:      stores.Store,
		gloss:      stores.Gloss,
		conf:       conf,
	}
}

// GetTermLookup answers GET /lookup/terms?text=...&mode=...
func (jc *JitenController) GetTermLookup(c echo.Context) error {
	text := c.QueryParam("text")
	if text == "" {
		return common.NewUserVisibleError(http.StatusBadRequest, "missing required query parameter: text")
	}

	mode := jc.conf.Lookup.Mode
	if m := c.QueryParam("mode"); m != "" {
		switch lookup.FindTermsMode(m) {
		case lookup.ModeGroup, lookup.ModeMerge, lookup.ModeSplit, lookup.ModeSimple:
			mode = lookup.FindTermsMode(m)
		default:
			return common.NewUserVisibleError(http.StatusBadRequest, "unknown mode: "+m)
		}
	}

	result, err := jc.translator.FindTerms(c.Request().Context(), mode, text, jc.conf.FindTermsOptions())
	if err != nil {
		return common.WrapErrorForResponse(err, "term lookup failed")
	}
	if result.Entries == nil {
		result.Entries = []*lookup.TermDictionaryEntry{}
	}
	return c.JSON(http.StatusOK, result)
}

// GetKanjiLookup answers GET /lookup/kanji?text=...
func (jc *JitenController) GetKanjiLookup(c echo.Context) error {
	text := c.QueryParam("text")
	if text == "" {
		return common.NewUserVisibleError(http.StatusBadRequest, "missing required query parameter: text")
	}

	entries, err := jc.translator.FindKanji(c.Request().Context(), text, jc.conf.FindKanjiOptions())
	if err != nil {
		return common.WrapErrorForResponse(err, "kanji lookup failed")
	}
	if entries == nil {
		entries = []*lookup.KanjiDictionaryEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

// GetTermFrequencies answers GET /frequencies?term=...&term=...
// An optional parallel reading parameter narrows each term; an empty
// value means any reading.
func (jc *JitenController) GetTermFrequencies(c echo.Context) error {
	terms := c.QueryParams()["term"]
	if len(terms) == 0 {
		return common.NewUserVisibleError(http.StatusBadRequest, "missing required query parameter: term")
	}
	readings := c.QueryParams()["reading"]
	if len(readings) > 0 && len(readings) != len(terms) {
		return common.NewUserVisibleError(http.StatusBadRequest, "reading parameters must match term parameters")
	}

	pairs := make([]dictdb.TermReading, len(terms))
	for i, term := range terms {
		pairs[i] = dictdb.TermReading{Term: term}
		if len(readings) > 0 {
			pairs[i].Reading = readings[i]
		}
	}

	dictionaries := c.QueryParams()["dictionary"]
	if len(dictionaries) == 0 {
		dictionaries = jc.conf.EnabledDictionaryNames()
	}

	results, err := jc.translator.GetTermFrequencies(c.Request().Context(), pairs, dictionaries)
	if err != nil {
		return common.WrapErrorForResponse(err, "frequency lookup failed")
	}
	if results == nil {
		results = []lookup.TermFrequencyResult{}
	}
	return c.JSON(http.StatusOK, results)
}

// SearchGlosses answers GET /search?q=... with full-text hits over
// definition text.
func (jc *JitenController) SearchGlosses(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return common.NewUserVisibleError(http.StatusBadRequest, "missing required query parameter: q")
	}

	limit := jc.conf.SearchLimit
	if l := c.QueryParam("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			return common.NewUserVisibleError(http.StatusBadRequest, "invalid limit: "+l)
		}
		if n < limit {
			limit = n
		}
	}

	hits, err := jc.gloss.Search(c.Request().Context(), q, limit)
	if err != nil {
		return common.WrapErrorForResponse(err, "gloss search failed")
	}
	if hits == nil {
		hits = []dictdb.GlossHit{}
	}
	return c.JSON(http.StatusOK, hits)
}

// ListDictionaries answers GET /dictionaries.
func (jc *JitenController) ListDictionaries(c echo.Context) error {
	infos, err := jc.store.ListDictionaries(c.Request().Context())
	if err != nil {
		return common.WrapErrorForResponse(err, "listing dictionaries failed")
	}
	if infos == nil {
		infos = []dictdb.DictionaryInfo{}
	}
	return c.JSON(http.StatusOK, infos)
}

// ClearCaches answers POST /caches/clear, dropping memoised tag
// lookups after dictionary imports.
func (jc *JitenController) ClearCaches(c echo.Context) error {
	jc.translator.ClearDatabaseCaches()
	return c.NoContent(http.StatusNoContent)
}
