package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/mkobayashi/jiten/app/common"
	"github.com/mkobayashi/jiten/app/lookup"
	"github.com/mkobayashi/jiten/app/transform"
)

// DictionarySettings configures one installed dictionary. Order in the
// config file fixes the dictionary index used for sorting.
type DictionarySettings struct {
	// Name must match the title of an imported bundle.
	Name                   string `json:"name"`
	Priority               int    `json:"priority"`
	Enabled                bool   `json:"enabled"`
	AllowSecondarySearches bool   `json:"allow_secondary_searches"`
}

// LookupDefaults are the find-terms options applied when a request
// does not override them.
type LookupDefaults struct {
	Mode                         lookup.FindTermsMode          `json:"mode"`
	MatchType                    common.MatchType              `json:"match_type"`
	Deinflect                    bool                          `json:"deinflect"`
	DeinflectionSource           common.InflectionSource       `json:"deinflection_source"`
	DeinflectionPosFilter        bool                          `json:"deinflection_pos_filter"`
	TextReplacements             []transform.TextReplacement   `json:"text_replacements"`
	CollapseEmphaticSequences    transform.EmphaticMode        `json:"collapse_emphatic_sequences"`
	TextTransformations          map[string]transform.TriState `json:"text_transformations"`
	SearchResolution             common.SearchResolution       `json:"search_resolution"`
	RemoveNonJapaneseCharacters  bool                          `json:"remove_non_japanese_characters"`
	SortFrequencyDictionary      string                        `json:"sort_frequency_dictionary"`
	SortFrequencyDictionaryOrder lookup.SortOrder              `json:"sort_frequency_dictionary_order"`
	ExcludeDictionaryDefinitions []string                      `json:"exclude_dictionary_definitions"`
}

type JitenConfig struct {
	InstanceName string `json:"instance_name"`
	DataDir      string `json:"-"`
	// Hostnames[0] is the canonical hostname when ACME is enabled.
	Hostnames []string `json:"hostnames"`

	Language       common.Language      `json:"language"`
	MainDictionary string               `json:"main_dictionary"`
	Dictionaries   []DictionarySettings `json:"dictionaries"`
	Lookup         LookupDefaults       `json:"lookup"`

	// SearchLimit caps full-text gloss search results.
	SearchLimit    int  `json:"search_limit"`
	TimeoutSeconds int  `json:"timeout_seconds"`
	LogLatency     bool `json:"log_latency"`
}

// ServerRuntimeConfig is the command-line half of the server setup;
// everything here comes from flags, not config.json.
type ServerRuntimeConfig struct {
	Addr               string
	Port               int
	CertDir            string
	AcmeEnabled        bool
	BehindLoadBalancer bool
	RateLimit          int
	GzipLevel          int
}

// Load reads config.json from dataDir and applies defaults.
func Load(dataDir string) (*JitenConfig, error) {
	confPath := path.Join(dataDir, "config.json")
	f, err := os.Open(confPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", confPath, err)
	}
	defer f.Close()

	var conf JitenConfig
	if err := json.NewDecoder(f).Decode(&conf); err != nil {
		return nil, fmt.Errorf("reading %s: %w", confPath, err)
	}
	conf.DataDir = dataDir
	conf.applyDefaults()
	return &conf, nil
}

func (c *JitenConfig) applyDefaults() {
	if c.Language == "" {
		c.Language = common.Japanese
	}
	if c.Lookup.Mode == "" {
		c.Lookup.Mode = lookup.ModeGroup
	}
	if c.Lookup.MatchType == "" {
		c.Lookup.MatchType = common.MatchExact
	}
	if c.Lookup.DeinflectionSource == "" {
		c.Lookup.DeinflectionSource = common.InflectionSourceBoth
	}
	if c.Lookup.CollapseEmphaticSequences == "" {
		c.Lookup.CollapseEmphaticSequences = transform.EmphaticOff
	}
	if c.Lookup.SearchResolution == "" {
		c.Lookup.SearchResolution = common.ResolutionLetter
	}
	if c.Lookup.SortFrequencyDictionaryOrder == "" {
		c.Lookup.SortFrequencyDictionaryOrder = lookup.SortAscending
	}
	if c.SearchLimit == 0 {
		c.SearchLimit = 20
	}
}

// FindTermsOptions materialises the configured lookup defaults.
func (c *JitenConfig) FindTermsOptions() *lookup.FindTermsOptions {
	opts := &lookup.FindTermsOptions{
		Language:                     c.Language,
		MatchType:                    c.Lookup.MatchType,
		EnabledDictionaryMap:         map[string]lookup.DictionaryOptions{},
		MainDictionary:               c.MainDictionary,
		Deinflect:                    c.Lookup.Deinflect,
		DeinflectionSource:           c.Lookup.DeinflectionSource,
		DeinflectionPosFilter:        c.Lookup.DeinflectionPosFilter,
		TextReplacements:             c.Lookup.TextReplacements,
		CollapseEmphaticSequences:    c.Lookup.CollapseEmphaticSequences,
		TextTransformations:          c.Lookup.TextTransformations,
		RemoveNonJapaneseCharacters:  c.Lookup.RemoveNonJapaneseCharacters,
		SearchResolution:             c.Lookup.SearchResolution,
		SortFrequencyDictionary:      c.Lookup.SortFrequencyDictionary,
		SortFrequencyDictionaryOrder: c.Lookup.SortFrequencyDictionaryOrder,
	}
	for _, d := range c.Dictionaries {
		if !d.Enabled {
			continue
		}
		opts.DictionaryOrder = append(opts.DictionaryOrder, d.Name)
		opts.EnabledDictionaryMap[d.Name] = lookup.DictionaryOptions{
			Index:                  len(opts.DictionaryOrder) - 1,
			Priority:               d.Priority,
			AllowSecondarySearches: d.AllowSecondarySearches,
		}
	}
	if len(c.Lookup.ExcludeDictionaryDefinitions) > 0 {
		opts.ExcludeDictionaryDefinitions = map[string]struct{}{}
		for _, name := range c.Lookup.ExcludeDictionaryDefinitions {
			opts.ExcludeDictionaryDefinitions[name] = struct{}{}
		}
	}
	return opts
}

func (c *JitenConfig) FindKanjiOptions() *lookup.FindKanjiOptions {
	opts := &lookup.FindKanjiOptions{
		EnabledDictionaryMap: map[string]lookup.DictionaryOptions{},
	}
	for _, d := range c.Dictionaries {
		if !d.Enabled {
			continue
		}
		opts.DictionaryOrder = append(opts.DictionaryOrder, d.Name)
		opts.EnabledDictionaryMap[d.Name] = lookup.DictionaryOptions{
			Index:    len(opts.DictionaryOrder) - 1,
			Priority: d.Priority,
		}
	}
	return opts
}

// EnabledDictionaryNames returns the configured dictionaries in order.
func (c *JitenConfig) EnabledDictionaryNames() []string {
	var names []string
	for _, d := range c.Dictionaries {
		if d.Enabled {
			names = append(names, d.Name)
		}
	}
	return names
}
