package transform

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
)

// TextReplacement is one user-configured (regex, replacement) pair.
// Replacement may reference capture groups with $1, $name etc.
type TextReplacement struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
}

var regexCache = cache.New(10*time.Minute, 15*time.Minute)

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, found := regexCache.Get(pattern); found {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile text replacement %q: %w", pattern, err)
	}
	regexCache.Set(pattern, re, cache.DefaultExpiration)
	return re, nil
}

type compiledReplacement struct {
	re          *regexp.Regexp
	replacement string
}

func compileReplacements(replacements []TextReplacement) ([]compiledReplacement, error) {
	compiled := make([]compiledReplacement, len(replacements))
	for i, tr := range replacements {
		re, err := compilePattern(tr.Pattern)
		if err != nil {
			return nil, err
		}
		compiled[i] = compiledReplacement{re: re, replacement: tr.Replacement}
	}
	return compiled, nil
}

// applyReplacements splices every match of every pair, in pair order,
// into text, keeping the source map in step. Positions handed to the
// map are rune positions.
func applyReplacements(text string, m *SourceMap, compiled []compiledReplacement) string {
	for _, cr := range compiled {
		offset := 0
		for offset <= len(text) {
			loc := cr.re.FindStringSubmatchIndex(text[offset:])
			if loc == nil {
				break
			}
			lo, hi := offset+loc[0], offset+loc[1]
			adjusted := make([]int, len(loc))
			for i, v := range loc {
				if v < 0 {
					adjusted[i] = v
				} else {
					adjusted[i] = v + offset
				}
			}
			expanded := string(cr.re.ExpandString(nil, cr.replacement, text, adjusted))

			runeStart := utf8.RuneCountInString(text[:lo])
			oldCount := utf8.RuneCountInString(text[lo:hi])
			newCount := utf8.RuneCountInString(expanded)
			m.Replace(runeStart, oldCount, newCount)

			text = text[:lo] + expanded + text[hi:]
			offset = lo + len(expanded)
			if hi == lo {
				// empty match: step over one rune to guarantee progress
				_, size := utf8.DecodeRuneInString(text[offset:])
				if size == 0 {
					break
				}
				offset += size
			}
		}
	}
	return text
}
