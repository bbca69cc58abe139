package deinflect

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mkobayashi/jiten/app/common"
)

//go:embed rules_ja.json
var rulesJaFile []byte

type ruleVariantJSON struct {
	KanaIn   string   `json:"kanaIn"`
	KanaOut  string   `json:"kanaOut"`
	RulesIn  []string `json:"rulesIn"`
	RulesOut []string `json:"rulesOut"`
}

type reasonJSON struct {
	Name     string            `json:"name"`
	Variants []ruleVariantJSON `json:"variants"`
}

type rule struct {
	name      string
	suffixIn  string
	suffixOut string
	rulesIn   common.RuleMask
	rulesOut  common.RuleMask
}

// Deinflector rewrites a surface form back towards candidate lemmas by
// repeatedly replacing a matching suffix, tracking which grammatical
// classes each rewrite is valid for.
type Deinflector struct {
	rules []rule
}

// NewJapaneseDeinflector loads the embedded Japanese rule table.
func NewJapaneseDeinflector() (*Deinflector, error) {
	var reasons []reasonJSON
	if err := json.Unmarshal(rulesJaFile, &reasons); err != nil {
		return nil, fmt.Errorf("failed to parse embedded rules_ja.json: %w", err)
	}
	d := &Deinflector{}
	for _, reason := range reasons {
		for _, v := range reason.Variants {
			d.rules = append(d.rules, rule{
				name:      reason.Name,
				suffixIn:  v.KanaIn,
				suffixOut: v.KanaOut,
				rulesIn:   common.ParseRuleNames(v.RulesIn),
				rulesOut:  common.ParseRuleNames(v.RulesOut),
			})
		}
	}
	return d, nil
}

// Result is one candidate lemma. Reasons holds the applied rule names,
// lemma-outward: applying the inverse of each reason in order to Term
// reproduces the input.
type Result struct {
	Term    string
	Rules   common.RuleMask
	Reasons []string
}

// Deinflect performs a breadth-first search over the rule table. The
// input itself is always the first result. Duplicate (term, mask)
// states are pruned, which together with the strictly consumed suffix
// bounds the search.
func (d *Deinflector) Deinflect(text string) []Result {
	results := []Result{{Term: text}}
	seen := map[string]struct{}{stateKey(text, 0): {}}

	for i := 0; i < len(results); i++ {
		candidate := results[i]
		for _, r := range d.rules {
			if r.rulesIn != 0 && !candidate.Rules.Fits(r.rulesIn) {
				continue
			}
			if !strings.HasSuffix(candidate.Term, r.suffixIn) {
				continue
			}
			stem := candidate.Term[:len(candidate.Term)-len(r.suffixIn)]
			term := stem + r.suffixOut
			if term == "" || term == candidate.Term {
				continue
			}
			if _, dup := seen[stateKey(term, r.rulesOut)]; dup {
				continue
			}
			seen[stateKey(term, r.rulesOut)] = struct{}{}

			reasons := make([]string, 0, len(candidate.Reasons)+1)
			reasons = append(reasons, r.name)
			reasons = append(reasons, candidate.Reasons...)
			results = append(results, Result{Term: term, Rules: r.rulesOut, Reasons: reasons})
		}
	}
	return results
}

func stateKey(term string, mask common.RuleMask) string {
	return fmt.Sprintf("%s\x00%d", term, mask)
}
