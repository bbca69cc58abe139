package common

import "strings"

// RuleMask is a bitset over the grammatical rule vocabulary shared by
// the deinflector and dictionary term entries. The bit layout is fixed;
// dictionaries encode word classes with the same identifiers.
type RuleMask uint32

const (
	RuleV1   RuleMask = 1 << iota // ichidan verbs
	RuleV5                        // godan verbs
	RuleVS                        // suru verbs
	RuleVK                        // kuru verb
	RuleAdjI                      // i-adjectives
)

var ruleNames = map[string]RuleMask{
	"v1":    RuleV1,
	"v5":    RuleV5,
	"vs":    RuleVS,
	"vk":    RuleVK,
	"adj-i": RuleAdjI,
}

// ParseRuleNames converts a list of rule identifiers into a mask.
// Unknown identifiers are ignored; dictionaries carry word classes
// outside the inflection vocabulary and those never take part in the
// fit test.
func ParseRuleNames(names []string) RuleMask {
	var mask RuleMask
	for _, name := range names {
		mask |= ruleNames[name]
	}
	return mask
}

// ParseRules splits a space-separated rule string from a term bank row
// and returns both the identifiers and their mask.
func ParseRules(s string) ([]string, RuleMask) {
	if s == "" {
		return nil, 0
	}
	names := strings.Fields(s)
	return names, ParseRuleNames(names)
}

// Fits reports whether a deinflection candidate carrying mask m is
// morphologically compatible with an entry carrying entryMask. An
// untagged candidate fits everything.
func (m RuleMask) Fits(entryMask RuleMask) bool {
	return m == 0 || m&entryMask != 0
}
