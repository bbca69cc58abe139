package deinflect

import (
	"testing"

	"github.com/mkobayashi/jiten/app/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeinflector(t *testing.T) *Deinflector {
	t.Helper()
	d, err := NewJapaneseDeinflector()
	require.NoError(t, err)
	return d
}

func findResult(results []Result, term string, reasons ...string) *Result {
	for i := range results {
		if results[i].Term != term {
			continue
		}
		if len(reasons) != len(results[i].Reasons) {
			continue
		}
		match := true
		for j, r := range reasons {
			if results[i].Reasons[j] != r {
				match = false
				break
			}
		}
		if match {
			return &results[i]
		}
	}
	return nil
}

func TestDeinflect_InputIsFirstResult(t *testing.T) {
	d := newTestDeinflector(t)
	results := d.Deinflect("食べた")
	require.NotEmpty(t, results)
	assert.Equal(t, "食べた", results[0].Term)
	assert.Empty(t, results[0].Reasons)
	assert.Equal(t, common.RuleMask(0), results[0].Rules)
}

func TestDeinflect_SimplePast(t *testing.T) {
	d := newTestDeinflector(t)
	results := d.Deinflect("食べた")
	r := findResult(results, "食べる", "past")
	require.NotNil(t, r)
	assert.True(t, r.Rules.Fits(common.RuleV1))
	assert.False(t, r.Rules.Fits(common.RuleV5))
}

func TestDeinflect_GodanTeForm(t *testing.T) {
	d := newTestDeinflector(t)
	results := d.Deinflect("走って")
	r := findResult(results, "走る", "-te")
	require.NotNil(t, r)
	assert.True(t, r.Rules.Fits(common.RuleV5))
}

func TestDeinflect_ChainedCausativePassivePast(t *testing.T) {
	d := newTestDeinflector(t)
	results := d.Deinflect("食べさせられた")
	r := findResult(results, "食べる", "causative", "potential or passive", "past")
	require.NotNil(t, r)
	assert.True(t, r.Rules.Fits(common.RuleV1))
}

func TestDeinflect_PolitePastNegative(t *testing.T) {
	d := newTestDeinflector(t)
	results := d.Deinflect("飲みませんでした")
	r := findResult(results, "飲む", "polite past negative")
	require.NotNil(t, r)
	assert.True(t, r.Rules.Fits(common.RuleV5))
}

func TestDeinflect_AdjectivePast(t *testing.T) {
	d := newTestDeinflector(t)
	results := d.Deinflect("高かった")
	r := findResult(results, "高い", "past")
	require.NotNil(t, r)
	assert.True(t, r.Rules.Fits(common.RuleAdjI))
}

func TestDeinflect_SuruVerb(t *testing.T) {
	d := newTestDeinflector(t)
	results := d.Deinflect("勉強しました")
	r := findResult(results, "勉強する", "polite past")
	require.NotNil(t, r)
	assert.True(t, r.Rules.Fits(common.RuleVS))
}

func TestDeinflect_KuruVerb(t *testing.T) {
	d := newTestDeinflector(t)
	results := d.Deinflect("きた")
	r := findResult(results, "くる", "past")
	require.NotNil(t, r)
	assert.True(t, r.Rules.Fits(common.RuleVK))
}

func TestDeinflect_RuleMaskBlocksWrongClassChain(t *testing.T) {
	d := newTestDeinflector(t)
	// The godan past rule (った→る) turns 食べった into 食べる with a
	// v5-only mask; the potential rule べる→ぶ takes v1 input only, so
	// it must not apply to that intermediate result.
	results := d.Deinflect("食べった")
	require.NotNil(t, findResult(results, "食べる", "past"))
	assert.Nil(t, findResult(results, "食ぶ", "potential", "past"))
}

func TestDeinflect_NoRuleApplies(t *testing.T) {
	d := newTestDeinflector(t)
	results := d.Deinflect("学校")
	require.Len(t, results, 1)
	assert.Equal(t, "学校", results[0].Term)
}

func TestDeinflect_NoDuplicateStates(t *testing.T) {
	d := newTestDeinflector(t)
	results := d.Deinflect("書かせられていました")
	seen := map[string]int{}
	for _, r := range results {
		seen[stateKey(r.Term, r.Rules)]++
	}
	for key, n := range seen {
		assert.Equal(t, 1, n, "duplicate state %q", key)
	}
}

func TestDeinflect_ReasonsAreLemmaOutward(t *testing.T) {
	d := newTestDeinflector(t)
	// 食べる -tai→ 食べたい, past→ 食べたかった: the rule applied last
	// to the surface form is listed last.
	results := d.Deinflect("食べたかった")
	r := findResult(results, "食べる", "-tai", "past")
	require.NotNil(t, r)
}
