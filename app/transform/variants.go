package transform

import (
	"github.com/mkobayashi/jiten/app/common"
)

// VariantOptions selects which transformation axes the generator
// enumerates for one lookup.
type VariantOptions struct {
	Language common.Language
	// TextReplacements, when non-nil, adds an axis emitting both the
	// untouched text and the text with every pair applied in order.
	TextReplacements          []TextReplacement
	CollapseEmphaticSequences EmphaticMode
	// TextTransformations maps transformation IDs to their setting.
	// Missing IDs default to off.
	TextTransformations map[string]TriState
}

// Variant is one transformed rendition of the input together with the
// map back to original rune positions.
type Variant struct {
	Text string
	Map  *SourceMap
}

// a nil op on an axis means "leave the text unchanged".
type variantOp func(runes []rune, m *SourceMap) []rune

// VariantIterator lazily enumerates the Cartesian product of all
// applicable transformation outcomes. Axes form a mixed-radix counter
// with the least-significant axis changing fastest, so the order is
// deterministic and the full product is never materialised.
type VariantIterator struct {
	text    string
	axes    [][]variantOp
	counter []int
	done    bool
}

// NewVariantIterator validates the options (compiling replacement
// regexes up front) and returns the iterator positioned before the
// first variant.
func NewVariantIterator(text string, opts VariantOptions) (*VariantIterator, error) {
	var axes [][]variantOp

	if opts.TextReplacements != nil {
		compiled, err := compileReplacements(opts.TextReplacements)
		if err != nil {
			return nil, err
		}
		op := func(runes []rune, m *SourceMap) []rune {
			return []rune(applyReplacements(string(runes), m, compiled))
		}
		axes = append(axes, []variantOp{nil, op})
	}

	switch opts.CollapseEmphaticSequences {
	case EmphaticOn:
		axes = append(axes, []variantOp{nil, func(runes []rune, m *SourceMap) []rune {
			return collapseEmphaticSequences(runes, m, false)
		}})
	case EmphaticFull:
		axes = append(axes, []variantOp{nil, func(runes []rune, m *SourceMap) []rune {
			return collapseEmphaticSequences(runes, m, true)
		}})
	}

	for _, tr := range BuiltinTransformations() {
		if tr.Language != "" && opts.Language != "" && tr.Language != opts.Language {
			continue
		}
		apply := tr.Apply
		switch opts.TextTransformations[tr.ID] {
		case TriOn:
			axes = append(axes, []variantOp{apply.op()})
		case TriBoth:
			axes = append(axes, []variantOp{nil, apply.op()})
		}
	}

	return &VariantIterator{
		text:    text,
		axes:    axes,
		counter: make([]int, len(axes)),
	}, nil
}

func (f ApplyFunc) op() variantOp {
	return func(runes []rune, m *SourceMap) []rune { return f(runes, m) }
}

// Next returns the next variant, or ok=false when the product is
// exhausted.
func (it *VariantIterator) Next() (Variant, bool) {
	if it.done {
		return Variant{}, false
	}

	runes := []rune(it.text)
	m := NewSourceMap(len(runes))
	for i, axis := range it.axes {
		if op := axis[it.counter[i]]; op != nil {
			runes = op(runes, m)
		}
	}

	// advance the mixed-radix counter, least-significant axis first
	carried := true
	for i := 0; i < len(it.axes); i++ {
		it.counter[i]++
		if it.counter[i] < len(it.axes[i]) {
			carried = false
			break
		}
		it.counter[i] = 0
	}
	if carried {
		it.done = true
	}

	return Variant{Text: string(runes), Map: m}, true
}
