package transform

import (
	"unicode"

	"github.com/mkobayashi/jiten/app/common"
)

// TriState is the per-transformation setting. "both" makes the variant
// generator emit the untransformed and transformed outcome.
type TriState string

const (
	TriOff  TriState = "off"
	TriOn   TriState = "on"
	TriBoth TriState = "both"
)

// EmphaticMode controls emphatic-sequence collapsing. "full" removes
// emphatic characters instead of shortening their runs.
type EmphaticMode string

const (
	EmphaticOff  EmphaticMode = "off"
	EmphaticOn   EmphaticMode = "on"
	EmphaticFull EmphaticMode = "full"
)

// ApplyFunc rewrites a rune slice, updating the source map for every
// length-changing splice.
type ApplyFunc func(runes []rune, m *SourceMap) []rune

// Transformation is one text-normalization axis of the variant
// generator. Language restricts it; the zero value applies everywhere.
type Transformation struct {
	ID       string
	Language common.Language
	Apply    ApplyFunc
}

// Builtin transformation identifiers.
const (
	TransformDecapitalize            = "decapitalize"
	TransformToLowerCase             = "toLowerCase"
	TransformConvertHalfWidth        = "convertHalfWidthCharacters"
	TransformHiraganaToKatakana      = "convertHiraganaToKatakana"
	TransformKatakanaToHiragana      = "convertKatakanaToHiragana"
)

// BuiltinTransformations returns the shipped transformations in their
// fixed axis order.
func BuiltinTransformations() []Transformation {
	return []Transformation{
		{ID: TransformDecapitalize, Language: common.English, Apply: decapitalize},
		{ID: TransformToLowerCase, Language: common.English, Apply: toLowerCase},
		{ID: TransformConvertHalfWidth, Language: common.Japanese, Apply: convertHalfWidthCharacters},
		{ID: TransformHiraganaToKatakana, Language: common.Japanese, Apply: hiraganaToKatakana},
		{ID: TransformKatakanaToHiragana, Language: common.Japanese, Apply: katakanaToHiragana},
	}
}

func decapitalize(runes []rune, m *SourceMap) []rune {
	if len(runes) == 0 {
		return runes
	}
	out := make([]rune, len(runes))
	copy(out, runes)
	out[0] = unicode.ToLower(out[0])
	return out
}

func toLowerCase(runes []rune, m *SourceMap) []rune {
	out := make([]rune, len(runes))
	for i, r := range runes {
		out[i] = unicode.ToLower(r)
	}
	return out
}
