package common

// Unicode block membership tests used for input truncation and the
// kanji finder. Ranges follow the CJK blocks dictionaries actually key
// entries under.

type runeRange struct {
	lo, hi rune
}

var japaneseRanges = []runeRange{
	{0x3000, 0x303f}, // punctuation
	{0x3040, 0x309f}, // hiragana
	{0x30a0, 0x30ff}, // katakana
	{0x31f0, 0x31ff}, // katakana phonetic extensions
	{0x3400, 0x4dbf}, // CJK extension A
	{0x4e00, 0x9fff}, // CJK unified
	{0xf900, 0xfaff}, // CJK compatibility
	{0xff00, 0xffef}, // halfwidth and fullwidth forms
	{0x20000, 0x2a6df}, // CJK extension B
}

var kanjiRanges = []runeRange{
	{0x3400, 0x4dbf},
	{0x4e00, 0x9fff},
	{0xf900, 0xfaff},
	{0x20000, 0x2a6df},
}

func inRanges(r rune, ranges []runeRange) bool {
	for _, rr := range ranges {
		if r >= rr.lo && r <= rr.hi {
			return true
		}
	}
	return false
}

func IsJapanese(r rune) bool {
	return inRanges(r, japaneseRanges)
}

func IsKanji(r rune) bool {
	return inRanges(r, kanjiRanges)
}

func IsHiragana(r rune) bool {
	return r >= 0x3040 && r <= 0x309f
}

func IsKatakana(r rune) bool {
	return r >= 0x30a0 && r <= 0x30ff
}

// IsLetterLike reports whether r belongs to a word for the purpose of
// word-resolution scanning: kana, kanji and Latin letters count, spaces
// and punctuation do not.
func IsLetterLike(r rune) bool {
	if IsHiragana(r) || IsKatakana(r) || IsKanji(r) {
		return true
	}
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// TruncateNonJapanese cuts text at the first code point outside the
// Japanese blocks. Returns text unchanged when every rune qualifies.
func TruncateNonJapanese(text string) string {
	for i, r := range text {
		if !IsJapanese(r) {
			return text[:i]
		}
	}
	return text
}
