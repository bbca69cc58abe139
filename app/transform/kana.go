package transform

// Kana-specific normalizations. Conversions between the hiragana and
// katakana blocks are a fixed codepoint offset; halfwidth katakana may
// combine with a following voicing mark into a single fullwidth rune,
// which shortens the string and must update the source map.

const kanaBlockOffset = 0x60

func hiraganaToKatakana(runes []rune, m *SourceMap) []rune {
	out := make([]rune, len(runes))
	for i, r := range runes {
		if r >= 'ぁ' && r <= 'ゖ' || r == 'ゝ' || r == 'ゞ' {
			r += kanaBlockOffset
		}
		out[i] = r
	}
	return out
}

func katakanaToHiragana(runes []rune, m *SourceMap) []rune {
	out := make([]rune, len(runes))
	for i, r := range runes {
		if r >= 'ァ' && r <= 'ヶ' || r == 'ヽ' || r == 'ヾ' {
			r -= kanaBlockOffset
		}
		out[i] = r
	}
	return out
}

var halfWidthKatakana = map[rune]rune{
	'｡': '。', '｢': '「', '｣': '」', '､': '、', '･': '・',
	'ｦ': 'ヲ', 'ｧ': 'ァ', 'ｨ': 'ィ', 'ｩ': 'ゥ', 'ｪ': 'ェ', 'ｫ': 'ォ',
	'ｬ': 'ャ', 'ｭ': 'ュ', 'ｮ': 'ョ', 'ｯ': 'ッ', 'ｰ': 'ー',
	'ｱ': 'ア', 'ｲ': 'イ', 'ｳ': 'ウ', 'ｴ': 'エ', 'ｵ': 'オ',
	'ｶ': 'カ', 'ｷ': 'キ', 'ｸ': 'ク', 'ｹ': 'ケ', 'ｺ': 'コ',
	'ｻ': 'サ', 'ｼ': 'シ', 'ｽ': 'ス', 'ｾ': 'セ', 'ｿ': 'ソ',
	'ﾀ': 'タ', 'ﾁ': 'チ', 'ﾂ': 'ツ', 'ﾃ': 'テ', 'ﾄ': 'ト',
	'ﾅ': 'ナ', 'ﾆ': 'ニ', 'ﾇ': 'ヌ', 'ﾈ': 'ネ', 'ﾉ': 'ノ',
	'ﾊ': 'ハ', 'ﾋ': 'ヒ', 'ﾌ': 'フ', 'ﾍ': 'ヘ', 'ﾎ': 'ホ',
	'ﾏ': 'マ', 'ﾐ': 'ミ', 'ﾑ': 'ム', 'ﾒ': 'メ', 'ﾓ': 'モ',
	'ﾔ': 'ヤ', 'ﾕ': 'ユ', 'ﾖ': 'ヨ',
	'ﾗ': 'ラ', 'ﾘ': 'リ', 'ﾙ': 'ル', 'ﾚ': 'レ', 'ﾛ': 'ロ',
	'ﾜ': 'ワ', 'ﾝ': 'ン',
}

// voiceable rows: a following U+FF9E selects the voiced form, one
// codepoint up (カ→ガ) except for ウ→ヴ; U+FF9F selects the semi-voiced
// ha-row form, two codepoints up (ハ→パ).
var voicedKatakana = map[rune]rune{
	'ウ': 'ヴ',
	'カ': 'ガ', 'キ': 'ギ', 'ク': 'グ', 'ケ': 'ゲ', 'コ': 'ゴ',
	'サ': 'ザ', 'シ': 'ジ', 'ス': 'ズ', 'セ': 'ゼ', 'ソ': 'ゾ',
	'タ': 'ダ', 'チ': 'ヂ', 'ツ': 'ヅ', 'テ': 'デ', 'ト': 'ド',
	'ハ': 'バ', 'ヒ': 'ビ', 'フ': 'ブ', 'ヘ': 'ベ', 'ホ': 'ボ',
}

var semiVoicedKatakana = map[rune]rune{
	'ハ': 'パ', 'ヒ': 'ピ', 'フ': 'プ', 'ヘ': 'ペ', 'ホ': 'ポ',
}

func convertHalfWidthCharacters(runes []rune, m *SourceMap) []rune {
	out := make([]rune, 0, len(runes))
	i := 0
	for i < len(runes) {
		full, ok := halfWidthKatakana[runes[i]]
		if !ok {
			out = append(out, runes[i])
			i++
			continue
		}
		if i+1 < len(runes) {
			var combined rune
			switch runes[i+1] {
			case 'ﾞ':
				combined = voicedKatakana[full]
			case 'ﾟ':
				combined = semiVoicedKatakana[full]
			}
			if combined != 0 {
				m.Replace(len(out), 2, 1)
				out = append(out, combined)
				i += 2
				continue
			}
		}
		out = append(out, full)
		i++
	}
	return out
}

func isEmphatic(r rune) bool {
	return r == 'っ' || r == 'ッ' || r == 'ー'
}

// collapseEmphaticSequences shortens runs of a repeated emphatic rune
// to a single occurrence; full removes emphatic runes entirely.
func collapseEmphaticSequences(runes []rune, m *SourceMap, full bool) []rune {
	out := make([]rune, 0, len(runes))
	var prev rune = -1
	for _, r := range runes {
		if isEmphatic(r) {
			if full || r == prev {
				m.Replace(len(out), 1, 0)
				prev = r
				continue
			}
			prev = r
		} else {
			prev = -1
		}
		out = append(out, r)
	}
	return out
}
