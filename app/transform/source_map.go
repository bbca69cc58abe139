package transform

// SourceMap tracks, for every rune of a transformed string, how many
// runes of the original string produced it. Transformations that change
// string length must update the map so lookup results can report the
// exact original slice that matched.
type SourceMap struct {
	lengths []int
}

// NewSourceMap returns the identity mapping for a string of runeCount
// runes: every transformed rune covers exactly one original rune.
func NewSourceMap(runeCount int) *SourceMap {
	lengths := make([]int, runeCount)
	for i := range lengths {
		lengths[i] = 1
	}
	return &SourceMap{lengths: lengths}
}

// Clone returns an independent copy.
func (m *SourceMap) Clone() *SourceMap {
	lengths := make([]int, len(m.lengths))
	copy(lengths, m.lengths)
	return &SourceMap{lengths: lengths}
}

// Len returns the current transformed length in runes.
func (m *SourceMap) Len() int {
	return len(m.lengths)
}

// OriginalLength returns the number of original runes covered by the
// first transformedPrefix runes of the transformed string.
func (m *SourceMap) OriginalLength(transformedPrefix int) int {
	if transformedPrefix > len(m.lengths) {
		transformedPrefix = len(m.lengths)
	}
	total := 0
	for _, n := range m.lengths[:transformedPrefix] {
		total += n
	}
	return total
}

// OriginalTotal returns the length of the original string in runes.
func (m *SourceMap) OriginalTotal() int {
	return m.OriginalLength(len(m.lengths))
}

// Replace records that oldCount transformed runes starting at start
// were replaced by newCount runes. The original coverage of the
// replaced span is assigned to the first replacement rune; the rest
// cover zero original runes. A pure deletion folds the coverage into
// the following rune, or the preceding one at end of string.
func (m *SourceMap) Replace(start, oldCount, newCount int) {
	end := start + oldCount
	if end > len(m.lengths) {
		end = len(m.lengths)
	}
	covered := 0
	for _, n := range m.lengths[start:end] {
		covered += n
	}

	if newCount == 0 {
		rest := append([]int{}, m.lengths[end:]...)
		m.lengths = append(m.lengths[:start], rest...)
		if len(m.lengths) == 0 {
			return
		}
		if start < len(m.lengths) {
			m.lengths[start] += covered
		} else {
			m.lengths[len(m.lengths)-1] += covered
		}
		return
	}

	block := make([]int, newCount)
	block[0] = covered
	rest := append([]int{}, m.lengths[end:]...)
	m.lengths = append(m.lengths[:start], append(block, rest...)...)
}
