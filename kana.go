package henkan

import "strings"

// hiraToKataReplacer maps every hiragana code point to its katakana
// counterpart. The two blocks are parallel (U+3041..U+3096 vs
// U+30A1..U+30F6), so the table is generated once at init time.
var hiraToKataReplacer = newKanaReplacer(0x3041, 0x3096, 0x60)

// kataToHiraReplacer is the inverse mapping.
var kataToHiraReplacer = newKanaReplacer(0x30A1, 0x30F6, -0x60)

func newKanaReplacer(lo, hi rune, delta rune) *strings.Replacer {
	pairs := make([]string, 0, int(hi-lo+1)*2)
	for r := lo; r <= hi; r++ {
		pairs = append(pairs, string(r), string(r+delta))
	}
	return strings.NewReplacer(pairs...)
}

// HiraToKata converts every hiragana character in s to katakana.
// Characters outside the hiragana block pass through unchanged.
func HiraToKata(s string) string {
	return hiraToKataReplacer.Replace(s)
}

// KataToHira converts every katakana character in s to hiragana.
func KataToHira(s string) string {
	return kataToHiraReplacer.Replace(s)
}

// IsHiragana reports whether r is in the hiragana block, including the
// prolonged sound mark which readings carry verbatim.
func IsHiragana(r rune) bool {
	return (r >= 0x3041 && r <= 0x3096) || r == 'ー'
}

// IsKana reports whether r is hiragana or katakana.
func IsKana(r rune) bool {
	return IsHiragana(r) || (r >= 0x30A1 && r <= 0x30F6)
}
