package henkan

import (
	"strings"
	"unicode/utf8"
)

// InputMode selects how raw keystrokes are interpreted.
type InputMode int

const (
	// ModeRomaji transliterates romaji input to hiragana.
	ModeRomaji InputMode = iota
	// ModeKana passes kana keystrokes through untouched.
	ModeKana
)

// ParseInputMode maps a configuration string to an InputMode.
// Unknown values fall back to romaji.
func ParseInputMode(s string) InputMode {
	if strings.EqualFold(s, "kana") {
		return ModeKana
	}
	return ModeRomaji
}

// romajiTable maps romaji sequences to hiragana. Longest match wins.
// Mirrors the rule table of the original romaji-kana converter, with the
// usual Hepburn/Kunrei variants accepted on input.
var romajiTable = map[string]string{
	"a": "あ", "i": "い", "u": "う", "e": "え", "o": "お",
	"ka": "か", "ki": "き", "ku": "く", "ke": "け", "ko": "こ",
	"sa": "さ", "si": "し", "shi": "し", "su": "す", "se": "せ", "so": "そ",
	"ta": "た", "ti": "ち", "chi": "ち", "tu": "つ", "tsu": "つ", "te": "て", "to": "と",
	"na": "な", "ni": "に", "nu": "ぬ", "ne": "ね", "no": "の",
	"ha": "は", "hi": "ひ", "hu": "ふ", "fu": "ふ", "he": "へ", "ho": "ほ",
	"ma": "ま", "mi": "み", "mu": "む", "me": "め", "mo": "も",
	"ya": "や", "yu": "ゆ", "yo": "よ",
	"ra": "ら", "ri": "り", "ru": "る", "re": "れ", "ro": "ろ",
	"wa": "わ", "wi": "ゐ", "we": "ゑ", "wo": "を",

	"ga": "が", "gi": "ぎ", "gu": "ぐ", "ge": "げ", "go": "ご",
	"za": "ざ", "zi": "じ", "ji": "じ", "zu": "ず", "ze": "ぜ", "zo": "ぞ",
	"da": "だ", "di": "ぢ", "du": "づ", "de": "で", "do": "ど",
	"ba": "ば", "bi": "び", "bu": "ぶ", "be": "べ", "bo": "ぼ",
	"pa": "ぱ", "pi": "ぴ", "pu": "ぷ", "pe": "ぺ", "po": "ぽ",

	"kya": "きゃ", "kyu": "きゅ", "kyo": "きょ",
	"sya": "しゃ", "syu": "しゅ", "syo": "しょ",
	"sha": "しゃ", "shu": "しゅ", "sho": "しょ",
	"tya": "ちゃ", "tyu": "ちゅ", "tyo": "ちょ",
	"cha": "ちゃ", "chu": "ちゅ", "cho": "ちょ",
	"nya": "にゃ", "nyu": "にゅ", "nyo": "にょ",
	"hya": "ひゃ", "hyu": "ひゅ", "hyo": "ひょ",
	"mya": "みゃ", "myu": "みゅ", "myo": "みょ",
	"rya": "りゃ", "ryu": "りゅ", "ryo": "りょ",
	"gya": "ぎゃ", "gyu": "ぎゅ", "gyo": "ぎょ",
	"zya": "じゃ", "zyu": "じゅ", "zyo": "じょ",
	"ja": "じゃ", "ju": "じゅ", "jo": "じょ",
	"jya": "じゃ", "jyu": "じゅ", "jyo": "じょ",
	"bya": "びゃ", "byu": "びゅ", "byo": "びょ",
	"pya": "ぴゃ", "pyu": "ぴゅ", "pyo": "ぴょ",
	"dya": "ぢゃ", "dyu": "ぢゅ", "dyo": "ぢょ",

	"fa": "ふぁ", "fi": "ふぃ", "fe": "ふぇ", "fo": "ふぉ",
	"va": "ゔぁ", "vi": "ゔぃ", "vu": "ゔ", "ve": "ゔぇ", "vo": "ゔぉ",
	"she": "しぇ", "che": "ちぇ", "je": "じぇ",
	"thi": "てぃ", "dhi": "でぃ", "thu": "てゅ", "dhu": "でゅ",
	"twu": "とぅ", "dwu": "どぅ",

	"xa": "ぁ", "xi": "ぃ", "xu": "ぅ", "xe": "ぇ", "xo": "ぉ",
	"la": "ぁ", "li": "ぃ", "lu": "ぅ", "le": "ぇ", "lo": "ぉ",
	"xya": "ゃ", "xyu": "ゅ", "xyo": "ょ",
	"lya": "ゃ", "lyu": "ゅ", "lyo": "ょ",
	"xtu": "っ", "xtsu": "っ", "ltu": "っ", "ltsu": "っ",
	"xwa": "ゎ", "lwa": "ゎ",

	"nn": "ん", "n'": "ん",

	"-": "ー", ",": "、", ".": "。",
	"[": "「", "]": "」", "/": "・", "!": "！", "?": "？",
}

// romajiPrefixes holds every proper prefix of a table key, so the scanner
// can tell "incomplete mora" apart from "unknown symbol".
var romajiPrefixes = buildRomajiPrefixes()

func buildRomajiPrefixes() map[string]bool {
	p := make(map[string]bool)
	for key := range romajiTable {
		for i := 1; i < len(key); i++ {
			p[key[:i]] = true
		}
	}
	p["n"] = true
	return p
}

const maxRomajiRule = 4

// RomajiConverter transliterates a keystroke stream to hiragana.
// The converter itself is stateless: each call re-scans the whole
// preedit string, so partial input can be re-queried on every keystroke
// without committing anything.
type RomajiConverter struct {
	mode InputMode
}

// NewRomajiConverter returns a converter for the given input mode.
func NewRomajiConverter(mode InputMode) *RomajiConverter {
	return &RomajiConverter{mode: mode}
}

// segment is one consumed unit of the input: [start, end) of src mapped
// to kana (or passed through verbatim).
type segment struct {
	start, end int
	kana       string
	pending    bool
}

// scan splits src into transliteration segments.
func (c *RomajiConverter) scan(src string) []segment {
	if c.mode == ModeKana {
		// One segment per rune, so RemoveLast drops a single kana.
		var segs []segment
		for i, r := range src {
			segs = append(segs, segment{start: i, end: i + utf8.RuneLen(r), kana: string(r)})
		}
		return segs
	}

	var segs []segment
	lower := asciiLower(src)
	i := 0
	for i < len(lower) {
		// Gemination: a doubled consonant (other than n) becomes a
		// small tsu, and the second consonant starts the next mora.
		if i+1 < len(lower) && lower[i] == lower[i+1] && isRomajiConsonant(lower[i]) && lower[i] != 'n' {
			segs = append(segs, segment{start: i, end: i + 1, kana: "っ"})
			i++
			continue
		}

		// Nasal n: before anything but a vowel or y it stands alone.
		if lower[i] == 'n' && i+1 < len(lower) && !isNasalFollower(lower[i+1]) {
			n := 1
			if lower[i+1] == 'n' || lower[i+1] == '\'' {
				n = 2
			}
			segs = append(segs, segment{start: i, end: i + n, kana: "ん"})
			i += n
			continue
		}

		// Longest table match.
		matched := false
		for l := min(maxRomajiRule, len(lower)-i); l >= 1; l-- {
			if kana, ok := romajiTable[lower[i:i+l]]; ok {
				segs = append(segs, segment{start: i, end: i + l, kana: kana})
				i += l
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		// Incomplete mora at the end of input is held pending, never
		// dropped. Anything else passes through verbatim.
		if rest := lower[i:]; romajiPrefixes[rest] {
			segs = append(segs, segment{start: i, end: len(lower), kana: src[i:], pending: true})
			break
		}
		_, w := utf8.DecodeRuneInString(src[i:])
		segs = append(segs, segment{start: i, end: i + w, kana: src[i : i+w]})
		i += w
	}
	return segs
}

// asciiLower folds ASCII letters only, so every index into the result
// is valid in src as well.
func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// Feed transliterates src and returns the committed kana together with
// any trailing partial input (an incomplete mora such as "k" or "ch")
// that is waiting for the next keystroke.
func (c *RomajiConverter) Feed(src string) (kana, pending string) {
	var b strings.Builder
	for _, s := range c.scan(src) {
		if s.pending {
			pending = s.kana
			continue
		}
		b.WriteString(s.kana)
	}
	return b.String(), pending
}

// ToKana converts src fully. A trailing lone "n" commits as ん; any
// other partial mora flushes verbatim.
func (c *RomajiConverter) ToKana(src string) string {
	kana, pending := c.Feed(src)
	if pending == "n" {
		return kana + "ん"
	}
	return kana + pending
}

// RemoveLast drops the final transliteration unit from src, so deleting
// "かn" removes both the pending consonant and nothing else, and
// deleting "きゃ" input ("kya") removes all three keystrokes at once.
func (c *RomajiConverter) RemoveLast(src string) string {
	segs := c.scan(src)
	if len(segs) == 0 {
		return src
	}
	return src[:segs[len(segs)-1].start]
}

func isRomajiConsonant(b byte) bool {
	return b >= 'a' && b <= 'z' && !strings.ContainsRune("aiueo", rune(b))
}

// isNasalFollower reports whether b after "n" forms a regular mora
// (na, ni, nya, ...) instead of a standalone ん.
func isNasalFollower(b byte) bool {
	return strings.ContainsRune("aiueoy", rune(b))
}
