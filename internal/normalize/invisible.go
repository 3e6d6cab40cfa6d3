package normalize

// IsInvisible reports runes that render as nothing but split a word for a
// naive matcher: zero-width characters, bidirectional controls, Unicode tag
// characters and C0/C1 controls other than ordinary whitespace.
func IsInvisible(r rune) bool {
	return isZeroWidth(r) || isBidiControl(r) || isTagCharacter(r) || isUnsafeControl(r)
}

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200B', // ZERO WIDTH SPACE
		'\u200C', // ZERO WIDTH NON-JOINER
		'\u200D', // ZERO WIDTH JOINER
		'\uFEFF', // ZERO WIDTH NO-BREAK SPACE (BOM)
		'\u2060', // WORD JOINER
		'\u180E', // MONGOLIAN VOWEL SEPARATOR
		'\u00AD', // SOFT HYPHEN
		'\u200E', // LEFT-TO-RIGHT MARK
		'\u200F': // RIGHT-TO-LEFT MARK
		return true
	}
	return false
}

func isBidiControl(r rune) bool {
	switch r {
	case '\u202A', '\u202B', '\u202C', '\u202D', '\u202E',
		'\u2066', '\u2067', '\u2068', '\u2069':
		return true
	}
	return false
}

func isTagCharacter(r rune) bool {
	return r >= 0xE0001 && r <= 0xE007F
}

func isUnsafeControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return r <= 0x1F || r == 0x7F || (r >= 0x80 && r <= 0x9F)
}

// homoglyphs maps Cyrillic and Greek letters to the Latin letter they are
// visually confusable with. Only lower-case targets are needed because the
// folded form is what gets compared.
var homoglyphs = map[rune]rune{
	// Cyrillic
	'а': 'a', 'А': 'a',
	'В': 'b',
	'с': 'c', 'С': 'c',
	'е': 'e', 'Е': 'e',
	'Н': 'h',
	'і': 'i', 'І': 'i',
	'К': 'k',
	'М': 'm',
	'о': 'o', 'О': 'o',
	'р': 'p', 'Р': 'p',
	'Т': 't',
	'х': 'x', 'Х': 'x',
	'у': 'y', 'У': 'y',

	// Greek
	'Α': 'a',
	'Β': 'b',
	'Ε': 'e',
	'Η': 'h',
	'Ι': 'i',
	'Κ': 'k',
	'Μ': 'm',
	'Ν': 'n',
	'Ο': 'o', 'ο': 'o',
	'Ρ': 'p',
	'Τ': 't',
	'Χ': 'x',
	'Υ': 'y',
	'Ζ': 'z',
}
