package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Token turns a raw word into its comparison form: invisible runes are
// dropped, Latin look-alikes from Cyrillic and Greek are folded to Latin,
// the result is NFKC-normalized and case-folded, and leading/trailing
// punctuation is trimmed. An empty result means the word carries no
// matchable content.
func Token(word string) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range word {
		if IsInvisible(r) {
			continue
		}
		if latin, ok := homoglyphs[r]; ok {
			r = latin
		}
		b.WriteRune(r)
	}

	// cases.Caser is stateful and must not be shared.
	out := cases.Fold().String(norm.NFKC.String(b.String()))
	return strings.TrimFunc(out, unicode.IsPunct)
}

// Tokens normalizes every word of text and drops the ones that come out empty.
func Tokens(text string) []string {
	words := strings.FieldsFunc(text, unicode.IsSpace)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if t := Token(w); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Word is a raw whitespace-delimited word and its byte range in a chunk.
type Word struct {
	Text       string
	Start, End int
}

// Split cuts one chunk of a stream into raw whitespace-delimited words.
// joins reports that the chunk starts inside a word, so its first word
// continues the last word of the previous chunk. open reports that the chunk
// ends inside a word, so its last word may continue in the next chunk.
func Split(chunk string) (words []Word, joins, open bool) {
	if chunk == "" {
		return nil, false, false
	}
	first, _ := utf8.DecodeRuneInString(chunk)
	last, _ := utf8.DecodeLastRuneInString(chunk)
	joins = !unicode.IsSpace(first)
	open = !unicode.IsSpace(last)

	start := -1
	for i, r := range chunk {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, Word{Text: chunk[start:i], Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, Word{Text: chunk[start:], Start: start, End: len(chunk)})
	}
	return words, joins, open
}
