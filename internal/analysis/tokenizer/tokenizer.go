// Package tokenizer normalises raw text into scoring tokens. It splits on
// Unicode word boundaries (UAX #29), breaks each word again at punctuation
// inside it ("python's" gives "python" and "s"), lower-cases each unit and
// keeps only units that contain a letter and are not stop-words. There is no
// stemming.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analysis/stopwords"
)

// Tokenizer is safe for concurrent use; its stop-word set is read-only.
type Tokenizer struct {
	stop stopwords.Set
}

func New(stop stopwords.Set) *Tokenizer {
	return &Tokenizer{stop: stop}
}

// Tokenize returns the surviving tokens of text in order, duplicates kept.
func (t *Tokenizer) Tokenize(text string) []string {
	tokens := make([]string, 0, len(text)/6)
	state := -1
	var word string
	for len(text) > 0 {
		word, text, state = uniseg.FirstWordInString(text, state)
		for _, unit := range strings.FieldsFunc(word, isPunct) {
			if !hasLetter(unit) {
				continue
			}
			lower := strings.ToLower(unit)
			if t.stop.Contains(lower) {
				continue
			}
			tokens = append(tokens, lower)
		}
	}
	return tokens
}

// isPunct reports runes that separate word units: anything but letters,
// combining marks, numbers and the underscore.
func isPunct(r rune) bool {
	return r != '_' && !unicode.IsLetter(r) && !unicode.IsMark(r) && !unicode.IsNumber(r)
}

func hasLetter(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
