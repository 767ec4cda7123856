// Package stopwords provides the closed word lists excluded from scoring.
// A Set is immutable once built and is handed to the tokenizer explicitly.
package stopwords

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"sync"
)

//go:embed english.txt
var englishRaw []byte

var english = sync.OnceValue(func() Set {
	set, err := Load(bytes.NewReader(englishRaw))
	if err != nil {
		panic(fmt.Sprintf("stopwords: embedded english list: %v", err))
	}
	return set
})

// Set is a read-only collection of lowercase stopwords.
type Set struct {
	words map[string]struct{}
}

// English returns the built-in English list. It is parsed on first use and
// shared afterwards.
func English() Set {
	return english()
}

// New builds a Set from the given words, lowercasing each.
func New(words ...string) Set {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = struct{}{}
	}
	return Set{words: m}
}

// Load reads one word per line. Blank lines and lines starting with '#' are
// ignored.
func Load(r io.Reader) (Set, error) {
	m := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return Set{}, fmt.Errorf("reading stopwords: %w", err)
	}
	return Set{words: m}, nil
}

// Contains reports whether word, already lowercased, is a stopword.
func (s Set) Contains(word string) bool {
	_, ok := s.words[word]
	return ok
}

func (s Set) Len() int {
	return len(s.words)
}
