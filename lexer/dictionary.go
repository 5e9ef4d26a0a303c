package lexer

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Dictionary is an immutable set of keywords ordered longest-first.
// It is safe for concurrent use.
type Dictionary struct {
	words []string
	index map[string]bool
}

// NewDictionary creates a dictionary. Empty and duplicate words are dropped.
// Words are ordered by descending rune length, then lexically,
// so a keyword is always tried before any shorter keyword that is its prefix.
func NewDictionary(words ...string) *Dictionary {
	d := &Dictionary{index: make(map[string]bool, len(words))}
	for _, w := range words {
		if w == "" || d.index[w] {
			continue
		}

		d.index[w] = true
		d.words = append(d.words, w)
	}

	sort.Slice(d.words, func(i, j int) bool {
		li := utf8.RuneCountInString(d.words[i])
		lj := utf8.RuneCountInString(d.words[j])
		if li != lj {
			return li > lj
		}
		return d.words[i] < d.words[j]
	})
	return d
}

// Words returns dictionary words in matching order. The slice must not be modified.
func (d *Dictionary) Words() []string {
	if d == nil {
		return nil
	}
	return d.words
}

func (d *Dictionary) Has(word string) bool {
	return d != nil && d.index[word]
}

func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.words)
}

// With returns a new dictionary containing words of d and extra words.
func (d *Dictionary) With(words ...string) *Dictionary {
	all := make([]string, 0, d.Len()+len(words))
	all = append(all, d.Words()...)
	all = append(all, words...)
	return NewDictionary(all...)
}

// match returns the longest keyword found at the start of text.
// prev is the source byte right before text, 0 at the start of source.
func (d *Dictionary) match(text string, prev byte) (string, bool) {
	if d == nil {
		return "", false
	}

	for _, w := range d.words {
		if strings.HasPrefix(text, w) && atWordStart(w, prev) && atWordBoundary(w, text[len(w):]) {
			return w, true
		}
	}
	return "", false
}

// atWordBoundary reports whether a keyword ending with an ASCII letter or digit
// is not followed by another ASCII letter or digit.
// Keywords in other scripts have no word boundaries and always match.
func atWordBoundary(word, rest string) bool {
	if word == "" || rest == "" {
		return true
	}

	last := word[len(word)-1]
	return !(isASCIIAlnum(last) && isASCIIAlnum(rest[0]))
}

// atWordStart reports whether a keyword starting with an ASCII letter or digit
// is not preceded by another ASCII letter or digit.
func atWordStart(word string, prev byte) bool {
	return word == "" || !(isASCIIAlnum(word[0]) && isASCIIAlnum(prev))
}

func isASCIIAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}
