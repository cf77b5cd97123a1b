package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// GPT2Pattern is the GPT-2 word boundary pattern. The \s+(?!\S) alternative
// keeps the last whitespace character of a run attached to the following
// word, which is why a backtracking engine is needed.
const GPT2Pattern = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

// Words maps the bytes of a pre-token to the number of times it occurs.
type Words map[string]int64

// Add sums the counts of other into w.
func (w Words) Add(other Words) {
	for k, v := range other {
		w[k] += v
	}
}

// Total returns the number of pre-token occurrences counted in w.
func (w Words) Total() int64 {
	var n int64
	for _, v := range w {
		n += v
	}
	return n
}

type Pretokenizer struct {
	specials []string
	re       *regexp2.Regexp
}

func NewPretokenizer(specials ...string) (*Pretokenizer, error) {
	re, err := regexp2.Compile(GPT2Pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compile pre-tokenizer pattern: %w", err)
	}

	return &Pretokenizer{specials: specials, re: re}, nil
}

// Split returns the pre-tokens of s in order. Special tokens are removed and
// never appear in the output, nor does any pre-token span one.
func (p *Pretokenizer) Split(s string) ([]string, error) {
	var words []string
	err := p.each(s, func(word string) {
		words = append(words, word)
	})
	return words, err
}

// Count pre-tokenizes s and returns the occurrence count of every distinct
// pre-token.
func (p *Pretokenizer) Count(s string) (Words, error) {
	words := make(Words)
	if err := p.each(s, func(word string) {
		words[word]++
	}); err != nil {
		return nil, err
	}

	return words, nil
}

func (p *Pretokenizer) each(s string, fn func(string)) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w at byte offset %d", ErrInvalidUTF8, invalidOffset(s))
	}

	for _, frag := range splitSpecialTokens(s, p.specials) {
		if frag.special >= 0 {
			continue
		}

		m, err := p.re.FindStringMatch(frag.value)
		for ; m != nil && err == nil; m, err = p.re.FindNextMatch(m) {
			if m.Length > 0 {
				fn(m.String())
			}
		}

		if err != nil {
			return fmt.Errorf("pre-tokenize: %w", err)
		}
	}

	return nil
}

func invalidOffset(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(s)
}
