package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	base := func(extra ...string) map[int][]byte {
		vocab := make(map[int][]byte)
		for i := range 256 {
			vocab[i] = []byte{byte(i)}
		}
		for i, e := range extra {
			vocab[256+i] = []byte(e)
		}
		return vocab
	}

	got := &Result{
		Vocab:  append(Options{VocabSize: 258}.baseVocab(), []byte("ow"), []byte("low")),
		Merges: []Merge{merge("o", "w"), merge("l", "ow")},
	}

	t.Run("match", func(t *testing.T) {
		r := Compare(got, base("ow", "low"), []Merge{merge("o", "w"), merge("l", "ow")})
		require.True(t, r.Match())
		assert.Equal(t, -1, r.FirstMergeDiff)
	})

	t.Run("different merge", func(t *testing.T) {
		r := Compare(got, base("ow", "lo"), []Merge{merge("o", "w"), merge("l", "o")})
		require.False(t, r.Match())
		assert.Equal(t, 1, r.FirstMergeDiff)
		assert.Equal(t, merge("l", "ow"), r.Got)
		assert.Equal(t, merge("l", "o"), r.Want)
		assert.Equal(t, []string{"low"}, r.OnlyOurs)
		assert.Equal(t, []string{"lo"}, r.OnlyRef)
		assert.True(t, r.IDsMatch)
	})

	t.Run("reference longer", func(t *testing.T) {
		r := Compare(got, base("ow", "low", "er"), []Merge{merge("o", "w"), merge("l", "ow"), merge("e", "r")})
		require.False(t, r.Match())
		assert.Equal(t, -1, r.FirstMergeDiff)
		assert.Equal(t, 2, r.Merges)
		assert.Equal(t, 3, r.RefMerges)
		assert.Equal(t, []string{"er"}, r.OnlyRef)
		assert.False(t, r.IDsMatch)
	})
}
