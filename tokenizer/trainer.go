package tokenizer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jmorganca/bpetrain/logutil"
)

// Merge is one learned merge rule: Left followed by Right becomes a single
// token whose bytes are their concatenation.
type Merge struct {
	Left  []byte `cbor:"1,keyasint" json:"left"`
	Right []byte `cbor:"2,keyasint" json:"right"`
}

func (m Merge) Bytes() []byte {
	return slices.Concat(m.Left, m.Right)
}

// Result is the outcome of training. Vocab is indexed by token id.
type Result struct {
	Vocab  [][]byte
	Merges []Merge
}

type Options struct {
	// VocabSize is the total vocabulary size including the 256 byte tokens
	// and the special tokens.
	VocabSize int

	// SpecialTokens are assigned ids 256, 257, ... in order. They are not
	// deduplicated.
	SpecialTokens []string

	// Workers bounds concurrent pre-tokenization. Values below one mean one.
	Workers int

	// Counted, if set, is called by Train once pre-tokenization finishes and
	// before the first merge.
	Counted func(words Words)

	// Progress, if set, is called after every merge with the number of
	// merges done and the maximum number of merges.
	Progress func(done, total int)
}

// Validate reports ErrVocabSize when VocabSize cannot hold the byte and special
// tokens.
func (o Options) Validate() error {
	if floor := 256 + len(o.SpecialTokens); o.VocabSize < floor {
		return fmt.Errorf("%w: %d < %d (256 bytes + %d special tokens)", ErrVocabSize, o.VocabSize, floor, len(o.SpecialTokens))
	}
	return nil
}

// baseVocab returns the byte tokens followed by the special tokens.
func (o Options) baseVocab() [][]byte {
	vocab := make([][]byte, 0, o.VocabSize)
	for i := range 256 {
		vocab = append(vocab, []byte{byte(i)})
	}

	for _, special := range o.SpecialTokens {
		vocab = append(vocab, []byte(special))
	}

	return vocab
}

// Trainer runs the merge loop over a fixed set of words. Each distinct word
// keeps a stable index; merging rewrites its symbol sequence in place.
type Trainer struct {
	opts Options
	syms *symbols

	words  [][]int
	counts []int64

	pairs map[pair]int64
	// where records the words that may contain a pair. Entries can be
	// stale; merging a word that no longer contains the pair is a no-op.
	where map[pair]map[int]struct{}
	queue *pairQueue

	vocab  [][]byte
	merges []Merge

	// grown collects pairs whose count was incremented by the current merge.
	grown map[pair]struct{}
	err   error
}

// NewTrainer builds the initial pair table for words. Word order does not
// affect the result.
func NewTrainer(words Words, opts Options) (*Trainer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	t := &Trainer{
		opts:  opts,
		syms:  newSymbols(),
		pairs: make(map[pair]int64),
		where: make(map[pair]map[int]struct{}),
		vocab: opts.baseVocab(),
		grown: make(map[pair]struct{}),
	}
	t.queue = newPairQueue(t.syms)

	keys := make([]string, 0, len(words))
	for k, v := range words {
		if v > 0 && k != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	t.words = make([][]int, len(keys))
	t.counts = make([]int64, len(keys))
	for w, k := range keys {
		seq := make([]int, len(k))
		for i := range len(k) {
			seq[i] = int(k[i])
		}

		t.words[w] = seq
		t.counts[w] = words[k]

		for i := range len(seq) - 1 {
			t.add(pair{seq[i], seq[i+1]}, t.counts[w], w)
		}
	}

	for p, n := range t.pairs {
		t.queue.push(p, n)
	}
	clear(t.grown)

	return t, nil
}

// Done reports whether no further merges are possible.
func (t *Trainer) Done() bool {
	return len(t.vocab) >= t.opts.VocabSize || len(t.pairs) == 0
}

// Step performs one merge. It returns false when training is complete.
func (t *Trainer) Step() (Merge, bool, error) {
	if t.err != nil {
		return Merge{}, false, t.err
	}

	if t.Done() {
		return Merge{}, false, nil
	}

	best, ok := t.queue.pop(t.pairs)
	if !ok {
		return Merge{}, false, t.fail("pair table has %d entries but the queue is empty", len(t.pairs))
	}

	if best.count <= 0 {
		return Merge{}, false, t.fail("selected pair with count %d", best.count)
	}

	left, right := t.syms.bytes(best.pair.a), t.syms.bytes(best.pair.b)
	merge := Merge{Left: left, Right: right}
	sym := t.syms.intern(merge.Bytes())

	t.vocab = append(t.vocab, t.syms.bytes(sym))
	t.merges = append(t.merges, merge)

	for w := range t.where[best.pair] {
		t.mergeWord(w, best.pair, sym)
	}
	delete(t.where, best.pair)

	if n, ok := t.pairs[best.pair]; ok {
		return merge, false, t.fail("merged pair %q %q still has count %d", left, right, n)
	}

	if t.err != nil {
		return merge, false, t.err
	}

	for p := range t.grown {
		if n, ok := t.pairs[p]; ok {
			t.queue.push(p, n)
		}
	}
	clear(t.grown)

	logutil.Trace("merge", "id", len(t.vocab)-1, "left", logutil.Bytes(left), "right", logutil.Bytes(right), "count", best.count)
	return merge, true, nil
}

// Run merges until the vocabulary is full, no pairs remain or ctx is done.
// The result is valid after any merge, so a cancelled run returns the merges
// made so far together with the context error.
func (t *Trainer) Run(ctx context.Context) (*Result, error) {
	total := t.opts.VocabSize - len(t.vocab)
	start := time.Now()
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			slog.Warn("training interrupted", "merges", len(t.merges), "error", err)
			return t.Result(), err
		}

		merge, ok, err := t.Step()
		if err != nil {
			slog.Error("merge failed", "merges", len(t.merges), "error", err)
			return t.Result(), err
		}

		if !ok {
			break
		}

		if t.opts.Progress != nil {
			t.opts.Progress(i+1, total)
		}

		if (i+1)%1000 == 0 {
			slog.Debug("merge progress", "done", i+1, "total", total, "last", logutil.Bytes(merge.Bytes()), "pairs", len(t.pairs))
		}
	}

	slog.Info("training finished", "vocab", len(t.vocab), "merges", len(t.merges), "requested", t.opts.VocabSize, "elapsed", time.Since(start))
	return t.Result(), nil
}

// Result returns a snapshot of the vocabulary and merges learned so far.
func (t *Trainer) Result() *Result {
	return &Result{
		Vocab:  slices.Clone(t.vocab),
		Merges: slices.Clone(t.merges),
	}
}

// mergeWord replaces each non-overlapping occurrence of p in word w, left to
// right, with sym and moves the counts of the neighbouring pairs.
func (t *Trainer) mergeWord(w int, p pair, sym int) {
	seq, c := t.words[w], t.counts[w]

	j := 0
	for i := 0; i < len(seq); {
		if i+1 < len(seq) && seq[i] == p.a && seq[i+1] == p.b {
			t.add(p, -c, w)
			if j > 0 {
				left := seq[j-1]
				t.add(pair{left, p.a}, -c, w)
				t.add(pair{left, sym}, c, w)
			}

			if i+2 < len(seq) {
				right := seq[i+2]
				t.add(pair{p.b, right}, -c, w)
				t.add(pair{sym, right}, c, w)
			}

			seq[j] = sym
			i += 2
		} else {
			seq[j] = seq[i]
			i++
		}
		j++
	}

	t.words[w] = seq[:j]
}

// add moves the count of p by delta. Entries reaching zero are removed.
func (t *Trainer) add(p pair, delta int64, w int) {
	n := t.pairs[p] + delta
	switch {
	case n > 0:
		t.pairs[p] = n
	case n == 0:
		delete(t.pairs, p)
	default:
		t.fail("pair %q %q count %d", t.syms.bytes(p.a), t.syms.bytes(p.b), n)
		delete(t.pairs, p)
	}

	if delta > 0 {
		ws, ok := t.where[p]
		if !ok {
			ws = make(map[int]struct{})
			t.where[p] = ws
		}
		ws[w] = struct{}{}
		t.grown[p] = struct{}{}
	}
}

func (t *Trainer) fail(format string, args ...any) error {
	if t.err == nil {
		t.err = fmt.Errorf("%w: %s", ErrInconsistent, fmt.Sprintf(format, args...))
	}
	return t.err
}
