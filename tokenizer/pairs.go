package tokenizer

import (
	"bytes"
	"cmp"

	heap "github.com/emirpasic/gods/v2/trees/binaryheap"
)

// symbols interns token byte sequences. Symbol ids 0-255 are the single
// bytes; a merge that produces bytes seen before reuses the existing symbol,
// so pair counting follows token bytes rather than vocabulary ids.
type symbols struct {
	values [][]byte
	index  map[string]int
}

func newSymbols() *symbols {
	s := &symbols{
		values: make([][]byte, 256, 512),
		index:  make(map[string]int, 512),
	}

	for i := range 256 {
		s.values[i] = []byte{byte(i)}
		s.index[string(s.values[i])] = i
	}

	return s
}

func (s *symbols) intern(b []byte) int {
	if id, ok := s.index[string(b)]; ok {
		return id
	}

	id := len(s.values)
	s.values = append(s.values, b)
	s.index[string(b)] = id
	return id
}

func (s *symbols) bytes(id int) []byte {
	return s.values[id]
}

// pair is an ordered pair of adjacent symbols.
type pair struct {
	a, b int
}

// compare orders pairs by the bytes of their left then right symbol.
func (s *symbols) compare(x, y pair) int {
	if c := bytes.Compare(s.values[x.a], s.values[y.a]); c != 0 {
		return c
	}
	return bytes.Compare(s.values[x.b], s.values[y.b])
}

// candidate is a queued pair with the count it had when it was pushed.
type candidate struct {
	pair  pair
	count int64
}

// pairQueue is a max-heap of candidates ordered by count, then by the
// byte-wise greater pair. Entries go stale as counts change; pop checks each
// entry against the live table and re-queues or drops it.
type pairQueue struct {
	heap *heap.Heap[candidate]
}

func newPairQueue(syms *symbols) *pairQueue {
	return &pairQueue{
		heap: heap.NewWith(func(x, y candidate) int {
			if c := cmp.Compare(y.count, x.count); c != 0 {
				return c
			}
			return syms.compare(y.pair, x.pair)
		}),
	}
}

func (q *pairQueue) push(p pair, count int64) {
	q.heap.Push(candidate{pair: p, count: count})
}

func (q *pairQueue) len() int {
	return q.heap.Size()
}

// pop returns the pair with the highest live count in counts.
func (q *pairQueue) pop(counts map[pair]int64) (candidate, bool) {
	for {
		c, ok := q.heap.Pop()
		if !ok {
			return candidate{}, false
		}

		live, ok := counts[c.pair]
		switch {
		case !ok:
			// merged away or dropped to zero
		case live == c.count:
			return c, true
		case live < c.count:
			q.push(c.pair, live)
		}
		// live > c.count: a fresher entry was pushed when the count grew
	}
}
