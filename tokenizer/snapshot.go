package tokenizer

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Snapshot is a self-describing record of one training run.
type Snapshot struct {
	RunID         string    `cbor:"run_id"`
	CreatedAt     time.Time `cbor:"created_at"`
	Input         string    `cbor:"input,omitempty"`
	VocabSize     int       `cbor:"vocab_size"`
	SpecialTokens []string  `cbor:"special_tokens"`
	Vocab         [][]byte  `cbor:"vocab"`
	Merges        []Merge   `cbor:"merges"`
}

// NewSnapshot wraps result with a fresh run id.
func NewSnapshot(result *Result, opts Options, input string) *Snapshot {
	return &Snapshot{
		RunID:         uuid.New().String(),
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
		Input:         input,
		VocabSize:     opts.VocabSize,
		SpecialTokens: opts.SpecialTokens,
		Vocab:         result.Vocab,
		Merges:        result.Merges,
	}
}

func (s *Snapshot) Result() *Result {
	return &Result{Vocab: s.Vocab, Merges: s.Merges}
}

func WriteSnapshot(w io.Writer, s *Snapshot) error {
	return cbor.NewEncoder(w).Encode(s)
}

func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	if _, err := uuid.Parse(s.RunID); err != nil {
		return nil, fmt.Errorf("%w: run id: %w", ErrInvalidFormat, err)
	}

	return &s, nil
}
