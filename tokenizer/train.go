package tokenizer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ChunkSource yields the text segments of a corpus. A segment never splits an
// occurrence of a special token. Segment order is not significant.
type ChunkSource interface {
	Chunks(ctx context.Context, yield func(chunk string) error) error
}

// CountChunks pre-tokenizes every chunk of src, using up to workers
// goroutines, and sums the per-chunk counts.
func CountChunks(ctx context.Context, src ChunkSource, pt *Pretokenizer, workers int) (Words, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	var mu sync.Mutex
	var tables []Words

	err := src.Chunks(ctx, func(chunk string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		g.Go(func() error {
			words, err := pt.Count(chunk)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			tables = append(tables, words)
			return nil
		})

		return nil
	})

	// a worker error cancels ctx, so report it ahead of the source error it caused
	if werr := g.Wait(); werr != nil {
		return nil, werr
	}

	if err != nil {
		return nil, err
	}

	words := make(Words)
	for _, table := range tables {
		words.Add(table)
	}

	return words, nil
}

// Train pre-tokenizes the corpus from src and learns a vocabulary of at most
// opts.VocabSize tokens.
func Train(ctx context.Context, src ChunkSource, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	pt, err := NewPretokenizer(opts.SpecialTokens...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	words, err := CountChunks(ctx, src, pt, opts.Workers)
	if err != nil {
		return nil, err
	}

	slog.Info("pre-tokenized corpus", "words", len(words), "occurrences", words.Total(), "elapsed", time.Since(start))
	if opts.Counted != nil {
		opts.Counted(words)
	}

	t, err := NewTrainer(words, opts)
	if err != nil {
		return nil, err
	}

	return t.Run(ctx)
}
