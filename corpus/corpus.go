// Package corpus provides chunk sources for training. Every source yields
// segments that never split an occurrence of the split token, so each segment
// can be pre-tokenized independently.
package corpus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/jmorganca/bpetrain/format"
)

// DefaultSplitToken separates documents in the usual training corpora.
const DefaultSplitToken = "<|endoftext|>"

// Strings is an in-memory source with one segment per element.
type Strings []string

func (s Strings) Chunks(ctx context.Context, yield func(string) error) error {
	for _, chunk := range s {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := yield(chunk); err != nil {
			return err
		}
	}
	return nil
}

// File reads a corpus file as N chunks whose boundaries fall at the start of
// an occurrence of Split.
type File struct {
	Path  string
	N     int
	Split []byte
}

func NewFile(path string, n int, split string) *File {
	return &File{Path: path, N: n, Split: []byte(split)}
}

func (f *File) Chunks(ctx context.Context, yield func(string) error) error {
	file, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	fi, err := file.Stat()
	if err != nil {
		return err
	}

	bounds, err := Boundaries(file, fi.Size(), f.N, f.Split)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}

	slog.Info("reading corpus", "path", f.Path, "size", format.HumanBytes(fi.Size()), "chunks", max(len(bounds)-1, 0))

	for i := range len(bounds) - 1 {
		if err := ctx.Err(); err != nil {
			return err
		}

		start, end := bounds[i], bounds[i+1]
		b, err := io.ReadAll(io.NewSectionReader(file, start, end-start))
		if err != nil {
			return fmt.Errorf("%s: read chunk %d: %w", f.Path, i, err)
		}

		slog.Debug("chunk", "index", i, "offset", start, "size", format.HumanBytes(end-start))
		if err := yield(string(b)); err != nil {
			return err
		}
	}

	return nil
}

// miniChunk is how far ahead Boundaries reads at a time while looking for
// the split token.
const miniChunk = 4096

// Boundaries splits [0, size) into at most n ranges and returns the n+1 (or
// fewer) sorted, distinct offsets delimiting them. Every inner boundary is
// moved forward to the next occurrence of split, or to size if there is none.
// With an empty split token the whole input is one range.
func Boundaries(r io.ReaderAt, size int64, n int, split []byte) ([]int64, error) {
	if size <= 0 {
		return []int64{0}, nil
	}

	if n < 1 || len(split) == 0 {
		n = 1
	}

	step := size / int64(n)
	bounds := make([]int64, n+1)
	for i := range bounds {
		bounds[i] = int64(i) * step
	}
	bounds[n] = size

	buf := make([]byte, miniChunk+len(split)-1)
	for i := 1; i < n; i++ {
		pos := bounds[i]
		for {
			m, err := r.ReadAt(buf, pos)
			if m == 0 && err != nil {
				if err == io.EOF {
					bounds[i] = size
					break
				}
				return nil, err
			}

			if idx := bytes.Index(buf[:m], split); idx >= 0 {
				bounds[i] = pos + int64(idx)
				break
			}

			if err == io.EOF || m < len(split) {
				bounds[i] = size
				break
			} else if err != nil {
				return nil, err
			}

			// keep a tail so a token straddling two reads is still found
			pos += int64(m - len(split) + 1)
		}
	}

	slices.Sort(bounds)
	return slices.Compact(bounds), nil
}
