package tokenizer

import "errors"

var (
	// ErrVocabSize is returned when the requested vocabulary cannot hold the
	// 256 byte tokens plus the special tokens.
	ErrVocabSize = errors.New("vocab size too small")

	// ErrInvalidUTF8 is returned by the pre-tokenizer for text that is not
	// valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid utf-8")

	// ErrInconsistent reports a pair-count bookkeeping failure inside the
	// merge engine. It is never expected and is not recoverable.
	ErrInconsistent = errors.New("inconsistent pair counts")

	// ErrInvalidFormat is returned when vocab.json, merges.txt or a snapshot
	// cannot be decoded.
	ErrInvalidFormat = errors.New("invalid format")
)
