package tokenizer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// byteEncoder maps each byte to the printable rune GPT-2 uses for it in
// vocab.json and merges.txt. Printable Latin-1 bytes map to themselves; the
// remaining 68 bytes map to U+0100 onward in byte order.
var byteEncoder, byteDecoder = func() ([256]rune, map[rune]byte) {
	var enc [256]rune
	dec := make(map[rune]byte, 256)

	printable := func(b int) bool {
		return (b >= '!' && b <= '~') || (b >= 0xa1 && b <= 0xac) || (b >= 0xae && b <= 0xff)
	}

	n := 0
	for b := range 256 {
		r := rune(b)
		if !printable(b) {
			r = rune(256 + n)
			n++
		}

		enc[b] = r
		dec[r] = byte(b)
	}

	return enc, dec
}()

// BytesToUnicode returns the printable form of token bytes.
func BytesToUnicode(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		sb.WriteRune(byteEncoder[c])
	}
	return sb.String()
}

// UnicodeToBytes inverts BytesToUnicode.
func UnicodeToBytes(s string) ([]byte, error) {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		c, ok := byteDecoder[r]
		if !ok {
			return nil, fmt.Errorf("%w: rune %U in %q has no byte mapping", ErrInvalidFormat, r, s)
		}
		b = append(b, c)
	}
	return b, nil
}

// WriteVocabJSON writes vocab as a JSON object from printable token to id,
// in id order.
func WriteVocabJSON(w io.Writer, vocab [][]byte) error {
	bw := bufio.NewWriter(w)

	var key bytes.Buffer
	enc := json.NewEncoder(&key)
	enc.SetEscapeHTML(false)

	bw.WriteString("{")
	for id, token := range vocab {
		key.Reset()
		if err := enc.Encode(BytesToUnicode(token)); err != nil {
			return err
		}

		if id > 0 {
			bw.WriteString(",")
		}

		fmt.Fprintf(bw, "\n  %s: %d", bytes.TrimSpace(key.Bytes()), id)
	}
	bw.WriteString("\n}\n")

	return bw.Flush()
}

// ReadVocabJSON reads a GPT-2 style vocab.json into an id to bytes map. The
// object is streamed so that a token listed under several ids keeps all of
// them.
func ReadVocabJSON(r io.Reader) (map[int][]byte, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	vocab := make(map[int][]byte)
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}

		token, ok := t.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected %v", ErrInvalidFormat, t)
		}

		var id int
		if err := dec.Decode(&id); err != nil {
			return nil, fmt.Errorf("%w: id of %q: %w", ErrInvalidFormat, token, err)
		}

		if _, ok := vocab[id]; ok {
			return nil, fmt.Errorf("%w: id %d listed twice", ErrInvalidFormat, id)
		}

		b, err := UnicodeToBytes(token)
		if err != nil {
			return nil, err
		}
		vocab[id] = b
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	return vocab, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	t, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	if d, ok := t.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrInvalidFormat, want, t)
	}

	return nil
}

// WriteMerges writes one "left right" line per merge in printable form.
// Line order is merge order.
func WriteMerges(w io.Writer, merges []Merge) error {
	bw := bufio.NewWriter(w)
	for _, m := range merges {
		fmt.Fprintf(bw, "%s %s\n", BytesToUnicode(m.Left), BytesToUnicode(m.Right))
	}
	return bw.Flush()
}

// ReadMerges reads a merges file written by WriteMerges. Blank lines and a
// leading "#version" header are skipped.
func ReadMerges(r io.Reader) ([]Merge, error) {
	var merges []Merge

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for n := 1; s.Scan(); n++ {
		line := strings.TrimRight(s.Text(), "\r\n")
		if line == "" || (n == 1 && strings.HasPrefix(line, "#version")) {
			continue
		}

		left, right, ok := strings.Cut(line, " ")
		if !ok || left == "" || right == "" || strings.Contains(right, " ") {
			return nil, fmt.Errorf("%w: line %d: %q", ErrInvalidFormat, n, line)
		}

		l, err := UnicodeToBytes(left)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}

		rr, err := UnicodeToBytes(right)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}

		merges = append(merges, Merge{Left: l, Right: rr})
	}

	if err := s.Err(); err != nil {
		return nil, err
	}

	return merges, nil
}
