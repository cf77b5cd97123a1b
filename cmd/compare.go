package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jmorganca/bpetrain/tokenizer"
)

var errMismatch = errors.New("result does not match reference")

func CompareHandler(cmd *cobra.Command, args []string) error {
	snapshot, err := readSnapshot(args[0])
	if err != nil {
		return err
	}

	refVocab, err := readWith(args[1], tokenizer.ReadVocabJSON)
	if err != nil {
		return err
	}

	refMerges, err := readWith(args[2], tokenizer.ReadMerges)
	if err != nil {
		return err
	}

	report := tokenizer.Compare(snapshot.Result(), refVocab, refMerges)
	printReport(cmd.OutOrStdout(), report)
	if !report.Match() {
		return errMismatch
	}

	return nil
}

func readSnapshot(path string) (*tokenizer.Snapshot, error) {
	return readWith(path, tokenizer.ReadSnapshot)
}

func readWith[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		return v, fmt.Errorf("%s: %w", path, err)
	}

	return v, nil
}

func printReport(out io.Writer, r tokenizer.Report) {
	firstDiff := "none"
	if r.FirstMergeDiff >= 0 {
		firstDiff = fmt.Sprintf("#%d: got %s, want %s", r.FirstMergeDiff, mergeString(r.Got), mergeString(r.Want))
	}

	data := [][]string{
		{"Merges:", strconv.Itoa(r.Merges), strconv.Itoa(r.RefMerges)},
		{"First difference:", firstDiff, ""},
		{"Tokens only in result:", strconv.Itoa(len(r.OnlyOurs)), sample(r.OnlyOurs)},
		{"Tokens only in reference:", strconv.Itoa(len(r.OnlyRef)), sample(r.OnlyRef)},
		{"Ids match:", strconv.FormatBool(r.IDsMatch), ""},
		{"Match:", strconv.FormatBool(r.Match()), ""},
	}

	table := tablewriter.NewWriter(out)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

func mergeString(m tokenizer.Merge) string {
	return fmt.Sprintf("%q %q", tokenizer.BytesToUnicode(m.Left), tokenizer.BytesToUnicode(m.Right))
}

// sample lists up to five tokens in printable form.
func sample(tokens []string) string {
	var s string
	for i, t := range tokens {
		if i == 5 {
			s += " ..."
			break
		}

		if i > 0 {
			s += " "
		}

		s += strconv.Quote(tokenizer.BytesToUnicode([]byte(t)))
	}

	return s
}
