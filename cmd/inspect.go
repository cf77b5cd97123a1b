package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jmorganca/bpetrain/format"
	"github.com/jmorganca/bpetrain/tokenizer"
)

func InspectHandler(cmd *cobra.Command, args []string) error {
	snapshot, err := readSnapshot(args[0])
	if err != nil {
		return err
	}

	n, err := cmd.Flags().GetInt("merges")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	showSnapshot(out, snapshot)
	fmt.Fprintln(out)
	showMerges(out, snapshot, n)
	return nil
}

func showSnapshot(out io.Writer, s *tokenizer.Snapshot) {
	specials := make([]string, len(s.SpecialTokens))
	for i, special := range s.SpecialTokens {
		specials[i] = strconv.Quote(special)
	}

	data := [][]string{
		{"Run:", s.RunID},
		{"Created:", format.HumanTime(s.CreatedAt, "Unknown")},
		{"Input:", s.Input},
		{"Vocab size:", fmt.Sprintf("%d of %d", len(s.Vocab), s.VocabSize)},
		{"Special tokens:", strings.Join(specials, " ")},
		{"Merges:", format.HumanNumber(uint64(len(s.Merges)))},
	}

	table := tablewriter.NewWriter(out)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding(" ")
	table.AppendBulk(data)
	table.Render()
}

func showMerges(out io.Writer, s *tokenizer.Snapshot, n int) {
	merges := s.Merges
	if n >= 0 && n < len(merges) {
		merges = merges[:n]
	}

	first := len(s.Vocab) - len(s.Merges)

	var data [][]string
	for i, m := range merges {
		data = append(data, []string{
			strconv.Itoa(first + i),
			tokenizer.BytesToUnicode(m.Left),
			tokenizer.BytesToUnicode(m.Right),
			strconv.Quote(string(m.Bytes())),
		})
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "LEFT", "RIGHT", "TOKEN"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}
