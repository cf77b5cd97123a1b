package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmorganca/bpetrain/corpus"
	"github.com/jmorganca/bpetrain/envconfig"
	"github.com/jmorganca/bpetrain/format"
	"github.com/jmorganca/bpetrain/progress"
	"github.com/jmorganca/bpetrain/tokenizer"
)

const (
	defaultVocabSize    = 10000
	defaultSpecialToken = corpus.DefaultSplitToken
)

// trainOptions is a train invocation after flags, environment, config file
// and defaults have been layered, in that order of precedence.
type trainOptions struct {
	Input      string
	OutputDir  string
	SplitToken string
	Chunks     int
	tokenizer.Options
}

func resolveTrainOptions(cmd *cobra.Command, args []string) (*trainOptions, error) {
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := envconfig.LoadTrainConfig(envconfig.FindConfig(configPath))
	if err != nil {
		return nil, err
	}

	opts := trainOptions{
		Input:      cfg.Input,
		OutputDir:  orDefault(cfg.OutputDir, "."),
		SplitToken: orDefault(cfg.SplitToken, corpus.DefaultSplitToken),
	}

	if len(args) > 0 {
		opts.Input = args[0]
	}

	if opts.Input == "" {
		return nil, errors.New("no corpus given, pass a path or set input in the config file")
	}

	if flags.Changed("output") {
		opts.OutputDir, _ = flags.GetString("output")
	}

	if flags.Changed("split-token") {
		opts.SplitToken, _ = flags.GetString("split-token")
	}

	opts.VocabSize, _ = flags.GetInt("vocab-size")
	if !flags.Changed("vocab-size") && cfg.VocabSize > 0 {
		opts.VocabSize = cfg.VocabSize
	}

	opts.SpecialTokens, _ = flags.GetStringArray("special-token")
	if !flags.Changed("special-token") && cfg.SpecialTokens != nil {
		opts.SpecialTokens = cfg.SpecialTokens
	}

	opts.Workers = layer(flags.Changed("workers"), must(flags.GetInt("workers")), envconfig.NumParallel, cfg.Workers, runtime.NumCPU())
	opts.Chunks = layer(flags.Changed("chunks"), must(flags.GetInt("chunks")), envconfig.Chunks, cfg.Chunks, opts.Workers)
	if opts.Workers <= 0 || opts.Chunks <= 0 {
		return nil, fmt.Errorf("workers and chunks must be positive, got %d and %d", opts.Workers, opts.Chunks)
	}

	return &opts, nil
}

// layer picks the flag value if it was set, then the first positive value of
// env, file and fallback.
func layer(changed bool, flag, env, file, fallback int) int {
	if changed {
		return flag
	}

	for _, v := range []int{env, file} {
		if v > 0 {
			return v
		}
	}

	return fallback
}

func orDefault(s, fallback string) string {
	if s != "" {
		return s
	}

	return fallback
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}

	return v
}

func TrainHandler(cmd *cobra.Command, args []string) error {
	opts, err := resolveTrainOptions(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var p *progress.Progress
	if term.IsTerminal(int(os.Stderr.Fd())) {
		p = progress.NewProgress(os.Stderr)
		defer p.Stop()
	}

	spinner := progress.NewSpinner(fmt.Sprintf("counting words in %s", filepath.Base(opts.Input)))
	defer spinner.Stop()
	if p != nil {
		p.Add(spinner)
	}

	bar := progress.NewBar("merging", int64(opts.VocabSize-256-len(opts.SpecialTokens)), 0)
	opts.Counted = func(words tokenizer.Words) {
		spinner.Stop()
		spinner.SetMessage(fmt.Sprintf("counted %s words (%s distinct)", format.HumanNumber(uint64(words.Total())), format.HumanNumber(uint64(len(words)))))
		if p != nil {
			p.Add(bar)
		}
	}

	opts.Progress = func(done, _ int) {
		bar.Set(int64(done))
	}

	src := corpus.NewFile(opts.Input, opts.Chunks, opts.SplitToken)
	result, trainErr := tokenizer.Train(ctx, src, opts.Options)
	bar.Finish()
	if result == nil || trainErr != nil && ctx.Err() == nil {
		return trainErr
	}

	if err := writeOutputs(opts, result); err != nil {
		return errors.Join(trainErr, err)
	}

	if trainErr != nil {
		return fmt.Errorf("training stopped after %d merges, partial output written to %s: %w", len(result.Merges), opts.OutputDir, trainErr)
	}

	return nil
}

func writeOutputs(opts *trainOptions, result *tokenizer.Result) error {
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return err
	}

	snapshot := tokenizer.NewSnapshot(result, opts.Options, opts.Input)
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"vocab.json", func(w io.Writer) error { return tokenizer.WriteVocabJSON(w, result.Vocab) }},
		{"merges.txt", func(w io.Writer) error { return tokenizer.WriteMerges(w, result.Merges) }},
		{"snapshot.cbor", func(w io.Writer) error { return tokenizer.WriteSnapshot(w, snapshot) }},
	}

	for _, file := range files {
		path := filepath.Join(opts.OutputDir, file.name)
		if err := writeFile(path, file.write); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	slog.Info("wrote vocabulary", "dir", opts.OutputDir, "run", snapshot.RunID, "vocab", len(result.Vocab), "merges", len(result.Merges))
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
