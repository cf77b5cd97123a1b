package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmorganca/bpetrain/envconfig"
	"github.com/jmorganca/bpetrain/logutil"
	"github.com/jmorganca/bpetrain/version"
)

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "bpetrain",
		Short:   "Byte-level BPE vocabulary trainer",
		Version: version.Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
			slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
		},
	}

	cobra.EnableCommandSorting = false

	trainCmd := &cobra.Command{
		Use:   "train [corpus]",
		Short: "Learn a vocabulary and merge list from a text corpus",
		Args:  cobra.MaximumNArgs(1),
		RunE:  TrainHandler,
	}

	trainCmd.Flags().Int("vocab-size", defaultVocabSize, "Total vocabulary size including byte and special tokens")
	trainCmd.Flags().StringArray("special-token", []string{defaultSpecialToken}, "Reserved token, may be repeated; order sets ids")
	trainCmd.Flags().StringP("output", "o", "", "Directory for vocab.json, merges.txt and snapshot.cbor (default \".\")")
	trainCmd.Flags().Int("chunks", 0, "Number of corpus chunks (default BPE_CHUNKS or the worker count)")
	trainCmd.Flags().Int("workers", 0, "Chunks pre-tokenized in parallel (default BPE_NUM_PARALLEL or the CPU count)")
	trainCmd.Flags().String("config", "", "TOML configuration file (default BPE_CONFIG)")
	trainCmd.Flags().String("split-token", "", "Chunks are cut only at this token (default \"<|endoftext|>\")")

	compareCmd := &cobra.Command{
		Use:   "compare SNAPSHOT VOCAB MERGES",
		Short: "Compare a training snapshot with a reference vocab.json and merges.txt",
		Args:  cobra.ExactArgs(3),
		RunE:  CompareHandler,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect SNAPSHOT",
		Short: "Show a training snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  InspectHandler,
	}

	inspectCmd.Flags().IntP("merges", "n", 20, "Number of merges to list, negative for all")

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Show environment configuration",
		Args:  cobra.NoArgs,
		RunE:  EnvHandler,
	}

	envCmd.Flags().Bool("example", false, "Print an example configuration file")

	rootCmd.AddCommand(
		trainCmd,
		compareCmd,
		inspectCmd,
		envCmd,
	)

	return rootCmd
}
