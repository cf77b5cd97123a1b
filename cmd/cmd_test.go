package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorganca/bpetrain/envconfig"
	"github.com/jmorganca/bpetrain/tokenizer"
)

// isolate clears any configuration the host might supply.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("APPDATA", "")
	t.Setenv("BPE_CONFIG", "")
	t.Setenv("BPE_NUM_PARALLEL", "")
	t.Setenv("BPE_CHUNKS", "")
	envconfig.LoadConfig()
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewCLI()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeCorpus(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestTrainWritesOutputs(t *testing.T) {
	isolate(t)
	input := writeCorpus(t, "low low lower")
	outDir := filepath.Join(t.TempDir(), "out")

	_, err := run(t, "train", input, "--vocab-size", "260", "--output", outDir)
	require.NoError(t, err)

	merges, err := os.ReadFile(filepath.Join(outDir, "merges.txt"))
	require.NoError(t, err)
	if diff := cmp.Diff("o w\nl ow\nĠ low\n", string(merges)); diff != "" {
		t.Errorf("merges.txt mismatch (-want +got):\n%s", diff)
	}

	f, err := os.Open(filepath.Join(outDir, "vocab.json"))
	require.NoError(t, err)
	defer f.Close()

	vocab, err := tokenizer.ReadVocabJSON(f)
	require.NoError(t, err)
	assert.Len(t, vocab, 260)
	assert.Equal(t, []byte("<|endoftext|>"), vocab[256])
	assert.Equal(t, []byte(" low"), vocab[259])

	snapshot, err := readSnapshot(filepath.Join(outDir, "snapshot.cbor"))
	require.NoError(t, err)
	assert.Equal(t, input, snapshot.Input)
	assert.Equal(t, 260, snapshot.VocabSize)
	assert.Len(t, snapshot.Merges, 3)
}

func TestCompareOwnOutputs(t *testing.T) {
	isolate(t)
	input := writeCorpus(t, "low low lower")
	outDir := t.TempDir()

	_, err := run(t, "train", input, "--vocab-size", "260", "-o", outDir)
	require.NoError(t, err)

	out, err := run(t, "compare",
		filepath.Join(outDir, "snapshot.cbor"),
		filepath.Join(outDir, "vocab.json"),
		filepath.Join(outDir, "merges.txt"))
	require.NoError(t, err)
	assert.Contains(t, out, "Match:")
	assert.Contains(t, out, "true")

	ref := filepath.Join(t.TempDir(), "merges.txt")
	require.NoError(t, os.WriteFile(ref, []byte("o w\nl o\n"), 0o644))

	out, err = run(t, "compare",
		filepath.Join(outDir, "snapshot.cbor"),
		filepath.Join(outDir, "vocab.json"),
		ref)
	require.ErrorIs(t, err, errMismatch)
	assert.Contains(t, out, "#1")
}

func TestInspect(t *testing.T) {
	isolate(t)
	input := writeCorpus(t, "low low lower")
	outDir := t.TempDir()

	_, err := run(t, "train", input, "--vocab-size", "260", "-o", outDir)
	require.NoError(t, err)

	out, err := run(t, "inspect", filepath.Join(outDir, "snapshot.cbor"), "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "260 of 260")
	assert.Contains(t, out, `"<|endoftext|>"`)
	assert.Contains(t, out, `"ow"`)
	assert.Contains(t, out, `"low"`)
}

func TestTrainVocabTooSmall(t *testing.T) {
	isolate(t)
	input := writeCorpus(t, "low low lower")

	_, err := run(t, "train", input, "--vocab-size", "100")
	require.ErrorIs(t, err, tokenizer.ErrVocabSize)
}

func TestTrainMissingCorpus(t *testing.T) {
	isolate(t)

	_, err := run(t, "train", filepath.Join(t.TempDir(), "missing.txt"), "-o", t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func trainCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	train, _, err := NewCLI().Find([]string{"train"})
	require.NoError(t, err)
	require.NoError(t, train.ParseFlags(args))
	return train
}

func TestResolveTrainOptions(t *testing.T) {
	isolate(t)

	config := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(config, []byte(`[train]
input = "from-file.txt"
vocab_size = 300
special_tokens = ["<s>", "</s>"]
workers = 3
chunks = 5
output_dir = "file-out"
`), 0o644))
	t.Setenv("BPE_CONFIG", config)
	t.Setenv("BPE_NUM_PARALLEL", "7")
	envconfig.LoadConfig()

	t.Run("file and environment", func(t *testing.T) {
		opts, err := resolveTrainOptions(trainCommand(t), nil)
		require.NoError(t, err)
		assert.Equal(t, "from-file.txt", opts.Input)
		assert.Equal(t, "file-out", opts.OutputDir)
		assert.Equal(t, 300, opts.VocabSize)
		assert.Equal(t, []string{"<s>", "</s>"}, opts.SpecialTokens)
		assert.Equal(t, 7, opts.Workers)
		assert.Equal(t, 5, opts.Chunks)
		assert.Equal(t, defaultSpecialToken, opts.SplitToken)
	})

	t.Run("flags win", func(t *testing.T) {
		cmd := trainCommand(t,
			"--vocab-size", "400",
			"--special-token", "a", "--special-token", "b",
			"--workers", "2",
			"--chunks", "9",
			"--split-token", "\n\n",
			"--output", "flag-out")
		opts, err := resolveTrainOptions(cmd, []string{"arg.txt"})
		require.NoError(t, err)
		assert.Equal(t, "arg.txt", opts.Input)
		assert.Equal(t, "flag-out", opts.OutputDir)
		assert.Equal(t, 400, opts.VocabSize)
		assert.Equal(t, []string{"a", "b"}, opts.SpecialTokens)
		assert.Equal(t, 2, opts.Workers)
		assert.Equal(t, 9, opts.Chunks)
		assert.Equal(t, "\n\n", opts.SplitToken)
	})

	t.Run("explicit config flag", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "other.toml")
		require.NoError(t, os.WriteFile(other, []byte("[train]\ninput = \"other.txt\"\n"), 0o644))

		opts, err := resolveTrainOptions(trainCommand(t, "--config", other), nil)
		require.NoError(t, err)
		assert.Equal(t, "other.txt", opts.Input)
		assert.Equal(t, defaultVocabSize, opts.VocabSize)
		assert.Equal(t, []string{defaultSpecialToken}, opts.SpecialTokens)
		assert.Equal(t, 7, opts.Workers)
		assert.Equal(t, 7, opts.Chunks)
	})

	t.Run("bad workers", func(t *testing.T) {
		_, err := resolveTrainOptions(trainCommand(t, "--workers", "0"), nil)
		require.ErrorContains(t, err, "must be positive")
	})
}

func TestResolveTrainOptionsNoInput(t *testing.T) {
	isolate(t)

	_, err := resolveTrainOptions(trainCommand(t), nil)
	require.ErrorContains(t, err, "no corpus given")
}

func TestLayer(t *testing.T) {
	cases := []struct {
		name                      string
		changed                   bool
		flag, env, file, fallback int
		want                      int
	}{
		{"flag", true, 1, 2, 3, 4, 1},
		{"env", false, 1, 2, 3, 4, 2},
		{"file", false, 1, 0, 3, 4, 3},
		{"fallback", false, 1, 0, 0, 4, 4},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, layer(tt.changed, tt.flag, tt.env, tt.file, tt.fallback))
		})
	}
}

func TestEnv(t *testing.T) {
	isolate(t)
	t.Setenv("BPE_NUM_PARALLEL", "12")
	envconfig.LoadConfig()

	out, err := run(t, "env")
	require.NoError(t, err)
	assert.Contains(t, out, "BPE_NUM_PARALLEL")
	assert.Contains(t, out, "12")

	out, err = run(t, "env", "--example")
	require.NoError(t, err)
	assert.Contains(t, out, "[train]")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "bpetrain version 0.0.0")
}
