package envconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTrainConfig(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		expect TrainConfig
		err    string
	}{
		{
			name:  "empty",
			input: "",
		},
		{
			name: "full",
			input: `[train]
input = "data/owt.txt"
output_dir = "out"
vocab_size = 32000
special_tokens = ["<|endoftext|>", "<|pad|>"]
chunks = 64
workers = 8
`,
			expect: TrainConfig{
				Input:         "data/owt.txt",
				OutputDir:     "out",
				VocabSize:     32000,
				SpecialTokens: []string{"<|endoftext|>", "<|pad|>"},
				Chunks:        64,
				Workers:       8,
			},
		},
		{
			name:   "weakly typed",
			input:  "[train]\nvocab_size = \"500\"\n",
			expect: TrainConfig{VocabSize: 500},
		},
		{
			name:  "other tables ignored",
			input: "[logging]\ndebug = true\n\n[train]\nworkers = 2\n",
			expect: TrainConfig{
				Workers: 2,
			},
		},
		{
			name:  "unknown key",
			input: "[train]\nvocabsize = 500\n",
			err:   "vocabsize",
		},
		{
			name:  "not a table",
			input: "train = 3\n",
			err:   "train must be a table",
		},
		{
			name:  "bad toml",
			input: "[train\n",
			err:   "toml",
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := DecodeTrainConfig(strings.NewReader(tt.input))
			if tt.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.err)
				return
			}

			require.NoError(t, err)
			if diff := cmp.Diff(tt.expect, *cfg); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExampleConfigDecodes(t *testing.T) {
	cfg, err := DecodeTrainConfig(strings.NewReader(GenerateExampleConfig()))
	require.NoError(t, err)
	assert.Equal(t, 10000, cfg.VocabSize)
	assert.Equal(t, []string{"<|endoftext|>"}, cfg.SpecialTokens)
	assert.Equal(t, "<|endoftext|>", cfg.SplitToken)
}

func TestLoadTrainConfig(t *testing.T) {
	cfg, err := LoadTrainConfig("")
	require.NoError(t, err)
	assert.Equal(t, TrainConfig{}, *cfg)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[train]\nvocab_size = 300\n"), 0o644))

	cfg, err = LoadTrainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.VocabSize)

	_, err = LoadTrainConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte("[train]\nbogus = 1\n"), 0o644))
	_, err = LoadTrainConfig(path)
	require.ErrorContains(t, err, path)
}

func TestFindConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("BPE_CONFIG", "")
	LoadConfig()

	assert.Equal(t, "explicit.toml", FindConfig("explicit.toml"))
	if len(GetConfigPaths()) > 0 {
		assert.Empty(t, FindConfig(""))
	}

	t.Setenv("BPE_CONFIG", "env.toml")
	LoadConfig()
	assert.Equal(t, "env.toml", FindConfig(""))
	assert.Equal(t, "explicit.toml", FindConfig("explicit.toml"))
}
