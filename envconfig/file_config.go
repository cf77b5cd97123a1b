package envconfig

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
)

// TrainConfig is the [train] table of a configuration file. Zero values mean
// the setting was not given.
type TrainConfig struct {
	Input         string   `mapstructure:"input"`
	OutputDir     string   `mapstructure:"output_dir"`
	VocabSize     int      `mapstructure:"vocab_size"`
	SpecialTokens []string `mapstructure:"special_tokens"`
	SplitToken    string   `mapstructure:"split_token"`
	Chunks        int      `mapstructure:"chunks"`
	Workers       int      `mapstructure:"workers"`
}

// GetConfigPaths returns the list of possible config file paths for the current OS
func GetConfigPaths() []string {
	var paths []string

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			paths = append(paths, filepath.Join(appData, "bpetrain", "config.toml"))
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths,
				filepath.Join(home, "Library", "Application Support", "bpetrain", "config.toml"),
				filepath.Join(home, ".config", "bpetrain", "config.toml"),
			)
		}
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			paths = append(paths, filepath.Join(xdgConfig, "bpetrain", "config.toml"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, ".config", "bpetrain", "config.toml"))
		}
	}

	return paths
}

// FindConfig returns explicit if set, then BPE_CONFIG, then the first
// existing default path. An empty result means no file is used.
func FindConfig(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if ConfigPath != "" {
		return ConfigPath
	}

	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// LoadTrainConfig reads the [train] table from the file at path. An empty
// path yields an empty config.
func LoadTrainConfig(path string) (*TrainConfig, error) {
	if path == "" {
		return &TrainConfig{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := DecodeTrainConfig(f)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	slog.Debug("loaded config file", "path", path)
	return cfg, nil
}

func DecodeTrainConfig(r io.Reader) (*TrainConfig, error) {
	var raw map[string]any
	if _, err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	for key := range raw {
		if key != "train" {
			slog.Warn("ignoring unknown config table", "table", key)
		}
	}

	var cfg TrainConfig
	table, ok := raw["train"]
	if !ok {
		return &cfg, nil
	}

	if _, ok := table.(map[string]any); !ok {
		return nil, errors.New("train must be a table")
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(table); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// GenerateExampleConfig returns a commented example TOML configuration
func GenerateExampleConfig() string {
	return `# bpetrain configuration file
# Command line flags override environment variables, which override this file.

[train]
# Corpus to train on
input = "corpus.txt"
# Directory receiving vocab.json, merges.txt and snapshot.cbor
output_dir = "out"
# Target vocabulary size, including the 256 byte tokens and special tokens
vocab_size = 10000
# Reserved tokens, in id order
special_tokens = ["<|endoftext|>"]
# Chunks are only cut at occurrences of this token
split_token = "<|endoftext|>"
# Number of chunks (default: BPE_CHUNKS or the worker count)
chunks = 16
# Number of chunks pre-tokenized in parallel (default: BPE_NUM_PARALLEL)
workers = 8
`
}
