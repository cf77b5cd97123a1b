package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jmorganca/bpetrain/logutil"
)

var (
	// Set via BPE_DEBUG in the environment
	Debug bool
	// Set via BPE_DEBUG=2 in the environment
	Trace bool
	// Set via BPE_NUM_PARALLEL in the environment, zero when unset
	NumParallel int
	// Set via BPE_CHUNKS in the environment, zero when unset
	Chunks int
	// Set via BPE_CONFIG in the environment
	ConfigPath string
)

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"BPE_DEBUG":        {"BPE_DEBUG", Debug, "Show additional debug information (e.g. BPE_DEBUG=1, BPE_DEBUG=2 for every merge)"},
		"BPE_NUM_PARALLEL": {"BPE_NUM_PARALLEL", NumParallel, "Maximum number of chunks pre-tokenized in parallel (default number of CPUs)"},
		"BPE_CHUNKS":       {"BPE_CHUNKS", Chunks, "Number of chunks the corpus is split into (default BPE_NUM_PARALLEL)"},
		"BPE_CONFIG":       {"BPE_CONFIG", ConfigPath, "Path to a TOML configuration file"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

func LoadConfig() {
	Debug, Trace = false, false
	if debug := clean("BPE_DEBUG"); debug != "" {
		if n, err := strconv.Atoi(debug); err == nil {
			Debug, Trace = n > 0, n > 1
		} else if b, err := strconv.ParseBool(debug); err == nil {
			Debug = b
		} else {
			Debug = true
		}
	}

	NumParallel = 0
	if onp := clean("BPE_NUM_PARALLEL"); onp != "" {
		val, err := strconv.Atoi(onp)
		if err != nil || val <= 0 {
			slog.Error("invalid setting must be greater than zero", "BPE_NUM_PARALLEL", onp, "error", err)
		} else {
			NumParallel = val
		}
	}

	Chunks = 0
	if chunks := clean("BPE_CHUNKS"); chunks != "" {
		val, err := strconv.Atoi(chunks)
		if err != nil || val <= 0 {
			slog.Error("invalid setting must be greater than zero", "BPE_CHUNKS", chunks, "error", err)
		} else {
			Chunks = val
		}
	}

	ConfigPath = clean("BPE_CONFIG")
}

// LogLevel maps BPE_DEBUG onto a slog level.
func LogLevel() slog.Level {
	switch {
	case Trace:
		return logutil.LevelTrace
	case Debug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
