// Package appconfig loads and validates the TOML configuration that
// drives a single differential-testing run: the problem's input
// constraints, the origin and candidate programs, and the engine,
// limits, PBT, and normalization knobs that control how the corpus is
// built and evaluated.
package appconfig

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// InputSpec is one [problem.inputs.<name>] table.
type InputSpec struct {
	Type  string `toml:"type"`
	Range string `toml:"range"`
	Min   *int64 `toml:"min"`
	Max   *int64 `toml:"max"`
}

// ProblemConfig is the [problem] section: a named set of input fields.
type ProblemConfig struct {
	Inputs map[string]InputSpec `toml:"inputs"`
}

// ProgramConfig is one [origin] or [[candidate]] table.
type ProgramConfig struct {
	Name      string   `toml:"name"`
	Cmd       []string `toml:"cmd"`
	Image     string   `toml:"image"`
	TimeoutMS int64    `toml:"timeout_ms"`
	Mounts    []string `toml:"mounts"`
}

// EngineConfig is the [engine] section.
type EngineConfig struct {
	Cases           int   `toml:"cases"`
	Seed            int64 `toml:"seed"`
	Workers         int   `toml:"workers"`
	TimeoutMS       int64 `toml:"timeout_ms"`
	StopOnFirstFail bool  `toml:"stop_on_first_fail"`
}

// LimitsConfig is the [limits] section. A zero field means that resource
// is not enforced.
type LimitsConfig struct {
	CPUSeconds int64 `toml:"cpu_seconds"`
	MemoryMB   int64 `toml:"memory_mb"`
	FileSizeKB int64 `toml:"file_size_kb"`
	NoFile     int64 `toml:"nofile"`
	NProc      int64 `toml:"nproc"`
}

// PbtConfig is the [pbt] section.
type PbtConfig struct {
	Enabled           bool    `toml:"enabled"`
	EdgeCaseRatio     float64 `toml:"edge_case_ratio"`
	PartitionRatio    float64 `toml:"partition_ratio"`
	MaxCartesianCases int     `toml:"max_cartesian_cases"`
}

// NormalizeConfig is the [normalize] section.
type NormalizeConfig struct {
	TrimTrailingWS     bool `toml:"trim_trailing_ws"`
	IgnoreFinalNewline bool `toml:"ignore_final_newline"`
}

// LoggingConfig is the optional [logging] section.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig is the optional [metrics] section.
type MetricsConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"`
}

// AppConfig is the fully loaded, defaulted, and validated configuration
// for one run.
type AppConfig struct {
	Problem    ProblemConfig
	Origin     ProgramConfig
	Candidates []ProgramConfig
	Engine     EngineConfig
	Limits     LimitsConfig
	PBT        PbtConfig
	Normalize  NormalizeConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
}

// rawConfig mirrors AppConfig's TOML shape. Candidate is decoded twice —
// first as a toml.Primitive, then resolved to a slice in a second pass —
// because `candidate` is permitted to be either a single table or an
// array of tables and BurntSushi/toml has no native union type.
type rawConfig struct {
	Problem   ProblemConfig   `toml:"problem"`
	Origin    ProgramConfig   `toml:"origin"`
	Candidate toml.Primitive  `toml:"candidate"`
	Engine    EngineConfig    `toml:"engine"`
	Limits    LimitsConfig    `toml:"limits"`
	PBT       PbtConfig       `toml:"pbt"`
	Normalize NormalizeConfig `toml:"normalize"`
	Logging   LoggingConfig   `toml:"logging"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// defaultRaw returns the engine/pbt/normalize/logging/metrics defaults
// named in the configuration surface. Problem, Origin, and Candidates carry no
// default: they are mandatory and Load fails when they are absent.
func defaultRaw() rawConfig {
	return rawConfig{
		Engine: EngineConfig{
			Cases:           1000,
			Seed:            42,
			Workers:         defaultWorkers(),
			TimeoutMS:       1000,
			StopOnFirstFail: true,
		},
		PBT: PbtConfig{
			Enabled:           true,
			EdgeCaseRatio:     0.2,
			PartitionRatio:    0.2,
			MaxCartesianCases: 128,
		},
		Normalize: NormalizeConfig{
			TrimTrailingWS:     true,
			IgnoreFinalNewline: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: "127.0.0.1:9400",
		},
	}
}

func defaultWorkers() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 4
}

// Load reads and parses the TOML file at path, applying defaults for any
// field left unset and expanding ${VAR}/$VAR references against the
// process environment before parsing. An empty path defaults to
// "./nado.toml". Unlike a discovery tool that tolerates a missing file,
// Load treats a missing or unreadable file as fatal: origin and
// candidate are mandatory, so there is no meaningful default run.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		path = "./nado.toml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("appconfig: read %q: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	raw := defaultRaw()
	meta, err := toml.Decode(expanded, &raw)
	if err != nil {
		return nil, fmt.Errorf("appconfig: parse %q: %w", path, err)
	}

	candidates, err := decodeCandidates(meta, raw.Candidate)
	if err != nil {
		return nil, fmt.Errorf("appconfig: %q: %w", path, err)
	}

	cfg := &AppConfig{
		Problem:    raw.Problem,
		Origin:     raw.Origin,
		Candidates: candidates,
		Engine:     raw.Engine,
		Limits:     raw.Limits,
		PBT:        raw.PBT,
		Normalize:  raw.Normalize,
		Logging:    raw.Logging,
		Metrics:    raw.Metrics,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("appconfig: %q: %w", path, err)
	}
	return cfg, nil
}

// decodeCandidates resolves the deferred `candidate` primitive to a
// slice, trying the array-of-tables shape first and falling back to a
// single table.
func decodeCandidates(meta toml.MetaData, prim toml.Primitive) ([]ProgramConfig, error) {
	var asSlice []ProgramConfig
	if err := meta.PrimitiveDecode(prim, &asSlice); err == nil && len(asSlice) > 0 {
		return asSlice, nil
	}

	var single ProgramConfig
	if err := meta.PrimitiveDecode(prim, &single); err != nil {
		return nil, fmt.Errorf("candidate: expected a table or array of tables: %w", err)
	}
	if len(single.Cmd) == 0 && single.Image == "" {
		return nil, fmt.Errorf("at least one [candidate] is required")
	}
	return []ProgramConfig{single}, nil
}

// Validate checks structural invariants across the whole config and
// returns the first fatal problem found, if any.
func (c *AppConfig) Validate() error {
	if len(c.Problem.Inputs) == 0 {
		return fmt.Errorf("problem.inputs must declare at least one input")
	}
	for name, spec := range c.Problem.Inputs {
		if spec.Type != "integer" {
			return fmt.Errorf("problem.inputs.%s: unsupported type %q", name, spec.Type)
		}
	}

	if len(c.Origin.Cmd) == 0 {
		return fmt.Errorf("origin.cmd is required")
	}
	if len(c.Candidates) == 0 {
		return fmt.Errorf("at least one candidate is required")
	}
	for i, cand := range c.Candidates {
		if len(cand.Cmd) == 0 {
			return fmt.Errorf("candidate[%d].cmd is required", i)
		}
	}

	if c.Engine.Cases < 0 {
		return fmt.Errorf("engine.cases must be >= 0")
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be >= 1")
	}
	if c.Engine.TimeoutMS <= 0 {
		return fmt.Errorf("engine.timeout_ms must be > 0")
	}

	if c.PBT.EdgeCaseRatio < 0 || c.PBT.EdgeCaseRatio > 1 {
		return fmt.Errorf("pbt.edge_case_ratio must be in [0,1]")
	}
	if c.PBT.PartitionRatio < 0 || c.PBT.PartitionRatio > 1 {
		return fmt.Errorf("pbt.partition_ratio must be in [0,1]")
	}
	if c.PBT.EdgeCaseRatio+c.PBT.PartitionRatio > 1 {
		return fmt.Errorf("pbt.edge_case_ratio + pbt.partition_ratio must be <= 1")
	}
	if c.PBT.MaxCartesianCases <= 0 {
		return fmt.Errorf("pbt.max_cartesian_cases must be > 0")
	}

	return nil
}

// EngineTimeout renders engine.timeout_ms as a time.Duration.
func (e EngineConfig) EngineTimeout() time.Duration {
	return time.Duration(e.TimeoutMS) * time.Millisecond
}

// ProgramTimeout renders a ProgramConfig's per-program timeout override,
// or zero if unset (callers fall back to the engine default).
func (p ProgramConfig) ProgramTimeout() time.Duration {
	if p.TimeoutMS <= 0 {
		return 0
	}
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

// DisplayName returns the program's configured name, or a synthesized
// "candidate-N" (1-indexed) fallback when unnamed.
func (p ProgramConfig) DisplayName(fallbackIndex int) string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return fmt.Sprintf("candidate-%d", fallbackIndex+1)
}
