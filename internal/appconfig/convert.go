package appconfig

import (
	"sort"

	"github.com/jihwankim/nado/internal/logging"
	"github.com/jihwankim/nado/internal/metrics"
	"github.com/jihwankim/nado/pkg/constraints"
	"github.com/jihwankim/nado/pkg/corpus"
	"github.com/jihwankim/nado/pkg/normalize"
	"github.com/jihwankim/nado/pkg/sandbox"
)

// ConstraintSpecs reduces problem.inputs to an ordered []constraints.Spec.
// Ordering is by input name, ascending, so the resulting tuple positions
// (and therefore the corpus) are stable across process restarts despite
// Go map iteration being randomized.
func (c *AppConfig) ConstraintSpecs() []constraints.Spec {
	names := make([]string, 0, len(c.Problem.Inputs))
	for name := range c.Problem.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]constraints.Spec, len(names))
	for i, name := range names {
		in := c.Problem.Inputs[name]
		specs[i] = constraints.Spec{
			Name:  name,
			Kind:  constraints.Kind(in.Type),
			Min:   in.Min,
			Max:   in.Max,
			Range: in.Range,
		}
	}
	return specs
}

// CorpusPbtConfig adapts the [pbt] section to corpus.PbtConfig.
func (c *AppConfig) CorpusPbtConfig() corpus.PbtConfig {
	return corpus.PbtConfig{
		Enabled:           c.PBT.Enabled,
		EdgeCaseRatio:     c.PBT.EdgeCaseRatio,
		PartitionRatio:    c.PBT.PartitionRatio,
		MaxCartesianCases: c.PBT.MaxCartesianCases,
	}
}

// NormalizeRules adapts the [normalize] section to normalize.Config.
func (c *AppConfig) NormalizeRules() normalize.Config {
	return normalize.Config{
		TrimTrailingWS:     c.Normalize.TrimTrailingWS,
		IgnoreFinalNewline: c.Normalize.IgnoreFinalNewline,
	}
}

// SandboxLimits adapts the [limits] section to *sandbox.Limits, or nil
// when no resource is configured.
func (c *AppConfig) SandboxLimits() *sandbox.Limits {
	l := &sandbox.Limits{
		CPUSeconds: c.Limits.CPUSeconds,
		MemoryMB:   c.Limits.MemoryMB,
		FileSizeKB: c.Limits.FileSizeKB,
		NoFile:     c.Limits.NoFile,
		NProc:      c.Limits.NProc,
	}
	if !l.Enforced() {
		return nil
	}
	return l
}

// ToProgram converts a ProgramConfig to a sandbox.Program, parsing its
// mount strings against cwd. name is the resolved display name
// (DisplayName's result for candidates; "origin" for the origin).
func (p ProgramConfig) ToProgram(name string, cwd string) (sandbox.Program, error) {
	mounts := make([]sandbox.MountSpec, 0, len(p.Mounts))
	for _, raw := range p.Mounts {
		m, err := sandbox.ParseMount(raw, cwd)
		if err != nil {
			return sandbox.Program{}, err
		}
		mounts = append(mounts, m)
	}

	return sandbox.Program{
		Name:    name,
		Argv:    p.Cmd,
		Image:   p.Image,
		Timeout: p.ProgramTimeout(),
		Mounts:  mounts,
	}, nil
}

// LoggerConfig adapts the [logging] section to logging.Config.
// verboseOverride, when true, forces debug level regardless of what the
// config file names (the CLI's --verbose flag takes precedence).
func (c *AppConfig) LoggerConfig(verboseOverride bool) logging.Config {
	level := logging.Level(c.Logging.Level)
	if verboseOverride {
		level = logging.LevelDebug
	}
	format := logging.Format(c.Logging.Format)
	if format == "" {
		format = logging.FormatConsole
	}
	return logging.Config{Level: level, Format: format}
}

// MetricsServerConfig adapts the [metrics] section to metrics.Config.
// addrOverride, when non-empty, overrides the configured listen address
// and forces the endpoint on (the CLI's --metrics-addr flag takes
// precedence).
func (c *AppConfig) MetricsServerConfig(addrOverride string) metrics.Config {
	if addrOverride != "" {
		return metrics.Config{Enabled: true, Address: addrOverride}
	}
	return metrics.Config{Enabled: c.Metrics.Enabled, Address: c.Metrics.ListenAddr}
}
