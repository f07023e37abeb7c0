package differential_test

import (
	"context"
	"testing"

	"github.com/jihwankim/nado/internal/appconfig"
	"github.com/jihwankim/nado/pkg/differential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *appconfig.AppConfig {
	return &appconfig.AppConfig{
		Problem: appconfig.ProblemConfig{
			Inputs: map[string]appconfig.InputSpec{
				"a": {Type: "integer", Range: ">=1,<=9"},
				"b": {Type: "integer", Range: ">=1,<=9"},
			},
		},
		Origin: appconfig.ProgramConfig{Cmd: []string{"sh", "-c", "read a b; echo $((a+b))"}},
		Engine: appconfig.EngineConfig{
			Cases:           30,
			Seed:            42,
			Workers:         4,
			TimeoutMS:       2000,
			StopOnFirstFail: true,
		},
		PBT: appconfig.PbtConfig{
			Enabled:           true,
			EdgeCaseRatio:     0.2,
			PartitionRatio:    0.2,
			MaxCartesianCases: 128,
		},
		Normalize: appconfig.NormalizeConfig{TrimTrailingWS: true, IgnoreFinalNewline: true},
	}
}

func TestRunAll_AllPassWhenCandidateMatchesOrigin(t *testing.T) {
	cfg := baseConfig()
	cfg.Candidates = []appconfig.ProgramConfig{
		{Cmd: []string{"sh", "-c", "read a b; echo $((a+b))"}},
	}

	orch, err := differential.New(cfg, t.TempDir(), nil, nil)
	require.NoError(t, err)

	result, err := orch.RunAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	require.Len(t, result.Verdicts, 1)
	assert.Equal(t, "PASS", result.Verdicts[0].Status)
	assert.Empty(t, result.Failures)
}

func TestRunAll_MismatchProducesFailVerdict(t *testing.T) {
	cfg := baseConfig()
	cfg.Candidates = []appconfig.ProgramConfig{
		{Name: "off-by-one", Cmd: []string{"sh", "-c", "read a b; echo $((a+b+1))"}},
	}

	orch, err := differential.New(cfg, t.TempDir(), nil, nil)
	require.NoError(t, err)

	result, err := orch.RunAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ExitCode)
	require.Len(t, result.Verdicts, 1)
	assert.Equal(t, "off-by-one", result.Verdicts[0].Candidate)
	assert.Equal(t, "FAIL", result.Verdicts[0].Status)
	require.NotEmpty(t, result.Failures)
	assert.Equal(t, differential.ReasonOutputMismatch, result.Failures[0].Reason)
}

func TestRunAll_StopOnFirstFailRetainsAtMostOnePerCandidate(t *testing.T) {
	cfg := baseConfig()
	cfg.Engine.Cases = 200
	cfg.Engine.StopOnFirstFail = true
	cfg.Candidates = []appconfig.ProgramConfig{
		{Name: "always-wrong", Cmd: []string{"sh", "-c", "read a b; echo wrong"}},
	}

	orch, err := differential.New(cfg, t.TempDir(), nil, nil)
	require.NoError(t, err)

	result, err := orch.RunAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ExitCode)
	assert.LessOrEqual(t, len(result.Failures), 1)
	assert.Equal(t, "FAIL", result.Verdicts[0].Status)
	assert.LessOrEqual(t, result.Verdicts[0].Mismatches, 1)
}

func TestRunAll_OriginNonZeroProducesUnknownVerdict(t *testing.T) {
	cfg := baseConfig()
	cfg.Origin = appconfig.ProgramConfig{Cmd: []string{"sh", "-c", "exit 2"}}
	cfg.Candidates = []appconfig.ProgramConfig{
		{Cmd: []string{"sh", "-c", "read a b; echo $((a+b))"}},
	}

	orch, err := differential.New(cfg, t.TempDir(), nil, nil)
	require.NoError(t, err)

	result, err := orch.RunAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ExitCode)
	require.Len(t, result.Verdicts, 1)
	assert.Equal(t, "UNKNOWN", result.Verdicts[0].Status)
	require.NotEmpty(t, result.Failures)
	assert.Equal(t, differential.RefOrigin, result.Failures[0].Ref.Kind)
}

func TestRunAll_CandidateTimeoutIsFast(t *testing.T) {
	cfg := baseConfig()
	cfg.Engine.Cases = 5
	cfg.Engine.TimeoutMS = 100
	cfg.Candidates = []appconfig.ProgramConfig{
		{Name: "hangs", Cmd: []string{"sh", "-c", "sleep 5"}},
	}

	orch, err := differential.New(cfg, t.TempDir(), nil, nil)
	require.NoError(t, err)

	result, err := orch.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	require.NotEmpty(t, result.Failures)
	assert.Equal(t, differential.ReasonTimedOut, result.Failures[0].Reason)
}

func TestNew_FailsOnBadConstraint(t *testing.T) {
	cfg := baseConfig()
	cfg.Problem.Inputs["a"] = appconfig.InputSpec{Type: "integer", Range: ">=10,<=1"}
	cfg.Candidates = []appconfig.ProgramConfig{{Cmd: []string{"cat"}}}

	_, err := differential.New(cfg, t.TempDir(), nil, nil)
	require.Error(t, err)
}
