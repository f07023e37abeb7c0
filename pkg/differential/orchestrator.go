package differential

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jihwankim/nado/internal/appconfig"
	"github.com/jihwankim/nado/internal/imagecache"
	"github.com/jihwankim/nado/internal/logging"
	"github.com/jihwankim/nado/internal/metrics"
	"github.com/jihwankim/nado/pkg/constraints"
	"github.com/jihwankim/nado/pkg/corpus"
	"github.com/jihwankim/nado/pkg/normalize"
	"github.com/jihwankim/nado/pkg/sandbox"
)

// Orchestrator drives one fully-loaded configuration's corpus through
// the origin and every candidate.
type Orchestrator struct {
	cfg            *appconfig.AppConfig
	cwd            string
	bounds         []constraints.Bounds
	corpus         []string
	origin         sandbox.Program
	candidates     []sandbox.Program
	candidateNames []string
	limits         *sandbox.Limits
	norm           normalize.Config

	log *logging.Logger
	rec *metrics.Recorder // nil-safe: every use guards on non-nil
}

// New builds an Orchestrator: parses the problem's constraints, renders
// the corpus once, and resolves the origin and candidate programs
// against cwd. log and rec may be nil.
func New(cfg *appconfig.AppConfig, cwd string, log *logging.Logger, rec *metrics.Recorder) (*Orchestrator, error) {
	bounds, err := constraints.ParseAll(cfg.ConstraintSpecs())
	if err != nil {
		return nil, err
	}

	cases, err := corpus.Generate(bounds, cfg.Engine.Cases, uint64(cfg.Engine.Seed), cfg.CorpusPbtConfig())
	if err != nil {
		return nil, err
	}

	origin, err := cfg.Origin.ToProgram("origin", cwd)
	if err != nil {
		return nil, fmt.Errorf("differential: origin: %w", err)
	}

	candidates := make([]sandbox.Program, len(cfg.Candidates))
	names := make([]string, len(cfg.Candidates))
	for i, c := range cfg.Candidates {
		name := c.DisplayName(i)
		names[i] = name
		prog, err := c.ToProgram(name, cwd)
		if err != nil {
			return nil, fmt.Errorf("differential: candidate %q: %w", name, err)
		}
		candidates[i] = prog
	}

	if err := preflightImages(origin, candidates); err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:            cfg,
		cwd:            cwd,
		bounds:         bounds,
		corpus:         cases,
		origin:         origin,
		candidates:     candidates,
		candidateNames: names,
		limits:         cfg.SandboxLimits(),
		norm:           cfg.NormalizeRules(),
		log:            log,
		rec:            rec,
	}, nil
}

// preflightImages ensures every container image referenced by the
// origin or a candidate is present locally before the corpus starts
// running, so the first case in container mode doesn't pay (or fail
// on) a cold pull. It is a no-op when nothing uses container mode.
func preflightImages(origin sandbox.Program, candidates []sandbox.Program) error {
	images := collectImages(origin, candidates)
	if len(images) == 0 {
		return nil
	}

	client, err := imagecache.New()
	if err != nil {
		return fmt.Errorf("differential: connect to docker: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, ref := range images {
		if err := client.EnsurePulled(ctx, ref); err != nil {
			return fmt.Errorf("differential: preflight image %q: %w", ref, err)
		}
	}
	return nil
}

func collectImages(origin sandbox.Program, candidates []sandbox.Program) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(img string) {
		if img == "" || seen[img] {
			return
		}
		seen[img] = true
		out = append(out, img)
	}
	add(origin.Image)
	for _, c := range candidates {
		add(c.Image)
	}
	return out
}

// CorpusSize returns the number of cases this Orchestrator will evaluate.
func (o *Orchestrator) CorpusSize() int { return len(o.corpus) }

// RunAll dispatches every case to a fixed-size worker pool, one task per
// case, candidates evaluated sequentially within a case. Cancelling ctx
// stops the dispatcher from handing out new cases; cases already
// in-flight always run to completion (§5: no forced subprocess
// cancellation).
func (o *Orchestrator) RunAll(ctx context.Context) (Result, error) {
	start := time.Now()

	n := len(o.corpus)
	if n == 0 {
		result := Result{ExitCode: 0, Verdicts: o.emptyVerdicts()}
		o.pushSummary(result, time.Since(start))
		return result, nil
	}

	workers := o.cfg.Engine.Workers
	if workers < 1 {
		workers = 1
	}

	var flags []atomic.Bool
	if o.cfg.Engine.StopOnFirstFail {
		flags = make([]atomic.Bool, len(o.candidates))
	}

	cases := make(chan int)
	go func() {
		defer close(cases)
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				return
			case cases <- i:
			}
		}
	}()

	var mu sync.Mutex
	var all []Failure

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range cases {
				fs := o.runCase(idx, flags)
				if o.rec != nil {
					o.rec.CaseCompleted()
				}
				if len(fs) == 0 {
					continue
				}
				mu.Lock()
				all = append(all, fs...)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Slice(all, func(i, j int) bool { return lessFailure(all[i], all[j]) })

	retained, verdicts := o.aggregate(all)

	exitCode := 0
	for _, v := range verdicts {
		if v.Status != "PASS" {
			exitCode = 1
			break
		}
	}

	result := Result{ExitCode: exitCode, Failures: retained, Verdicts: verdicts}
	o.pushSummary(result, time.Since(start))
	return result, nil
}

// pushSummary builds a metrics.RunSummary from a finished Result and
// hands it to the Recorder and the logger. Both are nil-safe: a run
// with neither configured is a no-op here.
func (o *Orchestrator) pushSummary(result Result, duration time.Duration) {
	infra := make(map[string]int)
	for _, f := range result.Failures {
		if f.Ref.Kind != RefCandidate {
			infra[f.Ref.String()]++
		}
	}

	candidates := make([]metrics.CandidateSummary, len(result.Verdicts))
	for i, v := range result.Verdicts {
		candidates[i] = metrics.CandidateSummary{Name: v.Candidate, Status: v.Status, Mismatches: v.Mismatches}
	}

	summary := metrics.RunSummary{
		CasesTotal:             len(o.corpus),
		Candidates:             candidates,
		InfrastructureFailures: infra,
		Duration:               duration,
	}

	if o.rec != nil {
		o.rec.PushSummary(summary)
	}
	if o.log != nil {
		o.log.RunSummary(summary.CasesTotal, len(result.Failures), duration)
	}
}

func (o *Orchestrator) emptyVerdicts() []Verdict {
	verdicts := make([]Verdict, len(o.candidateNames))
	for i, name := range o.candidateNames {
		verdicts[i] = Verdict{Candidate: name, Status: "PASS"}
	}
	return verdicts
}

// runCase executes one case against the origin and, if the origin
// succeeds, against every not-yet-failed candidate in index order.
func (o *Orchestrator) runCase(caseIndex int, flags []atomic.Bool) []Failure {
	if o.rec != nil {
		done := o.rec.CaseStarted()
		defer done()
	}

	input := o.corpus[caseIndex]
	engineTimeout := o.cfg.Engine.EngineTimeout()

	originOut, err := sandbox.Run(o.origin, []byte(input), o.cwd, engineTimeout, o.limits)
	if err != nil {
		f := Failure{CaseIndex: caseIndex, InputLiteral: input, Ref: CandidateRef{Kind: RefEngine}, Reason: ReasonEngineError}
		o.logFailure(f)
		return []Failure{f}
	}
	if originOut.TimedOut || !originOut.Success() {
		reason := ReasonOriginNonZero
		if originOut.TimedOut {
			reason = ReasonOriginTimedOut
		}
		f := Failure{
			CaseIndex:    caseIndex,
			InputLiteral: input,
			Ref:          CandidateRef{Kind: RefOrigin},
			Reason:       reason,
			OriginStdout: originOut.StdoutString(),
			OriginStderr: originOut.StderrString(),
		}
		o.logFailure(f)
		return []Failure{f}
	}

	expected := normalize.Apply(originOut.StdoutString(), o.norm)

	var failures []Failure
	for ci, cand := range o.candidates {
		if flags != nil && flags[ci].Load() {
			continue
		}

		out, err := sandbox.Run(cand, []byte(input), o.cwd, engineTimeout, o.limits)

		var reason string
		switch {
		case err != nil:
			reason = ReasonRunnerError
		case out.TimedOut:
			reason = ReasonTimedOut
		case out.ExitCode != 0:
			reason = ReasonNonZeroExit
		default:
			if normalize.Apply(out.StdoutString(), o.norm) != expected {
				reason = ReasonOutputMismatch
			}
		}
		if reason == "" {
			continue
		}

		f := Failure{
			CaseIndex:       caseIndex,
			InputLiteral:    input,
			Ref:             CandidateRef{Kind: RefCandidate, Index: ci},
			Reason:          reason,
			OriginStdout:    originOut.StdoutString(),
			CandidateStdout: out.StdoutString(),
			OriginStderr:    originOut.StderrString(),
			CandidateStderr: out.StderrString(),
		}
		failures = append(failures, f)
		o.logFailure(f)
		if flags != nil {
			flags[ci].Store(true)
		}
	}
	return failures
}

func (o *Orchestrator) logFailure(f Failure) {
	name := f.Ref.String()
	if f.Ref.Kind == RefCandidate {
		name = o.candidateNames[f.Ref.Index]
	}
	if o.log != nil {
		o.log.CaseFailure(f.CaseIndex, name, f.Reason)
	}
	if o.rec == nil {
		return
	}
	if f.Ref.Kind == RefCandidate {
		o.rec.CandidateFailureRecorded(name, f.Reason)
	} else {
		o.rec.InfrastructureFailureRecorded(name)
	}
}

// aggregate partitions sortedFailures into infrastructure and
// per-candidate buckets, truncates each candidate's bucket to its first
// entry when stop_on_first_fail is set, and derives each candidate's
// verdict. It returns the pruned failure list (infra entries plus the
// truncated per-candidate entries, re-sorted) alongside the verdicts.
func (o *Orchestrator) aggregate(sortedFailures []Failure) ([]Failure, []Verdict) {
	var infra []Failure
	perCandidate := make([][]Failure, len(o.candidates))
	for _, f := range sortedFailures {
		if f.Ref.Kind == RefCandidate {
			perCandidate[f.Ref.Index] = append(perCandidate[f.Ref.Index], f)
		} else {
			infra = append(infra, f)
		}
	}
	infraOccurred := len(infra) > 0

	retained := append([]Failure{}, infra...)
	verdicts := make([]Verdict, len(o.candidates))
	for i, name := range o.candidateNames {
		bucket := perCandidate[i]
		if o.cfg.Engine.StopOnFirstFail && len(bucket) > 1 {
			bucket = bucket[:1]
		}
		retained = append(retained, bucket...)

		switch {
		case len(bucket) == 0 && !infraOccurred:
			verdicts[i] = Verdict{Candidate: name, Status: "PASS"}
		case len(bucket) == 0:
			verdicts[i] = Verdict{Candidate: name, Status: "UNKNOWN"}
		default:
			verdicts[i] = Verdict{Candidate: name, Status: "FAIL", Mismatches: len(bucket)}
		}
	}

	sort.Slice(retained, func(i, j int) bool { return lessFailure(retained[i], retained[j]) })
	return retained, verdicts
}

// lessFailure implements the report's stable sort: case index first,
// then candidate index with the origin/engine sentinels ordered last.
func lessFailure(a, b Failure) bool {
	if a.CaseIndex != b.CaseIndex {
		return a.CaseIndex < b.CaseIndex
	}
	return refRank(a.Ref) < refRank(b.Ref)
}

func refRank(r CandidateRef) int {
	switch r.Kind {
	case RefCandidate:
		return r.Index
	case RefOrigin:
		return math.MaxInt32 - 1
	default: // RefEngine
		return math.MaxInt32
	}
}
