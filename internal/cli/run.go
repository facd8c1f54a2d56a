package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/opalj-go/fpcf/internal/property"
	"github.com/opalj-go/fpcf/internal/pstore"
	"github.com/opalj-go/fpcf/internal/pstore/config"
	"github.com/opalj-go/fpcf/internal/pstore/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
	Metrics    bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the illustrative reachability/escape phase to quiescence",
		Long: `Registers a small set of mutually-dependent property computations —
a closed two-node reachability cycle, a lazily-triggered escape analysis,
and a purity kind nothing ever computes — on a fresh property store, runs
one phase to quiescence, and prints the final table and lifecycle counters.

Example:
  fpcfdemo run
  fpcfdemo run --config ./store.cue --verbose`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to a CUE store configuration document (optional)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "also record lifecycle counters via a Prometheus tracer and include them in the report")

	return cmd
}

// demoProp is the illustrative lattice value for every kind this command
// registers: a small integer ordered by <=.
type demoProp struct {
	property.Base
	v int
}

func (p demoProp) String() string { return fmt.Sprintf("%d", p.v) }

func demoMeet(a, b property.Property) property.Property {
	av, bv := a.(demoProp).v, b.(demoProp).v
	if av > bv {
		return a
	}
	return b
}

func demoCheckIsEqualOrBetter(old, next property.Property) bool {
	return next.(demoProp).v >= old.(demoProp).v
}

func runDemo(opts *RunOptions, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	storeOpts, err := loadStoreOptions(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load store configuration", err)
	}

	logTracer := trace.NewLogger(slog.Default())
	var prom *trace.Prometheus
	var promReg *prometheus.Registry
	if opts.Metrics {
		promReg = prometheus.NewRegistry()
		prom = trace.NewPrometheus(promReg)
		// WithTracer is appended after the loaded options (a CUE document
		// never sets a tracer). The log tracer still runs alongside the
		// Prometheus one via Multi.
		storeOpts = append(storeOpts, pstore.WithTracer(trace.Multi{logTracer, prom}))
	} else {
		storeOpts = append(storeOpts, pstore.WithTracer(logTracer))
	}

	reg := property.NewRegistry()
	reachable, err := reg.Register("Reachable")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to register Reachable kind", err)
	}
	reachable.Meet = demoMeet
	reachable.CheckIsEqualOrBetter = demoCheckIsEqualOrBetter
	reachable.ResolveCycle = func(e any, members map[any]property.Property) property.Property {
		best := 0
		for _, p := range members {
			if v := p.(demoProp).v; v > best {
				best = v
			}
		}
		return demoProp{v: best}
	}

	escape, err := reg.Register("Escape")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to register Escape kind", err)
	}
	escape.CheckIsEqualOrBetter = demoCheckIsEqualOrBetter

	purity, err := reg.Register("Purity")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to register Purity kind", err)
	}
	purity.Fallback = func(e any) property.Property { return demoProp{v: -1} }

	s := pstore.New(reg, storeOpts...)

	if err := s.RegisterLazy(escape, func(e any) pstore.Result {
		slog.Debug("escape computation ran", "entity", e)
		return pstore.FinalResult{E: e, K: escape, P: demoProp{v: 1}}
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to register Escape computation", err)
	}

	var contFor func(self, other any) pstore.Continuation
	contFor = func(self, other any) pstore.Continuation {
		var c pstore.Continuation
		c = func(seen []property.EOptionP) pstore.Result {
			return pstore.IntermediateResult{
				E: self, K: reachable,
				LB: demoProp{v: 1}, UB: demoProp{v: 1},
				SeenDependees: seen,
				Cont:          c,
				Hint:          pstore.Cheap,
			}
		}
		return c
	}
	s.ScheduleEager("methodA", reachable, func(e any) pstore.Result {
		seen := []property.EOptionP{s.Get("methodB", reachable)}
		return pstore.IntermediateResult{E: "methodA", K: reachable, LB: demoProp{v: 1}, UB: demoProp{v: 1}, SeenDependees: seen, Cont: contFor("methodA", "methodB"), Hint: pstore.Cheap}
	})
	s.ScheduleEager("methodB", reachable, func(e any) pstore.Result {
		seen := []property.EOptionP{s.Get("methodA", reachable)}
		return pstore.IntermediateResult{E: "methodB", K: reachable, LB: demoProp{v: 1}, UB: demoProp{v: 1}, SeenDependees: seen, Cont: contFor("methodB", "methodA"), Hint: pstore.Cheap}
	})

	s.Force("methodC", escape)

	if err := s.SetupPhase([]*property.Kind{reachable, escape}, nil); err != nil {
		return WrapExitError(ExitCommandError, "failed to set up phase", err)
	}
	// Purity is neither computed nor delayed, so this query queues its
	// fallback on the updates worker while the phase is still running.
	s.Get("orphan", purity)
	phaseErr := s.WaitOnPhaseCompletion()

	out := cmd.OutOrStdout()
	formatter := &OutputFormatter{Format: opts.Format, Writer: out, Verbose: opts.Verbose}

	report := map[string]any{
		"methodA":  describe(s.Get("methodA", reachable)),
		"methodB":  describe(s.Get("methodB", reachable)),
		"methodC":  describe(s.Get("methodC", escape)),
		"orphan":   describe(s.Get("orphan", purity)),
		"counters": s.Counters(),
	}

	if prom != nil {
		families, err := promReg.Gather()
		if err != nil {
			return WrapExitError(ExitFailure, "failed to gather prometheus metrics", err)
		}
		var buf bytes.Buffer
		enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
		for _, mf := range families {
			if err := enc.Encode(mf); err != nil {
				return WrapExitError(ExitFailure, "failed to encode prometheus metrics", err)
			}
		}
		report["metrics"] = buf.String()
	}

	if phaseErr != nil {
		_ = formatter.Error("E100", "phase completed with an error", phaseErr.Error())
		return WrapExitError(ExitFailure, "phase error", phaseErr)
	}
	return formatter.Success(report)
}

func describe(eop property.EOptionP) string {
	eps, ok := eop.(property.EPS)
	if !ok {
		return "<no value>"
	}
	if eps.IsFinal() {
		return fmt.Sprintf("final(%v)", eps.UB)
	}
	return fmt.Sprintf("intermediate(lb=%v, ub=%v)", eps.LB, eps.UB)
}

func loadStoreOptions(path string) ([]pstore.Option, error) {
	if path == "" {
		return []pstore.Option{pstore.WithParallelism(4), pstore.WithDebug(true)}, nil
	}
	loaded, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return loaded.Options(), nil
}
