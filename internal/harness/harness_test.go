package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opalj-go/fpcf/internal/property"
	"github.com/opalj-go/fpcf/internal/pstore"
	"github.com/opalj-go/fpcf/internal/pstore/trace"
)

type harnessProp struct {
	property.Base
	v int
}

func hp(v int) property.Property { return harnessProp{v: v} }

func TestRun_ScheduleEagerFinalValuePasses(t *testing.T) {
	reg := property.NewRegistry()
	k, err := reg.Register("Size")
	require.NoError(t, err)

	scenario := &Scenario{
		Name:     "eager_final",
		Registry: reg,
		Options:  []pstore.Option{pstore.WithParallelism(1)},
		Build: func(s *pstore.Store) (computed, delayed []*property.Kind) {
			s.ScheduleEager("e1", k, func(e any) pstore.Result {
				return pstore.FinalResult{E: e, K: k, P: hp(7)}
			})
			return []*property.Kind{k}, nil
		},
		Assertions: []Assertion{
			FinalValue{Entity: "e1", Kind: k, Want: hp(7), Equal: func(a, b property.Property) bool {
				return a.(harnessProp).v == b.(harnessProp).v
			}},
			NoPhaseError{},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.NotEmpty(t, result.Trace)
}

func TestRun_FallbackScenarioRecordsFallbackUsed(t *testing.T) {
	reg := property.NewRegistry()
	k, err := reg.Register("Size")
	require.NoError(t, err)
	k.Fallback = func(e any) property.Property { return hp(-1) }

	scenario := &Scenario{
		Name:     "fallback_injection",
		Registry: reg,
		Options:  []pstore.Option{pstore.WithParallelism(1)},
		Build: func(s *pstore.Store) (computed, delayed []*property.Kind) {
			s.Force("ghost", k)
			return []*property.Kind{k}, nil
		},
		Assertions: []Assertion{
			FinalValue{Entity: "ghost", Kind: k},
			CounterEquals{Name: "FallbacksUsed", Want: 1, Get: func(s trace.Snapshot) int64 { return s.FallbacksUsed }},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_SetOnExistingReportsViolation(t *testing.T) {
	reg := property.NewRegistry()
	k, err := reg.Register("Size")
	require.NoError(t, err)

	scenario := &Scenario{
		Name:     "set_on_existing",
		Registry: reg,
		Options:  []pstore.Option{pstore.WithParallelism(1)},
		Build: func(s *pstore.Store) (computed, delayed []*property.Kind) {
			require.NoError(t, s.Set("e1", k, hp(1)))
			require.NoError(t, s.Set("e1", k, hp(2)))
			return []*property.Kind{k}, nil
		},
		Assertions: []Assertion{
			ExpectViolation{Kind: pstore.SetOnExisting},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
