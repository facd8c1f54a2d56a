package pstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opalj-go/fpcf/internal/property"
)

func TestDeque_AppendIsFIFO(t *testing.T) {
	q := newDeque[int]()
	q.Append(1)
	q.Append(2)
	q.Append(3)

	for _, want := range []int{1, 2, 3} {
		got, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestDeque_PrependJumpsQueue(t *testing.T) {
	q := newDeque[int]()
	q.Append(1)
	q.Append(2)
	q.Prepend(99)

	got, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, 99, got)
}

func TestDeque_TryPopEmpty(t *testing.T) {
	q := newDeque[int]()
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestDeque_CloseStopsAppend(t *testing.T) {
	q := newDeque[int]()
	q.Close()
	assert.False(t, q.Append(1))
}

func TestIsFinalResult(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Reach")

	cases := []struct {
		name string
		r    Result
		want bool
	}{
		{"final", FinalResult{E: "e", K: k, P: tp(1)}, true},
		{"multi", MultiResult{}, true},
		{"external", ExternalResult{E: "e", K: k, P: tp(1)}, true},
		{"no-result", NoResult{}, false},
		{"intermediate", IntermediateResult{}, false},
		{"idempotent-final", IdempotentResult{Final: property.NewFinalEP("e", k, tp(1))}, true},
		{"idempotent-intermediate", IdempotentResult{Final: property.NewIntermediateEP("e", k, tp(0), tp(1))}, false},
		{"incremental-wraps-final", IncrementalResult{Current: FinalResult{E: "e", K: k, P: tp(1)}}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, isFinalResult(c.r))
		})
	}
}

func TestPool_QuiescenceFiresAtZeroOpenJobs(t *testing.T) {
	p := newPool()

	select {
	case <-p.quiescenceSignal():
	case <-time.After(time.Second):
		t.Fatal("a freshly constructed pool should already be quiescent")
	}

	p.rearm()
	p.submitTask(computeTask{})
	assert.False(t, p.quiescenceSignal().Fired())

	p.completeJob()
	select {
	case <-p.quiescenceSignal():
	case <-time.After(time.Second):
		t.Fatal("pool should reach quiescence once its one job completes")
	}
}

func TestPool_RecordFailureKeepsFirstOnly(t *testing.T) {
	p := newPool()
	err1 := assertError("first")
	err2 := assertError("second")

	p.recordFailure(err1)
	p.recordFailure(err2)

	assert.Equal(t, err1, p.failure())
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func assertError(s string) error { return simpleErr(s) }
