package functions

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/testutil"
)

type addParams struct {
	a, b int
	out  *int
}

type addImpl struct {
	name   string
	bonus  float32
	refuse bool
	runErr error
	calls  *int
}

func (i addImpl) Name() string     { return i.name }
func (i addImpl) FullName() string { return "add/" + i.name }

func (i addImpl) Accept(_ addParams, score *FunctionScore) bool {
	if i.refuse {
		return false
	}
	score.Add(0, i.bonus)
	return true
}

func (i addImpl) Execute(_ context.Context, e compute.Engine, _ compute.CommandQueue, p addParams, _ []compute.Event) (compute.Event, error) {
	if i.calls != nil {
		*i.calls++
	}
	if i.runErr != nil {
		return nil, i.runErr
	}
	*p.out = p.a + p.b
	ev := compute.NewCompletion(e)
	ev.Complete(nil)
	return ev, nil
}

func TestSelectImplementations(t *testing.T) {
	fn := Function[addParams]{
		Name:       "add",
		ScoreWidth: 2,
		Impls: []Impl[addParams]{
			addImpl{name: "slow"},
			addImpl{name: "fast", bonus: 6},
			addImpl{name: "never", refuse: true},
			addImpl{name: "slow2"},
		},
	}

	ranked, err := SelectImplementations(t.Context(), fn, addParams{}, &ScoreBuilderDotProduct{})
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	var names []string
	for _, s := range ranked {
		names = append(names, s.Impl.Name())
	}
	assert.Equal(t, []string{"fast", "slow", "slow2"}, names)
	assert.Equal(t, float32(8), ranked[0].Score)
	assert.Equal(t, float32(2), ranked[1].Score)
}

func TestSelectImplementations_Errors(t *testing.T) {
	_, err := SelectImplementations(t.Context(), Function[addParams]{Name: "empty"}, addParams{}, nil)
	require.ErrorIs(t, err, compute.ErrUnimplemented)

	fn := Function[addParams]{Name: "picky", ScoreWidth: 1, Impls: []Impl[addParams]{addImpl{refuse: true}}}
	_, err = SelectImplementations(t.Context(), fn, addParams{}, nil)
	require.ErrorIs(t, err, compute.ErrUnsupported)
}

func TestDispatcher_Execute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var fastCalls, slowCalls int
	fn := Function[addParams]{
		Name:       "add",
		ScoreWidth: 1,
		Impls: []Impl[addParams]{
			addImpl{name: "slow", calls: &slowCalls},
			addImpl{name: "fast", bonus: 1, calls: &fastCalls, runErr: compute.ErrUnsupported},
		},
	}

	var out int
	d := NewDispatcher(nil, WithLogger(logger))
	ev, err := Execute(t.Context(), d, fn, addParams{a: 2, b: 3, out: &out})
	require.NoError(t, err)
	_, err = ev.Wait()
	require.NoError(t, err)

	assert.Equal(t, 5, out)
	assert.Equal(t, 1, fastCalls, "best implementation is tried first")
	assert.Equal(t, 1, slowCalls)
	assert.Contains(t, buf.String(), "implementation refused")
	assert.Contains(t, buf.String(), "impl=slow")
}

func TestDispatcher_ExecuteFailure(t *testing.T) {
	boom := errors.New("boom")
	var slowCalls int
	fn := Function[addParams]{
		Name:       "add",
		ScoreWidth: 1,
		Impls: []Impl[addParams]{
			addImpl{name: "slow", calls: &slowCalls},
			addImpl{name: "fast", bonus: 1, runErr: boom},
		},
	}

	_, err := Execute(t.Context(), NewDispatcher(nil), fn, addParams{out: new(int)})
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "add/fast")
	assert.Zero(t, slowCalls, "only refusals fall through")
}

func TestDispatcher_DotProduct(t *testing.T) {
	e := testutil.NewEngine(t)
	fn := DotProduct()

	args, err := NewScoreArgs(scenarioQuery, scenarioCandidates, make([]float32, 2))
	require.NoError(t, err)
	ranked, err := Select(t.Context(), NewDispatcher(e), fn, args)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "kernel", ranked[0].Impl.Name())

	for _, d := range []*Dispatcher{NewDispatcher(e, WithQueue(compute.DefaultQueue)), NewDispatcher(nil)} {
		out := make([]float32, 2)
		args, err := NewScoreArgs(scenarioQuery, scenarioCandidates, out)
		require.NoError(t, err)

		ev, err := Execute(t.Context(), d, fn, args)
		require.NoError(t, err)
		_, err = ev.Wait()
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 5}, out)
	}
}
