package compute

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsSequence_ChainsDependencies(t *testing.T) {
	fb := &fakeBackend{}
	var (
		log   []string
		logMu sync.Mutex
	)
	c1 := newStep(fb, "c1", &log, &logMu)
	c2 := newStep(fb, "c2", &log, &logMu)
	c3 := newStep(fb, "c3", &log, &logMu)

	seq := fb.CommandsSequence(c1, c2, c3)
	upstream := NewCompletion(fb)

	ev, err := seq.Submit(DefaultQueue, upstream)
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c2", "c3"}, log)
	assert.Equal(t, []Event{upstream}, c1.submittedDeps())
	require.Len(t, c2.submittedDeps(), 1)
	assert.Same(t, c1.event, c2.submittedDeps()[0])
	require.Len(t, c3.submittedDeps(), 1)
	assert.Same(t, c2.event, c3.submittedDeps()[0])

	// The sequence event is the event of the last child.
	c1.complete(nil)
	c2.complete(nil)
	select {
	case <-ev.Done():
		t.Fatal("sequence completed before its last command")
	default:
	}
	c3.complete(nil)
	_, err = ev.Wait()
	require.NoError(t, err)
}

func TestCommandsSequence_Flattens(t *testing.T) {
	fb := &fakeBackend{}
	inner := fb.CommandsSequence(newStep(fb, "a", nil, nil), newStep(fb, "b", nil, nil))
	outer := fb.CommandsSequence(newStep(fb, "x", nil, nil))
	outer.PushBack(inner)
	outer.PushBack(nil)

	assert.Equal(t, 3, outer.Len())
	for _, c := range outer.Commands() {
		_, isSeq := c.(*CommandsSequence)
		assert.False(t, isSeq)
	}
}

func TestCommandsSequence_Empty(t *testing.T) {
	fb := &fakeBackend{}
	dep := NewCompletion(fb)

	ev, err := fb.CommandsSequence().Submit(DefaultQueue, dep)
	require.NoError(t, err)
	require.Len(t, fb.markers, 1)
	assert.Equal(t, []Event{dep}, fb.markers[0])

	dep.Complete(nil)
	_, err = ev.Wait()
	require.NoError(t, err)
}

func TestCommandsSequence_ValidationFailsBeforeSubmission(t *testing.T) {
	fb := &fakeBackend{}
	good := newStep(fb, "good", nil, nil)
	bad := newStep(fb, "bad", nil, nil)
	bad.invalid = &ArgumentError{Kernel: "bad", Index: 0, Reason: "unbound"}

	ev, err := fb.CommandsSequence(good, bad).Submit(DefaultQueue)
	require.ErrorIs(t, err, ErrArgumentBinding)
	assert.Nil(t, ev)
	assert.False(t, good.submitted())
}

func TestComposites_DeviceLimitsCheckedBeforeSubmission(t *testing.T) {
	fb := &fakeBackend{maxDims: 3}
	kernel := func(work NDRange) *KernelCommand {
		k := NewKernelCommand(fb, &KernelProgram{Name: "k"})
		require.NoError(t, k.SetOptions(KernelOptions{WorkSize: work}))
		return k
	}

	ev, err := fb.CommandsSequence(kernel(Range(4)), kernel(Range(1, 1, 1, 1))).Submit(DefaultQueue)
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Nil(t, ev)
	assert.Zero(t, fb.kernelCount())

	ev, err = fb.CommandsParallel(kernel(Range(4)), kernel(Range(1, 1, 1, 1))).Submit(DefaultQueue)
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Nil(t, ev)
	assert.Zero(t, fb.kernelCount())

	ev, err = fb.CommandsSequence(kernel(Range(4)), kernel(Range(2, 2, 2))).Submit(DefaultQueue)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, 2, fb.kernelCount())
}

func TestCommandsParallel_JoinsAllChildren(t *testing.T) {
	fb := &fakeBackend{}
	c1 := newStep(fb, "c1", nil, nil)
	c2 := newStep(fb, "c2", nil, nil)
	dep := NewCompletion(fb)
	dep.Complete(nil)

	par := fb.CommandsParallel(c1, c2)
	ev, err := par.Submit(DefaultQueue, dep)
	require.NoError(t, err)

	assert.Equal(t, []Event{dep}, c1.submittedDeps())
	assert.Equal(t, []Event{dep}, c2.submittedDeps())

	// Complete in reverse order; the join must wait for both.
	c2.complete(nil)
	select {
	case <-ev.Done():
		t.Fatal("parallel completed before all children")
	case <-time.After(20 * time.Millisecond):
	}
	c1.complete(nil)
	_, err = ev.Wait()
	require.NoError(t, err)
}

func TestCommandsParallel_ReportsChildFailure(t *testing.T) {
	fb := &fakeBackend{}
	c1 := newStep(fb, "c1", nil, nil)
	c2 := newStep(fb, "c2", nil, nil)
	boom := errors.New("boom")

	ev, err := fb.CommandsParallel(c1, c2).Submit(DefaultQueue)
	require.NoError(t, err)
	c1.complete(boom)
	c2.complete(nil)

	_, err = ev.Wait()
	require.ErrorIs(t, err, boom)
}

func TestCommandsParallel_SingleChildReturnsItsEvent(t *testing.T) {
	fb := &fakeBackend{}
	c1 := newStep(fb, "c1", nil, nil)

	ev, err := fb.CommandsParallel(c1).Submit(DefaultQueue)
	require.NoError(t, err)
	assert.Same(t, c1.event, ev)
	assert.Empty(t, fb.markers)
}

func TestCommandsParallel_Flattens(t *testing.T) {
	fb := &fakeBackend{}
	inner := fb.CommandsParallel(newStep(fb, "a", nil, nil), newStep(fb, "b", nil, nil))
	outer := fb.CommandsParallel(inner, fb.CommandsSequence(newStep(fb, "s", nil, nil)))

	assert.Equal(t, 3, outer.Len())
}

func TestRaiseEventCommand(t *testing.T) {
	fb := &fakeBackend{}
	u := NewCompletion(fb)

	ev, err := fb.RaiseEventCommand().Submit(DefaultQueue, u)
	require.NoError(t, err)
	assert.Equal(t, Engine(fb), ev.Engine())
	assert.Nil(t, ev.Err())

	u.Complete(nil)
	_, err = ev.Wait()
	require.NoError(t, err)
}
