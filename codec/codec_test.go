package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		got, ok := ByName(c.Name())
		require.True(t, ok, c.Name())
		assert.Equal(t, c, got)
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsInterchangeable(t *testing.T) {
	snap := newBenchSnapshot()

	var fromStd benchSnapshot
	require.NoError(t, GoJSON{}.Unmarshal(MustMarshal(JSON{}, snap), &fromStd))
	assert.Equal(t, snap, fromStd)

	var fromGo benchSnapshot
	require.NoError(t, JSON{}.Unmarshal(MustMarshal(GoJSON{}, snap), &fromGo))
	assert.Equal(t, snap, fromGo)
}

func TestGoJSONAppend(t *testing.T) {
	out, err := GoJSON{}.Append([]byte("x="), map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `x={"a":1}`, string(out))
}

func TestMustMarshalPanics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(nil, make(chan int)) })
	assert.Equal(t, "1", string(MustMarshal(nil, 1)))
}
