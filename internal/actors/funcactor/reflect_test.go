package funcactor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReflect_SynthesizesPositionalPortNames(t *testing.T) {
	add := func(a, b int) int { return a + b }
	r, err := NewReflect("t:add", add)
	require.NoError(t, err)
	require.Equal(t, []string{"in0", "in1"}, r.Inputs())
	require.Equal(t, []string{"out0"}, r.Outputs())

	out, err := r.Invoke(context.Background(), []any{2, 3})
	require.NoError(t, err)
	require.Equal(t, []any{5}, out)
}

func TestReflect_TrailingErrorIsNotAnOutputPort(t *testing.T) {
	boom := errors.New("boom")
	div := func(a, b int) (int, error) {
		if b == 0 {
			return 0, boom
		}
		return a / b, nil
	}
	r, err := NewReflect("t:div", div)
	require.NoError(t, err)
	require.Equal(t, []string{"out0"}, r.Outputs())

	out, err := r.Invoke(context.Background(), []any{10, 2})
	require.NoError(t, err)
	require.Equal(t, []any{5}, out)

	_, err = r.Invoke(context.Background(), []any{10, 0})
	require.ErrorIs(t, err, boom)
}

func TestReflect_NoOutputsWhenFuncOnlyReturnsError(t *testing.T) {
	called := false
	fn := func(s string) error {
		called = true
		_ = s
		return nil
	}
	r, err := NewReflect("t:sideeffect", fn)
	require.NoError(t, err)
	require.Empty(t, r.Outputs())

	out, err := r.Invoke(context.Background(), []any{"x"})
	require.NoError(t, err)
	require.Empty(t, out)
	require.True(t, called)
}

func TestReflect_RejectsVariadic(t *testing.T) {
	fn := func(nums ...int) int { return len(nums) }
	_, err := NewReflect("t:variadic", fn)
	require.Error(t, err)
}

func TestReflect_RejectsMultiValueReturn(t *testing.T) {
	fn := func(a int) (int, int) { return a, a }
	_, err := NewReflect("t:multi", fn)
	require.Error(t, err)
}

func TestReflect_RejectsWrongArgType(t *testing.T) {
	fn := func(a int) int { return a }
	r, err := NewReflect("t:typed", fn)
	require.NoError(t, err)
	_, err = r.Invoke(context.Background(), []any{"not an int"})
	require.Error(t, err)
}
