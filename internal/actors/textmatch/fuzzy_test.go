package textmatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFuzzyMatch_IdenticalStringsScoreOne(t *testing.T) {
	a, err := New("t:fuzzy", Config{Threshold: 0.5})
	require.NoError(t, err)
	out, err := a.Invoke(context.Background(), []any{"hello", "hello"})
	require.NoError(t, err)
	require.Equal(t, []any{1.0}, out)
}

func TestFuzzyMatch_BelowThresholdReportsZero(t *testing.T) {
	a, err := New("t:fuzzy", Config{Threshold: 0.99})
	require.NoError(t, err)
	out, err := a.Invoke(context.Background(), []any{"abc", "xyz"})
	require.NoError(t, err)
	require.Equal(t, []any{0.0}, out)
}

func TestFuzzyMatch_CaseInsensitiveByDefault(t *testing.T) {
	a, err := New("t:fuzzy", Config{Threshold: 0.5})
	require.NoError(t, err)
	out, err := a.Invoke(context.Background(), []any{"Hello", "hello"})
	require.NoError(t, err)
	require.Equal(t, []any{1.0}, out)
}

func TestFuzzyMatch_RejectsThresholdOutOfRange(t *testing.T) {
	_, err := New("t:fuzzy", Config{Threshold: 1.5})
	require.Error(t, err)
}
