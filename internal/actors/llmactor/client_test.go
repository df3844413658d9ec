package llmactor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func init() {
	registerProvider("stub-test", func(cfg Config) (CoreLLM, error) {
		return &stubCore{model: cfg.Model}, nil
	})
}

func TestNewFromConfig_RejectsEmptyAPIKey(t *testing.T) {
	_, err := NewFromConfig("t:llm", "stub-test", Config{})
	require.ErrorIs(t, err, ErrEmptyAPIKey)
}

func TestNewFromConfig_RejectsUnknownProvider(t *testing.T) {
	_, err := NewFromConfig("t:llm", "does-not-exist", Config{APIKey: "k"})
	require.Error(t, err)
}

func TestActor_InvokeReturnsCompletion(t *testing.T) {
	a, err := NewFromConfig("t:llm", "stub-test", Config{APIKey: "k", Model: "m"})
	require.NoError(t, err)
	require.Equal(t, []string{"prompt"}, a.Inputs())
	require.Equal(t, []string{"completion"}, a.Outputs())
	require.True(t, a.IsLazy())

	out, err := a.Invoke(context.Background(), []any{"hello"})
	require.NoError(t, err)
	require.Equal(t, []any{"echo:hello"}, out)
}

func TestActor_RejectsNonStringPrompt(t *testing.T) {
	a, err := NewFromConfig("t:llm", "stub-test", Config{APIKey: "k"})
	require.NoError(t, err)

	_, err = a.Invoke(context.Background(), []any{42})
	require.Error(t, err)
}
