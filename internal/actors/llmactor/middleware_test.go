package llmactor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubCore struct {
	model   string
	calls   atomic.Int32
	failN   int32
	failErr error
}

func (s *stubCore) GetModel() string  { return s.model }
func (s *stubCore) SetModel(m string) { s.model = m }

func (s *stubCore) DoRequest(_ context.Context, prompt string, _ map[string]any) (string, int, int, error) {
	n := s.calls.Add(1)
	if n <= s.failN {
		return "", 0, 0, s.failErr
	}
	return "echo:" + prompt, 1, 1, nil
}

func TestRetry_RetriesRetryableErrorThenSucceeds(t *testing.T) {
	core := &stubCore{
		model:   "m",
		failN:   2,
		failErr: NewProviderError("test", ErrorTypeServerError, 500, "boom", nil),
	}
	wrapped := withRetry(core, retryOptions{maxRetries: 3, baseDelay: time.Millisecond, maxDelay: 10 * time.Millisecond})

	resp, _, _, err := wrapped.DoRequest(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Equal(t, "echo:hi", resp)
	require.Equal(t, int32(3), core.calls.Load())
}

func TestRetry_GivesUpOnNonRetryableError(t *testing.T) {
	core := &stubCore{
		model:   "m",
		failN:   99,
		failErr: NewProviderError("test", ErrorTypeBadRequest, 400, "bad", nil),
	}
	wrapped := withRetry(core, retryOptions{maxRetries: 3, baseDelay: time.Millisecond, maxDelay: 10 * time.Millisecond})

	_, _, _, err := wrapped.DoRequest(context.Background(), "hi", nil)
	require.Error(t, err)
	require.Equal(t, int32(1), core.calls.Load())
}

func TestTimeout_CancelsSlowRequest(t *testing.T) {
	core := &slowCore{delay: 20 * time.Millisecond}
	wrapped := withTimeout(core, time.Millisecond)

	_, _, _, err := wrapped.DoRequest(context.Background(), "hi", nil)
	require.Error(t, err)
}

type slowCore struct{ delay time.Duration }

func (s *slowCore) GetModel() string  { return "slow" }
func (s *slowCore) SetModel(string)   {}
func (s *slowCore) DoRequest(ctx context.Context, _ string, _ map[string]any) (string, int, int, error) {
	select {
	case <-time.After(s.delay):
		return "done", 0, 0, nil
	case <-ctx.Done():
		return "", 0, 0, ctx.Err()
	}
}

type recordingCollector struct {
	counters map[string]float64
}

func (c *recordingCollector) RecordLatency(string, time.Duration, map[string]string) {}
func (c *recordingCollector) RecordCounter(metric string, value float64, _ map[string]string) {
	if c.counters == nil {
		c.counters = make(map[string]float64)
	}
	c.counters[metric] += value
}
func (c *recordingCollector) RecordGauge(string, float64, map[string]string)     {}
func (c *recordingCollector) RecordHistogram(string, float64, map[string]string) {}

func TestMetrics_RecordsRequestCounter(t *testing.T) {
	core := &stubCore{model: "m"}
	collector := &recordingCollector{}
	wrapped := withMetrics(core, collector)

	_, _, _, err := wrapped.DoRequest(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Equal(t, float64(1), collector.counters["llmactor_requests_total"])
}
