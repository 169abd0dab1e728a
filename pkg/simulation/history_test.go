package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_Eviction(t *testing.T) {
	h := NewHistory(3)
	assert.Equal(t, 3, h.Cap())
	assert.Equal(t, 0, h.Len())

	_, ok := h.Last()
	assert.False(t, ok)

	for i := 1; i <= 5; i++ {
		h.Append(Sample{Value: float64(i)})
	}

	// 最老的 1、2 被淘汰
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{3, 4, 5}, h.Values())

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, 5.0, last.Value)
}

func TestHistory_SamplesIsCopy(t *testing.T) {
	h := NewHistory(2)
	h.Append(Sample{Value: 1})

	s := h.Samples()
	s[0].Value = 100
	assert.Equal(t, []float64{1}, h.Values())
}

func TestHistory_Reset(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, DefaultHistoryLimit, h.Cap())

	for i := 0; i < 80; i++ {
		h.Append(Sample{Value: float64(i)})
	}
	assert.Equal(t, DefaultHistoryLimit, h.Len())

	ts := time.Unix(1700000000, 0)
	h.Reset(Sample{Timestamp: ts, Value: 42})
	require.Equal(t, 1, h.Len())
	assert.Equal(t, Sample{Timestamp: ts, Value: 42}, h.Samples()[0])
}

func BenchmarkHistory_Append(b *testing.B) {
	h := NewHistory(DefaultHistoryLimit)
	s := Sample{Value: 1}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Append(s)
	}
}
