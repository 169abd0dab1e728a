package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicker_DrivesClock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Volatility = 0
	c := newTestClock(t, cfg, basePosition())

	tk := NewTicker(c, 10*time.Millisecond, nil)
	ch := tk.Start()

	var got []TickReport
	timeout := time.After(2 * time.Second)
	for len(got) < 3 {
		select {
		case r := <-ch:
			got = append(got, r)
		case <-timeout:
			t.Fatal("timeout waiting for ticks")
		}
	}
	tk.Stop()

	// 停止之后通道会被关闭
	for range ch {
	}

	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, int64(3), got[2].Seq)
}

func TestTicker_StopTwice(t *testing.T) {
	c := newTestClock(t, DefaultConfig(), basePosition())
	tk := NewTicker(c, time.Hour, nil)
	ch := tk.Start()

	tk.Stop()
	assert.NotPanics(t, tk.Stop)

	for range ch {
	}
}

func TestNewTicker_DefaultInterval(t *testing.T) {
	c := newTestClock(t, DefaultConfig(), basePosition())
	tk := NewTicker(c, 0, nil)
	assert.Equal(t, DefaultTickInterval, tk.Interval)
	assert.Equal(t, uint64(0), tk.Dropped())
}

func TestBroadcaster_FanOutAndDrop(t *testing.T) {
	b := NewBroadcaster()
	fast := b.Subscribe(10)
	slow := b.Subscribe(1)

	dropped := b.Broadcast(TickReport{Seq: 1})
	assert.Equal(t, 0, dropped)

	// slow 已满，只丢它的那一份
	dropped = b.Broadcast(TickReport{Seq: 2})
	assert.Equal(t, 1, dropped)

	require.Len(t, fast, 2)
	require.Len(t, slow, 1)
	assert.Equal(t, int64(1), (<-slow).Seq)

	b.Close()
	_, ok := <-slow
	assert.False(t, ok)
}
