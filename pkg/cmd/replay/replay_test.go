package replay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/sink"
)

func TestScaledClock(t *testing.T) {
	clock := scaledClock(10)
	first := clock()
	time.Sleep(20 * time.Millisecond)
	second := clock()
	elapsed := second.Sub(first)
	// 20ms wall clock must advance the virtual clock by ~200ms
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestScaledClockMaxSpeed(t *testing.T) {
	clock := scaledClock(0)
	first := clock()
	second := clock()
	assert.Equal(t, 24*time.Hour, second.Sub(first))
}

func TestFrameLimit(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	canceled := false
	limit := &frameLimit{
		Sink:      &sink.Discard{},
		remaining: 2,
		cancel:    func() { canceled = true; cancel() },
	}
	assert.NoError(t, limit.SinkFrame(&model.Frame{Seq: 1}))
	assert.False(t, canceled)
	assert.NoError(t, limit.SinkFrame(&model.Frame{Seq: 2}))
	assert.True(t, canceled)
	// further frames pass through without another cancel
	assert.NoError(t, limit.SinkFrame(&model.Frame{Seq: 3}))
}
