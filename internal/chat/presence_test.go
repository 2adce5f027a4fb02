package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/labdesk/internal/clock"
)

type fakeTarget struct {
	online bool
	flips  int
}

func (f *fakeTarget) AgentOnline() bool { return f.online }

func (f *fakeTarget) SetAgentOnline(online bool) {
	f.online = online
	f.flips++
}

// sequence returns a Float func that yields values in order, then repeats
// the last one.
func sequence(vals ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := vals[i]
		if i < len(vals)-1 {
			i++
		}
		return v
	}
}

func TestPresenceSimulator_FlipsBelowProbability(t *testing.T) {
	fc := clock.NewFake(epoch)
	target := &fakeTarget{online: true}
	p := NewPresenceSimulator(target, PresenceOptions{
		Clock:           fc,
		Interval:        30 * time.Second,
		FlipProbability: 0.2,
		Float:           sequence(0.5, 0.1, 0.9, 0.05),
	})
	p.Start(context.Background())
	defer p.Stop()

	fc.Advance(29 * time.Second)
	assert.Zero(t, target.flips)

	fc.Advance(time.Second) // 0.5: no flip
	assert.True(t, target.online)

	fc.Advance(30 * time.Second) // 0.1: flip
	assert.False(t, target.online)

	fc.Advance(30 * time.Second) // 0.9: no flip
	assert.False(t, target.online)

	fc.Advance(30 * time.Second) // 0.05: flip
	assert.True(t, target.online)
	assert.Equal(t, 2, target.flips)
}

func TestPresenceSimulator_StopCancelsTick(t *testing.T) {
	fc := clock.NewFake(epoch)
	target := &fakeTarget{}
	p := NewPresenceSimulator(target, PresenceOptions{
		Clock:           fc,
		FlipProbability: 1,
		Float:           sequence(0),
	})

	p.Start(context.Background())
	assert.True(t, p.Running())
	assert.Equal(t, 1, fc.Pending())

	p.Stop()
	p.Stop()
	assert.False(t, p.Running())
	assert.Zero(t, fc.Pending())

	fc.Advance(time.Hour)
	assert.Zero(t, target.flips)
}

func TestPresenceSimulator_ContextCancelStops(t *testing.T) {
	fc := clock.NewFake(epoch)
	p := NewPresenceSimulator(&fakeTarget{}, PresenceOptions{Clock: fc})

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	assert.Eventually(t, func() bool { return !p.Running() }, time.Second, time.Millisecond)
}

func TestPresenceSimulator_DrivesSession(t *testing.T) {
	s, fc, _ := newTestSession(t, true)
	p := NewPresenceSimulator(s, PresenceOptions{
		Clock:           fc,
		FlipProbability: 0.2,
		Float:           sequence(0.1),
	})
	p.Start(context.Background())
	defer p.Stop()

	fc.Advance(DefaultPresenceInterval)
	assert.False(t, s.AgentOnline())
	assert.Len(t, s.Messages(), 1)
}
