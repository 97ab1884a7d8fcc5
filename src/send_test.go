package dalmatian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// jamOnRise pulls the bus low shortly after the nth rising edge, the
// way a competing transmitter would.
func jamOnRise(s *simLine, nth int, delay int64) {
	var count int
	var done bool
	s.watch(func(t int64, level bool) {
		if done || !level {
			return
		}
		count++
		if count == nth {
			done = true
			s.pullAt(t+delay, "jam", true)
			s.pullAt(t+delay+600, "jam", false)
		}
	})
}

func TestSendFrameRoundTrip(t *testing.T) {
	var d, s = newTestDriver(t)
	var b = newSimBallast(s, "observer", 0)

	var ok = d.SendFrame(PriUser, 0x0B, 0x55)
	s.advanceTo(s.now + 6000)

	assert.True(t, ok)
	assert.NoError(t, d.Err())
	assert.Equal(t, stIdle, daliState(d.state.Load()))
	require.Len(t, b.frames, 1)
	assert.Equal(t, [2]byte{0x0B, 0x55}, b.frames[0])
}

func TestSendFrameRoundTripArbitrary(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var addr = rapid.Byte().Draw(t, "addr")
		var data = rapid.Byte().Draw(t, "data")

		var d, s = newSimDriver()
		var b = newSimBallast(s, "observer", 0)

		if !d.SendFrame(PriUser, Addr(addr), data) {
			t.Fatalf("SendFrame failed: %v", d.Err())
		}
		s.advanceTo(s.now + 6000)

		if len(b.frames) != 1 {
			t.Fatalf("decoded %d frames, want 1", len(b.frames))
		}
		if b.frames[0] != [2]byte{addr, data} {
			t.Fatalf("decoded %02x %02x, sent %02x %02x",
				b.frames[0][0], b.frames[0][1], addr, data)
		}
	})
}

func TestSendCollisionOnStartBit(t *testing.T) {
	var d, s = newTestDriver(t)
	jamOnRise(s, 1, 50)

	var ok = d.SendFrame(PriUser, Broadcast, byte(MsgOff))

	assert.False(t, ok)
	assert.ErrorIs(t, d.Err(), ErrSendStartBit)
	assert.Equal(t, stStartBitH1, daliState(d.state.Load()))
}

func TestSendCollisionOnAddressByte(t *testing.T) {
	var d, s = newTestDriver(t)
	// Rise 1 is the start bit's release; rise 2 is the release of the
	// first address bit of 0xFF.
	jamOnRise(s, 2, 50)

	var ok = d.SendFrame(PriUser, Broadcast, byte(MsgOff))

	assert.False(t, ok)
	assert.ErrorIs(t, d.Err(), ErrSendAddr)
	assert.Equal(t, stStartBitH1, daliState(d.state.Load()))
}

func TestSendCollisionOnDataByte(t *testing.T) {
	var d, s = newTestDriver(t)
	// 0xFF address: rises 2..9 are its eight one-bits; rise 10 is the
	// first data bit.
	jamOnRise(s, 10, 50)

	var ok = d.SendFrame(PriUser, 0xFF, 0xFF)

	assert.False(t, ok)
	assert.ErrorIs(t, d.Err(), ErrSendMsg)
	assert.Equal(t, stStartBitH1, daliState(d.state.Load()))
}

func TestSendCollisionOnStopBit(t *testing.T) {
	var d, s = newTestDriver(t)

	// Priority User releases the bus at t=14000; the frame is 17 bits
	// of 832us.  Jam inside the stop window that follows.
	var frameEnd = int64(14000 + 17*2*hbNom)
	s.pullAt(frameEnd+500, "jam", true)
	s.pullAt(frameEnd+1100, "jam", false)

	var ok = d.SendFrame(PriUser, 0x00, 0x00)

	assert.False(t, ok)
	assert.ErrorIs(t, d.Err(), ErrSendStop)
	assert.Equal(t, stStartBitH1, daliState(d.state.Load()))
}

func TestSendFrameLeavesBusReleased(t *testing.T) {
	var d, s = newTestDriver(t)

	require.True(t, d.SendFrame(PriUser, 0xFE, 0x80))

	assert.True(t, s.Level())
	assert.False(t, s.masterPull)
}
