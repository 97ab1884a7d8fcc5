package dalmatian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityWaitUs(t *testing.T) {
	assert.Equal(t, int64(13000), priorityWaitUs(PriTxn))
	assert.Equal(t, int64(14000), priorityWaitUs(PriUser))
	assert.Equal(t, int64(15000), priorityWaitUs(PriConfig))
	assert.Equal(t, int64(16000), priorityWaitUs(PriAuto))
	assert.Equal(t, int64(17000), priorityWaitUs(PriQuery))
}

// Back to back: a transaction frame may follow 13ms after the bus
// went quiet, a user frame has to sit out 14ms.
func TestBackToBackSendTiming(t *testing.T) {
	for _, c := range []struct {
		pri  Pri
		wait int64
	}{
		{PriTxn, 13000},
		{PriUser, 14000},
	} {
		var d, s = newTestDriver(t)
		require.True(t, d.SendFrame(PriUser, 0xFE, 0x00))

		var start = s.now
		var li = d.lastLow.Load()
		require.True(t, d.waitPriority(c.pri))

		assert.Equal(t, c.wait, s.now-start)
		assert.GreaterOrEqual(t, s.now-li, c.wait)
	}
}

func TestPriorityWaitLosesToForeignFrame(t *testing.T) {
	var d, s = newTestDriver(t)

	// A foreign frame starts 5ms into our settling wait.
	s.scheduleFrame("rival", 5000, 0xFF00, 16, 416)

	var ok = d.SendFrame(PriUser, 0xFE, 0x00)

	assert.False(t, ok)
	assert.ErrorIs(t, d.Err(), ErrWaitPriority)
}

func TestSendCommandRepetition(t *testing.T) {
	var d, s = newTestDriver(t)
	var b = newSimBallast(s, "observer", 0)

	// Configuration commands (32..129) go out twice.
	require.True(t, d.SendCommand(PriUser, Broadcast, MsgReset))
	s.advanceTo(s.now + 6000)
	require.Len(t, b.frames, 2)
	assert.Equal(t, [2]byte{0xFF, 0x20}, b.frames[0])
	assert.Equal(t, b.frames[0], b.frames[1])

	// Everyday commands don't.
	b.frames = nil
	require.True(t, d.SendCommand(PriUser, Broadcast, MsgOff))
	s.advanceTo(s.now + 6000)
	assert.Len(t, b.frames, 1)

	// INITIALISE and RANDOMISE repeat regardless of their data byte.
	b.frames = nil
	require.True(t, d.SendCommand(PriUser, addrInitialise, 0))
	s.advanceTo(s.now + 6000)
	require.Len(t, b.frames, 2)
	assert.Equal(t, [2]byte{byte(addrInitialise), 0x00}, b.frames[0])

	b.frames = nil
	require.True(t, d.SendCommand(PriUser, addrRandomise, 0))
	s.advanceTo(s.now + 6000)
	assert.Len(t, b.frames, 2)
}

func TestRepeatedTable(t *testing.T) {
	assert.False(t, repeated(0x0B, MsgOff))
	assert.False(t, repeated(0x0B, 31))
	assert.True(t, repeated(0x0B, 32))
	assert.True(t, repeated(0x0B, MsgReset))
	assert.True(t, repeated(0x0B, 129))
	assert.False(t, repeated(0x0B, 130))
	assert.True(t, repeated(addrInitialise, 0))
	assert.True(t, repeated(addrRandomise, 0))
	assert.False(t, repeated(addrTerminate, 0))
}
