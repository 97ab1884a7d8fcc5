package dalmatian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLampFixture(t *testing.T) (*Dali, *simLine, *simBallast) {
	t.Helper()
	var d, s = newTestDriver(t)
	var b = newSimBallast(s, "lamp", 0x000001)
	b.shortAddr = 5
	return d, s, b
}

func TestSendDapc(t *testing.T) {
	var d, s, b = newLampFixture(t)

	require.True(t, d.SendDapc(ShortAddr(5), true, 200))
	s.advanceTo(s.now + 6000)

	assert.Equal(t, byte(200), b.actualLevel)
}

func TestSendLampOff(t *testing.T) {
	var d, s, b = newLampFixture(t)
	b.actualLevel = 200

	require.True(t, d.SendLampOff(ShortAddr(5), true))
	s.advanceTo(s.now + 6000)

	assert.Equal(t, byte(0), b.actualLevel)
}

func TestQueryActualLevel(t *testing.T) {
	var d, _, b = newLampFixture(t)
	b.actualLevel = 128

	assert.Equal(t, 128, d.QueryActualLevel(ShortAddr(5), true))
}

func TestQueryLevels(t *testing.T) {
	var d, _, b = newLampFixture(t)
	b.actualLevel = 90
	b.minLevel = 10
	b.maxLevel = 220
	b.powerOnLevel = 130

	assert.Equal(t, 90, d.QueryActualLevel(ShortAddr(5), true))
	assert.Equal(t, 10, d.QueryMinLevel(ShortAddr(5), true))
	assert.Equal(t, 220, d.QueryMaxLevel(ShortAddr(5), true))
	assert.Equal(t, 130, d.QueryPowerOnLevel(ShortAddr(5), true))
}

func TestQueryNoReply(t *testing.T) {
	var d, _, _ = newLampFixture(t)

	// Nobody home at short address 7.
	assert.Equal(t, -2, d.QueryActualLevel(ShortAddr(7), true))
}

func TestSendSetPowerOnLevel(t *testing.T) {
	var d, s, b = newLampFixture(t)

	require.True(t, d.SendSetPowerOnLevel(ShortAddr(5), true, 42))
	s.advanceTo(s.now + 6000)

	assert.Equal(t, byte(42), b.powerOnLevel)
	assert.Equal(t, 42, d.QueryPowerOnLevel(ShortAddr(5), true))
}

func TestQueryAtQueryPriority(t *testing.T) {
	var d, _, b = newLampFixture(t)
	b.actualLevel = 7

	assert.Equal(t, 7, d.Query(ShortAddr(5), MsgQueryActualLevel))
}
