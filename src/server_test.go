package dalmatian

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *simLine, *simBallast) {
	t.Helper()
	var d, s = newTestDriver(t)
	var b = newSimBallast(s, "lamp", 0x000001)
	b.shortAddr = 5
	var srv = NewServer(d, DefaultConfig(), log.New(io.Discard))
	return srv, s, b
}

func TestServerPing(t *testing.T) {
	var srv, _, _ = newTestServer(t)

	assert.Equal(t, "ok pong", srv.execute("ping"))
}

func TestServerDapc(t *testing.T) {
	var srv, s, b = newTestServer(t)

	assert.Equal(t, "ok", srv.execute("dapc 5 128"))
	s.advanceTo(s.now + 6000)
	assert.Equal(t, byte(128), b.actualLevel)
}

func TestServerOffAll(t *testing.T) {
	var srv, s, b = newTestServer(t)
	b.actualLevel = 128

	assert.Equal(t, "ok", srv.execute("off all"))
	s.advanceTo(s.now + 6000)
	assert.Equal(t, byte(0), b.actualLevel)
}

func TestServerQuery(t *testing.T) {
	var srv, _, b = newTestServer(t)
	b.actualLevel = 42

	assert.Equal(t, "ok 42", srv.execute("query 5 actual"))
	assert.Equal(t, "err no reply", srv.execute("query 9 actual"))
}

func TestServerParseErrors(t *testing.T) {
	var srv, _, _ = newTestServer(t)

	assert.Contains(t, srv.execute("dapc"), "err usage")
	assert.Contains(t, srv.execute("dapc 64 10"), "err bad address")
	assert.Contains(t, srv.execute("dapc 5 300"), "err bad level")
	assert.Contains(t, srv.execute("query 5 sideways"), "err unknown query")
	assert.Contains(t, srv.execute("frobnicate"), "err unknown command")
	assert.Contains(t, srv.execute(""), "err empty")
}

func TestServerTraceUnconfigured(t *testing.T) {
	var srv, _, _ = newTestServer(t)

	assert.Equal(t, "err no trace_dir configured", srv.execute("trace"))
}

func TestServerTrace(t *testing.T) {
	var srv, _, _ = newTestServer(t)
	srv.cfg.TraceDir = t.TempDir()

	var resp = srv.execute("trace")
	require.True(t, len(resp) > 3 && resp[:3] == "ok ", resp)
	assert.FileExists(t, resp[3:])
}

func TestParseAddr(t *testing.T) {
	var cases = []struct {
		in   string
		want Addr
	}{
		{"0", ShortAddr(0)},
		{"5", ShortAddr(5)},
		{"63", ShortAddr(63)},
		{"all", 0xFE},
		{"g0", GroupAddr(0)},
		{"g15", GroupAddr(15)},
	}
	for _, c := range cases {
		var got, err = parseAddr(c.in)
		require.NoErrorf(t, err, "parseAddr(%q)", c.in)
		assert.Equalf(t, c.want, got, "parseAddr(%q)", c.in)
	}

	for _, bad := range []string{"-1", "64", "g16", "gx", "bob"} {
		var _, err = parseAddr(bad)
		assert.Errorf(t, err, "parseAddr(%q)", bad)
	}
}
