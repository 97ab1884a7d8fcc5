package dalmatian

/*------------------------------------------------------------------
 *
 * Purpose:	In-memory debug log and edge trace for a bus whose
 *		problems only show up at microsecond scale.
 *
 * Description:	The text ring takes terse notes from the edge/timer
 *		callbacks and from the foreground.  Both sides write,
 *		and the callback side must never block, so writes
 *		reserve a region of the fixed buffer with a
 *		compare-and-swap rather than taking a lock; the buffer
 *		is allocated once at construction and never grows.  It
 *		is read back whole with LogBuf.
 *
 *		The edge trace records the first hundred edges seen by
 *		the receiver since the start of the latest receive -
 *		timestamp, direction and the state the machine was in
 *		- so a mangled frame can be read back edge by edge;
 *		later edges are not recorded.  When a backward-frame
 *		receive sees a frame, the trace is rendered into the
 *		text ring, and it can also
 *		be dumped as CSV to a timestamped file for offline
 *		staring.
 *
 *---------------------------------------------------------------*/

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/strftime"
)

const (
	logSize   = 4096
	logMsgMax = 100 // longest single note; anything longer is cut
	traceSize = 100
)

type logRing struct {
	buf  []byte       // fixed backing store, never reallocated
	pos  atomic.Int32 // next write offset
	fill atomic.Int32 // high-water mark for readback
}

func (l *logRing) init() {
	l.buf = make([]byte, logSize)
}

// appendf formats into a bounded scratch and claims a region of the
// ring with a compare-and-swap.  Concurrent writers (edge callbacks
// versus foreground) end up in disjoint regions; nobody blocks and
// the backing store never grows.
func (l *logRing) appendf(format string, args ...any) {
	var scratch [logMsgMax]byte
	var msg = fmt.Appendf(scratch[:0], format, args...)
	if len(msg) > logMsgMax {
		msg = msg[:logMsgMax]
	}
	var start int32
	for {
		var p = l.pos.Load()
		start = p
		var end = p + int32(len(msg))
		if end > logSize {
			// Wrap and overwrite from the top.
			start = 0
			end = int32(len(msg))
		}
		if l.pos.CompareAndSwap(p, end) {
			break
		}
	}
	copy(l.buf[start:], msg)
	var end = start + int32(len(msg))
	for {
		var f = l.fill.Load()
		if end <= f || l.fill.CompareAndSwap(f, end) {
			break
		}
	}
}

func (l *logRing) contents() string {
	return string(l.buf[:l.fill.Load()])
}

// Logf appends a note to the driver's debug ring.
func (d *Dali) Logf(format string, args ...any) {
	d.logBuf.appendf(format, args...)
}

// LogBuf returns the accumulated debug ring contents.
func (d *Dali) LogBuf() string {
	return d.logBuf.contents()
}

// edgeTrace is filled by the edge callbacks and read by the
// foreground.  The callbacks are serialised by the Line (edge
// interrupts are not re-entrant), so each slot is written before the
// atomic cursor publishes it; the foreground only walks the trace
// once a frame has completed and the callbacks have gone quiet.  The
// buffers are allocated once at construction.
type edgeTrace struct {
	times  []int64
	rises  []bool
	states []daliState
	n      atomic.Int32
}

func (e *edgeTrace) init() {
	e.times = make([]int64, traceSize)
	e.rises = make([]bool, traceSize)
	e.states = make([]daliState, traceSize)
}

func (d *Dali) resetEdgeTrace() {
	d.trace.n.Store(0)
}

func (d *Dali) logEdge(t int64, rise bool, st daliState) {
	var e = &d.trace
	var n = e.n.Load()
	if n >= traceSize {
		return
	}
	e.times[n] = t
	e.rises[n] = rise
	e.states[n] = st
	e.n.Store(n + 1)
}

// dumpEdgeTrace renders the current trace into the text ring as
// deltas between edges, tagged with the receive register contents.
func (d *Dali) dumpEdgeTrace(tag string) {
	var e = &d.trace
	var n = int(e.n.Load())
	d.Logf("%s: b %d v %02X\n", tag, d.rcvdBits.Load(), d.rcvdVal.Load())
	if n == 0 {
		return
	}
	var lastT = e.times[0]
	for i := 0; i < n; i++ {
		var dir = 'L'
		if e.rises[i] {
			dir = 'H'
		}
		d.Logf("%d %c %d\n", e.times[i]-lastT, dir, e.states[i])
		lastT = e.times[i]
	}
}

// traceFilePattern names trace dumps; strftime expands it against the
// wall clock at dump time.
const traceFilePattern = "dalmatian-trace-%Y%m%d-%H%M%S.csv"

// DumpTraceCSV writes the current edge trace to a timestamped CSV
// file in dir and returns the file's path.
func (d *Dali) DumpTraceCSV(dir string) (string, error) {
	var name, err = strftime.Format(traceFilePattern, time.Now())
	if err != nil {
		return "", err
	}
	var path = filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck

	var w = csv.NewWriter(f)
	if err := w.Write([]string{"micros", "edge", "state"}); err != nil {
		return "", err
	}
	var e = &d.trace
	var n = int(e.n.Load())
	for i := 0; i < n; i++ {
		var edge = "L"
		if e.rises[i] {
			edge = "H"
		}
		var row = []string{
			strconv.FormatInt(e.times[i], 10),
			edge,
			e.states[i].String(),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}
