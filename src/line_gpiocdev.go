package dalmatian

/*------------------------------------------------------------------
 *
 * Purpose:	Line implementation on the Linux GPIO character
 *		device.
 *
 * Description:	The input line is requested with both-edge events so
 *		the kernel timestamps each edge for us - far better
 *		than timestamping in user space after the event has
 *		crossed a scheduler.  The output line drives the bus
 *		transistor.
 *
 *		Both directions can be inverted to match the front
 *		end.  The usual level-shifter transistor inverts, so
 *		"pull the bus low" is "GPIO high" and a low GPIO
 *		level on the sense side means the bus is high; both
 *		inversions default to on in DefaultConfig.
 *
 *		The stop-bit timer is a time.AfterFunc standing in
 *		for the one-shot hardware timer a microcontroller
 *		build would use.
 *
 *---------------------------------------------------------------*/

import (
	"runtime"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"
)

// GPIOLine attaches the driver to a gpiochip.
type GPIOLine struct {
	in        *gpiocdev.Line
	out       *gpiocdev.Line
	invertIn  bool
	invertOut bool

	mu       sync.Mutex
	timer    *time.Timer
	onRise   func(int64)
	onFall   func(int64)
	onExpire func()
}

// OpenGPIOLine requests the input and output lines from the named
// gpiochip (e.g. "gpiochip0").
func OpenGPIOLine(chip string, inOffset, outOffset int, invertIn, invertOut bool) (*GPIOLine, error) {
	var g = &GPIOLine{invertIn: invertIn, invertOut: invertOut}

	out, err := gpiocdev.RequestLine(chip, outOffset,
		gpiocdev.AsOutput(g.outValue(false)))
	if err != nil {
		return nil, err
	}
	g.out = out

	in, err := gpiocdev.RequestLine(chip, inOffset,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(g.edge))
	if err != nil {
		out.Close() //nolint:errcheck
		return nil, err
	}
	g.in = in
	return g, nil
}

// outValue maps "pull the bus low" onto the GPIO level the front end
// wants.
func (g *GPIOLine) outValue(pull bool) int {
	if pull != g.invertOut {
		return 0
	}
	return 1
}

func (g *GPIOLine) edge(evt gpiocdev.LineEvent) {
	var t = int64(evt.Timestamp / time.Microsecond)
	var rise = evt.Type == gpiocdev.LineEventRisingEdge
	if g.invertIn {
		rise = !rise
	}
	g.mu.Lock()
	var onRise, onFall = g.onRise, g.onFall
	g.mu.Unlock()
	if rise {
		if onRise != nil {
			onRise(t)
		}
	} else {
		if onFall != nil {
			onFall(t)
		}
	}
}

func (g *GPIOLine) PullLow() {
	g.out.SetValue(g.outValue(true)) //nolint:errcheck
}

func (g *GPIOLine) Release() {
	g.out.SetValue(g.outValue(false)) //nolint:errcheck
}

func (g *GPIOLine) Level() bool {
	var v, err = g.in.Value()
	if err != nil {
		return false
	}
	return (v != 0) != g.invertIn
}

// Micros reads CLOCK_MONOTONIC, the same clock the kernel stamps
// edge events with.
func (g *GPIOLine) Micros() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return int64(ts.Sec)*1_000_000 + int64(ts.Nsec)/1_000
}

// DelayMicros spins.  Manchester half-bits are a few hundred
// microseconds; parking the goroutine would hand the scheduler a
// chance to stretch one beyond the valid band.
func (g *GPIOLine) DelayMicros(n int64) {
	var until = g.Micros() + n
	for g.Micros() < until {
	}
}

func (g *GPIOLine) Yield() {
	runtime.Gosched()
}

func (g *GPIOLine) ArmTimer(us int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(time.Duration(us)*time.Microsecond, g.expire)
}

func (g *GPIOLine) DisableTimer() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
}

func (g *GPIOLine) expire() {
	g.mu.Lock()
	var onExpire = g.onExpire
	g.mu.Unlock()
	if onExpire != nil {
		onExpire()
	}
}

func (g *GPIOLine) Handle(onRise, onFall func(t int64), onExpire func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onRise, g.onFall, g.onExpire = onRise, onFall, onExpire
}

func (g *GPIOLine) Close() error {
	g.DisableTimer()
	var errIn = g.in.Close()
	var errOut = g.out.Close()
	if errIn != nil {
		return errIn
	}
	return errOut
}
