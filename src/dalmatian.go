package dalmatian

/*------------------------------------------------------------------
 *
 * Purpose:	Driver object for a DALI lighting control bus master,
 *		bit-banged through one input line and one output line.
 *
 * Description:	The bus is a half-duplex, Manchester-encoded,
 *		open-collector current loop shared by one controller
 *		and up to 64 lamp ballasts at roughly 1200 bit/s.
 *		This file holds the driver state and the small public
 *		surface; the receiver, transmitter, arbitration and
 *		commissioning machinery live in their own files.
 *
 *		There is at most one transmit and one receive in
 *		flight, alternating - the driver is a long-lived
 *		object bound to one Line for its lifetime.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"sync/atomic"
)

// The error kinds a bus operation can leave behind.  They surface
// both through the failing call's return value and through Err.
var (
	ErrWaitPriority = errors.New("dali: frame started during priority wait")
	ErrSendStartBit = errors.New("dali: collision sending start bit")
	ErrSendAddr     = errors.New("dali: collision sending address byte")
	ErrSendMsg      = errors.New("dali: collision sending data byte")
	ErrSendStop     = errors.New("dali: collision sending stop bit")
	ErrNoDevices    = errors.New("dali: no unaddressed devices found")
	ErrBadBackFrame = errors.New("dali: malformed backward frame")
	ErrNoVerifyAns  = errors.New("dali: no reply to short address verify")
	ErrBadVerifyAns = errors.New("dali: bad reply to short address verify")
)

// Dali is a driver for one DALI bus.
//
// state, rcvdBits, rcvdVal, lastHigh and lastLow are written by the
// edge/timer callbacks and read by the foreground; they're machine
// words handled atomically rather than under a mutex, because the
// callback side must never block.
type Dali struct {
	line Line

	state    atomic.Uint32 // daliState
	rcvdBits atomic.Uint32
	rcvdVal  atomic.Uint32
	lastHigh atomic.Int64 // micros of last rising edge
	lastLow  atomic.Int64 // micros of last falling edge

	err error // foreground only

	inited bool

	logBuf logRing
	trace  edgeTrace
}

// New returns a driver bound to the given line.  Call Init before
// use.
func New(line Line) *Dali {
	var d = &Dali{line: line}
	d.logBuf.init()
	d.trace.init()
	return d
}

// Init registers the edge and timer callbacks and releases the bus.
// It is idempotent.
func (d *Dali) Init() error {
	if d.inited {
		return nil
	}
	d.line.Handle(d.daliHigh, d.daliLow, d.daliIdle)
	d.line.Release()
	if !d.line.Level() {
		d.Logf("init: bus held low\n")
	}
	d.inited = true
	return nil
}

// Close releases the underlying line.
func (d *Dali) Close() error {
	return d.line.Close()
}

// Err returns the error left by the most recent failing operation,
// or nil.
func (d *Dali) Err() error {
	return d.err
}

func (d *Dali) setError(e error) {
	d.err = e
}

// Query sends a query command and waits for the backward frame.  It
// returns the reply value 0..255, -1 if the send failed, or -2 if no
// clean reply arrived within the backward-frame window.
func (d *Dali) Query(addr Addr, query Msg) int {
	return d.queryLevel(PriQuery, addr, query)
}

func (d *Dali) queryLevel(priority Pri, addr Addr, query Msg) int {
	addr |= 1
	if !d.SendCommand(priority, addr, query) {
		return -1
	}
	if d.receiveBackwardFrame() != rGoodFrame {
		return -2
	}
	return int(d.rcvdVal.Load())
}
