package dalmatian

/*------------------------------------------------------------------
 *
 * Purpose:	Manchester receiver state machine.
 *
 * Description:	The input side of the bus arrives as level-change
 *		events plus a single-shot timer that fires when the
 *		line has been quiet for longer than any legal half-bit
 *		- i.e. when a stop bit has been seen.
 *
 *		Every data bit is Manchester encoded: a one is a
 *		low-to-high mid-bit transition, a zero is high-to-low.
 *		The machine classifies the gap between the two most
 *		recent opposite edges as a half bit or two half bits
 *		and walks the states below; anything with broken
 *		timing silently drops back to stIdle and waits for the
 *		next start bit.
 *
 *---------------------------------------------------------------*/

type daliState uint32

const (
	stIdle daliState = iota
	stSending
	stStartBitH1
	stStartBitH2
	stFirstHalf
	stSecondHalf
	stFrameReady
)

func (s daliState) String() string {
	switch s {
	case stIdle:
		return "Idle"
	case stSending:
		return "Sending"
	case stStartBitH1:
		return "StartBitH1"
	case stStartBitH2:
		return "StartBitH2"
	case stFirstHalf:
		return "FirstHalf"
	case stSecondHalf:
		return "SecondHalf"
	case stFrameReady:
		return "FrameReady"
	}
	return "?"
}

type bitTime int

const (
	tiTooShort bitTime = iota
	tiHalfBit
	tiInvalid
	ti2HalfBits
	tiTooLong
)

// The times below are 30us more generous than the standard.  The slow
// zener diode usually means we end up at the long end for high
// halfbits and the short end for low halfbits.
const (
	hbMin  = 303  // half-bit
	hbMax  = 530
	hb2Min = 636  // 2 half-bits
	hb2Max = 1030
	hbNom  = 416  // nominal
)

// stopBitUs is the quiet window that ends a frame: longer than any
// legal half-bit, shorter than the inter-frame settling times.
const stopBitUs = 2400

// classifyBitTime maps the gap between two opposite edges onto the
// half-bit bands.  The two valid bands must not overlap; everything
// between or beyond them is noise.
func classifyBitTime(diff int64) bitTime {
	switch {
	case diff <= hbMin:
		return tiTooShort
	case diff <= hbMax:
		return tiHalfBit
	case diff < hb2Min:
		return tiInvalid
	case diff <= hb2Max:
		return ti2HalfBits
	}
	return tiTooLong
}

func (d *Dali) bitTimeNow() bitTime {
	var h = d.lastHigh.Load()
	var l = d.lastLow.Load()
	var diff = h - l
	if diff < 0 {
		diff = -diff
	}
	return classifyBitTime(diff)
}

// addBit shifts a decoded bit into the receive register.  It refuses
// a 17th bit; a forward frame is the longest thing the bus carries.
func (d *Dali) addBit(bit bool) bool {
	var n = d.rcvdBits.Load()
	if n >= 16 {
		return false
	}
	d.rcvdBits.Store(n + 1)
	var v = d.rcvdVal.Load() << 1
	if bit {
		v |= 1
	}
	d.rcvdVal.Store(v)
	return true
}

// daliHigh handles a rising edge on the bus.
func (d *Dali) daliHigh(t int64) {
	d.lastHigh.Store(t)
	var st = daliState(d.state.Load())
	if st == stSending {
		return
	}
	d.logEdge(t, true, st)
	var bt = d.bitTimeNow()
	switch st {
	case stStartBitH1:
		if bt == tiHalfBit {
			d.state.Store(uint32(stStartBitH2))
		} else {
			d.Logf("h-sbh1e\n")
			d.state.Store(uint32(stIdle))
		}
	case stFirstHalf:
		if bt == tiHalfBit {
			// The first half of a one.  Now second half.  Stop bit might follow.
			d.state.Store(uint32(stSecondHalf))
			d.line.ArmTimer(stopBitUs)
		} else {
			d.Logf("h-fhe\n")
			d.state.Store(uint32(stIdle))
		}
	case stSecondHalf:
		switch bt {
		case tiHalfBit:
			// The second half of a zero.  Back in first half of a zero, or stop bit.
			if !d.addBit(false) {
				d.state.Store(uint32(stIdle))
				return
			}
			d.state.Store(uint32(stFirstHalf))
			d.line.ArmTimer(stopBitUs)
		case ti2HalfBits:
			// The second half of a zero and the first half of a one.
			// Remain in second half.  Stop bit might follow.
			if !d.addBit(false) {
				d.state.Store(uint32(stIdle))
				return
			}
			d.line.ArmTimer(stopBitUs)
		default:
			d.Logf("h-she\n")
			d.state.Store(uint32(stIdle))
		}
	}
}

// daliLow handles a falling edge on the bus.
func (d *Dali) daliLow(t int64) {
	d.lastLow.Store(t)
	var st = daliState(d.state.Load())
	if st == stSending {
		return
	}
	d.line.DisableTimer()
	d.logEdge(t, false, st)
	var bt = d.bitTimeNow()
	switch st {
	case stIdle:
		d.state.Store(uint32(stStartBitH1))
		d.rcvdBits.Store(0)
		d.rcvdVal.Store(0)
	case stStartBitH2:
		switch bt {
		case tiHalfBit:
			d.state.Store(uint32(stFirstHalf))
		case ti2HalfBits:
			d.state.Store(uint32(stSecondHalf))
		default:
			d.Logf("l-sbh2e\n")
			d.state.Store(uint32(stIdle))
		}
	case stFirstHalf:
		if bt == tiHalfBit {
			// The first half of a zero.  Now second half.
			d.state.Store(uint32(stSecondHalf))
		} else {
			d.Logf("l-fhe\n")
			d.state.Store(uint32(stIdle))
		}
	case stSecondHalf:
		switch bt {
		case tiHalfBit:
			// The second half of a one.  Back in first half of a one.
			if !d.addBit(true) {
				d.state.Store(uint32(stIdle))
				return
			}
			d.state.Store(uint32(stFirstHalf))
		case ti2HalfBits:
			// The second half of a one and the first half of a zero.
			// Remain in second half.
			if !d.addBit(true) {
				d.state.Store(uint32(stIdle))
			}
		default:
			d.Logf("l-she\n")
			d.state.Store(uint32(stIdle))
		}
	}
}

// daliIdle handles the stop-bit timer: the line has been quiet for
// longer than any legal half-bit, so the frame is over.
func (d *Dali) daliIdle() {
	switch daliState(d.state.Load()) {
	case stSecondHalf:
		// The outstanding bit was a one whose trailing half never
		// transitioned because the line stayed idle.
		if !d.addBit(true) {
			d.state.Store(uint32(stIdle))
			return
		}
		d.state.Store(uint32(stFrameReady))
		d.Logf("fR SH\n")
	case stFirstHalf:
		// We saw the line go high after a zero and assumed the first
		// half of another zero, but it turned out to be a stop.
		d.state.Store(uint32(stFrameReady))
		d.Logf("fR FH\n")
	case stSending:
		// The transmitter owns the line.
	default:
		// Incorrect bit timing.
		d.state.Store(uint32(stIdle))
		d.Logf("idle\n")
	}
}

type rcvStatus int

const (
	rNoFrame rcvStatus = iota
	rBadFrame
	rGoodFrame
)

// receiveFrame polls for a completed frame of the given width.  The
// receive register handoff needs no locking: stFrameReady is terminal,
// so once we observe it the interrupt side won't touch rcvdVal or
// rcvdBits again until a transmit restarts the machine.
func (d *Dali) receiveFrame(bits uint32, timeoutMs int64) rcvStatus {
	var wait = timeoutMs * 1000
	var start = d.line.Micros()
	d.resetEdgeTrace()
	for {
		if daliState(d.state.Load()) == stFrameReady {
			if d.rcvdBits.Load() == bits {
				d.dumpEdgeTrace("Good")
				return rGoodFrame
			}
			d.dumpEdgeTrace("Bad")
			return rBadFrame
		}
		if d.line.Micros()-start >= wait {
			break
		}
		d.line.Yield()
	}
	d.Logf("No frame\n")
	return rNoFrame
}

// receiveBackwardFrame waits out a reply to a query.  20ms covers the
// 10.5ms maximum backward-frame settle time, plus 1 start bit and 8
// data bits at 1ms/bit, rounded up.
func (d *Dali) receiveBackwardFrame() rcvStatus {
	return d.receiveFrame(8, 20)
}
