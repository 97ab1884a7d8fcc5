package dalmatian

/*------------------------------------------------------------------
 *
 * Purpose:	Manchester transmitter with inline collision
 *		detection.
 *
 * Description:	The transmitter paces half-bits with busy waits and
 *		watches its own edges come back on the sense wire.
 *		On an open-collector bus nobody can fight a low, so
 *		the only thing that can go wrong mid-frame is an edge
 *		we didn't command: between consecutive transitions of
 *		our own, no unexpected low may appear on the input.
 *		When one does, somebody else is transmitting and we
 *		lost the exchange.
 *
 *		Before the first bit the receiver is forced into
 *		stSending so the edge callbacks ignore our own
 *		traffic.  A failed send leaves it in stStartBitH1
 *		instead: whatever beat us onto the wire must be at
 *		least a foreign start bit, so the receiver gets a shot
 *		at decoding it.
 *
 *---------------------------------------------------------------*/

// sendBit sends one Manchester-encoded bit.  It returns false if a
// collision was detected.
func (d *Dali) sendBit(b bool) bool {
	if b {
		d.line.PullLow()
		d.line.DelayMicros(hbNom)
		var li = d.lastLow.Load()
		d.line.Release()
		d.line.DelayMicros(hbNom)
		if li != d.lastLow.Load() {
			// The last low should have been moments after we shorted
			// the bus - it's not, so we collided.
			return false
		}
	} else {
		var li = d.lastLow.Load()
		d.line.Release()
		d.line.DelayMicros(hbNom)
		if li != d.lastLow.Load() {
			// We've not done anything, should be the same as before.
			return false
		}
		d.line.PullLow()
		d.line.DelayMicros(hbNom)
	}
	return true
}

// sendStopBit releases the bus and holds it quiet for the stop-bit
// window: at least stopBitUs from now and at least stopBitUs since
// the last observed low, whichever runs longer.  This wait stays a
// busy wait - it's still frame timing.
func (d *Dali) sendStopBit() bool {
	d.line.Release()
	var li = d.lastLow.Load()
	var start = d.line.Micros()
	for {
		if d.lastLow.Load() != li {
			// No fall should have happened, we've collided.
			return false
		}
		var now = d.line.Micros()
		if now-start >= stopBitUs && now-li >= stopBitUs {
			return true
		}
		d.line.DelayMicros(50)
	}
}

// sendByte sends the given byte, MSB first.  It returns false if a
// collision was detected.
func (d *Dali) sendByte(b byte) bool {
	for i := 0; i < 8; i++ {
		if !d.sendBit(b&0x80 == 0x80) {
			return false
		}
		b <<= 1
	}
	return true
}

// SendFrame transmits one forward frame after waiting out the
// settling time for the given priority.  On a collision the error
// identifies the step that failed and the receiver is left primed
// for the competing signal.
func (d *Dali) SendFrame(priority Pri, addr Addr, data byte) bool {
	if !d.waitPriority(priority) {
		d.setError(ErrWaitPriority)
		return false
	}
	// We don't check the state before setting stSending.  Whatever was
	// happening before, we've just waited for a bunch of ms and nothing
	// is happening now.  We're OK to just overwrite a previous state.
	// (This will also allow us to recover a few odd states.)
	d.state.Store(uint32(stSending))
	if !d.sendBit(true) { // Start bit
		d.abortSend(ErrSendStartBit)
		return false
	}
	if !d.sendByte(byte(addr)) {
		d.abortSend(ErrSendAddr)
		return false
	}
	if !d.sendByte(data) {
		d.abortSend(ErrSendMsg)
		return false
	}
	if !d.sendStopBit() {
		d.abortSend(ErrSendStop)
		return false
	}
	d.state.Store(uint32(stIdle))
	return true
}

func (d *Dali) abortSend(e error) {
	// If we get interrupted during send, well, it should be a start
	// bit.  Hand the receiver the rest of the foreign frame.
	d.state.Store(uint32(stStartBitH1))
	d.setError(e)
}
