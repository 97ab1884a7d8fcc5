package dalmatian

/*------------------------------------------------------------------
 *
 * Purpose:	Bus access arbitration: don't talk until the wire has
 *		been quiet long enough for our priority class.
 *
 * Description:	A forward frame may only start once the bus has been
 *		idle for 12ms plus 1ms per priority level.  We poll the
 *		last-low timestamp the receiver keeps and yield between
 *		polls; a foreign falling edge while we're waiting means
 *		someone else's frame started, and the caller has to try
 *		again later rather than stomp on it.
 *
 *		Some commands must arrive twice to take effect -
 *		that's the bus's protection against a glitched
 *		configuration command.  The repeat goes out at
 *		transaction priority so nothing can wedge between the
 *		two copies.
 *
 *---------------------------------------------------------------*/

// priorityWaitUs is the minimum idle time before a frame of priority
// p may start.
func priorityWaitUs(p Pri) int64 {
	return 12000 + 1000*int64(p)
}

// waitPriority blocks until the settling time for the given priority
// has elapsed, both since the wait began and since the bus last went
// low.  It returns false as soon as a foreign frame starts.
func (d *Dali) waitPriority(priority Pri) bool {
	var li = d.lastLow.Load()
	var wait = priorityWaitUs(priority)
	var start = d.line.Micros()
	for {
		if d.lastLow.Load() != li {
			return false
		}
		var now = d.line.Micros()
		if now-start >= wait && now-li >= wait {
			return true
		}
		d.line.Yield()
	}
}

// SendCommand sends a command frame, repeating it at transaction
// priority when the command is one that must be received twice.
func (d *Dali) SendCommand(priority Pri, addr Addr, cmd Msg) bool {
	if !d.SendFrame(priority, addr, byte(cmd)) {
		return false
	}
	if repeated(addr, cmd) {
		if !d.SendFrame(PriTxn, addr, byte(cmd)) {
			return false
		}
	}
	return true
}

// sleep parks the foreground for roughly the given time, yielding to
// the host scheduler.  Not for bit timing.
func (d *Dali) sleep(us int64) {
	var start = d.line.Micros()
	for d.line.Micros()-start < us {
		d.line.Yield()
	}
}
