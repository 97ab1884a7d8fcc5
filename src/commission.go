package dalmatian

/*------------------------------------------------------------------
 *
 * Purpose:	Assign short addresses to freshly installed ballasts.
 *
 * Description:	Unaddressed ballasts are put into addressing mode
 *		(INITIALISE), told to draw a random 24-bit long
 *		address (RANDOMISE), and then hunted down one at a
 *		time by binary search over the long-address space:
 *		SEARCHADDR H/M/L set a comparison value and COMPARE
 *		asks "anyone at or below this?".  A reply narrows the
 *		search downwards, silence upwards.  When the search
 *		pinpoints one ballast it is given the next free short
 *		address (PROGRAM + VERIFY) and excluded from further
 *		COMPAREs (WITHDRAW).  TERMINATE ends addressing mode.
 *
 *---------------------------------------------------------------*/

const (
	longAddrMax = 0xFFFFFE // the all-ones long address is never searched
	maxShort    = 64

	// Randomised addresses are to be available 100ms after RANDOMISE.
	randomiseSettleUs = 100_000
)

// Commission assigns short addresses to every ballast on the bus that
// doesn't have one.  It returns the assigned addresses in byte form,
// i.e. ShortAddr(0) .. ShortAddr(n-1).  On a mid-sequence failure it
// still attempts a best-effort TERMINATE and returns whatever was
// assigned up to that point alongside the first error.
func (d *Dali) Commission() ([]Addr, error) {
	d.setError(nil)
	if !d.SendCommand(PriUser, addrInitialise, 0) {
		return nil, d.err
	}
	if !d.SendCommand(PriUser, addrRandomise, 0) {
		var first = d.err
		d.SendCommand(PriUser, addrTerminate, 0) // no error checking - already in error
		d.setError(first)
		return nil, first
	}
	d.sleep(randomiseSettleUs)

	// Loop through all possible short addresses.  For each, findDevice
	// locates a ballast with an unassigned short address (if any are
	// left) and assigns it this one.
	var n int
	for n = 0; n < maxShort; n++ {
		if !d.findDevice(0x000000, longAddrMax, Addr(n)) {
			break
		}
	}
	var first = d.err

	// Stop addressing mode regardless of how the search went.
	if !d.SendCommand(PriUser, addrTerminate, 0) && first == nil {
		first = d.err
	}
	d.setError(first)

	if n == 0 {
		if first == nil {
			first = ErrNoDevices
			d.setError(first)
		}
		return nil, first
	}
	var ret = make([]Addr, n)
	for i := range ret {
		ret[i] = ShortAddr(i)
	}
	return ret, first
}

// findDevice binary searches [min, max] for the long address of a
// ballast with no assigned short address.  It programs the ballast it
// pinpoints with shortAddr and withdraws it from further COMPAREs.
// It returns false when the range holds no such ballast or when a bus
// error ended the hunt; the distinction is whether Err is set.
//
// Depth is bounded by the 24 bits of the long address.
func (d *Dali) findDevice(min, max uint32, shortAddr Addr) bool {
	d.Logf("findDevice(%06x, %06x, %02x)\n", min, max, shortAddr)
	if min > max {
		return false
	}
	var mid = (min + max) / 2
	if !d.SendFrame(PriUser, addrSearchAddrH, byte(mid>>16)) {
		return false
	}
	if !d.SendFrame(PriUser, addrSearchAddrM, byte(mid>>8)) {
		return false
	}
	if !d.SendFrame(PriUser, addrSearchAddrL, byte(mid)) {
		return false
	}
	if !d.SendFrame(PriUser, addrCompare, 0) {
		return false
	}
	var reply = d.receiveBackwardFrame()
	if reply == rNoFrame {
		d.Logf("No\n")
		// No ballast at or below mid, search the top half.
		return d.findDevice(mid+1, max, shortAddr)
	}
	if reply == rBadFrame || d.rcvdVal.Load() != yes {
		// Arguably "multiple ballasts below mid" and worth recursing
		// into the bottom half anyway; we treat it as a fault and let
		// the caller see it.
		d.Logf("BF rB %d rV %02X\n", d.rcvdBits.Load(), d.rcvdVal.Load())
		d.setError(ErrBadBackFrame)
		return false
	}
	d.Logf("Yes\n")
	if min != max {
		// Ballast at or below mid, search the bottom half.
		return d.findDevice(min, mid, shortAddr)
	}

	d.Logf("Found %06X, setting %02X\n", min, shortAddr)
	var sa = byte(shortAddr<<1) | 1
	if !d.SendFrame(PriUser, addrProgramShortAddr, sa) {
		return false
	}
	if !d.SendFrame(PriUser, addrVerifyShortAddr, sa) {
		return false
	}
	reply = d.receiveBackwardFrame()
	if reply == rNoFrame {
		d.Logf("V-No\n")
		d.setError(ErrNoVerifyAns)
		return false
	}
	if reply == rBadFrame || d.rcvdVal.Load() != yes {
		d.Logf("BV rB %d rV %02X\n", d.rcvdBits.Load(), d.rcvdVal.Load())
		d.setError(ErrBadVerifyAns)
		return false
	}
	if !d.SendFrame(PriUser, addrWithdraw, 0) {
		return false
	}
	return true
}
