package dalmatian

/*------------------------------------------------------------------
 *
 * Purpose:	Hardware contract between the protocol engine and
 *		whatever actually touches the bus.
 *
 * Description:	The DALI bus is an open-collector current loop: any
 *		unit may pull it low, idle is high.  The driver core
 *		only ever asks to pull or release - the polarity games
 *		played by a particular transistor front end stay inside
 *		the Line implementation.
 *
 *		Edge and timer callbacks are the "interrupt" side of
 *		the driver.  They may run on a different goroutine than
 *		the foreground send path; the core keeps all state they
 *		touch in machine-word atomics.
 *
 *---------------------------------------------------------------*/

// Line is the physical attachment of the driver.
//
// PullLow shorts the bus, Release lets it float back high.  Level
// reports the sensed bus level (true = high).
//
// Micros is a monotonic microsecond clock.  DelayMicros busy-waits
// without yielding - it paces Manchester half-bits, and handing the
// scheduler a chance to run in the middle of one would wreck the
// frame timing.  Yield is the opposite: a polite hand-off used in
// poll loops that are allowed to take their time.
//
// ArmTimer (re)arms a single-shot timer; DisableTimer cancels it.
// The receiver uses it to spot the stop-bit gap at the end of a
// frame.
type Line interface {
	PullLow()
	Release()
	Level() bool

	Micros() int64
	DelayMicros(n int64)
	Yield()

	ArmTimer(us int64)
	DisableTimer()

	// Handle registers the edge and timer callbacks.  Edge
	// callbacks receive the event timestamp in Micros time.
	Handle(onRise, onFall func(t int64), onExpire func())

	Close() error
}
