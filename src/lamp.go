package dalmatian

/*------------------------------------------------------------------
 *
 * Purpose:	Convenience wrappers for everyday lamp operations.
 *
 * Description:	These are thin shims over SendCommand/Query: set the
 *		command bit in the address byte, pick the right
 *		priority for a user-instigated versus automatic
 *		action, and for the DTR-based configuration commands
 *		run the two-frame transaction.
 *
 *---------------------------------------------------------------*/

func actionPri(fromUser bool) Pri {
	if fromUser {
		return PriUser
	}
	return PriAuto
}

// SendReset sends a factory reset to the given address.
func (d *Dali) SendReset(addr Addr) bool {
	addr |= 1
	return d.SendCommand(PriConfig, addr, MsgReset)
}

// SendLampOff switches the addressed lamps off.
func (d *Dali) SendLampOff(addr Addr, fromUser bool) bool {
	addr |= 1
	return d.SendCommand(actionPri(fromUser), addr, MsgOff)
}

// SendStepDownOff steps the addressed lamps down one level, switching
// them off from the lowest.
func (d *Dali) SendStepDownOff(addr Addr, fromUser bool) bool {
	addr |= 1
	return d.SendCommand(actionPri(fromUser), addr, MsgStepDownOff)
}

// SendOnStepUp switches the addressed lamps on at minimum and steps
// up one level.
func (d *Dali) SendOnStepUp(addr Addr, fromUser bool) bool {
	addr |= 1
	return d.SendCommand(actionPri(fromUser), addr, MsgOnStepUp)
}

// SendDapc sets a direct arc power level, 0..255.
func (d *Dali) SendDapc(addr Addr, fromUser bool, level byte) bool {
	return d.SendCommand(actionPri(fromUser), addr, Msg(level))
}

// SendSetPowerOnLevel configures the level the addressed lamps come
// up at after mains power returns.  The level goes through DTR0
// first, then the set command within the same transaction.
func (d *Dali) SendSetPowerOnLevel(addr Addr, fromUser bool, level byte) bool {
	addr |= 1
	if !d.SendCommand(actionPri(fromUser), addrDTR0, Msg(level)) {
		return false
	}
	return d.SendCommand(PriTxn, addr, MsgSetPowerOnLevel)
}

// QueryActualLevel reads the present arc power level.
func (d *Dali) QueryActualLevel(addr Addr, fromUser bool) int {
	return d.queryLevel(actionPri(fromUser), addr, MsgQueryActualLevel)
}

// QueryMaxLevel reads the configured maximum level.
func (d *Dali) QueryMaxLevel(addr Addr, fromUser bool) int {
	return d.queryLevel(actionPri(fromUser), addr, MsgQueryMaxLevel)
}

// QueryMinLevel reads the configured minimum level.
func (d *Dali) QueryMinLevel(addr Addr, fromUser bool) int {
	return d.queryLevel(actionPri(fromUser), addr, MsgQueryMinLevel)
}

// QueryPowerOnLevel reads the configured power-on level.
func (d *Dali) QueryPowerOnLevel(addr Addr, fromUser bool) int {
	return d.queryLevel(actionPri(fromUser), addr, MsgQueryPowerOnLevel)
}
