package cpu

// executeCB decodes and runs one CB-prefixed opcode. The low 3 bits select
// the operand (register, or (HL) when they equal 6); bits 3-5 select either
// a rotate/shift variant (group 0) or a bit index y (groups 1-3); bits 6-7
// select the opcode family: 0=rotate/shift/swap, 1=BIT, 2=RES, 3=SET.
func (c *CPU) executeCB(cb byte) int {
	r := reg8(cb & 7)
	family := (cb >> 6) & 3
	y := uint((cb >> 3) & 7)

	cycles := 8
	if r == regHL {
		cycles = 16
	}

	switch family {
	case 0:
		v := c.getR(r)
		var res byte
		var cy bool
		switch y {
		case 0:
			res, cy = rlc(v)
		case 1:
			res, cy = rrc(v)
		case 2:
			res, cy = rl(v, c.Carry())
		case 3:
			res, cy = rr(v, c.Carry())
		case 4:
			res, cy = sla(v)
		case 5:
			res, cy = sra(v)
		case 6:
			res, cy = swap(v), false
		default:
			res, cy = srl(v)
		}
		c.setR(r, res)
		c.SetFlags(res == 0, false, false, cy)
		return cycles

	case 1: // BIT y,r — does not write the operand back; H always set
		v := c.getR(r)
		c.SetZero(bitTest(v, y))
		c.SetSub(false)
		c.SetHalf(true)
		if r == regHL {
			return 12
		}
		return 8

	case 2: // RES y,r
		v := c.getR(r)
		c.setR(r, resBit(v, y))
		return cycles

	default: // SET y,r
		v := c.getR(r)
		c.setR(r, setBit(v, y))
		return cycles
	}
}
