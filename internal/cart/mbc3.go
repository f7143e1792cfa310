package cart

// MBC3 implements ROM/RAM banking plus a battery-backed real-time clock.
// Banking behavior:
// - 0000-1FFF: RAM/RTC enable (0x0A in low nibble)
// - 2000-3FFF: ROM bank low 7 bits (0 maps to 1)
// - 4000-5FFF: RAM bank (0-3) or RTC register select (08-0C)
// - 6000-7FFF: 0->1 write latches the live RTC into the snapshot read
// - A000-BFFF: selected RAM bank or selected RTC register
// ROM: bank 0 fixed at 0000-3FFF; switchable 4000-7FFF uses bank (1..127)

type MBC3 struct {
	rom []byte
	ram []byte

	ramEnabled bool
	romBank    byte // 7 bits (1..127)
	ramBank    byte // 0..3 when selecting RAM

	rtc         *RTC
	rtcSelected byte // 0 when RAM is selected, else 0x08..0x0C
	latchStep   byte // tracks the 0x00->0x01 write sequence on 0x6000
}

func NewMBC3(rom []byte, ramSize int) *MBC3 {
	m := &MBC3{rom: rom, rtc: NewRTC()}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	m.romBank = 1
	return m
}

func (m *MBC3) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.romBank & 0x7F)
		if bank == 0 {
			bank = 1
		}
		off := bank*0x4000 + int(addr-0x4000)
		if off >= 0 && off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.rtcSelected != 0 {
			m.rtc.Update(nowFunc())
			switch m.rtcSelected {
			case 0x08:
				return m.rtc.ReadSeconds()
			case 0x09:
				return m.rtc.ReadMinutes()
			case 0x0A:
				return m.rtc.ReadHours()
			case 0x0B:
				return m.rtc.ReadDaysLow()
			case 0x0C:
				return m.rtc.ReadDaysHigh()
			}
			return 0xFF
		}
		if len(m.ram) == 0 {
			return 0xFF
		}
		rb := int(m.ramBank & 0x03)
		off := rb*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		// Enables external RAM and RTC register access together (spec.md §4.6).
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr < 0x6000:
		if value <= 0x03 {
			m.ramBank = value & 0x03
			m.rtcSelected = 0
		} else if value >= 0x08 && value <= 0x0C {
			m.rtcSelected = value
		}
	case addr < 0x8000:
		// Latch sequence: a 0x00 write followed by a 0x01 write copies the
		// live RTC registers into the snapshot read back from 0xA000-0xBFFF.
		if value == 0x00 {
			m.latchStep = 0x00
		} else if value == 0x01 && m.latchStep == 0x00 {
			m.rtc.Update(nowFunc())
			m.rtc.Latch()
			m.latchStep = 0x01
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if m.rtcSelected != 0 {
			now := nowFunc()
			switch m.rtcSelected {
			case 0x08:
				m.rtc.WriteSeconds(now, value)
			case 0x09:
				m.rtc.WriteMinutes(now, value)
			case 0x0A:
				m.rtc.WriteHours(now, value)
			case 0x0B:
				m.rtc.WriteDaysLow(now, value)
			case 0x0C:
				m.rtc.WriteDaysHigh(now, value)
			}
			return
		}
		if len(m.ram) == 0 {
			return
		}
		rb := int(m.ramBank & 0x03)
		off := rb*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

// SaveRAM returns the external RAM followed by the RTC epoch anchor and
// halt flag, per the persistence encoding decided in DESIGN.md.
func (m *MBC3) SaveRAM() []byte {
	out := make([]byte, len(m.ram), len(m.ram)+rtcPersistSize)
	copy(out, m.ram)
	return m.rtc.appendState(out)
}

// LoadRAM restores RAM and the RTC trailer. A blob with a length that
// doesn't match RAM size plus the RTC trailer is ignored (spec.md §7:
// corrupt saves fall back to zero-initialized state).
func (m *MBC3) LoadRAM(data []byte) {
	want := len(m.ram) + rtcPersistSize
	if len(data) != want {
		return
	}
	copy(m.ram, data[:len(m.ram)])
	m.rtc.loadState(data[len(m.ram):])
}

func (m *MBC3) SaveState() []byte { return m.SaveRAM() }
func (m *MBC3) LoadState(data []byte) { m.LoadRAM(data) }
