package cart

import (
	"bytes"
	"encoding/gob"
)

// MBC1 implements ROM/RAM banking up to 2 MiB ROM (128 banks) and 32 KiB
// RAM (4 banks). Battery persistence is handled through SaveRAM/LoadRAM;
// SaveState/LoadState additionally capture the banking registers.
type MBC1 struct {
	rom []byte
	ram []byte

	romBanks int // total 16 KiB banks in this ROM, for masking

	romBankLow5       byte // lower 5 bits of ROM bank number (0->1 remapped)
	ramBankOrRomHigh2 byte // either RAM bank (mode1) or ROM bank high bits (mode0)
	ramEnabled        bool
	modeSelect        byte // 0: ROM banking (default), 1: RAM banking
}

func NewMBC1(rom []byte, ramSize int) *MBC1 {
	m := &MBC1{rom: rom, romBanks: len(rom) / 0x4000}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	m.romBankLow5 = 1
	return m
}

func (m *MBC1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if m.modeSelect == 0 {
			if int(addr) < len(m.rom) {
				return m.rom[addr]
			}
			return 0xFF
		}
		bank := m.maskBank(int(m.ramBankOrRomHigh2&0x03) << 5)
		off := bank*0x4000 + int(addr)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.effectiveROMBank())
		off := bank*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		ramBank := 0
		if m.modeSelect == 1 {
			ramBank = int(m.ramBankOrRomHigh2 & 0x03)
		}
		off := ramBank*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		// 0 maps to 1; the translation examines the raw 5-bit register
		// before the cartridge-size mask is applied (spec.md §4.6).
		m.romBankLow5 = value & 0x1F
		if m.romBankLow5 == 0 {
			m.romBankLow5 = 1
		}
	case addr < 0x6000:
		m.ramBankOrRomHigh2 = value & 0x03
	case addr < 0x8000:
		m.modeSelect = value & 0x01
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		ramBank := 0
		if m.modeSelect == 1 {
			ramBank = int(m.ramBankOrRomHigh2 & 0x03)
		}
		off := ramBank*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

// maskBank wraps bank into the cartridge's actual bank count. ROM sizes
// are always powers of two, so a bitmask is equivalent to (and cheaper
// than) a modulo.
func (m *MBC1) maskBank(bank int) int {
	if m.romBanks <= 0 {
		return bank
	}
	return bank & (m.romBanks - 1)
}

func (m *MBC1) effectiveROMBank() byte {
	high := m.ramBankOrRomHigh2 & 0x03
	bank := int(m.romBankLow5) | (int(high) << 5)
	return byte(m.maskBank(bank))
}

// BatteryBacked implementation.
func (m *MBC1) SaveRAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC1) LoadRAM(data []byte) {
	if len(m.ram) == 0 || len(data) != len(m.ram) {
		return
	}
	copy(m.ram, data)
}

type mbc1State struct {
	RAM                                        []byte
	RomBankLow5, RamBankOrRomHigh2, ModeSelect byte
	RamEnabled                                 bool
}

func (m *MBC1) SaveState() []byte {
	s := mbc1State{
		RAM:               append([]byte(nil), m.ram...),
		RomBankLow5:       m.romBankLow5,
		RamBankOrRomHigh2: m.ramBankOrRomHigh2,
		ModeSelect:        m.modeSelect,
		RamEnabled:        m.ramEnabled,
	}
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

func (m *MBC1) LoadState(data []byte) {
	var s mbc1State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	if len(s.RAM) == len(m.ram) {
		copy(m.ram, s.RAM)
	}
	m.romBankLow5, m.ramBankOrRomHigh2 = s.RomBankLow5, s.RamBankOrRomHigh2
	m.modeSelect, m.ramEnabled = s.ModeSelect, s.RamEnabled
}
