package cart

import "time"

// nowFunc returns the current wall-clock time; overridable in tests.
var nowFunc = func() time.Time { return time.Now() }

// RTC models the MBC3 real-time clock using the epoch-anchor design from
// original_source's cartridge/rtc.rs: rather than storing seconds/minutes/
// hours/days as independently-ticking counters, it keeps a "theoretical
// zero" timestamp and recomputes the displayed registers from now-zero on
// every Update. Writing a register, or toggling halt, recalculates zero so
// the displayed fields never jump. This lets the clock keep "ticking" in
// wall-clock time even while the emulator process is not running, since
// only zero needs to be persisted.
type RTC struct {
	zero int64 // unix seconds

	seconds, minutes, hours byte
	days                    uint16 // 9-bit day count (0..511)
	halt                    bool
	carry                   bool // sticky day-counter overflow

	latched                       bool
	latchSec, latchMin, latchHour byte
	latchDaysLow, latchDaysHigh   byte
}

// NewRTC creates an RTC anchored at the current wall-clock time.
func NewRTC() *RTC {
	return &RTC{zero: nowFunc().Unix()}
}

func (r *RTC) calculateZero(now time.Time) {
	since := now.Unix()
	since -= int64(r.seconds)
	since -= int64(r.minutes) * 60
	since -= int64(r.hours) * 3600
	since -= int64(r.days) * 3600 * 24
	r.zero = since
}

// Update recomputes the live registers from wall-clock time. Called on
// every RTC register access (MBC3 has no separate tick phase).
func (r *RTC) Update(now time.Time) {
	if r.halt {
		// Re-anchor zero to the currently displayed values so they stay
		// frozen instead of jumping once unhalted.
		r.calculateZero(now)
	}
	duration := now.Unix() - r.zero
	r.seconds = byte(duration % 60)
	r.minutes = byte((duration / 60) % 60)
	r.hours = byte((duration / 3600) % 24)
	r.setDays(uint16(duration / (3600 * 24)))
}

func (r *RTC) setDays(days uint16) {
	if days >= 512 {
		r.carry = true
	}
	r.days = days & 0x1FF
}

// Latch snapshots the live registers; reads return the snapshot until the
// next Latch call.
func (r *RTC) Latch() {
	r.latched = true
	r.latchSec, r.latchMin, r.latchHour = r.seconds, r.minutes, r.hours
	r.latchDaysLow = byte(r.days)
	var dh byte
	if r.days&0x100 != 0 {
		dh |= 0x01
	}
	if r.halt {
		dh |= 0x40
	}
	if r.carry {
		dh |= 0x80
	}
	r.latchDaysHigh = dh
}

func (r *RTC) ReadSeconds() byte {
	if r.latched {
		return r.latchSec
	}
	return r.seconds
}

func (r *RTC) ReadMinutes() byte {
	if r.latched {
		return r.latchMin
	}
	return r.minutes
}

func (r *RTC) ReadHours() byte {
	if r.latched {
		return r.latchHour
	}
	return r.hours
}

func (r *RTC) ReadDaysLow() byte {
	if r.latched {
		return r.latchDaysLow
	}
	return byte(r.days)
}

func (r *RTC) ReadDaysHigh() byte {
	if r.latched {
		return r.latchDaysHigh
	}
	var dh byte
	if r.days&0x100 != 0 {
		dh |= 0x01
	}
	if r.halt {
		dh |= 0x40
	}
	if r.carry {
		dh |= 0x80
	}
	return dh
}

func (r *RTC) WriteSeconds(now time.Time, v byte) {
	if v > 59 {
		v = 59
	}
	r.seconds = v
	r.calculateZero(now)
}

func (r *RTC) WriteMinutes(now time.Time, v byte) {
	if v > 59 {
		v = 59
	}
	r.minutes = v
	r.calculateZero(now)
}

func (r *RTC) WriteHours(now time.Time, v byte) {
	if v > 23 {
		v = 23
	}
	r.hours = v
	r.calculateZero(now)
}

func (r *RTC) WriteDaysLow(now time.Time, v byte) {
	r.days = (r.days &^ 0xFF) | uint16(v)
	r.calculateZero(now)
}

// WriteDaysHigh accepts the raw $0C register format: bit0 is the day
// counter's 9th bit, bit6 halts the clock, bit7 is the sticky overflow
// flag (writable so games can clear it).
func (r *RTC) WriteDaysHigh(now time.Time, v byte) {
	r.days = (r.days & 0xFF) | (uint16(v&0x01) << 8)
	r.halt = v&0x40 != 0
	r.carry = v&0x80 != 0
	r.calculateZero(now)
}

// rtcPersistSize is the fixed trailer appended after RAM bytes: an 8-byte
// big-endian Unix-second epoch anchor plus 1 halt-flag byte (spec.md §9
// Open Question; see DESIGN.md).
const rtcPersistSize = 9

func (r *RTC) appendState(buf []byte) []byte {
	var tmp [8]byte
	z := uint64(r.zero)
	for i := 7; i >= 0; i-- {
		tmp[i] = byte(z)
		z >>= 8
	}
	buf = append(buf, tmp[:]...)
	var halt byte
	if r.halt {
		halt = 1
	}
	return append(buf, halt)
}

func (r *RTC) loadState(trailer []byte) {
	if len(trailer) != rtcPersistSize {
		return
	}
	var z uint64
	for i := 0; i < 8; i++ {
		z = (z << 8) | uint64(trailer[i])
	}
	r.zero = int64(z)
	r.halt = trailer[8] != 0
}
