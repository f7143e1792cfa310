// Package joypad implements the 2x4 button matrix behind the JOYP (FF00)
// register: eight buttons read through two selectable groups of four
// lines, with a falling edge on any line requesting the joypad interrupt.
// Grounded on the teacher's bus.go JOYP read/write and updateJoypadIRQ,
// moved into its own mutex-guarded package per spec.md §5 ("Joypad state
// is mutex-guarded" in the concurrency design) since button presses arrive
// from the host thread while the emulator thread reads JOYP.
package joypad

import "sync"

// Button identifies one of the eight Game Boy buttons.
type Button byte

const (
	Right Button = 1 << iota
	Left
	Up
	Down
	A
	B
	Select
	Start
)

// Joypad is the mutex-guarded button matrix. Construct it with New, which
// starts with no buttons pressed and no group selected.
type Joypad struct {
	mu      sync.Mutex
	pressed byte // bitmask of Button values currently held down
	selectN byte // bits 4-5 as last written to JOYP (0 = group selected)

	lastLower4 byte // previous computed active-low nibble, for edge detection
	irqPending bool
}

// New returns an empty Joypad with no buttons pressed.
func New() *Joypad { return &Joypad{selectN: 0x30, lastLower4: 0x0F} }

// ButtonDown marks a button as pressed. Mirrors the edge-triggered press/
// release shape of original_source's joypad_manager.rs rather than a
// polled full-mask setter, per SPEC_FULL.md §4.
func (j *Joypad) ButtonDown(b Button) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pressed |= byte(b)
	j.recompute()
}

// ButtonRelease marks a button as released.
func (j *Joypad) ButtonRelease(b Button) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pressed &^= byte(b)
	j.recompute()
}

// SetState replaces the whole pressed-button mask at once; used by hosts
// that poll the full button state every frame instead of per-event.
func (j *Joypad) SetState(mask byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pressed = mask
	j.recompute()
}

// ReadJOYP returns the CPU-visible value of FF00 given the last select
// write: bits 7-6 read high, bits 5-4 echo the selection, bits 3-0 are
// active-low for whichever group(s) are selected.
func (j *Joypad) ReadJOYP() byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return 0xC0 | j.selectN | j.lowerNibble()
}

// WriteJOYP updates the group-select bits (5-4); the lower nibble is never
// writable by the CPU.
func (j *Joypad) WriteJOYP(v byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.selectN = v & 0x30
	j.recompute()
}

// TakeInterrupt reports whether a 1->0 transition occurred on any selected
// line since the last call, clearing the latch. The bus folds a true
// result into IF bit 4.
func (j *Joypad) TakeInterrupt() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	v := j.irqPending
	j.irqPending = false
	return v
}

func (j *Joypad) lowerNibble() byte {
	n := byte(0x0F)
	if j.selectN&0x10 == 0 { // P14 low selects D-pad
		if j.pressed&byte(Right) != 0 {
			n &^= 0x01
		}
		if j.pressed&byte(Left) != 0 {
			n &^= 0x02
		}
		if j.pressed&byte(Up) != 0 {
			n &^= 0x04
		}
		if j.pressed&byte(Down) != 0 {
			n &^= 0x08
		}
	}
	if j.selectN&0x20 == 0 { // P15 low selects buttons
		if j.pressed&byte(A) != 0 {
			n &^= 0x01
		}
		if j.pressed&byte(B) != 0 {
			n &^= 0x02
		}
		if j.pressed&byte(Select) != 0 {
			n &^= 0x04
		}
		if j.pressed&byte(Start) != 0 {
			n &^= 0x08
		}
	}
	return n
}

func (j *Joypad) recompute() {
	n := j.lowerNibble()
	falling := j.lastLower4 &^ n
	if falling != 0 {
		j.irqPending = true
	}
	j.lastLower4 = n
}

// State is the serializable snapshot used by Bus.SaveState/LoadState.
type State struct {
	Pressed    byte
	SelectN    byte
	LastLower4 byte
}

// Save returns a snapshot of the joypad's state.
func (j *Joypad) Save() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return State{j.pressed, j.selectN, j.lastLower4}
}

// Restore overwrites the joypad's state from a snapshot.
func (j *Joypad) Restore(s State) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pressed = s.Pressed
	j.selectN = s.SelectN
	j.lastLower4 = s.LastLower4
}
