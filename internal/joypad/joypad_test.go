package joypad

import "testing"

func TestReadJOYPNoGroupSelectedReadsAllHigh(t *testing.T) {
	j := New()
	j.WriteJOYP(0x30) // neither group selected
	j.ButtonDown(A)
	if v := j.ReadJOYP(); v&0x0F != 0x0F {
		t.Fatalf("with no group selected, lower nibble should read all 1s, got %#02x", v)
	}
}

func TestReadJOYPDpadGroup(t *testing.T) {
	j := New()
	j.ButtonDown(Up)
	j.WriteJOYP(0x20) // P14 low: select d-pad
	v := j.ReadJOYP()
	if v&0x04 != 0 {
		t.Fatalf("Up pressed should read 0 on bit 2, got %#02x", v)
	}
	if v&0x0B != 0x0B {
		t.Fatalf("other d-pad bits should read 1, got %#02x", v)
	}
}

func TestButtonPressRequestsInterrupt(t *testing.T) {
	j := New()
	j.WriteJOYP(0x20) // select d-pad
	if j.TakeInterrupt() {
		t.Fatalf("no interrupt should be pending before any button transitions")
	}
	j.ButtonDown(Right)
	if !j.TakeInterrupt() {
		t.Fatalf("pressing a selected-group button should request the joypad interrupt")
	}
	if j.TakeInterrupt() {
		t.Fatalf("TakeInterrupt must clear the latch")
	}
}

func TestButtonPressOnUnselectedGroupDoesNotInterrupt(t *testing.T) {
	j := New()
	j.WriteJOYP(0x10) // select buttons group only (P15 low), d-pad deselected
	j.ButtonDown(Right)
	if j.TakeInterrupt() {
		t.Fatalf("pressing a button in the unselected group must not request an interrupt")
	}
}

func TestButtonReleaseDoesNotInterrupt(t *testing.T) {
	j := New()
	j.WriteJOYP(0x20)
	j.ButtonDown(Up)
	j.TakeInterrupt() // drain
	j.ButtonRelease(Up)
	if j.TakeInterrupt() {
		t.Fatalf("a release is a 0->1 transition and must not request an interrupt")
	}
}
