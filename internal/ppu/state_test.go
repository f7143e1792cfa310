package ppu

import "testing"

func TestLYWriteIsNoOp(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF40, 0x80)
	p.Tick(300) // partway through line 0, ly still 0
	before := p.CPURead(0xFF44)
	p.CPUWrite(0xFF44, 99)
	if after := p.CPURead(0xFF44); after != before {
		t.Fatalf("write to LY changed its value: before=%d after=%d", before, after)
	}
}

func TestFullFrameIsExactly70224Clocks(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF40, 0x80|0x01)
	// One tick short of a full frame: still mid-frame, mode/line not reset.
	p.Tick(456*154 - 1)
	if p.ly == 0 && p.dot == 0 {
		t.Fatalf("frame completed one clock too early")
	}
	p.Tick(1)
	if p.ly != 0 || p.dot != 0 {
		t.Fatalf("expected a new frame to begin exactly at clock 70224, got ly=%d dot=%d", p.ly, p.dot)
	}
}

func TestLCDOffClearsFramebuffer(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF40, 0x80|0x01)
	p.vram[0], p.vram[1] = 0xFF, 0x00 // opaque tile row, so the frame isn't blank by chance
	p.Tick(456 * 154)                 // render a full frame with a non-blank tile
	fb := p.Framebuffer()
	nonBlank := false
	for _, c := range fb {
		if c != 0 {
			nonBlank = true
			break
		}
	}
	if !nonBlank {
		t.Fatalf("expected a non-blank frame before turning the LCD off")
	}

	p.CPUWrite(0xFF40, 0x00) // LCD off
	fb = p.Framebuffer()
	for i, c := range fb {
		if c != 0 {
			t.Fatalf("expected framebuffer cleared after LCD off, pixel %d = %#x", i, c)
		}
	}
}

func TestSaveStateRoundTrip(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF40, 0x80|0x01)
	p.CPUWrite(0xFF47, 0x1B)
	p.CPUWrite(0xFF42, 12)
	p.CPUWrite(0xFF43, 34)
	p.vram[100] = 0x42
	p.oam[10] = 0x99
	p.Tick(500) // advance dot/ly/mode partway through

	blob := p.SaveState()

	q := New(nil)
	q.LoadState(blob)

	if q.vram[100] != 0x42 {
		t.Fatalf("VRAM not restored")
	}
	if q.oam[10] != 0x99 {
		t.Fatalf("OAM not restored")
	}
	if q.bgp != p.bgp || q.scy != p.scy || q.scx != p.scx || q.lcdc != p.lcdc {
		t.Fatalf("registers not restored: got bgp=%d scy=%d scx=%d lcdc=%d", q.bgp, q.scy, q.scx, q.lcdc)
	}
	if q.dot != p.dot || q.ly != p.ly {
		t.Fatalf("timing state not restored: dot=%d/%d ly=%d/%d", q.dot, p.dot, q.ly, p.ly)
	}
	if q.winLine != p.winLine {
		t.Fatalf("winLine not restored: got %d want %d", q.winLine, p.winLine)
	}
}

func TestLoadStateWithCorruptBlobIsNoOp(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF47, 0x1B)
	before := p.bgp
	p.LoadState([]byte{0x01, 0x02, 0x03})
	if p.bgp != before {
		t.Fatalf("corrupt LoadState blob mutated state")
	}
}
