package ppu

import "testing"

func TestOverlaySpritesTransparencyAndPriority(t *testing.T) {
	p := New(nil)
	// tile 0, row 0: single opaque pixel at bit7 (ci=1), rest transparent (ci=0).
	p.vram[0] = 0x80
	p.vram[1] = 0x00
	p.obp0 = 0xE4 // identity palette: index i -> shade i

	// sprite 0 at OAM slot 0: screenY=5 (Y=21), screenX=10 (X=18), tile 0, no attrs.
	p.oam[0] = 21
	p.oam[1] = 18
	p.oam[2] = 0
	p.oam[3] = 0

	var bgIdx [160]byte
	var shades [160]Shade
	p.overlaySprites(5, bgIdx, &shades)
	if shades[10] != Shade(1) {
		t.Fatalf("expected sprite pixel at x=10 to be shade 1, got %d", shades[10])
	}
	if shades[9] != White {
		t.Fatalf("expected no sprite contribution outside the sprite's column")
	}

	// With BG-priority set and a non-zero background pixel underneath, the
	// sprite must be hidden.
	p.oam[3] = 1 << 7
	bgIdx[10] = 1
	shades = [160]Shade{}
	p.overlaySprites(5, bgIdx, &shades)
	if shades[10] != White {
		t.Fatalf("expected sprite to be hidden behind BG, got shade %d", shades[10])
	}
}

func TestOverlaySpritesLeftmostXWinsTies(t *testing.T) {
	p := New(nil)
	// tile 0, row 0: fully opaque (ci=1 across all 8 columns).
	p.vram[0] = 0xFF
	p.vram[1] = 0x00
	p.obp0 = 0xE4 // ci 1 -> shade 1
	p.obp1 = 0xFC // ci 1 -> shade 3

	// Two sprites both covering screen column 20. The leftmost one starts at
	// screenX=19 (covers 19..26) and sits in the higher OAM slot, using
	// OBP1; the other starts at screenX=20 (covers 20..27) in slot 0, using
	// OBP0. The leftmost-X sprite wins regardless of OAM order.
	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 16, 28, 0, 0    // OAM slot 0: screenY=0, screenX=20, OBP0
	p.oam[4], p.oam[5], p.oam[6], p.oam[7] = 16, 27, 0, 0x10 // OAM slot 1: screenY=0, screenX=19, OBP1

	var bgIdx [160]byte
	var shades [160]Shade
	p.overlaySprites(0, bgIdx, &shades)
	if shades[20] != Shade(3) {
		t.Fatalf("expected the leftmost sprite (OBP1, shade 3) at x=20, got %d", shades[20])
	}
}

func TestOverlaySprites8x16Mode(t *testing.T) {
	p := New(nil)
	p.lcdc |= 0x04 // tall sprites
	p.obp0 = 0xE4
	// Tile 0 (top half): row0 ci=1. Tile 1 (bottom half): row0 ci=2.
	p.vram[0] = 0x80
	p.vram[1] = 0x00
	p.vram[16] = 0x00
	p.vram[17] = 0x80

	p.oam[0] = 16 // screenY = 0
	p.oam[1] = 18 // screenX = 10
	p.oam[2] = 0 // even tile index: top half uses tile 0, bottom half uses tile 1
	p.oam[3] = 0

	var bgIdx [160]byte
	var shades [160]Shade
	p.overlaySprites(0, bgIdx, &shades)
	if shades[10] != Shade(1) {
		t.Fatalf("expected top-half tile pixel, got %d", shades[10])
	}
	shades = [160]Shade{}
	p.overlaySprites(8, bgIdx, &shades)
	if shades[10] != Shade(2) {
		t.Fatalf("expected bottom-half tile pixel, got %d", shades[10])
	}
}
