package ppu

// Sprite is a decoded OAM descriptor. X and Y are the raw stored values
// (offset +8/+16 per spec.md §3); use screenX/screenY to recover on-screen
// coordinates.
type Sprite struct {
	Y, X     byte
	Tile     byte
	Attr     byte
	OAMIndex int
}

func (s Sprite) screenY() int { return int(s.Y) - 16 }
func (s Sprite) screenX() int { return int(s.X) - 8 }

func (s Sprite) yFlip() bool      { return s.Attr&0x40 != 0 }
func (s Sprite) xFlip() bool      { return s.Attr&0x20 != 0 }
func (s Sprite) usesOBP1() bool   { return s.Attr&0x10 != 0 }
func (s Sprite) bgPriority() bool { return s.Attr&0x80 != 0 }

// spritesOnLine scans OAM for every sprite active on scanline ly (0..143)
// given the current sprite height (8 or 16, from LCDC bit 2), in OAM order.
// Real hardware caps visible sprites at 10 per line; spec.md §4.5 describes
// iterating all 40 with no such cap, so none is applied here.
func (p *PPU) spritesOnLine(ly, height int) []Sprite {
	var out []Sprite
	for i := 0; i < 40; i++ {
		base := i * 4
		s := Sprite{Y: p.oam[base], X: p.oam[base+1], Tile: p.oam[base+2], Attr: p.oam[base+3], OAMIndex: i}
		sy := s.screenY()
		if ly >= sy && ly < sy+height {
			out = append(out, s)
		}
	}
	return out
}

// spriteRowIndex returns the sprite's 2-bit color index at column x (an
// on-screen x coordinate) for scanline ly, or false if x falls outside the
// sprite or the pixel is transparent.
func (p *PPU) spriteRowIndex(s Sprite, ly, height int, x int) (byte, bool) {
	sx := s.screenX()
	if x < sx || x >= sx+8 {
		return 0, false
	}
	row := ly - s.screenY()
	if s.yFlip() {
		row = height - 1 - row
	}
	tile := s.Tile
	if height == 16 {
		tile &^= 0x01
		if row >= 8 {
			tile |= 0x01
			row -= 8
		}
	}
	lo, hi := p.tileRowBytes(spriteTileAddr(tile), byte(row))
	cols := decodeRow2bpp(lo, hi)
	col := x - sx
	if s.xFlip() {
		col = 7 - col
	}
	ci := cols[col]
	if ci == 0 {
		return 0, false
	}
	return ci, true
}

// overlaySprites composes the active sprites for scanline ly onto shades,
// skipping pixels per the priority/transparency rules of spec.md §4.5.
// bgIdx holds the pre-palette background/window color indices, needed to
// decide BG-priority skips independent of the final palette remap.
func (p *PPU) overlaySprites(ly int, bgIdx [160]byte, shades *[160]Shade) {
	height := 8
	if p.lcdc&0x04 != 0 {
		height = 16
	}
	sprites := p.spritesOnLine(ly, height)
	obp0, obp1 := decodePalette(p.obp0), decodePalette(p.obp1)

	for x := 0; x < 160; x++ {
		var winner *Sprite
		var winnerCI byte
		for i := range sprites {
			s := &sprites[i]
			ci, ok := p.spriteRowIndex(*s, ly, height, x)
			if !ok {
				continue
			}
			if winner == nil || s.screenX() < winner.screenX() ||
				(s.screenX() == winner.screenX() && s.OAMIndex < winner.OAMIndex) {
				winner, winnerCI = s, ci
			}
		}
		if winner == nil {
			continue
		}
		if winner.bgPriority() && bgIdx[x] != 0 {
			continue
		}
		pal := obp0
		if winner.usesOBP1() {
			pal = obp1
		}
		shades[x] = pal[winnerCI]
	}
}
