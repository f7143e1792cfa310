package ppu

// tileRowBytes returns the two bitplane bytes for row (0..7) of the tile
// whose first byte lives at tileBase. Used by sprite composition, which
// needs unsigned (0x8000-based) tile addressing independent of LCDC.
func (p *PPU) tileRowBytes(tileBase uint16, row byte) (lo, hi byte) {
	off := tileBase + uint16(row)*2
	return vramView{p}.Read(off), vramView{p}.Read(off + 1)
}

// bgRow computes the 160 pre-palette background color indices for
// scanline ly, per spec.md §4.5: bx=(x+SCX) mod 256, by=(LY+SCY) mod 256.
// Delegates to the tile-row fetcher in fetcher.go/scanline.go.
func (p *PPU) bgRow(ly int) [160]byte {
	mapBase := uint16(0x9800)
	if p.lcdc&0x08 != 0 {
		mapBase = 0x9C00
	}
	unsigned := p.lcdc&0x10 != 0
	return RenderBGScanlineUsingFetcher(vramView{p}, mapBase, unsigned, p.scx, p.scy, byte(ly))
}

// overlayWindowRow replaces bgIdx entries at and after the window's
// on-screen start column with the window layer's color indices, using
// winLine (the window's own internal scanline counter) as the vertical
// coordinate. Delegates to the same fetcher-based helper used for BG rows.
func (p *PPU) overlayWindowRow(winLine int, bgIdx *[160]byte) {
	mapBase := uint16(0x9800)
	if p.lcdc&0x40 != 0 {
		mapBase = 0x9C00
	}
	unsigned := p.lcdc&0x10 != 0
	wxStart := int(p.wx) - 7
	if wxStart < 0 {
		wxStart = 0
	}
	winOut := RenderWindowScanlineUsingFetcher(vramView{p}, mapBase, unsigned, wxStart, byte(winLine))
	for x := wxStart; x < 160; x++ {
		bgIdx[x] = winOut[x]
	}
}

// windowDrawnThisLine reports whether the window layer is visible anywhere
// on scanline ly, per LCDC bits 0 (master BG/window enable) and 5 (window
// enable), WY, and WX's on-screen range.
func (p *PPU) windowDrawnThisLine(ly int) bool {
	return p.lcdc&0x01 != 0 && p.lcdc&0x20 != 0 && ly >= int(p.wy) && int(p.wx) < 167
}

// renderScanline composes background, window, and sprites for the current
// LY into the back framebuffer. Called once, at HBlank entry, per spec.md
// §4.5 ("On entering mode 0, render the current scanline").
func (p *PPU) renderScanline() {
	ly := int(p.ly)
	if ly >= screenHeight {
		return
	}

	var bgIdx [160]byte
	if p.lcdc&0x01 != 0 {
		bgIdx = p.bgRow(ly)
	}
	if p.windowDrawnThisLine(ly) {
		p.winLine++
		p.overlayWindowRow(p.winLine, &bgIdx)
	}

	bgp := decodePalette(p.bgp)
	var shades [160]Shade
	for x := 0; x < 160; x++ {
		shades[x] = bgp[bgIdx[x]]
	}

	if p.lcdc&0x02 != 0 {
		p.overlaySprites(ly, bgIdx, &shades)
	}

	for x := 0; x < 160; x++ {
		p.frame.set(x, ly, p.palette(shades[x]))
	}
}
