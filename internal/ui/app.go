// Package ui hosts the emulator inside an ebiten window: it owns the
// display texture, the keyboard-to-joypad mapping, and save-state file
// placement. Grounded on the teacher's internal/ui/ebitenapp.go, trimmed
// of its audio player, CGB compatibility-palette menu, and in-app ROM
// browser (audio and GBC are spec Non-goals; the ROM browser is a CLI-flag
// concern here, per cmd/gbemu).
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/emu"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// App is the ebiten-facing host: it drives one Machine, uploads its
// framebuffer to a texture every Draw, and samples keyboard state into
// Buttons every Update.
type App struct {
	cfg Config
	m   *emu.Machine
	tex *ebiten.Image

	paused bool

	currentSlot int // 0-indexed save-state slot, exposed to the player as 1-4

	toastMsg   string
	toastUntil time.Time
}

// NewApp wires cfg and m into a ready-to-Run App.
func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(windowTitle(cfg, m))
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)
	return &App{cfg: cfg, m: m}
}

func windowTitle(cfg Config, m *emu.Machine) string {
	if m == nil || m.ROMPath() == "" {
		return cfg.Title
	}
	if t := m.ROMTitle(); t != "" {
		return cfg.Title + " - [" + t + "]"
	}
	return cfg.Title
}

// Run hands control to ebiten's game loop until the window is closed.
func (a *App) Run() error { return ebiten.RunGame(a) }

// Update samples input and steps the machine one frame, per ebiten.Game.
func (a *App) Update() error {
	a.m.SetButtons(a.readButtons())

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.m.ResetPostBoot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		a.m.ResetWithBoot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	for i, key := range []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4} {
		if inpututil.IsKeyJustPressed(key) {
			a.currentSlot = i
			a.toast(fmt.Sprintf("Slot set to %d", i+1))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		if err := a.m.SaveStateToFile(a.statePath(a.currentSlot)); err != nil {
			a.toast(fmt.Sprintf("Save failed: %v", err))
		} else {
			a.toast(fmt.Sprintf("Saved slot %d", a.currentSlot+1))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		if err := a.m.LoadStateFromFile(a.statePath(a.currentSlot)); err != nil {
			a.toast(fmt.Sprintf("Load failed: %v", err))
		} else {
			a.toast(fmt.Sprintf("Loaded slot %d", a.currentSlot+1))
		}
	}

	if a.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			a.m.StepFrame()
		}
		return nil
	}
	a.m.StepFrame()
	return nil
}

func (a *App) readButtons() emu.Buttons {
	var b emu.Buttons
	b.Right = ebiten.IsKeyPressed(ebiten.KeyRight)
	b.Left = ebiten.IsKeyPressed(ebiten.KeyLeft)
	b.Up = ebiten.IsKeyPressed(ebiten.KeyUp)
	b.Down = ebiten.IsKeyPressed(ebiten.KeyDown)
	b.A = ebiten.IsKeyPressed(ebiten.KeyZ)
	b.B = ebiten.IsKeyPressed(ebiten.KeyX)
	b.Start = ebiten.IsKeyPressed(ebiten.KeyEnter)
	b.Select = ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	return b
}

// Draw uploads the latest framebuffer and overlays any pending toast.
func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	a.tex.WritePixels(a.m.Framebuffer())
	screen.DrawImage(a.tex, nil)

	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.toastMsg, 4, 4)
	}
}

// Layout pins the logical screen to the DMG's native resolution; ebiten
// scales it to the window size set in NewApp.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return 160, 144 }

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

// statePath derives a save-state file path for slot from the loaded ROM's
// path, e.g. "game.gb" -> "game.state1".
func (a *App) statePath(slot int) string {
	base := a.m.ROMPath()
	if base == "" {
		base = "game"
	} else {
		base = strings.TrimSuffix(base, ".gb")
		base = strings.TrimSuffix(base, ".gbc")
	}
	return fmt.Sprintf("%s.state%d", base, slot+1)
}
