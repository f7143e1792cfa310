package emu

import "time"

// framesPerSecond is the DMG's native refresh rate; spec.md §5 calls for
// the host to consume the framebuffer "at the display refresh rate" and
// for a headless host to pace itself the same way rather than free-run.
const framesPerSecond = 60

// Pacer drives a Machine at a steady 60 Hz for hosts that don't already
// have their own frame clock (ebiten's RunGame supplies one; a headless
// runner or network relay doesn't). It also implements spec.md §5's
// shutdown-channel contract: a single, non-blocking, buffered signal from
// host to emulator thread that stops the loop and flushes battery RAM
// before returning. No teacher precedent — the teacher only ever ran the
// machine from inside ebiten's own Update loop.
type Pacer struct {
	m        *Machine
	shutdown chan struct{}
}

// NewPacer wraps m in a Pacer ready to Run.
func NewPacer(m *Machine) *Pacer {
	return &Pacer{m: m, shutdown: make(chan struct{}, 1)}
}

// Shutdown requests that Run stop after its current frame. Safe to call
// from any goroutine; a second call while the first is still pending is a
// no-op rather than a block or a panic.
func (p *Pacer) Shutdown() {
	select {
	case p.shutdown <- struct{}{}:
	default:
	}
}

// Run steps the machine once per tick of a 60 Hz ticker until Shutdown is
// called, then persists battery RAM through persist (if non-nil) before
// returning. persist receives nil data with ok=false if the loaded
// cartridge has no battery-backed RAM to save.
func (p *Pacer) Run(persist func(data []byte, ok bool) error) error {
	ticker := time.NewTicker(time.Second / framesPerSecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.shutdown:
			return p.save(persist)
		case <-ticker.C:
			p.m.StepFrame()
		}
	}
}

func (p *Pacer) save(persist func(data []byte, ok bool) error) error {
	if persist == nil {
		return nil
	}
	data, ok := p.m.SaveBattery()
	return persist(data, ok)
}
