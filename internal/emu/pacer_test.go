package emu

import (
	"sync"
	"testing"
	"time"
)

func TestPacerShutdownStopsLoopAndPersists(t *testing.T) {
	rom := buildROM(128*1024, 0x03, 0x03, 0x02) // MBC1+RAM+BATTERY
	m := New(Config{})
	if err := m.LoadCartridge(rom, nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}

	p := NewPacer(m)
	done := make(chan error, 1)
	var persisted []byte
	var persistedOK bool
	var mu sync.Mutex
	go func() {
		done <- p.Run(func(data []byte, ok bool) error {
			mu.Lock()
			persisted, persistedOK = data, ok
			mu.Unlock()
			return nil
		})
	}()

	time.Sleep(30 * time.Millisecond)
	p.Shutdown()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pacer.Run did not return after Shutdown")
	}

	mu.Lock()
	defer mu.Unlock()
	if !persistedOK {
		t.Fatalf("expected persist callback to report a battery-backed cartridge")
	}
	if len(persisted) == 0 {
		t.Fatalf("expected non-empty persisted battery data")
	}
}

func TestPacerShutdownIsIdempotent(t *testing.T) {
	m := New(Config{})
	p := NewPacer(m)
	p.Shutdown()
	p.Shutdown() // must not block or panic
}
