package cart

import (
	"errors"
	"testing"
)

type fakePersistence struct {
	data []byte
	err  error
}

func (f *fakePersistence) Load() ([]byte, error) { return f.data, f.err }
func (f *fakePersistence) Save(data []byte) error {
	f.data = data
	return f.err
}

func TestLoadIntoRestoresBatteryBackedRAM(t *testing.T) {
	rom := make([]byte, 128*1024)
	c := NewMBC1(rom, 8*1024)
	c.Write(0x0000, 0x0A) // enable RAM

	saved := make([]byte, 8*1024)
	saved[10] = 0x55
	p := &fakePersistence{data: saved}

	if err := LoadInto(p, c); err != nil {
		t.Fatalf("LoadInto error: %v", err)
	}
	if got := c.Read(0xA000 + 10); got != 0x55 {
		t.Fatalf("RAM not restored: got %#02x", got)
	}
}

func TestLoadIntoIgnoresNonBatteryBackedCartridge(t *testing.T) {
	c := NewROMOnly(make([]byte, 32*1024))
	p := &fakePersistence{data: []byte{1, 2, 3}}
	if err := LoadInto(p, c); err != nil {
		t.Fatalf("expected no error for non-battery-backed cartridge, got %v", err)
	}
}

func TestSaveFromWritesBatteryBackedRAM(t *testing.T) {
	rom := make([]byte, 128*1024)
	c := NewMBC1(rom, 8*1024)
	c.Write(0x0000, 0x0A)
	c.Write(0xA000+20, 0x77)

	p := &fakePersistence{}
	if err := SaveFrom(p, c); err != nil {
		t.Fatalf("SaveFrom error: %v", err)
	}
	if p.data[20] != 0x77 {
		t.Fatalf("saved RAM missing write: got %#02x", p.data[20])
	}
}

func TestLoadIntoPropagatesError(t *testing.T) {
	rom := make([]byte, 128*1024)
	c := NewMBC1(rom, 8*1024)
	p := &fakePersistence{err: errors.New("disk read failure")}
	if err := LoadInto(p, c); err == nil {
		t.Fatalf("expected LoadInto to propagate the persistence error")
	}
}
