package sysconfig

import (
	"strings"
	"testing"
)

func TestMemSizeAndResetVectorDirectives(t *testing.T) {
	var cfg Config
	src := "MEMSIZE 64K\nRESETVECTOR 0xF000\n"
	if err := Load(strings.NewReader(src), &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MemSize != 64*1024 {
		t.Errorf("MemSize = %d, want %d", cfg.MemSize, 64*1024)
	}
	if cfg.ResetVector != 0xF000 {
		t.Errorf("ResetVector = %#x, want 0xF000", cfg.ResetVector)
	}
}

func TestCommentsAndBlankLinesIgnored(t *testing.T) {
	var cfg Config
	src := "# a comment\n\nMEMSIZE 0x1000 # trailing comment\n"
	if err := Load(strings.NewReader(src), &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MemSize != 0x1000 {
		t.Errorf("MemSize = %#x, want 0x1000", cfg.MemSize)
	}
}

func TestAddressScaleSuffixes(t *testing.T) {
	cases := map[string]uint32{
		"0x100": 0x100,
		"1K":    1024,
		"1M":    1024 * 1024,
		"42":    42,
	}
	for tok, want := range cases {
		v, err := parseAddress(tok)
		if err != nil {
			t.Errorf("parseAddress(%q) error: %v", tok, err)
			continue
		}
		if v != want {
			t.Errorf("parseAddress(%q) = %d, want %d", tok, v, want)
		}
	}
}

func TestUnknownDirectiveErrors(t *testing.T) {
	var cfg Config
	err := Load(strings.NewReader("FROBNICATE 0x100\n"), &cfg)
	if err == nil {
		t.Fatal("expected an error for an unregistered directive")
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Errorf("error %q does not report the offending line number", err)
	}
}

func TestLoadAccumulatesPastFirstError(t *testing.T) {
	var cfg Config
	src := "FROBNICATE 0x100\nMEMSIZE 0x2000\n"
	err := Load(strings.NewReader(src), &cfg)
	if err == nil {
		t.Fatal("expected an error")
	}
	if cfg.MemSize != 0x2000 {
		t.Errorf("MemSize = %#x, want 0x2000 (a later valid line should still apply)", cfg.MemSize)
	}
}

func TestRegisteredModelFactoryReceivesAddressAndOptions(t *testing.T) {
	type call struct {
		addr uint32
		opts []Option
	}
	var got call
	RegisterModel("TESTDEV_SYSCONFIG", func(addr uint32, opts []Option) error {
		got = call{addr: addr, opts: opts}
		return nil
	})

	var cfg Config
	src := "TESTDEV_SYSCONFIG 0xC000 irq=5 readonly\n"
	if err := Load(strings.NewReader(src), &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.addr != 0xC000 {
		t.Errorf("factory addr = %#x, want 0xC000", got.addr)
	}
	want := []Option{{Name: "irq", Value: "5"}, {Name: "readonly"}}
	if len(got.opts) != len(want) || got.opts[0] != want[0] || got.opts[1] != want[1] {
		t.Errorf("factory opts = %+v, want %+v", got.opts, want)
	}
}

func TestModelFactoryErrorPropagates(t *testing.T) {
	RegisterModel("FAILDEV_SYSCONFIG", func(addr uint32, opts []Option) error {
		return errBadDevice
	})
	var cfg Config
	err := Load(strings.NewReader("FAILDEV_SYSCONFIG 0x100\n"), &cfg)
	if err == nil {
		t.Fatal("expected the factory's error to propagate")
	}
}

var errBadDevice = &testError{"bad device"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
