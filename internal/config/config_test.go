package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "devices.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_RequiresDevices(t *testing.T) {
	path := writeTempConfig(t, "devices: []\n")
	_, err := Load(path)
	requireErrEq(t, err, "devices is required")
}

func TestLoad_RequiresSerial(t *testing.T) {
	path := writeTempConfig(t, "devices:\n  - name: house\n")
	_, err := Load(path)
	requireErrEq(t, err, "devices[0].serial is required")
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "devices:\n  - serial: '400-565-321'\n  - name: garage\n    serial: '400 547 040'\n    pulses_per_kwh: 500\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Devices) != 2 {
		t.Fatalf("devices=%d want 2", len(cfg.Devices))
	}
	if cfg.Devices[0].Name != "400-565-321" {
		t.Fatalf("name=%q want serial as default name", cfg.Devices[0].Name)
	}
	if cfg.Devices[0].PulsesPerKWh != 1000 {
		t.Fatalf("pulses_per_kwh=%d want 1000", cfg.Devices[0].PulsesPerKWh)
	}
	garage, ok := cfg.Device("garage")
	if !ok {
		t.Fatalf("device garage not found")
	}
	if garage.PulsesPerKWh != 500 || garage.Serial != "400 547 040" {
		t.Fatalf("unexpected garage device %+v", garage)
	}
	if _, ok := cfg.Device("attic"); ok {
		t.Fatalf("unexpected device attic")
	}
}

func TestLoad_RejectsBadSerial(t *testing.T) {
	_, err := Parse([]byte("devices:\n  - serial: 'abc'\n"))
	if err == nil {
		t.Fatalf("expected error for bad serial")
	}
}

func TestLoad_RejectsDuplicateNames(t *testing.T) {
	_, err := Parse([]byte("devices:\n  - name: a\n    serial: '1'\n  - name: a\n    serial: '2'\n"))
	requireErrEq(t, err, `devices[1].name "a" is not unique`)
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
