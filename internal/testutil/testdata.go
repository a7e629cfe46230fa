package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Fixture pairs a captured packet with the device it was captured from.
type Fixture struct {
	Serial  string `json:"serial"`
	Hex     string `json:"-"`
	SkipCRC bool   `json:"skip_crc"`
	// Error is the expected error text prefix; empty for packets that decode.
	Error  string         `json:"error"`
	Fields map[string]any `json:"fields"`
}

// LoadFixture reads name.hex and name.json from testdata/sparsnas.
func LoadFixture(t *testing.T, name string) Fixture {
	t.Helper()
	var fx Fixture
	LoadJSON(t, "sparsnas/"+name+".json", &fx)
	fx.Hex = LoadHex(t, "sparsnas/"+name+".hex")
	return fx
}

// LoadJSON loads a JSON fixture from testdata relative to the repo root.
func LoadJSON(t *testing.T, rel string, v any) {
	t.Helper()
	data := readTestdata(t, rel)
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", rel, err)
	}
}

// LoadHex returns a trimmed hex string from testdata relative path.
func LoadHex(t *testing.T, rel string) string {
	t.Helper()
	data := readTestdata(t, rel)
	return strings.TrimSpace(string(data))
}

func readTestdata(t *testing.T, rel string) []byte {
	t.Helper()
	candidates := []string{
		filepath.Join("testdata", rel),
		filepath.Join("..", "testdata", rel),
		filepath.Join("..", "..", "testdata", rel),
	}
	for _, path := range candidates {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
	}
	t.Fatalf("unable to locate testdata file %s", rel)
	return nil
}
