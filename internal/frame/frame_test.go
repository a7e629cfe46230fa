package frame

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	raw := decodeHex(t, "11e02b070ea21d28a7800912be478a205b146957")
	f, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Length != LengthMarker {
		t.Fatalf("length marker mismatch: %d", f.Length)
	}
	if f.Addr != 0xE0 || f.SeqEcho != 0x2B {
		t.Fatalf("unexpected header %02X %02X", f.Addr, f.SeqEcho)
	}
	if !f.HasCRC || f.CRC != 0x6957 {
		t.Fatalf("unexpected crc %v 0x%04X", f.HasCRC, f.CRC)
	}
	if !f.CRCValid() {
		t.Fatalf("crc should validate")
	}
	if !f.Obfuscated {
		t.Fatalf("parsed frame must be marked obfuscated")
	}
	if got := f.Uint(Status); got != 0x070E {
		t.Fatalf("raw status mismatch: 0x%04X", got)
	}
}

func TestParsePayloadOnly(t *testing.T) {
	raw := decodeHex(t, "114924070ea276170ecf86916747cfa277d3")
	f, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.HasCRC || f.CRCValid() {
		t.Fatalf("payload-only frame must not carry a crc")
	}
	payload := f.Payload()
	if hex.EncodeToString(payload[:]) != "114924070ea276170ecf86916747cfa277d3" {
		t.Fatalf("payload round trip mismatch: %x", payload)
	}
}

func TestParseBadCRC(t *testing.T) {
	raw := decodeHex(t, "11e02b070ea21d28a7800912be478a205b14ffff")
	f, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.CRCValid() {
		t.Fatalf("crc 0xFFFF must not validate")
	}

	// a corrupted payload byte invalidates an otherwise correct checksum
	raw = decodeHex(t, "11e02b070ea21d28a7800912be478a205b146957")
	raw[5] ^= 0x80
	if f, err = Parse(raw); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.CRCValid() {
		t.Fatalf("corrupted payload must not validate")
	}
}

func TestParseSize(t *testing.T) {
	for _, n := range []int{0, 17, 19, 21} {
		_, err := Parse(make([]byte, n))
		if !errors.Is(err, ErrSize) {
			t.Fatalf("len %d: expected ErrSize, got %v", n, err)
		}
		if !strings.HasPrefix(err.Error(), "sparsnas: ") {
			t.Fatalf("error %q lacks package prefix", err)
		}
	}
}

func TestBytesRecomputesCRC(t *testing.T) {
	raw := decodeHex(t, "11e02b070ea21d28a7800912be478a205b14ffff")
	f, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out := f.Bytes()
	if got := hex.EncodeToString(out[:]); got != "11e02b070ea21d28a7800912be478a205b146957" {
		t.Fatalf("Bytes mismatch: %s", got)
	}
}

func TestPutUint(t *testing.T) {
	var f Frame
	f.PutUint(PulseCount, 0x01020304)
	f.PutUint(BatteryPercentage, 0x1FF)
	if f.Uint(PulseCount) != 0x01020304 {
		t.Fatalf("pulse count mismatch: 0x%08X", f.Uint(PulseCount))
	}
	if f.Uint(BatteryPercentage) != 0xFF {
		t.Fatalf("battery must truncate to one byte: 0x%X", f.Uint(BatteryPercentage))
	}
}

func TestFieldKeyIndex(t *testing.T) {
	want := map[string]int{
		"status":              0,
		"serial":              2,
		"packet_seq":          1,
		"time_between_pulses": 3,
		"pulse_count":         0,
		"battery_percentage":  4,
	}
	end := BodyOffset
	for _, fd := range Fields {
		if fd.Offset != end {
			t.Fatalf("field %s not contiguous: offset %d want %d", fd.Name, fd.Offset, end)
		}
		end += fd.Size
		if got := fd.KeyIndex(5); got != want[fd.Name] {
			t.Fatalf("field %s key index %d want %d", fd.Name, got, want[fd.Name])
		}
	}
	if end != PayloadLen {
		t.Fatalf("fields end at %d, want %d", end, PayloadLen)
	}
}

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex decode: %v", err)
	}
	return b
}
