package sparsnas

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	internalopts "github.com/wanders/sparsnasdecode/internal/options"
)

const (
	meterName = "sparsnas"
	media     = "electricity"
)

// Result captures the outcome of AnalyzeHex.
type Result struct {
	RawHex     string
	ByteCount  int
	CRCChecked bool
	Packet     *Packet
	Fields     map[string]any
}

// String renders a human-readable representation of the result.
func (r Result) String() string {
	summary := map[string]any{
		"byte_count":  r.ByteCount,
		"raw_hex":     r.RawHex,
		"crc_checked": r.CRCChecked,
	}
	if len(r.Fields) > 0 {
		summary["fields"] = r.Fields
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("bytes:%d raw:%s (marshal error: %v)", r.ByteCount, r.RawHex, err)
	}
	return string(data)
}

// AnalyzeHex decodes a hex encoded packet for the device in opts.
func AnalyzeHex(ctx context.Context, raw string, opts AnalyzeOptions) (Result, error) {
	dec, pulsesPerKWh, err := opts.toInternal(ctx)
	if err != nil {
		return Result{}, err
	}
	data, err := decodeHex(raw)
	if err != nil {
		return Result{}, err
	}
	if opts.SkipCRC && len(data) == PacketLen {
		data = data[:PayloadLen]
	}

	result := Result{
		RawHex:     strings.ToUpper(stripWhitespace(raw)),
		ByteCount:  len(data),
		CRCChecked: len(data) == PacketLen,
	}
	pkt, err := dec.DecodeBytes(data)
	if err != nil {
		return result, err
	}
	result.Packet = &pkt
	result.Fields = dec.fields(pkt, pulsesPerKWh)
	return result, nil
}

func (d *Decoder) fields(pkt Packet, pulsesPerKWh uint32) map[string]any {
	fields := map[string]any{
		"_":                   "telegram",
		"id":                  internalopts.FormatSerial(d.serial),
		"meter":               meterName,
		"media":               media,
		"packet_seq":          float64(pkt.PacketSeq),
		"time_between_pulses": float64(pkt.TimeBetweenPulses),
		"pulse_count":         float64(pkt.PulseCount),
		"battery_percentage":  float64(pkt.BatteryPercentage),
		"status_hex":          fmt.Sprintf("0x%04X", pkt.Status),
		"serial":              float64(pkt.Serial),
		"total_kwh":           float64(pkt.PulseCount) / float64(pulsesPerKWh),
	}
	power, err := pkt.Power(pulsesPerKWh)
	if errors.Is(err, ErrNoPower) {
		fields["power_w_error"] = err.Error()
	} else {
		fields["power_w"] = float64(power)
	}
	return fields
}

func decodeHex(input string) ([]byte, error) {
	clean := stripWhitespace(input)
	if strings.HasPrefix(clean, "0X") || strings.HasPrefix(clean, "0x") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex packet must contain an even number of digits, got %d", len(clean))
	}
	decoded := make([]byte, len(clean)/2)
	if _, err := hex.Decode(decoded, []byte(clean)); err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded, nil
}

func stripWhitespace(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '|' || r == '_' || r == ',' {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
