package sparsnas

import (
	"context"
	"fmt"

	internalopts "github.com/wanders/sparsnasdecode/internal/options"
)

// AnalyzeOptions configures AnalyzeHex.
type AnalyzeOptions struct {
	// Serial is the label serial, nnn-nnn-nnn.
	Serial string
	// PulsesPerKWh defaults to 1000.
	PulsesPerKWh uint32
	// SkipCRC decodes only the first 18 bytes and ignores any checksum.
	SkipCRC bool
}

func (opts AnalyzeOptions) toInternal(ctx context.Context) (*Decoder, uint32, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	serial, err := internalopts.ParseSerial(opts.Serial)
	if err != nil {
		return nil, 0, fmt.Errorf("serial: %w", err)
	}
	return New(serial), internalopts.PulsesPerKWh(opts.PulsesPerKWh), nil
}
