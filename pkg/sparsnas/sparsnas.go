// Package sparsnas decodes packets sent by the IKEA Sparsnäs energy meter
// transmitter.
//
// The transmitter XORs its payload with a keystream derived from the serial
// number printed behind the batteries, so a Decoder is bound to one device.
package sparsnas

import (
	"errors"
	"fmt"

	"github.com/wanders/sparsnasdecode/internal/crypto"
	"github.com/wanders/sparsnasdecode/internal/frame"
)

const (
	// PayloadLen is the size of a packet without its checksum.
	PayloadLen = frame.PayloadLen
	// PacketLen is the size of a packet with its trailing checksum.
	PacketLen = frame.PacketLen

	serialModulus = 1_000_000
	// 1024 ticks/s * 3600 s/h * 1000 W/kW
	powerFactor uint64 = 3_686_400_000
)

var (
	ErrBadCRC         = errors.New("sparsnas: checksum mismatch")
	ErrBadLength      = errors.New("sparsnas: bad length marker")
	ErrBadPacketCount = errors.New("sparsnas: packet sequence does not match its echo")
	ErrBadSerial      = errors.New("sparsnas: packet is for another serial")
	ErrBufferSize     = frame.ErrSize
	ErrNoPower        = errors.New("sparsnas: power undefined for zero pulse interval")
)

// Packet is one decoded transmission.
type Packet struct {
	// PacketSeq is incremented by the transmitter for every packet.
	PacketSeq uint16
	// TimeBetweenPulses is the interval between the two latest pulses, see
	// Power.
	TimeBetweenPulses uint16
	// PulseCount counts pulses since the transmitter was powered on.
	PulseCount        uint32
	BatteryPercentage uint8
	Status            uint16
	// Serial holds the last six decimal digits of the transmitter serial.
	Serial uint32
}

// Power returns the current power usage in watts.
//
// pulsesPerKWh is the meter constant, usually 1000. A zero interval or meter
// constant yields ErrNoPower.
func (p Packet) Power(pulsesPerKWh uint32) (uint32, error) {
	div := uint64(pulsesPerKWh) * uint64(p.TimeBetweenPulses)
	if div == 0 {
		return 0, ErrNoPower
	}
	return uint32(powerFactor / div), nil
}

// String renders the packet on one line.
func (p Packet) String() string {
	return fmt.Sprintf("seq=%d serial=%06d pulses=%d interval=%d battery=%d%% status=0x%04X",
		p.PacketSeq, p.Serial, p.PulseCount, p.TimeBetweenPulses, p.BatteryPercentage, p.Status)
}

// Decoder decodes packets of a single transmitter. It is immutable and safe
// for concurrent use.
type Decoder struct {
	serial uint32
	key    crypto.Key
}

// New returns a decoder for the full nine digit serial (nnn-nnn-nnn on the
// label).
func New(serial uint32) *Decoder {
	return &Decoder{
		serial: serial,
		key:    crypto.NewKey(serial),
	}
}

// Serial returns the full serial the decoder was created for.
func (d *Decoder) Serial() uint32 { return d.serial }

// Key returns a copy of the keystream.
func (d *Decoder) Key() [crypto.KeyLen]byte { return d.key }

// Decode verifies the trailing checksum and decodes the payload.
func (d *Decoder) Decode(data *[PacketLen]byte) (Packet, error) {
	return d.DecodeBytes(data[:])
}

// DecodeNoCRC decodes a payload whose checksum was already checked, or
// stripped, by the receiver.
func (d *Decoder) DecodeNoCRC(data *[PayloadLen]byte) (Packet, error) {
	return d.DecodeBytes(data[:])
}

// DecodeBytes decodes a 20 byte packet with checksum or an 18 byte payload
// without. Other sizes fail with ErrBufferSize.
func (d *Decoder) DecodeBytes(data []byte) (Packet, error) {
	f, err := frame.Parse(data)
	if err != nil {
		return Packet{}, err
	}
	if f.HasCRC && !f.CRCValid() {
		return Packet{}, ErrBadCRC
	}
	return d.decodeFrame(&f)
}

func (d *Decoder) decodeFrame(f *frame.Frame) (Packet, error) {
	if f.Length != frame.LengthMarker {
		return Packet{}, fmt.Errorf("%w: got %d", ErrBadLength, f.Length)
	}
	crypto.Deobfuscate(f, d.key)

	pkt := Packet{
		Status:            uint16(f.Uint(frame.Status)),
		Serial:            f.Uint(frame.Serial),
		PacketSeq:         uint16(f.Uint(frame.PacketSeq)),
		TimeBetweenPulses: uint16(f.Uint(frame.TimeBetweenPulses)),
		PulseCount:        f.Uint(frame.PulseCount),
		BatteryPercentage: uint8(f.Uint(frame.BatteryPercentage)),
	}

	if byte(pkt.PacketSeq&frame.SeqEchoMask) != f.SeqEcho {
		return Packet{}, fmt.Errorf("%w: seq %d echo %d", ErrBadPacketCount, pkt.PacketSeq, f.SeqEcho)
	}
	if want := d.serial % serialModulus; pkt.Serial != want {
		return Packet{}, fmt.Errorf("%w: got %06d want %06d", ErrBadSerial, pkt.Serial, want)
	}
	return pkt, nil
}

// Encode builds the checksummed packet the transmitter would send for pkt.
// addr is copied to byte 1, which the decoder does not interpret.
func (d *Decoder) Encode(pkt Packet, addr byte) [PacketLen]byte {
	f := frame.Frame{
		Length:  frame.LengthMarker,
		Addr:    addr,
		SeqEcho: byte(pkt.PacketSeq & frame.SeqEchoMask),
	}
	f.PutUint(frame.Status, uint32(pkt.Status))
	f.PutUint(frame.Serial, pkt.Serial)
	f.PutUint(frame.PacketSeq, uint32(pkt.PacketSeq))
	f.PutUint(frame.TimeBetweenPulses, uint32(pkt.TimeBetweenPulses))
	f.PutUint(frame.PulseCount, pkt.PulseCount)
	f.PutUint(frame.BatteryPercentage, uint32(pkt.BatteryPercentage))
	crypto.Obfuscate(&f, d.key)
	return f.Bytes()
}
