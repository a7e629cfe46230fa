package frame

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/wanders/sparsnasdecode/internal/crc"
)

const (
	// PayloadLen is the number of bytes covered by the checksum.
	PayloadLen = 18
	// PacketLen is a payload followed by its big endian checksum.
	PacketLen = PayloadLen + 2
	// LengthMarker is the fixed value of byte 0 in every packet.
	LengthMarker = 17

	// BodyOffset is where the obfuscated region starts. The keystream runs
	// continuously from here to the end of the payload.
	BodyOffset = 3
	BodyLen    = PayloadLen - BodyOffset

	// SeqEchoMask selects the sequence bits repeated in clear at byte 2.
	SeqEchoMask = 0x7f
)

// ErrSize is returned for buffers that are neither a bare payload nor a
// checksummed packet.
var ErrSize = errors.New("sparsnas: packet must be 18 or 20 bytes")

// Field locates a big endian value inside the payload.
type Field struct {
	Name   string
	Offset int
	Size   int
}

var (
	Status            = Field{Name: "status", Offset: 3, Size: 2}
	Serial            = Field{Name: "serial", Offset: 5, Size: 4}
	PacketSeq         = Field{Name: "packet_seq", Offset: 9, Size: 2}
	TimeBetweenPulses = Field{Name: "time_between_pulses", Offset: 11, Size: 2}
	PulseCount        = Field{Name: "pulse_count", Offset: 13, Size: 4}
	BatteryPercentage = Field{Name: "battery_percentage", Offset: 17, Size: 1}
)

// Fields lists the obfuscated fields in wire order. Together with KeyIndex it
// mirrors the protocol table of per-field keystream positions.
var Fields = []Field{Status, Serial, PacketSeq, TimeBetweenPulses, PulseCount, BatteryPercentage}

// KeyIndex is the keystream position XORed with the first byte of the field,
// as listed in the protocol table.
func (fd Field) KeyIndex(keyLen int) int {
	return (fd.Offset - BodyOffset) % keyLen
}

// Frame is a fixed layout view over a received packet. Body holds bytes
// 3..17, obfuscated until the crypto package clears them.
type Frame struct {
	Length     byte
	Addr       byte
	SeqEcho    byte
	Body       [BodyLen]byte
	Obfuscated bool
	HasCRC     bool
	CRC        uint16
	crcValid   bool
}

// Parse splits raw into header, body and optional checksum. It does not
// validate the length marker or the checksum; callers decide the order in
// which those checks apply.
func Parse(raw []byte) (Frame, error) {
	if len(raw) != PayloadLen && len(raw) != PacketLen {
		return Frame{}, fmt.Errorf("%w, got %d", ErrSize, len(raw))
	}
	f := Frame{
		Length:     raw[0],
		Addr:       raw[1],
		SeqEcho:    raw[2],
		Obfuscated: true,
	}
	copy(f.Body[:], raw[BodyOffset:PayloadLen])
	if len(raw) == PacketLen {
		f.HasCRC = true
		f.CRC = binary.BigEndian.Uint16(raw[PayloadLen:PacketLen])
		f.crcValid = crc.Valid(raw)
	}
	return f, nil
}

// CRCValid reports whether the trailing checksum matched the payload when the
// frame was parsed. Frames without a checksum never validate.
func (f Frame) CRCValid() bool {
	return f.HasCRC && f.crcValid
}

// Uint reads fd from the body. The value is only meaningful once the body has
// been de-obfuscated.
func (f Frame) Uint(fd Field) uint32 {
	b := f.Body[fd.Offset-BodyOffset : fd.Offset-BodyOffset+fd.Size]
	switch fd.Size {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.BigEndian.Uint16(b))
	default:
		return binary.BigEndian.Uint32(b)
	}
}

// PutUint writes v into fd in big endian order, truncated to the field size.
func (f *Frame) PutUint(fd Field, v uint32) {
	b := f.Body[fd.Offset-BodyOffset : fd.Offset-BodyOffset+fd.Size]
	switch fd.Size {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(v))
	default:
		binary.BigEndian.PutUint32(b, v)
	}
}

// Payload returns the 18 bytes covered by the checksum.
func (f Frame) Payload() [PayloadLen]byte {
	var out [PayloadLen]byte
	out[0] = f.Length
	out[1] = f.Addr
	out[2] = f.SeqEcho
	copy(out[BodyOffset:], f.Body[:])
	return out
}

// Bytes serialises the frame with a freshly computed checksum.
func (f Frame) Bytes() [PacketLen]byte {
	var out [PacketLen]byte
	payload := f.Payload()
	copy(out[:], payload[:])
	binary.BigEndian.PutUint16(out[PayloadLen:], crc.Checksum(payload[:]))
	return out
}
