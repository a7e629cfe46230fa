package crypto

import (
	"encoding/binary"

	"github.com/wanders/sparsnasdecode/internal/frame"
)

// KeyLen is the keystream length in bytes.
const KeyLen = 5

const (
	keyLead byte   = 0x47
	xorBase uint32 = 0x8AEF9335
)

// Key is the per-device XOR keystream.
type Key [KeyLen]byte

// NewKey derives the keystream from the full device serial. The addition
// wraps at 32 bits.
func NewKey(serial uint32) Key {
	var base [4]byte
	binary.LittleEndian.PutUint32(base[:], serial+xorBase)
	return Key{keyLead, base[2], base[3], base[0], base[1]}
}

// XOR combines src with the keystream starting at key position index and
// writes the result to dst. dst and src may overlap exactly.
func (k Key) XOR(dst, src []byte, index int) {
	for i, b := range src {
		dst[i] = b ^ k[(index+i)%KeyLen]
	}
}

// Deobfuscate clears the frame body in place. Frames already in clear are
// left untouched.
func Deobfuscate(f *frame.Frame, key Key) {
	if !f.Obfuscated {
		return
	}
	key.XOR(f.Body[:], f.Body[:], 0)
	f.Obfuscated = false
}

// Obfuscate is the transmitter side of Deobfuscate.
func Obfuscate(f *frame.Frame, key Key) {
	if f.Obfuscated {
		return
	}
	key.XOR(f.Body[:], f.Body[:], 0)
	f.Obfuscated = true
}
