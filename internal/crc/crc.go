package crc

import "github.com/sigurn/crc16"

// Sparsnäs transmitters use the CC1101 hardware CRC: polynomial 0x8005,
// initial value 0xFFFF, MSB first, no reflection and no final XOR.
var crcTable = crc16.MakeTable(crc16.Params{
	Poly:  0x8005,
	Init:  0xFFFF,
	Check: 0xAEE7,
	Name:  "CRC-16/CMS",
})

// Checksum returns the CRC over data. Packets carry it big endian after the
// 18 payload bytes.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// Valid reports whether the last two bytes of data hold the big endian
// checksum of the bytes before them.
func Valid(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	n := len(data) - 2
	return Checksum(data[:n]) == uint16(data[n])<<8|uint16(data[n+1])
}
