package rtf

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wrap(compType [4]byte, rawSize uint32, payload []byte, crc uint32) []byte {
	out := make([]byte, 16+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(payload)+12))
	binary.LittleEndian.PutUint32(out[4:8], rawSize)
	copy(out[8:12], compType[:])
	binary.LittleEndian.PutUint32(out[12:16], crc)
	copy(out[16:], payload)
	return out
}

// literalPayload encodes s as an all-literal LZFu payload terminated
// by an explicit end-of-stream reference token, per spec §4.I.
func literalPayload(s []byte) []byte {
	var payload bytes.Buffer
	n := len(s)
	full := n / 8
	for g := 0; g < full; g++ {
		payload.WriteByte(0x00) // 8 literal bits
		payload.Write(s[g*8 : g*8+8])
	}
	rem := n % 8
	tailStart := full * 8
	finalControl := byte(1 << uint(rem))
	payload.WriteByte(finalControl)
	payload.Write(s[tailStart:])
	endOffset := preludeSize + n
	var tok [2]byte
	binary.BigEndian.PutUint16(tok[:], uint16(endOffset<<4))
	payload.Write(tok[:])
	return payload.Bytes()
}

func TestDecompressUncompressedMELA(t *testing.T) {
	s := []byte("hello world, this body has no compression applied")
	wrapped := wrap(uncompressedType, uint32(len(s)), s, 0)
	out, err := Decompress(wrapped)
	require.NoError(t, err)
	assert.Equal(t, s, out)
}

func TestDecompressLiteralLZFuRoundTrip(t *testing.T) {
	s := []byte("a literal-only compressed rtf payload, no back references")
	payload := literalPayload(s)
	crc := crc32.ChecksumIEEE(payload)
	wrapped := wrap(compressedType, uint32(len(s)), payload, crc)

	out, err := Decompress(wrapped)
	require.NoError(t, err)
	assert.Equal(t, s, out)
}

func TestDecompressBackReferenceIntoPrelude(t *testing.T) {
	// One control byte: bit0 = back-reference copying 4 bytes from
	// dictionary offset 0 (the start of the seeded prelude), bit1 =
	// end-of-stream marker.
	var payload bytes.Buffer
	payload.WriteByte(0x03)
	var copyTok [2]byte
	binary.BigEndian.PutUint16(copyTok[:], uint16(0<<4|2)) // offset 0, length 2 -> actualLength 4
	payload.Write(copyTok[:])
	var endTok [2]byte
	binary.BigEndian.PutUint16(endTok[:], uint16((preludeSize+4)<<4))
	payload.Write(endTok[:])

	crc := crc32.ChecksumIEEE(payload.Bytes())
	wrapped := wrap(compressedType, 4, payload.Bytes(), crc)

	out, err := Decompress(wrapped)
	require.NoError(t, err)
	assert.Equal(t, []byte(prelude[:4]), out)
}

func TestDecompressBadCrc(t *testing.T) {
	s := []byte("flip one bit of this and the CRC must no longer validate")
	payload := literalPayload(s)
	crc := crc32.ChecksumIEEE(payload)
	payload[0] ^= 0x01 // corrupt a single bit after computing the CRC
	wrapped := wrap(compressedType, uint32(len(s)), payload, crc)

	_, err := Decompress(wrapped)
	require.Error(t, err)
	rtfErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, BadRtfCrc, rtfErr.Kind())
}

func TestDecompressUnknownCompressionType(t *testing.T) {
	wrapped := wrap([4]byte{'X', 'X', 'X', 'X'}, 0, []byte{}, 0)
	_, err := Decompress(wrapped)
	require.Error(t, err)
	rtfErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, UnknownRtfCompression, rtfErr.Kind())
}

func TestDecompressRejectsShortInput(t *testing.T) {
	_, err := Decompress(make([]byte, 8))
	require.Error(t, err)
	rtfErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, BadRtfHeader, rtfErr.Kind())
}
