package cfb

import (
	"encoding/binary"
	"hash/crc32"
	"unicode/utf16"

	"github.com/richardlehane/msoleps/types"
)

// little-endian and big-endian integer extraction. Each returns the
// zero value on empty input; callers that need to distinguish absence
// from a genuine zero check len(b) themselves, per spec §4.A.

func u16le(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func u32le(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func u64le(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func i16le(b []byte) int16 { return int16(u16le(b)) }
func i32le(b []byte) int32 { return int32(u32le(b)) }
func i64le(b []byte) int64 { return int64(u64le(b)) }

func u16be(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func u32be(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// decodeUTF16LE turns a raw UTF-16LE byte run (no BOM) into a string,
// the way the directory entry name field is decoded.
func decodeUTF16LE(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	u := make([]uint16, len(b)/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(b[i*2 : i*2+2])
	}
	return string(utf16.Decode(u))
}

// GUID formats a 16-byte wire-order GUID using the standard Microsoft
// mixed-endian convention (first three fields byte-reversed relative
// to wire order). This reuses msoleps' own GUID formatter — the
// teacher's go.mod already declares a dependency on msoleps that the
// teacher's code never exercises; this is where it earns its keep.
func GUID(b []byte) string {
	if len(b) < 16 {
		return ""
	}
	var g types.Guid
	copy(g[:], b[:16])
	return g.String()
}

// CRC32 computes the PKZIP (IEEE 802.3) polynomial checksum used to
// validate compressed-RTF payloads.
func CRC32(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}
