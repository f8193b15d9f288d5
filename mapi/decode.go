package mapi

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Little-endian integer extraction for property records and named-
// property substreams (spec §4.A). cfb's equivalents are unexported,
// so this package keeps its own small copy rather than reach across
// the package boundary.
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

func i32le(b []byte) int32 { return int32(u32le(b)) }
func i64le(b []byte) int64 { return int64(u64le(b)) }

// filetimeEpochDelta is the number of 100-ns ticks between the
// FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const filetimeEpochDelta = 116444736000000000

// filetimeToUnix converts a Windows FILETIME (100-ns ticks since
// 1601-01-01 UTC) to a UTC time.Time using pure 64-bit integer
// arithmetic, per spec §9 ("do not convert via floating point").
func filetimeToUnix(ft int64) time.Time {
	secs := (ft - filetimeEpochDelta) / 10000000
	nsecRemainder := (ft - filetimeEpochDelta) % 10000000
	return time.Unix(secs, nsecRemainder*100).UTC()
}

var utf16leDecoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// decodeString turns a raw UTF-16LE byte run (PtypString substream
// payload) into a Go string, trimming a single trailing NUL pair if
// present. Uses golang.org/x/text rather than a hand-rolled utf16
// walker, the way laenix-ewfgo and yamitzky-xlrd-go decode legacy
// document text (SPEC_FULL.md §4).
func decodeString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if len(b) >= 2 && b[len(b)-2] == 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-2]
	}
	out, _, err := transform.Bytes(utf16leDecoder, b)
	if err != nil {
		return ""
	}
	return string(out)
}

// substreamName builds the "__substg1.0_TTTTYYYY" name for a (tag,
// type) pair, per spec §3 (example: tag 0x100C, type Binary ->
// "__substg1.0_100C0102").
func substreamName(tag, typ uint16) string {
	return fmt.Sprintf("%s%04X%04X", substgPrefix, tag, typ)
}
