// Package rtf decompresses the LZFu/MELA compressed-RTF wrapper used
// for MAPI RTF bodies (Microsoft [MS-OXRTFCP]).
package rtf

import "fmt"

// Kind classifies a compressed-RTF structural failure (spec §7).
type Kind int

const (
	_ Kind = iota
	BadRtfHeader
	BadRtfCrc
	UnknownRtfCompression
	BadRtfToken
)

var kindNames = map[Kind]string{
	BadRtfHeader:          "bad rtf header",
	BadRtfCrc:              "bad rtf crc",
	UnknownRtfCompression: "unknown rtf compression",
	BadRtfToken:           "bad rtf token",
}

// Error reports a compressed-RTF decode failure together with the
// offending byte offset.
type Error struct {
	typ int
	msg string
	val int64
}

func (e Error) Error() string {
	return fmt.Sprintf("rtf: %s; %s: %d", kindNames[Kind(e.typ)], e.msg, e.val)
}

func (e Error) Kind() Kind { return Kind(e.typ) }

func newErr(k Kind, val int64, msg string) error {
	return Error{typ: int(k), msg: msg, val: val}
}
