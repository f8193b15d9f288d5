// Package mapi implements the MAPI property model layered over a CFB
// container (Microsoft [MS-OXMSG]): named-property resolution, the
// fixed-width property stream, and the message/recipient/attachment
// façade that composes them.
package mapi

import "fmt"

// Kind classifies a MAPI-layer structural failure, mirroring cfb.Kind's
// shape (spec §7).
type Kind int

const (
	_ Kind = iota
	NoPropertyStream
	BadProperty
)

var kindNames = map[Kind]string{
	NoPropertyStream: "no property stream",
	BadProperty:      "bad property",
}

// Error reports a MAPI structural failure together with the tag or
// offset that triggered it.
type Error struct {
	typ int
	msg string
	val int64
}

func (e Error) Error() string {
	return fmt.Sprintf("mapi: %s; %s: %d", kindNames[Kind(e.typ)], e.msg, e.val)
}

func (e Error) Kind() Kind { return Kind(e.typ) }

func newErr(k Kind, val int64, msg string) error {
	return Error{typ: int(k), msg: msg, val: val}
}
