package mapi

import (
	"math"

	"github.com/pkg/errors"

	"github.com/go-outlook/msgcfb/cfb"
)

// StorageKind tags which header layout a storage's property stream
// carries, replacing the source's conditional name-prefix sniffing
// with an explicit dispatched tag (spec §4.G, §9 "MAPI property
// storages as variants").
type StorageKind int

const (
	KindRoot StorageKind = iota
	KindEmbedded
	KindRecipient
	KindAttachment
)

// headerSize is the storage-kind header length consumed before the
// 16-byte property records begin (spec §3's storage-kind header
// table; SPEC_FULL.md §8 decision 3 keeps recipient/attachment at 8
// bytes and embedded messages at 24, both matching MS-OXMSG).
func (k StorageKind) headerSize() int {
	switch k {
	case KindRoot:
		return 32
	case KindEmbedded:
		return 24
	default:
		return 8
	}
}

// property is one 16-byte record: (ptype, tag, flags, 8-byte value),
// per spec §3.
type property struct {
	ptype uint16
	tag   uint16
	flags uint32
	value [8]byte
}

const propertyRecordSize = 16

func parseProperty(b []byte) property {
	var p property
	p.ptype = u16le(b[0:2])
	p.tag = u16le(b[2:4])
	p.flags = u32le(b[4:8])
	copy(p.value[:], b[8:16])
	return p
}

// propertyStream holds a storage's parsed header fields and property
// records, per spec §4.G.
type propertyStream struct {
	kind       StorageKind
	header     []byte
	properties []property
}

// readPropertyStream reads and parses the __properties_version1.0
// substream of storage e. Fails with NoPropertyStream if the
// substream is absent, and with BadProperty if it is shorter than its
// own storage-kind header.
func readPropertyStream(r *cfb.Reader, e *cfb.DirectoryEntry, kind StorageKind) (*propertyStream, error) {
	entry := r.Find(e, StorageProps)
	if entry == nil {
		return nil, newErr(NoPropertyStream, int64(e.Index), "missing __properties_version1.0")
	}
	raw, err := r.ReadStream(entry)
	if err != nil {
		return nil, errors.Wrap(err, "mapi: read property stream")
	}
	hsz := kind.headerSize()
	if len(raw) < hsz {
		return nil, newErr(BadProperty, int64(len(raw)), "storage header truncated")
	}
	header := raw[:hsz]
	body := raw[hsz:]
	props := make([]property, 0, len(body)/propertyRecordSize)
	for i := 0; i+propertyRecordSize <= len(body); i += propertyRecordSize {
		props = append(props, parseProperty(body[i:i+propertyRecordSize]))
	}
	return &propertyStream{kind: kind, header: header, properties: props}, nil
}

func (p *propertyStream) find(tag, typ uint16) *property {
	for i := range p.properties {
		if p.properties[i].tag == tag && p.properties[i].ptype == typ {
			return &p.properties[i]
		}
	}
	return nil
}

// integer32 returns the inline int32 value plus the companion
// payload-size/reference word, per spec §4.G.
func (p *propertyStream) integer32(tag uint16) (int32, uint32, bool) {
	prop := p.find(tag, PtypInteger32)
	if prop == nil {
		return 0, 0, false
	}
	return i32le(prop.value[0:4]), u32le(prop.value[4:8]), true
}

func (p *propertyStream) int64(tag, typ uint16) (int64, bool) {
	prop := p.find(tag, typ)
	if prop == nil {
		return 0, false
	}
	return i64le(prop.value[0:8]), true
}

// float returns the little-endian IEEE-754 single-precision value
// from the first 4 bytes of a PtypFloat property, per spec §4.G.
func (p *propertyStream) float(tag uint16) (float32, bool) {
	prop := p.find(tag, PtypFloat)
	if prop == nil {
		return 0, false
	}
	return math.Float32frombits(u32le(prop.value[0:4])), true
}

// double returns the little-endian IEEE-754 double-precision value
// from the first 8 bytes of a PtypDouble property, per spec §4.G.
func (p *propertyStream) double(tag uint16) (float64, bool) {
	prop := p.find(tag, PtypDouble)
	if prop == nil {
		return 0, false
	}
	return math.Float64frombits(u64le(prop.value[0:8])), true
}

func (p *propertyStream) boolean(tag uint16) (bool, bool) {
	prop := p.find(tag, PtypBoolean)
	if prop == nil {
		return false, false
	}
	return prop.value[0] != 0, true
}

// headerField reads a little-endian u32 at the given offset within
// the storage-kind header, returning ok=false if the header is too
// short for that field (spec §4.G's embedded/root-only accessors).
func (p *propertyStream) headerField(offset int) (uint32, bool) {
	if len(p.header) < offset+4 {
		return 0, false
	}
	return u32le(p.header[offset : offset+4]), true
}

func (p *propertyStream) nextRecipientID() (uint32, bool) { return p.headerField(8) }
func (p *propertyStream) nextAttachmentID() (uint32, bool) { return p.headerField(12) }
func (p *propertyStream) numRecipients() (uint32, bool)    { return p.headerField(16) }
func (p *propertyStream) numAttachments() (uint32, bool)   { return p.headerField(20) }
