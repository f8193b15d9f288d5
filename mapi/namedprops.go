package mapi

import (
	"github.com/pkg/errors"

	"github.com/go-outlook/msgcfb/cfb"
)

const (
	dispatchMin = 0x8000
	dispatchMax = 0xFFFE
	baseStreamID = 0x1000
)

// namedPropEntry is one 8-byte triple from PidTagNameidStreamEntry,
// per spec §3/§4.F.
type namedPropEntry struct {
	idOrOffset uint32
	flags      uint16
	index      uint16
}

// namedPropertyMap parses the three substreams of a __nameid_version1.0
// storage and resolves dispatch ids (0x8000..0xFFFE) to substream
// names, per spec §4.F.
type namedPropertyMap struct {
	guids   [][16]byte
	entries []namedPropEntry
	strings []byte
}

// loadNamedProperties reads the nameid storage off the given storage
// (the CFB root, or an embedded message's own storage), if present. A file with no named properties (the common case) returns
// (nil, nil): named-property resolution is optional, not required.
func loadNamedProperties(r *cfb.Reader, root *cfb.DirectoryEntry) (*namedPropertyMap, error) {
	storage := r.Find(root, StorageNameid)
	if storage == nil {
		return nil, nil
	}

	guidEntry := r.Find(storage, substreamName(PidTagNameidStreamGuid, PtypBinary))
	guidData, err := r.ReadStream(guidEntry)
	if err != nil {
		return nil, errors.Wrap(err, "mapi: read named-property guid stream")
	}
	guids := make([][16]byte, 0, len(guidData)/16)
	for i := 0; i+16 <= len(guidData); i += 16 {
		var g [16]byte
		copy(g[:], guidData[i:i+16])
		guids = append(guids, g)
	}

	entryEntry := r.Find(storage, substreamName(PidTagNameidStreamEntry, PtypBinary))
	entryData, err := r.ReadStream(entryEntry)
	if err != nil {
		return nil, errors.Wrap(err, "mapi: read named-property entry stream")
	}
	entries := make([]namedPropEntry, 0, len(entryData)/8)
	for i := 0; i+8 <= len(entryData); i += 8 {
		entries = append(entries, namedPropEntry{
			idOrOffset: u32le(entryData[i : i+4]),
			flags:      u16le(entryData[i+4 : i+6]),
			index:      u16le(entryData[i+6 : i+8]),
		})
	}

	stringEntry := r.Find(storage, substreamName(PidTagNameidStreamString, PtypBinary))
	stringData, err := r.ReadStream(stringEntry)
	if err != nil {
		return nil, errors.Wrap(err, "mapi: read named-property string stream")
	}

	return &namedPropertyMap{guids: guids, entries: entries, strings: stringData}, nil
}

// nameCRC reads the length-prefixed UTF-16LE name at byte offset
// off within the string stream and returns its CRC32, per spec §4.F.
func (m *namedPropertyMap) nameCRC(off uint32) uint32 {
	if int(off)+4 > len(m.strings) {
		return 0
	}
	size := u32le(m.strings[off : off+4])
	start := off + 4
	end := start + size
	if int(end) > len(m.strings) {
		end = uint32(len(m.strings))
	}
	return cfb.CRC32(m.strings[start:end])
}

// streamID computes the substream stream-id for dispatch id d, per
// spec §4.F's dispatch-id mapping.
func (m *namedPropertyMap) streamID(d uint16) (uint32, bool) {
	if m == nil || d < dispatchMin || d > dispatchMax {
		return 0, false
	}
	idx := int(d) - dispatchMin
	if idx < 0 || idx >= len(m.entries) {
		return 0, false
	}
	e := m.entries[idx]
	kind := e.flags & 1
	guidIndex := uint32(e.flags >> 1)

	var name uint32
	var shifted uint32
	if kind == 0 {
		name = e.idOrOffset
		shifted = guidIndex << 1
	} else {
		name = m.nameCRC(e.idOrOffset)
		shifted = (guidIndex << 1) | 1
	}
	return baseStreamID + ((name ^ shifted) % 0x1F), true
}

// substreamForDispatch returns the substream name for dispatch id d at
// property type t, per spec §4.F.
func (m *namedPropertyMap) substreamForDispatch(d uint16, t uint16) (string, bool) {
	id, ok := m.streamID(d)
	if !ok {
		return "", false
	}
	return substreamName(uint16(id), t), true
}
