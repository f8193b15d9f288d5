// Copyright 2013 Richard Lehane. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cfb

import (
	"bytes"
	"encoding/binary"
)

const lenHeader = 512

var headerSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

var nullClsid [16]byte

// header holds the parsed and validated 512-byte CFB header plus the
// allocation tables derived from it.
type header struct {
	majorVersion uint16
	sectorSize   uint32 // 512 or 4096
	miniSector   uint32 // always 64 in practice, but read from the wire per spec §4.B
	fatSize      uint32
	dirSector    uint32
	miniCutoff   uint32
	miniFatSect  uint32
	miniFatSize  uint32
	firstDifat   uint32
	difatSize    uint32

	initialDifats [109]uint32

	difats         []uint32 // assembled DIFAT (component C)
	fat            []uint32 // assembled FAT
	miniFat        []uint32 // assembled mini-FAT
	miniStreamLocs []uint32 // regular-sector chain backing the mini-stream
}

func parseHeader(b []byte) (*header, error) {
	if len(b) < lenHeader {
		return nil, newErr(BadSignature, int64(len(b)), "header truncated")
	}
	if !bytes.Equal(b[0:8], headerSignature) {
		return nil, newErr(BadSignature, 0, "unexpected magic")
	}
	if !bytes.Equal(b[8:24], nullClsid[:]) {
		return nil, newErr(BadClsid, 8, "root clsid must be zero")
	}
	if byteOrder := u16le(b[28:30]); byteOrder != 0xFFFE {
		return nil, newErr(BadByteOrder, 28, "expected FE FF")
	}

	major := u16le(b[26:28])
	if major != 3 && major != 4 {
		return nil, newErr(BadVersion, 26, "major version must be 3 or 4")
	}

	sectorShift := u16le(b[30:32])
	sectorSize := uint32(1) << sectorShift
	switch major {
	case 3:
		if sectorSize != 512 {
			return nil, newErr(BadSectorSize, 30, "version 3 requires 512 byte sectors")
		}
	case 4:
		if sectorSize != 4096 {
			return nil, newErr(BadSectorSize, 30, "version 4 requires 4096 byte sectors")
		}
	}

	h := &header{
		majorVersion: major,
		sectorSize:   sectorSize,
		miniSector:   uint32(1) << u32le(b[32:36]),
		fatSize:      u32le(b[44:48]),
		dirSector:    u32le(b[48:52]),
		miniCutoff:   u32le(b[56:60]),
		miniFatSect:  u32le(b[60:64]),
		miniFatSize:  u32le(b[64:68]),
		firstDifat:   u32le(b[68:72]),
		difatSize:    u32le(b[72:76]),
	}
	for i := 0; i < 109; i++ {
		off := 76 + i*4
		h.initialDifats[i] = binary.LittleEndian.Uint32(b[off : off+4])
	}
	return h, nil
}
