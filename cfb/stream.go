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

// miniOffset locates mini-sector n inside the (already materialised)
// mini-stream byte buffer.
func (h *header) miniOffset(n uint32) int64 {
	return int64(n) * int64(h.miniSector)
}

// setMiniStream materialises the root entry's byte content — the
// mini-stream — by walking its regular-sector FAT chain once. Streams
// below the cutoff are later read out of this buffer instead of the
// file.
func (r *Reader) setMiniStream() error {
	root := r.Root()
	if root == nil || root.StartSect == endOfChain || r.header.miniFatSect == endOfChain {
		return nil
	}
	chain, err := walkChain(r.header.fat, root.StartSect)
	if err != nil {
		return err
	}
	buf := make([]byte, 0, len(chain)*int(r.header.sectorSize))
	for _, sn := range chain {
		sect, err := r.readAt(r.header.regularOffset(sn), int(r.header.sectorSize))
		if err != nil {
			return err
		}
		buf = append(buf, sect...)
	}
	if uint64(len(buf)) > root.Size {
		buf = buf[:root.Size]
	}
	r.miniStream = buf
	return nil
}

// region is a contiguous run within a stream's backing store: either a
// file offset (regular sectors) or an offset into the materialised
// mini-stream buffer.
type region struct {
	offset int64
	length int64
}

// compressChain merges adjacent regions into longer runs, the way the
// teacher's streams.go does before issuing reads — fewer, larger I/O
// calls for a stream made of contiguous sectors.
func compressChain(locs []region) []region {
	out := locs[:0:0]
	out = append(out, locs...)
	for i := 0; i < len(out)-1; {
		if out[i].offset+out[i].length == out[i+1].offset {
			out[i].length += out[i+1].length
			out = append(out[:i+1], out[i+2:]...)
		} else {
			i++
		}
	}
	return out
}

// ReadStream returns the full, size-truncated contents of a stream
// entry, choosing the mini-FAT/mini-stream path for small streams and
// the regular FAT otherwise (spec §4.E). It returns (nil, nil) for an
// absent entry or a zero-size stream — absence of an optional stream
// is not an error.
func (r *Reader) ReadStream(e *DirectoryEntry) ([]byte, error) {
	if e == nil || e.Size == 0 {
		return nil, nil
	}
	mini := e.Size < uint64(r.header.miniCutoff)

	var table []uint32
	var unit int64
	if mini {
		table = r.header.miniFat
		unit = int64(r.header.miniSector)
	} else {
		table = r.header.fat
		unit = int64(r.header.sectorSize)
	}

	chain, err := walkChain(table, e.StartSect)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, nil
	}

	regions := make([]region, len(chain))
	for i, sn := range chain {
		var off int64
		if mini {
			off = r.header.miniOffset(sn)
		} else {
			off = r.header.regularOffset(sn)
		}
		regions[i] = region{offset: off, length: unit}
	}
	regions = compressChain(regions)

	out := make([]byte, 0, e.Size)
	for _, reg := range regions {
		length := reg.length
		if int64(len(out))+length > int64(e.Size) {
			length = int64(e.Size) - int64(len(out))
		}
		if length <= 0 {
			break
		}
		var chunk []byte
		if mini {
			end := reg.offset + length
			if end > int64(len(r.miniStream)) {
				return nil, newErr(BadChain, reg.offset, "mini-stream read out of range")
			}
			chunk = r.miniStream[reg.offset:end]
		} else {
			chunk, err = r.readAt(reg.offset, int(length))
			if err != nil {
				return nil, err
			}
		}
		out = append(out, chunk...)
	}
	return out, nil
}
