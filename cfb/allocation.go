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

const (
	maxRegSect uint32 = 0xFFFFFFFA
	difSect    uint32 = 0xFFFFFFFC
	fatSect    uint32 = 0xFFFFFFFD
	endOfChain uint32 = 0xFFFFFFFE
	freeSect   uint32 = 0xFFFFFFFF
)

// regularOffset locates regular sector n: (n+1) * sectorSize, per
// spec §3.
func (h *header) regularOffset(n uint32) int64 {
	return int64(n+1) * int64(h.sectorSize)
}

// assembleDifat builds the full DIFAT array: the 109 header-embedded
// entries, followed by whatever the DIFAT sector chain contributes.
// Each DIFAT sector holds (sectorSize/4 - 1) entries followed by a
// next-sector pointer in its last 4 bytes. The chain's next-pointer
// lives inside the sector's own bytes rather than a separate table, so
// it can't be walked through walkChain/chainNext directly; the same
// cycle and reserved-value guards are applied by hand here, the way
// collectChildren guards the sibling walk (spec §9).
func (r *Reader) assembleDifat() error {
	h := r.header
	h.difats = append(h.difats[:0], h.initialDifats[:]...)
	entriesPerSector := int(h.sectorSize/4) - 1
	seen := make(map[uint32]bool)
	sn := h.firstDifat
	if h.difatSize == 0 {
		sn = endOfChain
	}
	for sn != endOfChain {
		switch sn {
		case freeSect, fatSect, difSect:
			return newErr(BadChain, int64(sn), "reserved value mid-DIFAT-chain")
		}
		if seen[sn] {
			return newErr(BadChain, int64(sn), "DIFAT chain cycle detected")
		}
		seen[sn] = true
		buf, err := r.readAt(h.regularOffset(sn), int(h.sectorSize))
		if err != nil {
			return err
		}
		for i := 0; i < entriesPerSector; i++ {
			h.difats = append(h.difats, u32le(buf[i*4:i*4+4]))
		}
		sn = u32le(buf[entriesPerSector*4:])
	}
	// Valid FAT sector locators always occupy the front of the
	// assembled array; anything beyond fat_size is FREESECT padding
	// in the header's 109 embedded slots. Trimming here keeps the
	// DIFAT length equal to fat_size, per spec §8's quantified
	// invariant.
	if int(h.fatSize) <= len(h.difats) {
		h.difats = h.difats[:h.fatSize]
	}
	return nil
}

// assembleFat reads every regular FAT sector named by the DIFAT and
// concatenates them, in DIFAT order, into one flat sector-chain array.
func (r *Reader) assembleFat() error {
	h := r.header
	h.fat = h.fat[:0]
	entries := h.sectorSize / 4
	for _, sn := range h.difats {
		if sn > maxRegSect {
			continue
		}
		buf, err := r.readAt(h.regularOffset(sn), int(h.sectorSize))
		if err != nil {
			return err
		}
		for i := uint32(0); i < entries; i++ {
			h.fat = append(h.fat, u32le(buf[i*4:i*4+4]))
		}
	}
	return nil
}

// assembleMiniFat walks the mini-FAT's own chain through the (already
// assembled) regular FAT, concatenating its sectors the same way. The
// chain is resolved up front via walkChain, which bounds it against
// cycles the way the directory's sibling walk does (spec §9), rather
// than chasing chainNext one hop at a time with no iteration bound.
func (r *Reader) assembleMiniFat() error {
	h := r.header
	h.miniFat = h.miniFat[:0]
	if h.miniFatSect == endOfChain {
		return nil
	}
	chain, err := walkChain(h.fat, h.miniFatSect)
	if err != nil {
		return err
	}
	entries := h.sectorSize / 4
	for _, sn := range chain {
		buf, err := r.readAt(h.regularOffset(sn), int(h.sectorSize))
		if err != nil {
			return err
		}
		for i := uint32(0); i < entries; i++ {
			h.miniFat = append(h.miniFat, u32le(buf[i*4:i*4+4]))
		}
	}
	return nil
}

// chainNext returns the next sector in a chain, rejecting reserved
// values encountered mid-chain as corruption (spec §4.C).
func chainNext(table []uint32, sn uint32) (uint32, error) {
	if int(sn) >= len(table) {
		return 0, newErr(BadChain, int64(sn), "sector number out of range")
	}
	next := table[sn]
	switch next {
	case freeSect, fatSect, difSect:
		return 0, newErr(BadChain, int64(sn), "reserved value mid-chain")
	}
	return next, nil
}

// walkChain yields every sector number in the chain starting at sn,
// in order, stopping at ENDOFCHAIN. It guards against cycles by
// bounding the walk at len(table)+1 hops.
func walkChain(table []uint32, sn uint32) ([]uint32, error) {
	if sn == endOfChain {
		return nil, nil
	}
	out := make([]uint32, 0, 16)
	seen := 0
	for sn != endOfChain {
		out = append(out, sn)
		seen++
		if seen > len(table)+1 {
			return nil, newErr(BadChain, int64(sn), "chain exceeds file bounds")
		}
		next, err := chainNext(table, sn)
		if err != nil {
			return nil, err
		}
		sn = next
	}
	return out, nil
}
