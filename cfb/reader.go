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

// Package cfb implements a read-only reader for Microsoft's Compound
// File Binary format (MS-CFB), the OLE2 container that backs .msg,
// .doc, .xls and similar files.
//
// Example:
//
//	f, _ := os.Open("test/test.msg")
//	defer f.Close()
//	src, _ := cfb.NewFileSource(f)
//	r, err := cfb.Open(src)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, child := range r.Children(r.Root()) {
//		fmt.Println(child.Name, child.Size)
//	}
package cfb

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Source is the random-access, read-only byte source the core
// parsers consume: absolute-offset reads with a known total size, and
// — unlike io.ReadSeeker — no shared seek-position state, so the same
// Source can safely back concurrent Readers over sub-storages (spec
// §5/§6).
type Source interface {
	io.ReaderAt
	Size() int64
}

type memorySource struct {
	b []byte
}

func (m *memorySource) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(m.b).ReadAt(p, off)
}

func (m *memorySource) Size() int64 { return int64(len(m.b)) }

// NewMemorySource wraps an in-memory byte slice as a Source. Use this
// for small files, slurped whole.
func NewMemorySource(b []byte) Source {
	return &memorySource{b: b}
}

type fileSource struct {
	f    *os.File
	size int64
}

func (fs *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return fs.f.ReadAt(p, off)
}

func (fs *fileSource) Size() int64 { return fs.size }

// NewFileSource wraps an *os.File as a Source, for files too large to
// comfortably slurp into memory.
func NewFileSource(f *os.File) (Source, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "cfb: stat file source")
	}
	return &fileSource{f: f, size: fi.Size()}, nil
}

// Reader provides random access to the directory tree and streams of
// a compound file. All of its exported views borrow slices from the
// Source and must not outlive it.
type Reader struct {
	src        Source
	header     *header
	entries    []*DirectoryEntry
	miniStream []byte
}

// Open parses the header, allocation tables, directory tree and
// mini-stream of a compound file, in that order, per spec §2's data
// flow (header → FAT/mini-FAT → directory → streams). Every assertion
// in spec §4 is enforced here; nothing is read lazily past this point
// except stream payloads themselves.
func Open(src Source) (*Reader, error) {
	r := &Reader{src: src}

	buf, err := r.readAt(0, lenHeader)
	if err != nil {
		return nil, errors.Wrap(err, "cfb: read header")
	}
	h, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}
	r.header = h

	if err := r.assembleDifat(); err != nil {
		return nil, errors.Wrap(err, "cfb: assemble DIFAT")
	}
	if err := r.assembleFat(); err != nil {
		return nil, errors.Wrap(err, "cfb: assemble FAT")
	}
	if err := r.assembleMiniFat(); err != nil {
		return nil, errors.Wrap(err, "cfb: assemble mini-FAT")
	}
	if err := r.setDirEntries(); err != nil {
		return nil, errors.Wrap(err, "cfb: read directory")
	}
	if err := r.setMiniStream(); err != nil {
		return nil, errors.Wrap(err, "cfb: read mini-stream")
	}
	return r, nil
}

// readAt is a read-exact helper over the Source: short reads (other
// than a clean io.EOF after a full read) are surfaced as errors.
func (r *Reader) readAt(offset int64, length int) ([]byte, error) {
	buf := make([]byte, length)
	n, err := r.src.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "cfb: read %d bytes at %d", length, offset)
	}
	if n < length {
		return nil, errors.Errorf("cfb: short read at %d: wanted %d, got %d", offset, length, n)
	}
	return buf, nil
}

// SectorSize returns the regular sector size (512 or 4096).
func (r *Reader) SectorSize() uint32 { return r.header.sectorSize }

// MiniSectorSize returns the mini-sector size (64 in practice).
func (r *Reader) MiniSectorSize() uint32 { return r.header.miniSector }

// MiniStreamCutoff returns the size below which a stream is stored in
// the mini-stream rather than in regular FAT sectors.
func (r *Reader) MiniStreamCutoff() uint32 { return r.header.miniCutoff }

// FatSectorCount returns the number of regular FAT sectors, per the
// DIFAT-length invariant in spec §8.
func (r *Reader) FatSectorCount() int { return len(r.header.difats) }
