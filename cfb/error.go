// Copyright 2015 Richard Lehane. All rights reserved.
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

import "fmt"

// Kind classifies the structural failure reported by an Error.
type Kind int

const (
	_ Kind = iota
	BadSignature
	BadClsid
	BadByteOrder
	BadVersion
	BadSectorSize
	BadChain
	NotFound
	BadDirectoryEntry
)

var kindNames = map[Kind]string{
	BadSignature:      "bad signature",
	BadClsid:          "bad clsid",
	BadByteOrder:      "bad byte order",
	BadVersion:        "bad version",
	BadSectorSize:     "bad sector size",
	BadChain:          "bad chain",
	NotFound:          "not found",
	BadDirectoryEntry: "bad directory entry",
}

// Error reports a structural failure together with the file offset or
// directory-entry index that triggered it.
type Error struct {
	typ int
	msg string
	val int64
}

func (e Error) Error() string {
	return fmt.Sprintf("cfb: %s; %s: %d", kindNames[Kind(e.typ)], e.msg, e.val)
}

// Typ mirrors the teacher's Error.Typ() accessor; kept as a plain int
// so it composes with errors.As against third-party wrapping.
func (e Error) Typ() int {
	return e.typ
}

func (e Error) Kind() Kind {
	return Kind(e.typ)
}

func newErr(k Kind, val int64, msg string) error {
	return Error{typ: int(k), msg: msg, val: val}
}
