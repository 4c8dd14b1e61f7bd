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
	"strings"
	"unicode"
	"unicode/utf16"

	xunicode "golang.org/x/text/encoding/unicode"
)

const (
	maxNameChars   = 31
	rawNameSlots   = 32 // uint16 slots in the on-disk name field
	invalidNameChr = `\/:!`
)

// utf16LE is the directory-entry name codec. CFB names are UTF-16LE
// (spec §6.1); rather than hand-roll the encode/decode this reuses
// golang.org/x/text/encoding/unicode, the same package
// tkuchiki-go-xls's BIFF8 writer reaches for to emit UTF-16LE strings
// in a legacy MS binary format.
var utf16LE = xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM)

// validateName enforces spec §6.1's name rules: 1-31 characters,
// none of \ / : !.
func validateName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if len([]rune(name)) > maxNameChars {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, invalidNameChr) {
		return ErrInvalidName
	}
	return nil
}

// encodeName validates and converts name into the on-disk
// representation: a 32 x uint16 buffer (UTF-16LE, null-padded) and the
// byte count (including the null terminator) stored in the entry's
// nameLength field.
func encodeName(name string) (raw [rawNameSlots]uint16, nameLength uint16, err error) {
	if err = validateName(name); err != nil {
		return
	}
	b, encErr := utf16LE.NewEncoder().Bytes([]byte(name))
	if encErr != nil {
		err = ErrInvalidName
		return
	}
	units := len(b) / 2
	if units > maxNameChars {
		err = ErrInvalidName
		return
	}
	for i := 0; i < units; i++ {
		raw[i] = getUint16(b, i*2)
	}
	nameLength = uint16((units + 1) * 2) // +1 for the null terminator
	return
}

// decodeName is the inverse of encodeName: reads nlen/2-1 uint16 code
// units out of raw and returns the decoded string. Mirrors the
// teacher's setDirEntries, which slices RawName by NameLength/2-1
// before handing it to utf16.Decode, but round-trips through the same
// x/text codec used to encode.
func decodeName(raw [rawNameSlots]uint16, nameLength uint16) string {
	if nameLength < 2 {
		return ""
	}
	n := int(nameLength/2) - 1
	if n <= 0 || n > rawNameSlots {
		return ""
	}
	b := make([]byte, n*2)
	for i := 0; i < n; i++ {
		putUint16(b, i*2, raw[i])
	}
	s, err := utf16LE.NewDecoder().Bytes(b)
	if err != nil {
		// fall back to the stdlib decoder rather than surface a
		// directory name as an error; this only triggers on
		// malformed/corrupted name bytes.
		return string(utf16.Decode(raw[:n]))
	}
	return string(s)
}

// compareNames implements the CFB directory ordering rule (spec §3,
// "Name ordering"): shorter names (by UTF-16 byte length) always sort
// before longer ones, regardless of content; names of equal length are
// compared by their upper-cased UTF-16 code unit sequence. This is
// non-obvious and every balanced-tree insert/lookup must use it.
func compareNames(a, b string) int {
	au, bu := utf16.Encode([]rune(a)), utf16.Encode([]rune(b))
	if len(au) != len(bu) {
		if len(au) < len(bu) {
			return -1
		}
		return 1
	}
	au, bu = upperUnits(au), upperUnits(bu)
	for i := range au {
		if au[i] != bu[i] {
			if au[i] < bu[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func upperUnits(u []uint16) []uint16 {
	runes := utf16.Decode(u)
	for i, r := range runes {
		runes[i] = unicode.ToUpper(r)
	}
	return utf16.Encode(runes)
}
