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
	signature    uint64 = 0xE11AB1A1E011CFD0
	byteOrderLE  uint16 = 0xFFFE
	headerLen    int    = 512
	numInlineDifats = 109
)

const (
	maxRegSect uint32 = 0xFFFFFFFA
	difatSect  uint32 = 0xFFFFFFFC
	fatSect    uint32 = 0xFFFFFFFD
	endOfChain uint32 = 0xFFFFFFFE
	freeSect   uint32 = 0xFFFFFFFF
	noStream   uint32 = 0xFFFFFFFF
)

const (
	miniSectorShift      uint16 = 6
	miniSectorSize       uint32 = 64
	defaultMiniCutoff    uint64 = 4096
	dirEntrySize         uint32 = 128
	v3RangeLockThreshold int64  = 0x7FFFFF0
)

// header mirrors the 512-byte (v3) / sector-padded (v4) CFB header
// described in spec §3. Unexported struct fields are decoded directly
// off the byte layout; inlineDifats holds only the 109 inline DIFAT
// entries (overflow DIFAT sectors are read by fatSIDs in difat.go).
type header struct {
	majorVersion      uint16
	minorVersion      uint16
	sectorShift       uint16
	miniSectorShift   uint16
	numDirSectors     uint32 // v4 only; 0 for v3
	numFATSectors     uint32
	firstDirSID       uint32
	miniStreamCutoff  uint64
	firstMiniFATSID   uint32
	numMiniFATSectors uint32
	firstDIFATSID     uint32
	numDIFATSectors   uint32
	inlineDifats      [numInlineDifats]uint32
}

func (h *header) sectorSize() uint32 { return 1 << h.sectorShift }

// readHeader validates and decodes the fixed-size header from the
// first headerLen bytes of buf (spec §4.2).
func readHeader(buf []byte) (*header, error) {
	if len(buf) < headerLen {
		return nil, corrupted("truncated header")
	}
	if getUint64(buf, 0) != signature {
		return nil, corrupted("bad magic signature")
	}
	if getUint16(buf, 28) != byteOrderLE {
		return nil, corrupted("bad byte order mark")
	}
	h := &header{
		minorVersion:    getUint16(buf, 24),
		majorVersion:    getUint16(buf, 26),
		sectorShift:     getUint16(buf, 30),
		miniSectorShift: getUint16(buf, 32),
	}
	if h.majorVersion != 3 && h.majorVersion != 4 {
		return nil, ErrUnsupportedVersion
	}
	if h.majorVersion == 3 && h.sectorShift != 9 {
		return nil, corrupted("v3 sector shift must be 9")
	}
	if h.majorVersion == 4 && h.sectorShift != 12 {
		return nil, corrupted("v4 sector shift must be 12")
	}
	h.numDirSectors = getUint32(buf, 40)
	h.numFATSectors = getUint32(buf, 44)
	h.firstDirSID = getUint32(buf, 48)
	h.miniStreamCutoff = uint64(getUint32(buf, 56))
	h.firstMiniFATSID = getUint32(buf, 60)
	h.numMiniFATSectors = getUint32(buf, 64)
	h.firstDIFATSID = getUint32(buf, 68)
	h.numDIFATSectors = getUint32(buf, 72)
	for i := 0; i < numInlineDifats; i++ {
		h.inlineDifats[i] = getUint32(buf, 76+i*4)
	}
	return h, nil
}

// writeHeader serialises h into a headerLen (or sector-sized, for v4)
// buffer, the exact inverse of readHeader (spec §4.2).
func writeHeader(h *header) []byte {
	size := headerLen
	if ss := int(h.sectorSize()); ss > size {
		size = ss
	}
	buf := make([]byte, size)
	putUint64(buf, 0, signature)
	putUint16(buf, 24, h.minorVersion)
	putUint16(buf, 26, h.majorVersion)
	putUint16(buf, 28, byteOrderLE)
	putUint16(buf, 30, h.sectorShift)
	putUint16(buf, 32, miniSectorShift)
	putUint32(buf, 40, h.numDirSectors)
	putUint32(buf, 44, h.numFATSectors)
	putUint32(buf, 48, h.firstDirSID)
	putUint32(buf, 56, uint32(h.miniStreamCutoff))
	putUint32(buf, 60, h.firstMiniFATSID)
	putUint32(buf, 64, h.numMiniFATSectors)
	putUint32(buf, 68, h.firstDIFATSID)
	putUint32(buf, 72, h.numDIFATSectors)
	for i := 0; i < numInlineDifats; i++ {
		putUint32(buf, 76+i*4, h.inlineDifats[i])
	}
	return buf
}

// newHeader builds a fresh v3 header for a newly created compound
// file: empty directory/FAT/mini-FAT, every inline DIFAT slot free.
func newHeader() *header {
	h := &header{
		majorVersion:     3,
		minorVersion:     0x003E,
		sectorShift:      9,
		miniSectorShift:  miniSectorShift,
		miniStreamCutoff: defaultMiniCutoff,
		firstDirSID:      endOfChain,
		firstMiniFATSID:  endOfChain,
		firstDIFATSID:    endOfChain,
	}
	for i := range h.inlineDifats {
		h.inlineDifats[i] = freeSect
	}
	return h
}
