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

import "io"

// sectorKind tags what a normal sector is currently used for. Mini
// sectors are not represented with this type: they are byte ranges
// carved directly out of the already-materialised mini-stream (see
// minifat.go) rather than individually lazy-loaded, since a file can
// have thousands of 64-byte mini-sectors and giving each its own
// backing-stream round trip would be wasteful.
type sectorKind uint8

const (
	sectorNormal sectorKind = iota
	sectorFAT
	sectorDIFAT
	sectorDirectory
	sectorRangeLock
)

// sector is a single fixed-size unit of storage. Its bytes are
// materialised lazily: a freshly loaded sector (id >= 0, data == nil)
// is read from the backing stream on first getData call, at offset
// size + id*size (the header occupies the first `size` bytes). A
// freshly allocated sector (id == -1) has no backing and starts
// zero-filled.
type sector struct {
	id    int32
	size  uint32
	kind  sectorKind
	data  []byte
	dirty bool

	src    io.ReaderAt
	srcLen int64
}

func newSector(size uint32, src io.ReaderAt, srcLen int64) *sector {
	return &sector{id: -1, size: size, src: src, srcLen: srcLen}
}

// getData returns a mutable view of this sector's bytes, reading them
// lazily from the backing stream the first time it is called.
func (s *sector) getData() ([]byte, error) {
	if s.data != nil {
		return s.data, nil
	}
	s.data = make([]byte, s.size)
	if s.src != nil && s.id >= 0 {
		off := int64(s.size) + int64(s.id)*int64(s.size)
		if off+int64(s.size) <= s.srcLen {
			if _, err := s.src.ReadAt(s.data, off); err != nil && err != io.EOF {
				return nil, ioError("reading sector", err)
			}
			return s.data, nil
		}
	}
	return s.data, nil
}

// zeroData fills the sector with zeroes and marks it dirty.
func (s *sector) zeroData() {
	s.data = make([]byte, s.size)
	s.dirty = true
}

// releaseData drops the in-memory buffer; the next getData call
// re-reads from the backing stream. Used to bound peak memory under
// the "release memory" commit flag (spec §5).
func (s *sector) releaseData() {
	if !s.dirty {
		s.data = nil
	}
}

// sectorCollection is a sparse, growable, id-indexed container of
// sectors. It is pre-sized from the source stream's length so chain
// walks can index directly without bounds-checking every step, and
// grows as new sectors are adopted on write.
type sectorCollection struct {
	size uint32
	src  io.ReaderAt
	slots []*sector
}

// newSectorCollection sizes the collection from a backing stream of
// srcLen bytes: one slot per sector of the given size, after the
// header (spec §4.8 step 2: ceil((stream_length - sector_size) / sector_size)).
func newSectorCollection(size uint32, src io.ReaderAt, srcLen int64) *sectorCollection {
	n := 0
	if srcLen > int64(size) {
		n = int(((srcLen - int64(size)) + int64(size) - 1) / int64(size))
	}
	return &sectorCollection{size: size, src: src, slots: make([]*sector, n)}
}

// get returns the sector at id, lazily constructing a backed-but-unread
// sector the first time it is referenced.
func (c *sectorCollection) get(id uint32) *sector {
	idx := int(id)
	if idx >= len(c.slots) {
		grown := make([]*sector, idx+1)
		copy(grown, c.slots)
		c.slots = grown
	}
	if c.slots[idx] == nil {
		s := newSector(c.size, c.src, -1) // srcLen fixed up below
		s.id = int32(id)
		s.srcLen = c.sourceLen()
		c.slots[idx] = s
	}
	return c.slots[idx]
}

func (c *sectorCollection) sourceLen() int64 {
	return int64(c.size) + int64(len(c.slots))*int64(c.size)
}

// add appends s to the collection, assigning it the next free id.
// Used when a stream view extends and needs fresh sectors.
func (c *sectorCollection) add(s *sector) uint32 {
	id := uint32(len(c.slots))
	s.id = int32(id)
	c.slots = append(c.slots, s)
	return id
}

func (c *sectorCollection) len() uint32 { return uint32(len(c.slots)) }

// releaseAll drops every non-dirty sector's buffer, bounding peak
// memory (spec §5, commit's release_memory flag).
func (c *sectorCollection) releaseAll() {
	for _, s := range c.slots {
		if s != nil {
			s.releaseData()
		}
	}
}
