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
	"io"
	"sync"
)

// CompoundFile is the engine orchestrator: it owns the backing stream,
// header, allocation tables and flat directory vector, and ties
// together the sector/stream/tree components (spec §4.9 component 9).
// A CompoundFile is single-writer, non-reentrant (spec §5): its public
// surface provides no internal locking. Only the seek+read pairs
// against the backing stream are serialised (seekReaderAt); creating a
// sector slot and filling its buffer on first read are not, so a
// CompoundFile is not safe for concurrent use, readers included.
type CompoundFile struct {
	src   io.ReadWriteSeeker
	srcAt *seekReaderAt
	closer io.Closer

	header  *header
	sectors *sectorCollection
	fat     map[uint32]uint32
	fatSectorIDs []uint32
	miniFat map[uint32]uint32
	miniStreamChain []uint32
	dir     []*dirEntry

	cfg             config
	rangeLockSector int32
	closed          bool
}

// seekReaderAt adapts an io.ReadSeeker to io.ReaderAt by serialising
// seek+read pairs behind a single mutex for the whole stream. It does
// not guard the sector collection that the bytes are read into.
type seekReaderAt struct {
	mu sync.Mutex
	rs io.ReadSeeker
	n  int64
}

func (s *seekReaderAt) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.rs.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(s.rs, p)
}

// Open opens an existing compound file for reading (and, with
// WithMode(Update), in-place mutation) over rws (spec §6.2 `open`).
func Open(rws io.ReadWriteSeeker, opts ...Option) (*CompoundFile, error) {
	cf := &CompoundFile{cfg: defaultConfig(), rangeLockSector: -1}
	for _, o := range opts {
		o(&cf.cfg)
	}
	cf.src = rws
	if c, ok := rws.(io.Closer); ok {
		cf.closer = c
	}
	n, err := rws.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, ioError("seeking to end", err)
	}
	if _, err := rws.Seek(0, io.SeekStart); err != nil {
		return nil, ioError("seeking to start", err)
	}
	cf.srcAt = &seekReaderAt{rs: rws, n: n}

	if err := cf.load(n); err != nil {
		if cf.closer != nil {
			cf.closer.Close()
		}
		return nil, err
	}
	return cf, nil
}

// Create initialises a brand-new, empty v3 compound file over rws,
// ready for AddStorage/AddStream calls followed by Commit.
func Create(rws io.ReadWriteSeeker, opts ...Option) (*CompoundFile, error) {
	cf := &CompoundFile{cfg: defaultConfig(), rangeLockSector: -1}
	cf.cfg.mode = Update
	for _, o := range opts {
		o(&cf.cfg)
	}
	cf.src = rws
	if c, ok := rws.(io.Closer); ok {
		cf.closer = c
	}
	cf.srcAt = &seekReaderAt{rs: rws}
	cf.header = newHeader()
	cf.sectors = newSectorCollection(cf.header.sectorSize(), cf.srcAt, 0)
	cf.fat = map[uint32]uint32{}
	cf.miniFat = map[uint32]uint32{}
	root := &dirEntry{
		name:        "Root Entry",
		entryType:   typeRoot,
		left:        noStream,
		right:       noStream,
		child:       noStream,
		startSector: endOfChain,
	}
	cf.dir = []*dirEntry{root}
	return cf, nil
}

// load runs the read-side open sequence (spec §4.8): validate header,
// size the sector collection, materialise DIFAT/FAT, read the
// directory chain, then the mini-FAT/mini-stream off the root entry.
func (cf *CompoundFile) load(srcLen int64) error {
	hdrBuf := make([]byte, headerLen)
	if _, err := cf.srcAt.ReadAt(hdrBuf, 0); err != nil && err != io.EOF {
		return ioError("reading header", err)
	}
	h, err := readHeader(hdrBuf)
	if err != nil {
		return err
	}
	cf.header = h
	cf.sectors = newSectorCollection(h.sectorSize(), cf.srcAt, srcLen)
	if srcLen >= v3RangeLockThreshold {
		cf.rangeLockSector = 0 // presence only; exact id unneeded for reads
	}
	if err := cf.loadFAT(); err != nil {
		return err
	}
	if err := cf.loadDirectory(); err != nil {
		return err
	}
	return cf.loadMiniFAT()
}

// sectorData returns the materialised bytes of normal sector sn.
func (cf *CompoundFile) sectorData(sn uint32) ([]byte, error) {
	return cf.sectors.get(sn).getData()
}

// projectedLength estimates the eventual on-disk length of the file
// for range-lock-sector allocation purposes: header plus one sector
// per entry currently in the collection.
func (cf *CompoundFile) projectedLength() int64 {
	return int64(cf.header.sectorSize()) + int64(cf.sectors.len())*int64(cf.header.sectorSize())
}

// RootStorage returns a handle to the root storage (spec §6.2).
func (cf *CompoundFile) RootStorage() *Storage {
	return &Storage{cf: cf, sid: 0}
}

// GetAllNamedEntries performs a flat scan of the directory vector by
// name, independent of hierarchy (spec §6.2, §8 scenario 3).
func (cf *CompoundFile) GetAllNamedEntries(name string) []*Item {
	var out []*Item
	for sid, e := range cf.dir {
		if e.entryType == typeInvalid {
			continue
		}
		if e.name == name {
			out = append(out, newItem(cf, uint32(sid)))
		}
	}
	return out
}

// Commit writes every pending mutation back to the backing stream
// (spec §4.9, §6.2). releaseMemory, if true, drops non-dirty sector
// buffers afterward to bound peak memory (spec §5).
func (cf *CompoundFile) Commit(releaseMemory ...bool) error {
	if cf.closed {
		return ErrDisposed
	}
	if cf.cfg.mode == ReadOnly {
		return ErrInvalidOperation
	}
	if err := cf.commitMiniFAT(); err != nil {
		return err
	}
	if err := cf.commitDirectory(); err != nil {
		return err
	}
	cf.allocateRangeLockSector()
	if err := cf.commitAllocationTables(); err != nil {
		return err
	}
	if err := cf.writeDirtySectors(); err != nil {
		return err
	}
	if err := cf.writeHeaderOut(); err != nil {
		return err
	}
	if len(releaseMemory) > 0 && releaseMemory[0] {
		cf.sectors.releaseAll()
	}
	return nil
}

// writeDirtySectors serialises every dirty sector to its on-disk
// offset directly (spec §9 "Write ordering": the naive, unbuffered
// behaviour is the one this design mandates; a buffered-commit
// optimisation is an allowed but unspecified implementation detail).
func (cf *CompoundFile) writeDirtySectors() error {
	ss := int64(cf.header.sectorSize())
	for id, sec := range cf.sectors.slots {
		if sec == nil || !sec.dirty {
			continue
		}
		data, err := sec.getData()
		if err != nil {
			return err
		}
		off := ss + int64(id)*ss
		if _, err := cf.src.Seek(off, io.SeekStart); err != nil {
			return ioError("seeking to write sector", err)
		}
		if _, err := cf.src.Write(data); err != nil {
			return ioError("writing sector", err)
		}
		sec.dirty = false
	}
	return nil
}

// writeHeaderOut rewrites the header last, per spec §4.9 step 5: a
// torn write of the header is the only one that should ever signal an
// incomplete commit.
func (cf *CompoundFile) writeHeaderOut() error {
	buf := writeHeader(cf.header)
	if _, err := cf.src.Seek(0, io.SeekStart); err != nil {
		return ioError("seeking to header", err)
	}
	if _, err := cf.src.Write(buf); err != nil {
		return ioError("writing header", err)
	}
	return nil
}

// Save serialises the compound file to target instead of (or as well
// as) the stream it was opened/created over (spec §6.2 `save`).
func (cf *CompoundFile) Save(target io.ReadWriteSeeker) error {
	if cf.closed {
		return ErrDisposed
	}
	orig := cf.src
	cf.src = target
	defer func() { cf.src = orig }()
	wasReadOnly := cf.cfg.mode == ReadOnly
	cf.cfg.mode = Update
	defer func() {
		if wasReadOnly {
			cf.cfg.mode = ReadOnly
		}
	}()
	for id := range cf.sectors.slots {
		// get materialises sectors never read so far, so they are copied too
		cf.sectors.get(uint32(id)).dirty = true
	}
	return cf.Commit()
}

// Close releases the backing stream. Any error during Open's load
// sequence closes the stream before propagating, per spec §9 ("scoped
// acquisition ... guaranteed release on all exit paths").
func (cf *CompoundFile) Close() error {
	if cf.closed {
		return nil
	}
	cf.closed = true
	cf.sectors.releaseAll()
	if cf.closer != nil {
		return cf.closer.Close()
	}
	return nil
}
