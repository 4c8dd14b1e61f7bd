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

import "sort"

// loadMiniFAT builds the mini-FAT map and the ordered list of normal
// sectors backing the mini-stream (spec §3 "Mini-FAT" / §4.8 step 3).
// The mini-stream is itself a normal stream, rooted at the root
// directory entry's start sector.
func (cf *CompoundFile) loadMiniFAT() error {
	root := cf.dir[0]
	if root.startSector == endOfChain || cf.header.firstMiniFATSID == endOfChain {
		cf.miniFat = map[uint32]uint32{}
		return nil
	}
	miniFatSectors, err := cf.normalChain(cf.header.firstMiniFATSID)
	if err != nil {
		return err
	}
	perSector := int(cf.header.sectorSize()) / 4
	cf.miniFat = make(map[uint32]uint32, len(miniFatSectors)*perSector)
	for idx, sn := range miniFatSectors {
		data, err := cf.sectorData(sn)
		if err != nil {
			return err
		}
		base := uint32(idx * perSector)
		for i := 0; i < perSector; i++ {
			cf.miniFat[base+uint32(i)] = getUint32(data, i*4)
		}
	}
	cf.miniStreamChain, err = cf.normalChain(root.startSector)
	return err
}

// miniChain follows mini-FAT links starting at start, mirroring
// normalChain's cycle/overrun protection at mini-sector granularity.
func (cf *CompoundFile) miniChain(start uint32) ([]uint32, error) {
	var chain []uint32
	sn := start
	seen := make(map[uint32]bool)
	for sn != endOfChain {
		if seen[sn] {
			return nil, corruptedAt("cyclic mini sector chain", sn)
		}
		seen[sn] = true
		chain = append(chain, sn)
		next, ok := cf.miniFat[sn]
		if !ok {
			return nil, corruptedAt("mini sector id out of range", sn)
		}
		sn = next
	}
	return chain, nil
}

// miniSectorsPerNormal is how many 64-byte mini-sectors fit in one
// normal sector of the file's own sector size.
func (cf *CompoundFile) miniSectorsPerNormal() int {
	return int(cf.header.sectorSize() / miniSectorSize)
}

// miniStreamData returns the full assembled mini-stream bytes, read
// from the normal sectors backing it.
func (cf *CompoundFile) miniStreamData() ([]byte, error) {
	buf := make([]byte, 0, len(cf.miniStreamChain)*int(cf.header.sectorSize()))
	for _, sn := range cf.miniStreamChain {
		data, err := cf.sectorData(sn)
		if err != nil {
			return nil, err
		}
		buf = append(buf, data...)
	}
	return buf, nil
}

// readMiniSector slices the 64 bytes for mini-sector id out of the
// assembled mini-stream.
func (cf *CompoundFile) readMiniSector(id uint32) ([]byte, error) {
	data, err := cf.miniStreamData()
	if err != nil {
		return nil, err
	}
	off := int64(id) * int64(miniSectorSize)
	if off+int64(miniSectorSize) > int64(len(data)) {
		return make([]byte, miniSectorSize), nil
	}
	return data[off : off+int64(miniSectorSize)], nil
}

// writeMiniSector writes 64 bytes at mini-sector id back into the
// mini-stream's backing normal sectors.
func (cf *CompoundFile) writeMiniSector(id uint32, b []byte) error {
	perNormal := cf.miniSectorsPerNormal()
	normalIdx := int(id) / perNormal
	off := (int(id) % perNormal) * int(miniSectorSize)
	for normalIdx >= len(cf.miniStreamChain) {
		if err := cf.growMiniStreamBacking(); err != nil {
			return err
		}
	}
	sec := cf.sectors.get(cf.miniStreamChain[normalIdx])
	data, err := sec.getData()
	if err != nil {
		return err
	}
	copy(data[off:off+int(miniSectorSize)], b)
	sec.dirty = true
	return nil
}

// growMiniStreamBacking appends one more normal sector to the
// mini-stream's backing chain, threading it into the root entry's
// normal FAT chain.
func (cf *CompoundFile) growMiniStreamBacking() error {
	sec := newSector(cf.header.sectorSize(), nil, 0)
	sec.zeroData()
	ids := cf.adoptChain([]*sector{sec})
	newID := ids[0]
	cf.miniStreamChain = append(cf.miniStreamChain, newID)
	root := cf.dir[0]
	if root.startSector == endOfChain {
		root.startSector = newID
	} else {
		prev := cf.miniStreamChain[len(cf.miniStreamChain)-2]
		cf.fat[prev] = newID
		cf.fat[newID] = endOfChain
	}
	return nil
}

// freeMiniSectors scans the mini-FAT for FREESECT entries.
func (cf *CompoundFile) freeMiniSectors() []uint32 {
	var free []uint32
	for id, next := range cf.miniFat {
		if next == freeSect {
			free = append(free, id)
		}
	}
	sort.Slice(free, func(i, j int) bool { return free[i] < free[j] })
	return free
}

// allocateMiniSectors returns n mini-sector ids, drawing from the free
// list first (when sector_recycle is on) and otherwise appending fresh
// ids past the current mini-FAT extent.
func (cf *CompoundFile) allocateMiniSectors(n int) []uint32 {
	ids := make([]uint32, 0, n)
	if cf.cfg.sectorRecycle {
		for _, id := range cf.freeMiniSectors() {
			if len(ids) == n {
				break
			}
			ids = append(ids, id)
		}
	}
	next := uint32(len(cf.miniFat))
	for id := range cf.miniFat {
		if id >= next {
			next = id + 1
		}
	}
	for len(ids) < n {
		ids = append(ids, next)
		next++
	}
	return ids
}

// threadMiniFAT overwrites chain[i]'s mini-FAT entry to point at
// chain[i+1], terminating the last entry with ENDOFCHAIN.
func (cf *CompoundFile) threadMiniFAT(ids []uint32) {
	for i, id := range ids {
		if i+1 < len(ids) {
			cf.miniFat[id] = ids[i+1]
		} else {
			cf.miniFat[id] = endOfChain
		}
	}
}

// freeMiniChain marks every entry of chain FREESECT, including the
// tail. Spec §9's Open Question #1 directs reproducing this literal
// behaviour (a specification-correct implementation might use
// ENDOFCHAIN for a freed tail) because existing CFB callers depend on
// the all-FREESECT result.
func (cf *CompoundFile) freeMiniChain(chain []uint32) {
	for _, id := range chain {
		cf.miniFat[id] = freeSect
	}
}

// commitMiniFAT serialises the in-memory mini-FAT map into the
// mini-FAT's own normal sector chain, allocating/freeing normal
// sectors for that chain as its size changes. The chain backing the
// previous commit's mini-FAT is freed first, so a Commit that leaves
// the mini-FAT unchanged (or empties it) doesn't orphan those sectors.
func (cf *CompoundFile) commitMiniFAT() error {
	if cf.header.firstMiniFATSID != endOfChain {
		oldChain, err := cf.normalChain(cf.header.firstMiniFATSID)
		if err != nil {
			return err
		}
		cf.freeChain(oldChain)
	}
	if len(cf.miniFat) == 0 {
		cf.header.firstMiniFATSID = endOfChain
		cf.header.numMiniFATSectors = 0
		return nil
	}
	perSector := int(cf.header.sectorSize()) / 4
	maxID := uint32(0)
	for id := range cf.miniFat {
		if id+1 > maxID {
			maxID = id + 1
		}
	}
	numSectors := (int(maxID) + perSector - 1) / perSector
	sectors := make([]*sector, numSectors)
	for i := range sectors {
		sectors[i] = newSector(cf.header.sectorSize(), nil, 0)
		sectors[i].zeroData()
	}
	ids := cf.adoptChain(sectors)
	for idx, sn := range ids {
		sec := cf.sectors.get(sn)
		data, err := sec.getData()
		if err != nil {
			return err
		}
		base := uint32(idx * perSector)
		for i := 0; i < perSector; i++ {
			sid := base + uint32(i)
			next, ok := cf.miniFat[sid]
			if !ok {
				next = freeSect
			}
			putUint32(data, i*4, next)
		}
		sec.dirty = true
	}
	cf.header.firstMiniFATSID = ids[0]
	cf.header.numMiniFATSectors = uint32(len(ids))
	return nil
}
