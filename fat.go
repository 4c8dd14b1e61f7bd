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

// loadFAT materialises the full FAT into an in-memory sid -> next-sid
// map. The source format stores the FAT "inline" across FAT sectors
// located by fatSIDs(); representing it as a map (rather than re-reading
// sectors on every chain step) lets writes mutate entries directly and
// matches spec §3's description of the FAT as "a flat map from normal
// SID to its next SID".
func (cf *CompoundFile) loadFAT() error {
	sids, err := cf.fatSIDs()
	if err != nil {
		return err
	}
	perSector := int(cf.header.sectorSize()) / 4
	fat := make(map[uint32]uint32, len(sids)*perSector)
	for _, sn := range sids {
		data, err := cf.sectorData(sn)
		if err != nil {
			return err
		}
		base := sn * uint32(perSector)
		for i := 0; i < perSector; i++ {
			fat[base+uint32(i)] = getUint32(data, i*4)
		}
	}
	cf.fat = fat
	cf.fatSectorIDs = sids
	return nil
}

// normalChain follows FAT links starting at start, returning the
// ordered list of sector ids in the chain. ENDOFCHAIN terminates it;
// a next-sid equal to the current sid, or out of range, is corrupted
// format (spec §4.3).
func (cf *CompoundFile) normalChain(start uint32) ([]uint32, error) {
	var chain []uint32
	sn := start
	seen := make(map[uint32]bool)
	for sn != endOfChain {
		if sn >= cf.sectors.len() && sn != freeSect {
			return nil, corruptedAt("sector id out of range", sn)
		}
		if seen[sn] {
			return nil, corruptedAt("cyclic sector chain", sn)
		}
		seen[sn] = true
		chain = append(chain, sn)
		next, ok := cf.fat[sn]
		if !ok {
			return nil, corruptedAt("sector id out of range", sn)
		}
		if next == sn {
			return nil, corruptedAt("cyclic sector chain", sn)
		}
		sn = next
	}
	return chain, nil
}

// freeNormalSectors scans the FAT for FREESECT entries, returning them
// in ascending order as a queue for reuse when sector recycling is on.
func (cf *CompoundFile) freeNormalSectors() []uint32 {
	var free []uint32
	for sid, next := range cf.fat {
		if next == freeSect {
			free = append(free, sid)
		}
	}
	sort.Slice(free, func(i, j int) bool { return free[i] < free[j] })
	return free
}

// freeChain walks chain, marking every entry FREESECT in the FAT
// (optionally zeroing sector bytes under the erase_free_sectors
// policy), per spec §4.6 "Free-chain".
func (cf *CompoundFile) freeChain(chain []uint32) {
	for _, sn := range chain {
		cf.fat[sn] = freeSect
		if cf.cfg.eraseFreeSectors {
			cf.sectors.get(sn).zeroData()
		}
	}
}

// adoptChain assigns fresh ids (via the sector collection) to every
// sector in chain whose id is still unassigned (-1), then threads the
// chain's FAT links. This is set_normal_chain from spec §4.3.
func (cf *CompoundFile) adoptChain(chain []*sector) []uint32 {
	ids := make([]uint32, len(chain))
	for i, s := range chain {
		if s.id < 0 {
			cf.assignSectorID(s)
		}
		ids[i] = uint32(s.id)
	}
	cf.threadFAT(ids)
	return ids
}

// assignSectorID gives s a fresh identity, preferring a freed sector id
// over growing the collection when sector recycling is enabled - the
// same policy streamView.extend (stream.go) already applies to ordinary
// stream writes, extended here to metadata chains built wholesale (the
// directory, the mini-FAT) rather than grown incrementally.
func (cf *CompoundFile) assignSectorID(s *sector) {
	if cf.cfg.sectorRecycle {
		if free := cf.freeNormalSectors(); len(free) > 0 {
			id := free[0]
			cf.sectors.get(id) // grows the collection if id lies past its end
			s.id = int32(id)
			cf.sectors.slots[id] = s
			cf.fat[id] = endOfChain // reserved: the next sector of the chain draws another id
			return
		}
	}
	cf.sectors.add(s)
}

// allocateSector returns a zeroed sector of kind, drawing from the
// free-sector queue first when sector recycling is enabled, otherwise
// growing the collection. Used for sectors built and filled in place
// (FAT/DIFAT sectors in commitAllocationTables), as opposed to assignSectorID's job of giving an identity to an
// already-filled sector built elsewhere.
func (cf *CompoundFile) allocateSector(kind sectorKind) *sector {
	if cf.cfg.sectorRecycle {
		if free := cf.freeNormalSectors(); len(free) > 0 {
			sec := cf.sectors.get(free[0])
			sec.kind = kind
			sec.zeroData()
			return sec
		}
	}
	sec := cf.sectors.get(cf.sectors.len())
	sec.kind = kind
	sec.zeroData()
	return sec
}

// threadFAT overwrites chain[i]'s FAT entry to point at chain[i+1],
// terminating the last entry with ENDOFCHAIN (set_fat_chain, spec
// §4.3). Propagation to the DIFAT/FAT sector layout itself happens in
// commitAllocationTables at Commit time, not per mutation, since
// resizing the FAT/DIFAT is only meaningful once the full set of
// dirty chains for this commit is known.
func (cf *CompoundFile) threadFAT(ids []uint32) {
	for i, id := range ids {
		if i+1 < len(ids) {
			cf.fat[id] = ids[i+1]
		} else {
			cf.fat[id] = endOfChain
		}
	}
}

// commitAllocationTables lays out the FAT and DIFAT sectors so that,
// between them, they hold exactly one entry per sector currently in
// the collection (normal/FAT/DIFAT/range-lock alike). Adding FAT or
// DIFAT sectors itself consumes sector ids which then need their own
// FAT entries, so the sizing loop runs to a fixpoint before anything
// is written (spec §4.3 set_difat_chain).
//
// The FAT/DIFAT sectors backing the previous commit (if any) are freed
// up front, before the fixpoint loop allocates replacements: otherwise
// every Commit call - even one with no stream mutations at all - would
// orphan the old metadata sectors and grow the file (spec §8's
// repeated-commit round trip).
func (cf *CompoundFile) commitAllocationTables() error {
	oldDifatIDs, err := cf.difatChain()
	if err != nil {
		return err
	}
	cf.freeChain(cf.fatSectorIDs)
	cf.freeChain(oldDifatIDs)

	perFATEntry := int(cf.header.sectorSize()) / 4
	var fatIDs, difatIDs []uint32
	for {
		total := int(cf.sectors.len())
		numFAT := (total + perFATEntry - 1) / perFATEntry
		numDIFAT := cf.neededDifatSectors(numFAT)
		if numFAT == len(fatIDs) && numDIFAT == len(difatIDs) {
			break
		}
		for len(fatIDs) < numFAT {
			sec := cf.allocateSector(sectorFAT)
			cf.fat[uint32(sec.id)] = fatSect
			fatIDs = append(fatIDs, uint32(sec.id))
		}
		for len(difatIDs) < numDIFAT {
			sec := cf.allocateSector(sectorDIFAT)
			cf.fat[uint32(sec.id)] = difatSect
			difatIDs = append(difatIDs, uint32(sec.id))
		}
	}
	// mark every FAT sector FATSECT and every DIFAT sector DIFSECT,
	// and every unused tail slot FREESECT, per spec §4.3.
	for _, id := range fatIDs {
		cf.fat[id] = fatSect
	}
	for _, id := range difatIDs {
		cf.fat[id] = difatSect
	}
	if err := cf.layoutDifat(fatIDs, difatIDs); err != nil {
		return err
	}
	cf.header.numFATSectors = uint32(len(fatIDs))
	cf.fatSectorIDs = fatIDs
	return cf.writeFATSectors(fatIDs)
}

// writeFATSectors serialises the in-memory FAT map into the on-disk
// FAT sectors listed by fatIDs.
func (cf *CompoundFile) writeFATSectors(fatIDs []uint32) error {
	perEntry := int(cf.header.sectorSize()) / 4
	for idx, sn := range fatIDs {
		sec := cf.sectors.get(sn)
		data, err := sec.getData()
		if err != nil {
			return err
		}
		base := uint32(idx * perEntry)
		for i := 0; i < perEntry; i++ {
			sid := base + uint32(i)
			next, ok := cf.fat[sid]
			if !ok {
				next = freeSect
			}
			putUint32(data, i*4, next)
		}
		sec.dirty = true
	}
	return nil
}
