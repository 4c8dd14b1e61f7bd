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

// difatChain returns the ordered list of DIFAT sector ids, following
// the header's firstDIFATSID link. A chain is terminated by
// ENDOFCHAIN or, leniently, by FREESECT: many real-world files use
// FREESECT to terminate (spec §4.3).
func (cf *CompoundFile) difatChain() ([]uint32, error) {
	var chain []uint32
	sn := cf.header.firstDIFATSID
	for sn != endOfChain && sn != freeSect {
		if len(chain) >= int(cf.header.numDIFATSectors) {
			return nil, corrupted("DIFAT sectors count mismatched")
		}
		chain = append(chain, sn)
		next, err := cf.difatSectorLink(sn)
		if err != nil {
			return nil, err
		}
		sn = next
	}
	return chain, nil
}

// difatSectorLink reads the chaining link (last 4 bytes) of DIFAT
// sector sn.
func (cf *CompoundFile) difatSectorLink(sn uint32) (uint32, error) {
	data, err := cf.sectorData(sn)
	if err != nil {
		return 0, err
	}
	return getUint32(data, len(data)-4), nil
}

// fatSIDs returns the full ordered list of FAT sector ids: the header's
// 109 inline entries followed by (sectorSize/4 - 1) entries from each
// DIFAT sector in turn (the trailing 4 bytes of each DIFAT sector are
// its chaining link, not a FAT sid, and are skipped here).
func (cf *CompoundFile) fatSIDs() ([]uint32, error) {
	sids := make([]uint32, 0, numInlineDifats)
	for _, s := range cf.header.inlineDifats {
		if s == freeSect {
			continue
		}
		sids = append(sids, s)
	}
	chain, err := cf.difatChain()
	if err != nil {
		return nil, err
	}
	perSector := int(cf.header.sectorSize())/4 - 1
	for _, sn := range chain {
		data, err := cf.sectorData(sn)
		if err != nil {
			return nil, err
		}
		for i := 0; i < perSector; i++ {
			s := getUint32(data, i*4)
			if s == freeSect {
				continue
			}
			sids = append(sids, s)
		}
	}
	return sids, nil
}

// layoutDifat rewrites the inline + overflow DIFAT so it indexes
// exactly fatSectorIDs, using exactly difatSectorIDs as the backing
// overflow sectors (both already fully allocated by the caller -
// see fat.go's commitAllocationTables, which owns the fixpoint loop
// that sizes FAT and DIFAT together before any bytes are written).
func (cf *CompoundFile) layoutDifat(fatSectorIDs, difatSectorIDs []uint32) error {
	for i := 0; i < numInlineDifats; i++ {
		if i < len(fatSectorIDs) {
			cf.header.inlineDifats[i] = fatSectorIDs[i]
		} else {
			cf.header.inlineDifats[i] = freeSect
		}
	}
	cf.header.numDIFATSectors = uint32(len(difatSectorIDs))
	if len(difatSectorIDs) == 0 {
		cf.header.firstDIFATSID = endOfChain
		return nil
	}
	cf.header.firstDIFATSID = difatSectorIDs[0]
	overflow := fatSectorIDs[numInlineDifats:]
	perSector := int(cf.header.sectorSize())/4 - 1
	for i, id := range difatSectorIDs {
		sec := cf.sectors.get(id)
		data, err := sec.getData()
		if err != nil {
			return err
		}
		lo := i * perSector
		for j := 0; j < perSector; j++ {
			if lo+j < len(overflow) {
				putUint32(data, j*4, overflow[lo+j])
			} else {
				putUint32(data, j*4, freeSect)
			}
		}
		if i+1 < len(difatSectorIDs) {
			putUint32(data, len(data)-4, difatSectorIDs[i+1])
		} else {
			putUint32(data, len(data)-4, endOfChain)
		}
		sec.dirty = true
	}
	return nil
}

// neededDifatSectors computes how many overflow DIFAT sectors are
// required to index numFATSectors FAT sectors.
func (cf *CompoundFile) neededDifatSectors(numFATSectors int) int {
	if numFATSectors <= numInlineDifats {
		return 0
	}
	perSector := int(cf.header.sectorSize())/4 - 1
	overflow := numFATSectors - numInlineDifats
	return (overflow + perSector - 1) / perSector
}

// allocateRangeLockSector adds the v3 "range lock" sector required
// once the projected file length (projectedLength: header plus one
// sector per collection slot) reaches the OLE byte-range-locking
// threshold (spec §4.3, §8 scenario 6). It is never read from; it exists purely
// to occupy a FAT slot marked ENDOFCHAIN.
func (cf *CompoundFile) allocateRangeLockSector() {
	if cf.header.majorVersion != 3 || cf.rangeLockSector >= 0 {
		return
	}
	if cf.projectedLength() < v3RangeLockThreshold {
		return
	}
	sec := cf.sectors.get(cf.sectors.len())
	sec.kind = sectorRangeLock
	sec.zeroData()
	cf.rangeLockSector = int32(sec.id)
	cf.fat[uint32(sec.id)] = endOfChain
}
