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

// streamView is a seekable, extensible byte window over an ordered
// chain of sectors (normal or mini), presenting a logically
// contiguous range to callers even though the backing sectors are
// scattered (spec §4.4). It implements io.ReadWriteSeeker.
type streamView struct {
	cf     *CompoundFile
	mini   bool
	chain  []uint32 // sector (or mini-sector) ids, in order
	length int64
	pos    int64
}

var _ io.ReadWriteSeeker = (*streamView)(nil)

func (cf *CompoundFile) openStreamView(e *dirEntry) (*streamView, error) {
	mini := e.size < cf.header.miniStreamCutoff
	var chain []uint32
	var err error
	if e.startSector != endOfChain {
		if mini {
			chain, err = cf.miniChain(e.startSector)
		} else {
			chain, err = cf.normalChain(e.startSector)
		}
		if err != nil {
			return nil, err
		}
	}
	return &streamView{cf: cf, mini: mini, chain: chain, length: int64(e.size)}, nil
}

func (sv *streamView) unit() int64 {
	if sv.mini {
		return int64(miniSectorSize)
	}
	return int64(sv.cf.header.sectorSize())
}

func (sv *streamView) sectorBytes(id uint32) ([]byte, error) {
	if sv.mini {
		return sv.cf.readMiniSector(id)
	}
	return sv.cf.sectorData(id)
}

// Read copies from the chain starting at the current position,
// splitting the copy at sector boundaries (spec §4.4).
func (sv *streamView) Read(buf []byte) (int, error) {
	if sv.pos >= sv.length {
		return 0, io.EOF
	}
	n := 0
	unit := sv.unit()
	for n < len(buf) && sv.pos < sv.length {
		idx := int(sv.pos / unit)
		if idx >= len(sv.chain) {
			break
		}
		off := sv.pos % unit
		data, err := sv.sectorBytes(sv.chain[idx])
		if err != nil {
			return n, err
		}
		avail := unit - off
		remaining := sv.length - sv.pos
		if avail > remaining {
			avail = remaining
		}
		toCopy := int64(len(buf) - n)
		if toCopy > avail {
			toCopy = avail
		}
		copy(buf[n:int64(n)+toCopy], data[off:off+toCopy])
		n += int(toCopy)
		sv.pos += toCopy
	}
	return n, nil
}

// Write scatter-copies buf into the chain from the current position,
// extending the stream first if the write runs past the current
// length, then marking each touched sector dirty (spec §4.4).
func (sv *streamView) Write(buf []byte) (int, error) {
	end := sv.pos + int64(len(buf))
	if end > sv.length {
		if err := sv.extend(end); err != nil {
			return 0, err
		}
	}
	n := 0
	unit := sv.unit()
	for n < len(buf) {
		idx := int(sv.pos / unit)
		off := sv.pos % unit
		data, err := sv.sectorBytes(sv.chain[idx])
		if err != nil {
			return n, err
		}
		toCopy := int64(len(buf) - n)
		if toCopy > unit-off {
			toCopy = unit - off
		}
		copy(data[off:off+toCopy], buf[n:int64(n)+toCopy])
		if sv.mini {
			if err := sv.cf.writeMiniSector(sv.chain[idx], data); err != nil {
				return n, err
			}
		} else {
			sv.cf.sectors.get(sv.chain[idx]).dirty = true
		}
		n += int(toCopy)
		sv.pos += toCopy
	}
	return n, nil
}

// Seek computes the new position per whence and changes nothing else:
// it does not change the logical length or the chain, even when the new
// position lies past the end. Length grows only when a later Write runs
// past the current length; a Read from past the end returns io.EOF.
func (sv *streamView) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = sv.pos + offset
	case io.SeekEnd:
		newPos = sv.length + offset
	default:
		return 0, ErrInvalidOperation
	}
	if newPos < 0 {
		return 0, ErrInvalidOperation
	}
	sv.pos = newPos
	return newPos, nil
}

// extend grows the chain to cover newLength bytes, drawing spare
// sectors from the free-sector queue first when sector recycling is
// enabled, otherwise allocating fresh ones (spec §4.4 "Length
// extension"). Shrinking is a design allowance, not implemented: the
// stream view keeps its length but never frees tail sectors; the
// engine only frees whole chains on replace (spec §4.6 Set/Append).
func (sv *streamView) extend(newLength int64) error {
	unit := sv.unit()
	neededUnits := int((newLength + unit - 1) / unit)
	for len(sv.chain) < neededUnits {
		var id uint32
		if sv.mini {
			ids := sv.cf.allocateMiniSectors(1)
			id = ids[0]
		} else {
			if sv.cf.cfg.sectorRecycle {
				if free := sv.cf.freeNormalSectors(); len(free) > 0 {
					id = free[0]
					sv.cf.fat[id] = endOfChain
					sv.cf.sectors.get(id).zeroData()
					sv.chain = append(sv.chain, id)
					sv.threadTail()
					sv.length = newLength
					continue
				}
			}
			sec := newSector(sv.cf.header.sectorSize(), nil, 0)
			sec.zeroData()
			ids := sv.cf.adoptChain([]*sector{sec})
			id = ids[0]
			sv.chain = append(sv.chain, id)
			sv.threadTail()
			sv.length = newLength
			continue
		}
		sv.chain = append(sv.chain, id)
		sv.threadTail()
	}
	sv.length = newLength
	return nil
}

// threadTail re-threads the mini-FAT/FAT link for the last two
// entries of the chain after extend appends one.
func (sv *streamView) threadTail() {
	n := len(sv.chain)
	if n == 0 {
		return
	}
	if sv.mini {
		sv.cf.miniFat[sv.chain[n-1]] = endOfChain
		if n > 1 {
			sv.cf.miniFat[sv.chain[n-2]] = sv.chain[n-1]
		}
	} else {
		sv.cf.fat[sv.chain[n-1]] = endOfChain
		if n > 1 {
			sv.cf.fat[sv.chain[n-2]] = sv.chain[n-1]
		}
	}
}
