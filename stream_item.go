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

// Stream is a handle onto a directory (stream) node: a contiguous
// logical byte sequence addressable by name within its parent storage
// (spec §6.2).
type Stream struct {
	cf  *CompoundFile
	sid uint32
}

func (s *Stream) entry() *dirEntry { return s.cf.dir[s.sid] }

// Name returns the stream's own name.
func (s *Stream) Name() string { return s.entry().name }

// Size returns the stream's logical byte length.
func (s *Stream) Size() int64 { return int64(s.entry().size) }

// GetData reads the stream's entire contents.
func (s *Stream) GetData() ([]byte, error) {
	sv, err := s.cf.openStreamView(s.entry())
	if err != nil {
		return nil, err
	}
	buf := make([]byte, sv.length)
	if _, err := io.ReadFull(sv, buf); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf, nil
}

// GetDataRange reads up to count bytes starting at offset (a partial
// read, spec §6.2).
func (s *Stream) GetDataRange(offset, count int64) ([]byte, error) {
	sv, err := s.cf.openStreamView(s.entry())
	if err != nil {
		return nil, err
	}
	if _, err := sv.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, count)
	n, err := io.ReadFull(sv, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:n], nil
}

// SetData replaces the stream's entire contents with data, promoting
// or demoting it between the mini-stream and normal sectors as its
// size crosses the cutoff (spec §4.6 "Set").
func (s *Stream) SetData(data []byte) error {
	if s.cf.cfg.mode == ReadOnly {
		return ErrInvalidOperation
	}
	return s.cf.setStreamData(s.entry(), data)
}

// AppendData appends data to the stream's existing contents,
// promoting a mini-resident stream to normal residency if the result
// crosses the cutoff (spec §4.6 "Append").
func (s *Stream) AppendData(data []byte) error {
	if s.cf.cfg.mode == ReadOnly {
		return ErrInvalidOperation
	}
	return s.cf.appendStreamData(s.entry(), data)
}

// setStreamData implements spec §4.6 "Set": decide target residency,
// free the existing chain (whether or not its residency changes; the
// old chain is never written over in place), write the payload into a
// fresh chain, and update start_sector/size. With sector recycling on,
// the fresh chain draws on the sectors just freed.
func (cf *CompoundFile) setStreamData(e *dirEntry, data []byte) error {
	mini := uint64(len(data)) < cf.header.miniStreamCutoff
	if e.startSector != endOfChain {
		oldMini := e.size < cf.header.miniStreamCutoff
		chain, err := cf.existingChain(e, oldMini)
		if err != nil {
			return err
		}
		if oldMini {
			cf.freeMiniChain(chain)
		} else {
			cf.freeChain(chain)
		}
		e.startSector = endOfChain
		e.size = 0
	}
	sv := &streamView{cf: cf, mini: mini}
	if len(data) > 0 {
		if err := sv.extend(int64(len(data))); err != nil {
			return err
		}
		if _, err := sv.Write(data); err != nil {
			return err
		}
	}
	if len(sv.chain) > 0 {
		e.startSector = sv.chain[0]
	} else {
		e.startSector = endOfChain
	}
	e.size = uint64(len(data))
	return nil
}

// appendStreamData implements spec §4.6 "Append": same skeleton as
// Set, but when appending crosses the mini/normal cutoff it reads the
// old mini payload into memory, frees the old mini chain, and writes
// old||new into a fresh normal chain.
func (cf *CompoundFile) appendStreamData(e *dirEntry, data []byte) error {
	oldSize := e.size
	newSize := oldSize + uint64(len(data))
	oldMini := oldSize < cf.header.miniStreamCutoff
	newMini := newSize < cf.header.miniStreamCutoff

	if oldMini && !newMini {
		old, err := cf.readStreamBytes(e)
		if err != nil {
			return err
		}
		if e.startSector != endOfChain {
			chain, err := cf.miniChain(e.startSector)
			if err != nil {
				return err
			}
			cf.freeMiniChain(chain)
		}
		e.startSector = endOfChain
		e.size = 0
		combined := append(old, data...)
		return cf.setStreamData(e, combined)
	}

	sv, err := cf.openStreamView(e)
	if err != nil {
		return err
	}
	if _, err := sv.Seek(int64(oldSize), io.SeekStart); err != nil {
		return err
	}
	if _, err := sv.Write(data); err != nil {
		return err
	}
	if e.startSector == endOfChain && len(sv.chain) > 0 {
		e.startSector = sv.chain[0]
	}
	e.size = newSize
	return nil
}

func (cf *CompoundFile) existingChain(e *dirEntry, mini bool) ([]uint32, error) {
	if mini {
		return cf.miniChain(e.startSector)
	}
	return cf.normalChain(e.startSector)
}

func (cf *CompoundFile) readStreamBytes(e *dirEntry) ([]byte, error) {
	sv, err := cf.openStreamView(e)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, sv.length)
	if _, err := io.ReadFull(sv, buf); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf, nil
}
