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

// Storage is a handle onto a directory (storage) node: a container of
// streams and sub-storages (spec §6.2). Children are resolved lazily
// through the parent's red-black tree on first access.
type Storage struct {
	cf  *CompoundFile
	sid uint32
}

func (s *Storage) entry() *dirEntry { return s.cf.dir[s.sid] }

// Name returns the storage's own name ("Root Entry" for the root).
func (s *Storage) Name() string { return s.entry().name }

func (s *Storage) ensureChildren() error {
	return s.cf.validateStorageChildren(s.sid)
}

// ExistsStream reports whether a stream named name exists directly
// under this storage.
func (s *Storage) ExistsStream(name string) bool {
	if err := s.ensureChildren(); err != nil {
		return false
	}
	sid, ok := s.cf.treeFind(s.entry().child, name)
	return ok && s.cf.dir[sid].isStream()
}

// ExistsStorage reports whether a sub-storage named name exists
// directly under this storage.
func (s *Storage) ExistsStorage(name string) bool {
	if err := s.ensureChildren(); err != nil {
		return false
	}
	sid, ok := s.cf.treeFind(s.entry().child, name)
	return ok && s.cf.dir[sid].isStorage()
}

// GetStream returns the named child stream, failing with
// ErrItemNotFound if it does not exist (spec §6.2).
func (s *Storage) GetStream(name string) (*Stream, error) {
	if err := s.ensureChildren(); err != nil {
		return nil, err
	}
	sid, ok := s.cf.treeFind(s.entry().child, name)
	if !ok || !s.cf.dir[sid].isStream() {
		return nil, ErrItemNotFound
	}
	return &Stream{cf: s.cf, sid: sid}, nil
}

// GetStorage returns the named child storage, failing with
// ErrItemNotFound if it does not exist.
func (s *Storage) GetStorage(name string) (*Storage, error) {
	if err := s.ensureChildren(); err != nil {
		return nil, err
	}
	sid, ok := s.cf.treeFind(s.entry().child, name)
	if !ok || !s.cf.dir[sid].isStorage() {
		return nil, ErrItemNotFound
	}
	return &Storage{cf: s.cf, sid: sid}, nil
}

// AddStream creates a new, empty stream named name under this
// storage, failing with ErrInvalidName or ErrDuplicatedItem.
func (s *Storage) AddStream(name string) (*Stream, error) {
	if s.cf.cfg.mode == ReadOnly {
		return nil, ErrInvalidOperation
	}
	if err := s.ensureChildren(); err != nil {
		return nil, err
	}
	sid, err := s.cf.addChild(s.sid, name, typeStream)
	if err != nil {
		return nil, err
	}
	return &Stream{cf: s.cf, sid: sid}, nil
}

// AddStorage creates a new, empty sub-storage named name under this
// storage, failing with ErrInvalidName or ErrDuplicatedItem.
func (s *Storage) AddStorage(name string) (*Storage, error) {
	if s.cf.cfg.mode == ReadOnly {
		return nil, ErrInvalidOperation
	}
	if err := s.ensureChildren(); err != nil {
		return nil, err
	}
	sid, err := s.cf.addChild(s.sid, name, typeStorage)
	if err != nil {
		return nil, err
	}
	return &Storage{cf: s.cf, sid: sid}, nil
}

// EnumerateChildren returns every direct child (streams and
// sub-storages) in name order.
func (s *Storage) EnumerateChildren() ([]*Item, error) {
	if err := s.ensureChildren(); err != nil {
		return nil, err
	}
	var out []*Item
	s.cf.treeInOrder(s.entry().child, func(sid uint32) {
		if s.cf.dir[sid].entryType == typeInvalid {
			return
		}
		out = append(out, newItem(s.cf, sid))
	})
	return out, nil
}

// VisitEntries calls fn for every direct child in name order; if
// recursive is true, it descends into every sub-storage depth-first
// before moving to the next sibling.
func (s *Storage) VisitEntries(fn func(*Item), recursive bool) error {
	if err := s.ensureChildren(); err != nil {
		return err
	}
	var walkErr error
	s.cf.treeInOrder(s.entry().child, func(sid uint32) {
		if walkErr != nil || s.cf.dir[sid].entryType == typeInvalid {
			return
		}
		it := newItem(s.cf, sid)
		fn(it)
		if recursive && it.IsStorage() {
			child := &Storage{cf: s.cf, sid: sid}
			walkErr = child.VisitEntries(fn, true)
		}
	})
	return walkErr
}
