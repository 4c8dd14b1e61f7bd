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

import "testing"

// TestTreeInsertAndInOrder inserts names of deliberately mixed length
// and case and checks that in-order traversal returns them ordered by
// compareNames (length first, then case-insensitive), not by naive
// string comparison.
func TestTreeInsertAndInOrder(t *testing.T) {
	cf := newTestCF(t)
	names := []string{"Zc", "a", "MM", "b", "Workbook", "CompObj"}
	root := uint32(noStream)
	for _, n := range names {
		sid := cf.newDirEntry(n, typeStream)
		if err := cf.treeInsert(&root, sid); err != nil {
			t.Fatalf("treeInsert(%q): %v", n, err)
		}
	}

	var got []string
	cf.treeInOrder(root, func(sid uint32) {
		got = append(got, cf.dir[sid].name)
	})

	for i := 1; i < len(got); i++ {
		if compareNames(got[i-1], got[i]) > 0 {
			t.Fatalf("in-order result not sorted: %v", got)
		}
	}
	if len(got) != len(names) {
		t.Fatalf("in-order visited %d entries, want %d", len(got), len(names))
	}
}

func TestTreeInsertDuplicateRejected(t *testing.T) {
	cf := newTestCF(t)
	root := uint32(noStream)
	a := cf.newDirEntry("Workbook", typeStream)
	if err := cf.treeInsert(&root, a); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	b := cf.newDirEntry("Workbook", typeStream)
	if err := cf.treeInsert(&root, b); err != ErrDuplicatedItem {
		t.Fatalf("duplicate insert = %v, want ErrDuplicatedItem", err)
	}
}

func TestTreeFind(t *testing.T) {
	cf := newTestCF(t)
	root := uint32(noStream)
	var sids []uint32
	for _, n := range []string{"alpha", "beta", "gamma", "delta"} {
		sid := cf.newDirEntry(n, typeStream)
		sids = append(sids, sid)
		if err := cf.treeInsert(&root, sid); err != nil {
			t.Fatalf("treeInsert(%q): %v", n, err)
		}
	}
	for i, n := range []string{"alpha", "beta", "gamma", "delta"} {
		sid, ok := cf.treeFind(root, n)
		if !ok {
			t.Fatalf("treeFind(%q): not found", n)
		}
		if sid != sids[i] {
			t.Fatalf("treeFind(%q) = %d, want %d", n, sid, sids[i])
		}
	}
	if _, ok := cf.treeFind(root, "missing"); ok {
		t.Fatalf("treeFind(missing): found, want not found")
	}
}

func TestTreeWalkerRestartable(t *testing.T) {
	cf := newTestCF(t)
	root := uint32(noStream)
	for _, n := range []string{"one", "two", "three", "four", "five"} {
		sid := cf.newDirEntry(n, typeStream)
		if err := cf.treeInsert(&root, sid); err != nil {
			t.Fatalf("treeInsert(%q): %v", n, err)
		}
	}
	w := newTreeWalker(cf, root)
	var first []uint32
	for {
		sid, ok := w.next()
		if !ok {
			break
		}
		first = append(first, sid)
	}

	w2 := newTreeWalker(cf, root)
	var second []uint32
	for {
		sid, ok := w2.next()
		if !ok {
			break
		}
		second = append(second, sid)
	}
	if len(first) != len(second) {
		t.Fatalf("walker not restartable: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("walker not restartable at %d: %v vs %v", i, first, second)
		}
	}
}
