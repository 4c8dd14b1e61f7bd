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

func newTestCF(t *testing.T) *CompoundFile {
	t.Helper()
	cf, err := Create(newMemFile(nil))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return cf
}

func TestNormalChainFollowsLinks(t *testing.T) {
	cf := newTestCF(t)
	cf.sectors.get(0)
	cf.sectors.get(1)
	cf.sectors.get(2)
	cf.fat[0] = 1
	cf.fat[1] = 2
	cf.fat[2] = endOfChain

	chain, err := cf.normalChain(0)
	if err != nil {
		t.Fatalf("normalChain: %v", err)
	}
	want := []uint32{0, 1, 2}
	if len(chain) != len(want) {
		t.Fatalf("chain = %v, want %v", chain, want)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Fatalf("chain[%d] = %d, want %d", i, chain[i], want[i])
		}
	}
}

func TestNormalChainDetectsCycle(t *testing.T) {
	cf := newTestCF(t)
	cf.sectors.get(0)
	cf.sectors.get(1)
	cf.fat[0] = 1
	cf.fat[1] = 0 // cycles back to 0

	if _, err := cf.normalChain(0); err == nil {
		t.Fatalf("normalChain over a cyclic chain: want error, got nil")
	}
}

func TestNormalChainOutOfRange(t *testing.T) {
	cf := newTestCF(t)
	if _, err := cf.normalChain(99); err == nil {
		t.Fatalf("normalChain(99) with empty FAT: want error, got nil")
	}
}

func TestFreeChainMarksFreeSect(t *testing.T) {
	cf := newTestCF(t)
	cf.sectors.get(0)
	cf.sectors.get(1)
	cf.fat[0] = 1
	cf.fat[1] = endOfChain

	cf.freeChain([]uint32{0, 1})
	if cf.fat[0] != freeSect || cf.fat[1] != freeSect {
		t.Fatalf("freeChain did not mark entries FREESECT: %v", cf.fat)
	}
	free := cf.freeNormalSectors()
	if len(free) != 2 || free[0] != 0 || free[1] != 1 {
		t.Fatalf("freeNormalSectors = %v, want [0 1]", free)
	}
}

func TestAdoptChainThreadsFAT(t *testing.T) {
	cf := newTestCF(t)
	secs := []*sector{
		newSector(cf.header.sectorSize(), nil, 0),
		newSector(cf.header.sectorSize(), nil, 0),
	}
	ids := cf.adoptChain(secs)
	if len(ids) != 2 {
		t.Fatalf("adoptChain returned %d ids, want 2", len(ids))
	}
	if cf.fat[ids[0]] != ids[1] {
		t.Fatalf("fat[%d] = %d, want %d", ids[0], cf.fat[ids[0]], ids[1])
	}
	if cf.fat[ids[1]] != endOfChain {
		t.Fatalf("fat[%d] = %d, want endOfChain", ids[1], cf.fat[ids[1]])
	}
}
