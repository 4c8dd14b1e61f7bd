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
	"bytes"
	"io"
	"testing"
)

func TestStreamViewWriteReadNormal(t *testing.T) {
	cf := newTestCF(t)
	sv := &streamView{cf: cf, mini: false}
	payload := bytes.Repeat([]byte("ab"), 1000) // 2000 bytes, spans several 512-byte sectors
	if err := sv.extend(int64(len(payload))); err != nil {
		t.Fatalf("extend: %v", err)
	}
	if _, err := sv.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := sv.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := make([]byte, len(payload))
	if _, err := io.ReadFull(sv, got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round-tripped data mismatch")
	}
}

func TestStreamViewWriteReadMini(t *testing.T) {
	cf := newTestCF(t)
	sv := &streamView{cf: cf, mini: true}
	payload := []byte("small stream contents")
	if err := sv.extend(int64(len(payload))); err != nil {
		t.Fatalf("extend: %v", err)
	}
	if _, err := sv.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := sv.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := make([]byte, len(payload))
	if _, err := io.ReadFull(sv, got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round-tripped mini data mismatch: got %q, want %q", got, payload)
	}
}

func TestStreamViewExtendGrowsChain(t *testing.T) {
	cf := newTestCF(t)
	sv := &streamView{cf: cf, mini: false}
	if err := sv.extend(int64(cf.header.sectorSize()) * 3); err != nil {
		t.Fatalf("extend: %v", err)
	}
	if len(sv.chain) != 3 {
		t.Fatalf("chain length = %d, want 3", len(sv.chain))
	}
	if cf.fat[sv.chain[2]] != endOfChain {
		t.Fatalf("tail FAT entry = %#x, want ENDOFCHAIN", cf.fat[sv.chain[2]])
	}
}

func TestStreamViewReadPastEOF(t *testing.T) {
	cf := newTestCF(t)
	sv := &streamView{cf: cf, mini: true}
	if err := sv.extend(4); err != nil {
		t.Fatalf("extend: %v", err)
	}
	if _, err := sv.Write([]byte("abcd")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := sv.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	buf := make([]byte, 10)
	n, err := sv.Read(buf)
	if n != 4 || err != nil {
		t.Fatalf("Read = (%d, %v), want (4, nil)", n, err)
	}
	if n2, err2 := sv.Read(buf); n2 != 0 || err2 != io.EOF {
		t.Fatalf("second Read = (%d, %v), want (0, io.EOF)", n2, err2)
	}
}
