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
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"empty", "", false},
		{"simple", "Workbook", true},
		{"at max length", strings.Repeat("a", maxNameChars), true},
		{"over max length", strings.Repeat("a", maxNameChars+1), false},
		{"contains backslash", `bad\name`, false},
		{"contains slash", "bad/name", false},
		{"contains colon", "bad:name", false},
		{"contains bang", "bad!name", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateName(tt.in)
			if tt.ok && err != nil {
				t.Fatalf("validateName(%q) = %v, want nil", tt.in, err)
			}
			if !tt.ok && err != ErrInvalidName {
				t.Fatalf("validateName(%q) = %v, want ErrInvalidName", tt.in, err)
			}
		})
	}
}

func TestEncodeDecodeNameRoundTrip(t *testing.T) {
	names := []string{"Root Entry", "Workbook", "MyStorage", "s1", "ObjectPool"}
	for _, name := range names {
		raw, nameLength, err := encodeName(name)
		if err != nil {
			t.Fatalf("encodeName(%q): %v", name, err)
		}
		got := decodeName(raw, nameLength)
		if got != name {
			t.Fatalf("decodeName(encodeName(%q)) = %q", name, got)
		}
	}
}

func TestEncodeNameRejectsInvalid(t *testing.T) {
	if _, _, err := encodeName(""); err != ErrInvalidName {
		t.Fatalf("encodeName(\"\") = %v, want ErrInvalidName", err)
	}
}

// TestCompareNamesLengthFirst exercises the non-obvious CFB ordering
// rule: shorter names always sort before longer ones, regardless of
// content - "Z" sorts before "aa" even though 'Z' > 'a' lexically.
func TestCompareNamesLengthFirst(t *testing.T) {
	if c := compareNames("Z", "aa"); c >= 0 {
		t.Fatalf("compareNames(%q, %q) = %d, want < 0", "Z", "aa", c)
	}
	if c := compareNames("aa", "Z"); c <= 0 {
		t.Fatalf("compareNames(%q, %q) = %d, want > 0", "aa", "Z", c)
	}
}

func TestCompareNamesCaseInsensitive(t *testing.T) {
	if c := compareNames("Workbook", "WORKBOOK"); c != 0 {
		t.Fatalf("compareNames case-insensitive equal names = %d, want 0", c)
	}
	if c := compareNames("abc", "abd"); c >= 0 {
		t.Fatalf("compareNames(%q, %q) = %d, want < 0", "abc", "abd", c)
	}
}
