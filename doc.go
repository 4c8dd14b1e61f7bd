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

// Package cfb implements Microsoft's Compound File Binary File Format
// (https://msdn.microsoft.com/en-us/library/dd942138.aspx), also known as
// OLE2 or structured storage.
//
// The format hosts a hierarchical namespace of storages (directories) and
// streams (files) inside a single container, and is used by legacy MS
// Office documents (.doc, .xls, .ppt) and many embedded-object envelopes.
//
// Example, reading:
//
//	file, _ := os.Open("test/test.doc")
//	defer file.Close()
//	doc, err := cfb.Open(file, cfb.WithMode(cfb.ReadOnly))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer doc.Close()
//	root := doc.RootStorage()
//	s, err := root.GetStream("WordDocument")
//	if err != nil {
//		log.Fatal(err)
//	}
//	buf, err := s.GetData()
//
// Example, writing:
//
//	f, _ := os.Create("new.cfb")
//	defer f.Close()
//	doc, err := cfb.Create(f)
//	st, _ := doc.RootStorage().AddStorage("MyStorage")
//	s, _ := st.AddStream("s1")
//	s.SetData([]byte{0x00, 0x01, 0x02, 0x03})
//	err = doc.Commit()
package cfb
