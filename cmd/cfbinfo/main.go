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

// Command cfbinfo lists the storages and streams inside a compound
// file, the kind of thin consumer the cfb package's own package doc
// sketches in its usage example.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cfbkit/gocfb"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <file.cfb>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	doc, err := cfb.Open(f)
	if err != nil {
		log.Fatalf("opening %s: %v", flag.Arg(0), err)
	}
	defer doc.Close()

	err = doc.RootStorage().VisitEntries(func(it *cfb.Item) {
		kind := "storage"
		if it.IsStream() {
			kind = "stream"
			s := it.AsStream()
			fmt.Printf("%-8s %8d  %s\n", kind, s.Size(), s.Name())
			return
		}
		fmt.Printf("%-8s %8s  %s\n", kind, "-", it.Name())
	}, true)
	if err != nil {
		log.Fatal(err)
	}
}
