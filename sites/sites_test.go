// elCall: a high-performance tool for calling variants in aligned sequencing data.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elcall/blob/master/LICENSE.txt>.

package sites

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestLookup(t *testing.T) {
	sites := []Site{
		{Pos: 10, Ref: 'A', Alts: []byte{'G'}},
		{Pos: 20, Ref: 'C', Alts: []byte{'T'}},
		{Pos: 30, Ref: 'G', Alts: []byte{'A', 'C'}},
	}
	for _, pos := range []int32{10, 20, 30} {
		if site, ok := Lookup(sites, pos); !ok || site.Pos != pos {
			t.Error("site at position", pos, "not found")
		}
	}
	for _, pos := range []int32{5, 15, 35} {
		if _, ok := Lookup(sites, pos); ok {
			t.Error("unexpected site at position", pos)
		}
	}
	if _, ok := Lookup(nil, 10); ok {
		t.Error("unexpected site in an empty slice")
	}
}

func TestSortByPos(t *testing.T) {
	sites := []Site{{Pos: 30}, {Pos: 10}, {Pos: 20}}
	SortByPos(sites)
	for i, pos := range []int32{10, 20, 30} {
		if sites[i].Pos != pos {
			t.Fatal("sites not sorted by position:", sites)
		}
	}
}

func TestElsitesRoundtrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "elsites")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()
	filename := filepath.Join(dir, "test.elsites")

	original := map[string][]Site{
		"chr1": {
			{Pos: 100, Ref: 'A', Alts: []byte{'G'}},
			{Pos: 200, Ref: 'C', Alts: []byte{'A', 'T'}},
		},
		"chr2": {
			{Pos: 50, Ref: 'T', Alts: []byte{'C'}},
		},
	}
	if err := ToElsitesFile(original, filename); err != nil {
		t.Fatal(err)
	}
	loaded, err := FromElsitesFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatal("expected 2 contigs, got", len(loaded))
	}
	for chrom, expected := range original {
		got := loaded[chrom]
		if len(got) != len(expected) {
			t.Fatalf("contig %v: expected %v sites, got %v", chrom, len(expected), len(got))
		}
		for i, site := range expected {
			if got[i].Pos != site.Pos || got[i].Ref != site.Ref {
				t.Errorf("contig %v: expected site %v, got %v", chrom, site, got[i])
			}
			if len(got[i].Alts) != len(site.Alts) {
				t.Errorf("contig %v: expected alts %v, got %v", chrom, site.Alts, got[i].Alts)
				continue
			}
			for j, alt := range site.Alts {
				if got[i].Alts[j] != alt {
					t.Errorf("contig %v: expected alts %v, got %v", chrom, site.Alts, got[i].Alts)
				}
			}
		}
	}
}

func TestFromElsitesFileInvalidHeader(t *testing.T) {
	dir, err := ioutil.TempDir("", "elsites")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()
	filename := filepath.Join(dir, "bad.elsites")
	if err := ioutil.WriteFile(filename, []byte("chr1\t100\tA\tG\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := FromElsitesFile(filename); err == nil {
		t.Error("missing header not detected")
	}
}

func TestParseSiteLine(t *testing.T) {
	chrom, site, err := parseSiteLine("chr1\t1234\tA\tC,G,T")
	if err != nil {
		t.Fatal(err)
	}
	if chrom != "chr1" || site.Pos != 1234 || site.Ref != 'A' {
		t.Error("unexpected site:", chrom, site)
	}
	if len(site.Alts) != 3 || site.Alts[0] != 'C' || site.Alts[1] != 'G' || site.Alts[2] != 'T' {
		t.Error("unexpected alternate alleles:", site.Alts)
	}
	for _, line := range []string{"", "chr1", "chr1\t", "chr1\tx\tA\tC", "chr1\t100", "chr1\t100\tA", "chr1\t100\tA\t", "chr1\t100\tACG"} {
		if _, _, err := parseSiteLine(line); err == nil {
			t.Errorf("invalid line %q not detected", line)
		}
	}
}
