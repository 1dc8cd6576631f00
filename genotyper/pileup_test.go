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

package genotyper

import (
	"testing"
)

func windowRefContext(window string, start int32) *RefContext {
	return &RefContext{
		Contig:      "chr1",
		Pos:         start,
		Base:        window[0],
		Window:      []byte(window),
		WindowStart: start,
	}
}

func TestGoodBaseMaskQuals(t *testing.T) {
	ref := windowRefContext("ACGTA", 100)
	read := &Read{
		Sample: "s1",
		MapQ:   60,
		Pos:    100,
		Bases:  []byte("ACGTA"),
		Quals:  []byte{30, 5, 30, 30, 30},
	}
	mask := read.goodBaseMask(ref, 17, 20, 3, false)
	for i, expected := range []bool{true, false, true, true, true} {
		if mask.Test(uint(i)) != expected {
			t.Errorf("base %v: expected good=%v", i, expected)
		}
	}
}

func TestGoodBaseMaskMapQ(t *testing.T) {
	ref := windowRefContext("ACGTA", 100)
	read := &Read{
		Sample: "s1",
		MapQ:   10,
		Pos:    100,
		Bases:  []byte("ACGTA"),
		Quals:  []byte{30, 30, 30, 30, 30},
	}
	mask := read.goodBaseMask(ref, 17, 20, 3, false)
	if mask.Any() {
		t.Error("bases of a read with low mapping quality pass the filters")
	}
}

func TestGoodBaseMaskBadMate(t *testing.T) {
	ref := windowRefContext("ACGTA", 100)
	read := &Read{
		Sample:  "s1",
		MapQ:    60,
		BadMate: true,
		Pos:     100,
		Bases:   []byte("ACGTA"),
		Quals:   []byte{30, 30, 30, 30, 30},
	}
	mask := read.goodBaseMask(ref, 17, 20, 3, false)
	if mask.Any() {
		t.Error("bases of a read with a bad mate pass the filters")
	}

	read = &Read{
		Sample:  "s1",
		MapQ:    60,
		BadMate: true,
		Pos:     100,
		Bases:   []byte("ACGTA"),
		Quals:   []byte{30, 30, 30, 30, 30},
	}
	mask = read.goodBaseMask(ref, 17, 20, 3, true)
	if mask.Count() != 5 {
		t.Error("bad mate filter applied although bad mates are allowed")
	}
}

func TestGoodBaseMaskMismatchWindow(t *testing.T) {
	ref := windowRefContext("AAAAAAAAAA", 100)
	read := &Read{
		Sample: "s1",
		MapQ:   60,
		Pos:    100,
		Bases:  []byte("GGGGAAAAAA"),
		Quals:  []byte{30, 30, 30, 30, 30, 30, 30, 30, 30, 30},
	}
	// 4 mismatches within the window around every base
	mask := read.goodBaseMask(ref, 17, 20, 3, false)
	if mask.Any() {
		t.Error("bases pass the filters despite too many mismatches in the window")
	}

	read = &Read{
		Sample: "s1",
		MapQ:   60,
		Pos:    100,
		Bases:  []byte("GGGGAAAAAA"),
		Quals:  []byte{30, 30, 30, 30, 30, 30, 30, 30, 30, 30},
	}
	mask = read.goodBaseMask(ref, 17, 20, 4, false)
	if mask.Count() != 10 {
		t.Error("bases filtered although the mismatches fit the threshold")
	}
}

func TestGoodBaseMaskCached(t *testing.T) {
	ref := windowRefContext("ACGTA", 100)
	read := &Read{
		Sample: "s1",
		MapQ:   60,
		Pos:    100,
		Bases:  []byte("ACGTA"),
		Quals:  []byte{30, 30, 30, 30, 30},
	}
	first := read.goodBaseMask(ref, 17, 20, 3, false)
	second := read.goodBaseMask(ref, 17, 20, 3, false)
	if first != second {
		t.Error("good base mask recomputed instead of cached")
	}
}

func TestSplitBySample(t *testing.T) {
	pileup := newPileup(100)
	addBases(pileup, "s1", "AA", 30)
	addBases(pileup, "s2", "G", 30)
	stratified := splitBySample(pileup.Elements, []string{"s1", "s2", "s3"})
	if len(stratified["s1"]) != 2 || len(stratified["s2"]) != 1 {
		t.Error("elements not split by sample")
	}
	if elements, ok := stratified["s3"]; !ok || elements != nil {
		t.Error("sample without elements not seeded")
	}
}

func TestSplitBySampleUnknownSample(t *testing.T) {
	pileup := newPileup(100)
	addBases(pileup, "s1", "AA", 30)
	addBases(pileup, "sX", "GGG", 30)
	stratified := splitBySample(pileup.Elements, []string{"s1"})
	if len(stratified) != 1 {
		t.Error("unconfigured sample created a map entry")
	}
	if len(stratified["s1"]) != 2 {
		t.Error("elements of the configured sample not preserved")
	}
}

func TestSplitByStrand(t *testing.T) {
	pileup := newPileup(100)
	addBases(pileup, "s1", "AAAA", 30) // alternating strands
	forward, reverse := splitByStrand(pileup.Elements)
	if len(forward) != 2 || len(reverse) != 2 {
		t.Errorf("expected 2 forward and 2 reverse elements, got %v and %v", len(forward), len(reverse))
	}
}

func TestDownsampleElements(t *testing.T) {
	pileup := newPileup(100)
	addBases(pileup, "s1", "AAAAAAAAAA", 30)
	reduced := downsampleElements(pileup.Elements, 4)
	if len(reduced) != 4 {
		t.Fatal("expected 4 elements after downsampling, got", len(reduced))
	}
	again := downsampleElements(pileup.Elements, 4)
	for i := range reduced {
		if reduced[i].Read != again[i].Read {
			t.Fatal("downsampling is not deterministic")
		}
	}
	if same := downsampleElements(pileup.Elements, 20); len(same) != 10 {
		t.Error("downsampling reduced a pileup below the target")
	}
}

func TestPileupCounts(t *testing.T) {
	pileup := newPileup(100)
	addBases(pileup, "s1", "AAAA", 30)
	addDeletions(pileup, "s1", 2)
	if pileup.Size() != 4 {
		t.Error("expected pileup size 4, got", pileup.Size())
	}
	if pileup.NumDeletions() != 2 {
		t.Error("expected 2 deletions, got", pileup.NumDeletions())
	}
}
