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
	"github.com/bits-and-blooms/bitset"
)

/*
Pileup handling:
For each position in the reference, the caller receives a pileup.
This means that bases that are only in the reads (clips, paddings, inserts)
are not considered.
*/

// Read is an aligned read segment that overlaps one or more pileup positions.
type Read struct {
	Sample  string
	MapQ    byte
	Reverse bool
	BadMate bool
	// 1-based position of the first base on the reference
	Pos   int32
	Bases []byte
	Quals []byte
	// lazily computed mask of bases that pass the base filters
	goodBases *bitset.BitSet
}

// A PileupElement represents one base in one read at a particular position.
type PileupElement struct {
	Read *Read
	// the index within the read; undefined for deletions
	Offset   int32
	Deletion bool
}

func (e PileupElement) base() byte {
	return e.Read.Bases[e.Offset]
}

func (e PileupElement) qual() byte {
	return e.Read.Quals[e.Offset]
}

// RefContext provides access to the reference sequence around a pileup position.
type RefContext struct {
	Contig string
	// 1-based position of the base being genotyped
	Pos  int32
	Base byte
	// reference bases around Pos
	Window []byte
	// 1-based position of Window[0]
	WindowStart int32
}

func (ref *RefContext) baseAt(pos int32) (byte, bool) {
	index := pos - ref.WindowStart
	if index < 0 || index >= int32(len(ref.Window)) {
		return 0, false
	}
	return ref.Window[index], true
}

// the size of the window around each base in which mismatches against
// the reference are counted
const mismatchWindowSize = 20

// goodBaseMask determines for every base in the read whether it passes
// the base quality threshold, the mapping quality threshold, the bad mate
// filter, and the mismatch window filter.
func (r *Read) goodBaseMask(ref *RefContext, minBaseQual, minMapQ byte, maxMismatches int, useBadMates bool) *bitset.BitSet {
	if r.goodBases != nil {
		return r.goodBases
	}
	mask := bitset.New(uint(len(r.Bases)))
	r.goodBases = mask
	if r.MapQ < minMapQ {
		return mask
	}
	if r.BadMate && !useBadMates {
		return mask
	}
	mismatchPrefix := make([]int, len(r.Bases)+1)
	for i, base := range r.Bases {
		mismatchPrefix[i+1] = mismatchPrefix[i]
		if refBase, ok := ref.baseAt(r.Pos + int32(i)); ok && base != refBase {
			mismatchPrefix[i+1]++
		}
	}
	for i := range r.Bases {
		if r.Quals[i] < minBaseQual {
			continue
		}
		lo := maxInt(0, i-mismatchWindowSize)
		hi := minInt(len(r.Bases)-1, i+mismatchWindowSize)
		if mismatchPrefix[hi+1]-mismatchPrefix[lo] > maxMismatches {
			continue
		}
		mask.Set(uint(i))
	}
	return mask
}

// Pileup is the collection of read bases that cover one reference position.
type Pileup struct {
	Contig   string
	Pos      int32 // 1-based
	Elements []PileupElement
}

// Size returns the number of non-deletion elements in the pileup.
func (p *Pileup) Size() (size int) {
	for _, e := range p.Elements {
		if !e.Deletion {
			size++
		}
	}
	return
}

// NumDeletions returns the number of deletion elements in the pileup.
func (p *Pileup) NumDeletions() (deletions int) {
	for _, e := range p.Elements {
		if e.Deletion {
			deletions++
		}
	}
	return
}

func splitByStrand(elements []PileupElement) (forward, reverse []PileupElement) {
	for _, e := range elements {
		if e.Read.Reverse {
			reverse = append(reverse, e)
		} else {
			forward = append(forward, e)
		}
	}
	return
}

func splitBySample(elements []PileupElement, samples []string) map[string][]PileupElement {
	result := make(map[string][]PileupElement, len(samples))
	for _, sample := range samples {
		result[sample] = nil
	}
	for _, e := range elements {
		// elements from samples the engine was not configured with are
		// dropped; they would otherwise count toward the depth statistics
		if _, ok := result[e.Read.Sample]; ok {
			result[e.Read.Sample] = append(result[e.Read.Sample], e)
		}
	}
	return result
}

// downsampleElements deterministically reduces a pileup to at most target
// elements by selecting evenly spaced elements.
func downsampleElements(elements []PileupElement, target int) []PileupElement {
	if target <= 0 || len(elements) <= target {
		return elements
	}
	result := make([]PileupElement, 0, target)
	stride := float64(len(elements)) / float64(target)
	for i := 0; i < target; i++ {
		result = append(result, elements[int(float64(i)*stride)])
	}
	return result
}
