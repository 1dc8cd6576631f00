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

// GenotypeLikelihoods are the diploid genotype likelihoods of one sample
// for a biallelic site.
type GenotypeLikelihoods struct {
	// log10 likelihoods for the ref/ref, ref/alt, and alt/alt genotypes
	Log10Likelihoods [3]float64
	// the number of bases that informed the likelihoods
	Depth int
}

// genotypeLikelihoodsModel computes per-sample genotype likelihoods for
// the bases in a pileup.
type genotypeLikelihoodsModel interface {
	// alternateAllele selects the best alternate allele for the pileups,
	// with the sum of the quality scores supporting it
	alternateAllele(ref *RefContext, pileups map[string][]PileupElement) (alt byte, qualSum int)
	// likelihoods computes the genotype likelihoods for every sample with
	// at least one good base
	likelihoods(ref *RefContext, pileups map[string][]PileupElement, alt byte) map[string]*GenotypeLikelihoods
}

var baseOrder = []byte{'A', 'C', 'G', 'T'}

func baseIndex(base byte) int {
	switch base {
	case 'A':
		return 0
	case 'C':
		return 1
	case 'G':
		return 2
	case 'T':
		return 3
	default:
		return -1
	}
}

func isRegularBase(base byte) bool {
	return baseIndex(base) >= 0
}

// snpModel computes diploid genotype likelihoods for single nucleotide
// variants from the base and quality scores of a pileup.
type snpModel struct {
	minBaseQual   byte
	minMapQ       byte
	maxMismatches int
	useBadMates   bool
}

// goodBases returns the non-deletion elements of a sample pileup that
// pass all base filters.
func (m *snpModel) goodBases(ref *RefContext, elements []PileupElement) (result []PileupElement) {
	for _, e := range elements {
		if e.Deletion {
			continue
		}
		if !isRegularBase(e.base()) {
			continue
		}
		mask := e.Read.goodBaseMask(ref, m.minBaseQual, m.minMapQ, m.maxMismatches, m.useBadMates)
		if mask.Test(uint(e.Offset)) {
			result = append(result, e)
		}
	}
	return
}

func (m *snpModel) alternateAllele(ref *RefContext, pileups map[string][]PileupElement) (alt byte, qualSum int) {
	var qualSums [4]int
	for _, elements := range pileups {
		for _, e := range m.goodBases(ref, elements) {
			if base := e.base(); base != ref.Base {
				qualSums[baseIndex(base)] += int(e.qual())
			}
		}
	}
	for _, base := range baseOrder {
		if base == ref.Base {
			continue
		}
		if sum := qualSums[baseIndex(base)]; sum > qualSum {
			alt = base
			qualSum = sum
		}
	}
	return
}

// fallbackAlternateAllele is used when all bases match the reference but
// a variant context is still needed for a reference call.
func fallbackAlternateAllele(refBase byte) byte {
	if refBase == 'A' {
		return 'C'
	}
	return 'A'
}

func (m *snpModel) likelihoods(ref *RefContext, pileups map[string][]PileupElement, alt byte) map[string]*GenotypeLikelihoods {
	result := make(map[string]*GenotypeLikelihoods, len(pileups))
	for sample, elements := range pileups {
		good := m.goodBases(ref, elements)
		if len(good) == 0 {
			continue
		}
		gl := new(GenotypeLikelihoods)
		gl.Depth = len(good)
		for _, e := range good {
			qual := e.qual()
			matchLikelihood := qualToProbLog10[qual]
			mismatchLikelihood := float64(qual)/-10 + log10OneThird
			var refLikelihood, altLikelihood float64
			switch e.base() {
			case ref.Base:
				refLikelihood, altLikelihood = matchLikelihood, mismatchLikelihood
			case alt:
				refLikelihood, altLikelihood = mismatchLikelihood, matchLikelihood
			default:
				refLikelihood, altLikelihood = mismatchLikelihood, mismatchLikelihood
			}
			gl.Log10Likelihoods[0] += refLikelihood
			gl.Log10Likelihoods[1] += approximateLog10SumLog10(
				refLikelihood+log10One,
				altLikelihood+log10One,
			) - log10Ploidy
			gl.Log10Likelihoods[2] += altLikelihood
		}
		result[sample] = gl
	}
	return result
}
