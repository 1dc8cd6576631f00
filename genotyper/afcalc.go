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
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

// valueNotCalculated marks entries in the posterior array that have not
// been evaluated.
const valueNotCalculated = -1e10

func clearAFarray(arr []float64) {
	for i := range arr {
		arr[i] = valueNotCalculated
	}
}

// alleleFrequencyModel computes the log10 posterior probability for every
// count of the alternate allele in the population.
type alleleFrequencyModel interface {
	// calculate fills posteriors with log10 posterior values indexed by
	// alternate allele count; entries that are not evaluated keep the
	// valueNotCalculated sentinel
	calculate(gls []*GenotypeLikelihoods, log10Priors, posteriors []float64)
}

// exactModel evaluates the posterior for every possible alternate allele
// count with a dynamic program over the samples.
type exactModel struct{}

func (exactModel) calculate(gls []*GenotypeLikelihoods, log10Priors, posteriors []float64) {
	clearAFarray(posteriors)
	chromosomes := 2 * len(gls)
	if chromosomes == 0 {
		posteriors[0] = log10Priors[0]
		return
	}
	likelihoods := make([]float64, chromosomes+1)
	scratch := make([]float64, chromosomes+1)
	for j := 1; j <= chromosomes; j++ {
		likelihoods[j] = math.Inf(-1)
	}
	for k := 1; k <= len(gls); k++ {
		gl := gls[k-1].Log10Likelihoods
		for j := 0; j <= 2*k; j++ {
			value := math.Inf(-1)
			if j <= 2*(k-1) {
				value = likelihoods[j] + gl[0]
			}
			if j >= 1 && j-1 <= 2*(k-1) {
				value = approximateLog10SumLog10(value, likelihoods[j-1]+gl[1]+log10Ploidy)
			}
			if j >= 2 {
				value = approximateLog10SumLog10(value, likelihoods[j-2]+gl[2])
			}
			scratch[j] = value
		}
		likelihoods, scratch = scratch, likelihoods
	}
	for j := 0; j <= chromosomes; j++ {
		posteriors[j] = log10Priors[j] + likelihoods[j] - combin.LogGeneralizedBinomial(float64(chromosomes), float64(j))/ln10
	}
}

// assignGenotypes distributes alleleCount alternate alleles across the
// samples such that the total genotype likelihood is maximized. The result
// contains the number of alternate alleles per sample, in the same order
// as gls.
func assignGenotypes(gls []*GenotypeLikelihoods, alleleCount int) []int {
	genotypes := make([]int, len(gls))
	if alleleCount > 2*len(gls) {
		alleleCount = 2 * len(gls)
	}
	for ; alleleCount > 0; alleleCount-- {
		best := -1
		bestGain := math.Inf(-1)
		for i, gl := range gls {
			if genotypes[i] == 2 {
				continue
			}
			gain := gl.Log10Likelihoods[genotypes[i]+1] - gl.Log10Likelihoods[genotypes[i]]
			if gain > bestGain {
				best = i
				bestGain = gain
			}
		}
		genotypes[best]++
	}
	return genotypes
}
