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
)

// the number of consecutive declining allele counts after which the hill
// climb gives up
const gridSearchPatience = 2

// gridSearchModel approximates the posterior surface with a greedy hill
// climb over alternate allele counts, starting from zero. For each count,
// the likelihood of the best greedy assignment of alternate alleles to
// samples stands in for the full sum over assignments. The climb stops
// once the posterior has declined for gridSearchPatience consecutive
// counts past the running maximum.
type gridSearchModel struct{}

func (gridSearchModel) calculate(gls []*GenotypeLikelihoods, log10Priors, posteriors []float64) {
	clearAFarray(posteriors)
	chromosomes := 2 * len(gls)
	if chromosomes == 0 {
		posteriors[0] = log10Priors[0]
		return
	}
	genotypes := make([]int, len(gls))
	var likelihood float64
	for _, gl := range gls {
		likelihood += gl.Log10Likelihoods[0]
	}
	posteriors[0] = log10Priors[0] + likelihood
	maxPosterior := posteriors[0]
	var declining int
	for count := 1; count <= chromosomes; count++ {
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
		likelihood += bestGain
		posteriors[count] = log10Priors[count] + likelihood
		if posteriors[count] > maxPosterior {
			maxPosterior = posteriors[count]
			declining = 0
		} else if declining++; declining >= gridSearchPatience {
			break
		}
	}
}
