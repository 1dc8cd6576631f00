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
	"testing"
)

func gl(refref, refalt, altalt float64) *GenotypeLikelihoods {
	return &GenotypeLikelihoods{Log10Likelihoods: [3]float64{refref, refalt, altalt}}
}

func TestExactModelHomRefPeak(t *testing.T) {
	gls := []*GenotypeLikelihoods{gl(0, -5, -10), gl(0, -5, -10), gl(0, -5, -10)}
	priors := computeAlleleFrequencyPriors(6, 1e-3)
	posteriors := make([]float64, 7)
	exactModel{}.calculate(gls, priors, posteriors)
	if peak := maxElementIndex(posteriors); peak != 0 {
		t.Error("expected the posterior peak at allele count 0, got", peak)
	}
}

func TestExactModelHetPeak(t *testing.T) {
	gls := []*GenotypeLikelihoods{gl(-8, 0, -8), gl(0, -8, -16), gl(0, -8, -16)}
	priors := computeAlleleFrequencyPriors(6, 1e-3)
	posteriors := make([]float64, 7)
	exactModel{}.calculate(gls, priors, posteriors)
	if peak := maxElementIndex(posteriors); peak != 1 {
		t.Error("expected the posterior peak at allele count 1, got", peak)
	}
}

// TestExactModelBruteForce compares the dynamic program against a direct
// sum over all genotype assignments for two samples.
func TestExactModelBruteForce(t *testing.T) {
	gls := []*GenotypeLikelihoods{gl(-0.1, -0.9, -2.5), gl(-0.2, -0.7, -1.8)}
	priors := computeAlleleFrequencyPriors(4, 1e-3)
	posteriors := make([]float64, 5)
	exactModel{}.calculate(gls, priors, posteriors)

	// sum the likelihoods of all genotype assignments per total allele
	// count, weighting heterozygous genotypes by the number of
	// chromosome orderings
	sums := make([]float64, 5)
	for g1 := 0; g1 <= 2; g1++ {
		for g2 := 0; g2 <= 2; g2++ {
			weight := 1.0
			if g1 == 1 {
				weight *= 2
			}
			if g2 == 1 {
				weight *= 2
			}
			sums[g1+g2] += weight * math.Pow(10, gls[0].Log10Likelihoods[g1]+gls[1].Log10Likelihoods[g2])
		}
	}
	binomials := []float64{1, 4, 6, 4, 1}
	for j := 0; j <= 4; j++ {
		expected := priors[j] + math.Log10(sums[j]) - math.Log10(binomials[j])
		if math.Abs(posteriors[j]-expected) > 1e-3 {
			t.Errorf("allele count %v: expected posterior %v, got %v", j, expected, posteriors[j])
		}
	}
}

func TestExactModelWithoutSamples(t *testing.T) {
	priors := computeAlleleFrequencyPriors(4, 1e-3)
	posteriors := make([]float64, 5)
	exactModel{}.calculate(nil, priors, posteriors)
	if posteriors[0] != priors[0] {
		t.Error("expected the prior as posterior for allele count 0, got", posteriors[0])
	}
	for j := 1; j <= 4; j++ {
		if posteriors[j] != valueNotCalculated {
			t.Error("unexpected posterior for allele count", j)
		}
	}
}

func TestGridSearchModelHetPeak(t *testing.T) {
	gls := []*GenotypeLikelihoods{gl(-8, 0, -8), gl(0, -8, -16), gl(0, -8, -16)}
	priors := computeAlleleFrequencyPriors(6, 1e-3)
	posteriors := make([]float64, 7)
	gridSearchModel{}.calculate(gls, priors, posteriors)
	if peak := maxElementIndex(posteriors); peak != 1 {
		t.Error("expected the posterior peak at allele count 1, got", peak)
	}
}

func TestGridSearchModelStopsEarly(t *testing.T) {
	gls := []*GenotypeLikelihoods{gl(0, -10, -20), gl(0, -10, -20), gl(0, -10, -20)}
	priors := computeAlleleFrequencyPriors(6, 1e-3)
	posteriors := make([]float64, 7)
	gridSearchModel{}.calculate(gls, priors, posteriors)
	if peak := maxElementIndex(posteriors); peak != 0 {
		t.Error("expected the posterior peak at allele count 0, got", peak)
	}
	for j := 3; j <= 6; j++ {
		if posteriors[j] != valueNotCalculated {
			t.Error("hill climb did not stop before allele count", j)
		}
	}
}

func TestGridSearchModelWithoutSamples(t *testing.T) {
	priors := computeAlleleFrequencyPriors(4, 1e-3)
	posteriors := make([]float64, 5)
	gridSearchModel{}.calculate(nil, priors, posteriors)
	if posteriors[0] != priors[0] {
		t.Error("expected the prior as posterior for allele count 0, got", posteriors[0])
	}
}

func TestAssignGenotypes(t *testing.T) {
	gls := []*GenotypeLikelihoods{gl(-5, 0, -5), gl(0, -5, -10)}
	if genotypes := assignGenotypes(gls, 1); genotypes[0] != 1 || genotypes[1] != 0 {
		t.Error("expected one alternate allele for the first sample, got", genotypes)
	}
	if genotypes := assignGenotypes(gls, 2); genotypes[0] != 2 || genotypes[1] != 0 {
		t.Error("expected two alternate alleles for the first sample, got", genotypes)
	}
	if genotypes := assignGenotypes(gls, 4); genotypes[0] != 2 || genotypes[1] != 2 {
		t.Error("expected all samples homozygous alternate, got", genotypes)
	}
	// allele counts beyond the number of chromosomes are capped
	if genotypes := assignGenotypes(gls, 7); genotypes[0] != 2 || genotypes[1] != 2 {
		t.Error("expected all samples homozygous alternate, got", genotypes)
	}
}
