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

func TestApproximateLog10SumLog10(t *testing.T) {
	pairs := [][2]float64{
		{0, 0}, {-1, -2}, {-5, -0.5}, {-3.3, -3.3}, {-7.9, 0},
	}
	for _, pair := range pairs {
		exact := math.Log10(math.Pow(10, pair[0]) + math.Pow(10, pair[1]))
		approx := approximateLog10SumLog10(pair[0], pair[1])
		if math.Abs(approx-exact) > 1e-3 {
			t.Errorf("sum of %v and %v: expected %v, got %v", pair[0], pair[1], exact, approx)
		}
	}
	if approximateLog10SumLog10(math.Inf(-1), -2) != -2 {
		t.Error("sum with log10 of zero is wrong")
	}
	// values beyond the table tolerance collapse to the maximum
	if approximateLog10SumLog10(-20, 0) != 0 {
		t.Error("sum with a negligible term is wrong")
	}
}

func TestLog10SumLog10(t *testing.T) {
	values := []float64{-1, -2, -3}
	exact := math.Log10(0.1 + 0.01 + 0.001)
	if sum := log10SumLog10(values); math.Abs(sum-exact) > 1e-12 {
		t.Errorf("expected %v, got %v", exact, sum)
	}
	if !math.IsInf(log10SumLog10(nil), -1) {
		t.Error("empty sum is not log10 of zero")
	}
	if !math.IsInf(log10SumLog10([]float64{math.Inf(-1)}), -1) {
		t.Error("sum of log10 zeros is not log10 of zero")
	}
}

func TestLog10OneMinusPow10(t *testing.T) {
	for _, a := range []float64{-0.1, -1, -3, -8} {
		exact := math.Log10(1 - math.Pow(10, a))
		if got := log10OneMinusPow10(a); math.Abs(got-exact) > 1e-12 {
			t.Errorf("argument %v: expected %v, got %v", a, exact, got)
		}
	}
	if !math.IsInf(log10OneMinusPow10(0), -1) {
		t.Error("log10(1-1) is not log10 of zero")
	}
}

func TestQualToProbLog10(t *testing.T) {
	if !math.IsInf(qualToProbLog10[0], -1) {
		t.Error("quality 0 does not map to log10 of zero")
	}
	// a quality of 20 means an error probability of 1%
	exact := math.Log10(0.99)
	if math.Abs(qualToProbLog10[20]-exact) > 1e-12 {
		t.Error("unexpected log10 probability for quality 20:", qualToProbLog10[20])
	}
}

func TestMaxElementIndex(t *testing.T) {
	if index := maxElementIndex([]float64{-3, -1, -2}); index != 1 {
		t.Error("expected index 1, got", index)
	}
	if index := maxElementIndex([]float64{-1, -1, -2}); index != 0 {
		t.Error("ties not resolved towards the first element:", index)
	}
}

func TestNormalizeFromLog10(t *testing.T) {
	normalized := normalizeFromLog10([]float64{-1, -1, valueNotCalculated}, valueNotCalculated)
	var sum float64
	for _, v := range normalized {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Error("normalized probabilities do not sum to 1:", normalized)
	}
	if normalized[2] != 0 {
		t.Error("sentinel entry not treated as zero:", normalized[2])
	}
	if math.Abs(normalized[0]-0.5) > 1e-12 || math.Abs(normalized[1]-0.5) > 1e-12 {
		t.Error("equal entries not normalized to equal probabilities:", normalized)
	}
}

func TestBinomialProbability(t *testing.T) {
	if p := binomialProbability(0, 10, 0.5); math.Abs(p-math.Pow(0.5, 10)) > 1e-12 {
		t.Error("unexpected binomial probability:", p)
	}
	if p := binomialProbability(0, 0, 0.5); math.Abs(p-1) > 1e-12 {
		t.Error("expected probability 1 for an empty experiment, got", p)
	}
}
