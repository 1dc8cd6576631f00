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

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	log10One      = 0.0
	log10Ploidy   = 0.3010299956639812
	log10OneThird = -0.47712125471966244
)

const (
	jacobianLogTableMaxTolerance = 8
	jacobianLogTableStep         = 0.0001
	jacobianLogTableInvStep      = 1 / jacobianLogTableStep
)

// some math stuff
var (
	// one extra entry so that differences just below the tolerance
	// cannot round past the end
	jacobianLogTable  [jacobianLogTableMaxTolerance*int(jacobianLogTableInvStep) + 1]float64
	qualToProbLog10   [256]float64
	ln10              = math.Log(10)
	log1mexpThreshold = math.Log(0.5)
)

func init() {
	for i := range jacobianLogTable {
		jacobianLogTable[i] = log10(1 + math.Pow(10, -float64(i)*jacobianLogTableStep))
	}
	qualToProbLog10[0] = math.Inf(-1)
	for qual := 1; qual < len(qualToProbLog10); qual++ {
		qualToProbLog10[qual] = log10OneMinusPow10(float64(qual) / -10)
	}
}

func jacobianLog(difference float64) float64 {
	return jacobianLogTable[int(math.Round(difference*jacobianLogTableInvStep))]
}

func approximateLog10SumLog10(a, b float64) float64 {
	if a > b {
		a, b = b, a
	}
	if math.IsInf(a, -1) {
		return b
	}
	if diff := b - a; diff < jacobianLogTableMaxTolerance {
		return b + jacobianLog(diff)
	}
	return b
}

// log10SumLog10 computes log10 of the sum of the given log10 values.
func log10SumLog10(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(-1)
	}
	maxValue := values[maxElementIndex(values)]
	if math.IsInf(maxValue, -1) {
		return maxValue
	}
	var sum float64
	for _, value := range values {
		sum += math.Pow(10, value-maxValue)
	}
	return maxValue + log10(sum)
}

func log1mexp(a float64) float64 {
	if a > 0 {
		return math.NaN()
	}
	if a == 0 {
		return math.Inf(-1)
	}
	if a < log1mexpThreshold {
		return math.Log1p(-math.Exp(a))
	}
	return math.Log(-math.Expm1(a))
}

func log10OneMinusPow10(a float64) float64 {
	if a > 0 {
		return math.NaN()
	}
	if a == 0 {
		return math.Inf(-1)
	}
	b := a * ln10
	return log1mexp(b) / ln10
}

func maxElementIndex(values []float64) (index int) {
	for i, value := range values[1:] {
		if value > values[index] {
			index = i + 1
		}
	}
	return
}

// normalizeFromLog10 converts log10 values into normalized probabilities.
// Entries at or below the given floor are treated as log10 of zero.
func normalizeFromLog10(values []float64, floor float64) []float64 {
	maxValue := math.Inf(-1)
	for _, value := range values {
		if value > floor && value > maxValue {
			maxValue = value
		}
	}
	normalized := make([]float64, len(values))
	var sum float64
	for i, value := range values {
		if value > floor {
			v := math.Pow(10, value-maxValue)
			normalized[i] = v
			sum += v
		}
	}
	for i := range normalized {
		normalized[i] /= sum
	}
	return normalized
}

func binomialProbability(k, n int, p float64) float64 {
	binomial := distuv.Binomial{N: float64(n), P: p}
	return binomial.Prob(float64(k))
}

func minInt(x, y int) int {
	if x < y {
		return x
	}
	return y
}

func maxInt(x, y int) int {
	if x > y {
		return x
	}
	return y
}

func minInt32(x, y int32) int32 {
	if x < y {
		return x
	}
	return y
}

func maxInt32(x, y int32) int32 {
	if x > y {
		return x
	}
	return y
}

func maxByte(x, y byte) byte {
	if x > y {
		return x
	}
	return y
}
