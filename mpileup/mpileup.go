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

// Package mpileup parses the textual pileup format produced by samtools
// mpileup, with one column group per sample.
package mpileup

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/exascience/elcall/genotyper"
)

const qualOffset = 33

// Locus is one parsed pileup line.
type Locus struct {
	Contig  string
	Pos     int32 // 1-based
	RefBase byte
	Pileup  *genotyper.Pileup
}

// Reader parses a multi-sample pileup file.
type Reader struct {
	scanner *bufio.Scanner
	samples []string
	// whether the input carries a mapping quality column per sample
	// (samtools mpileup -s)
	hasMapQ bool
	// mapping quality for bases without mapping quality information
	defaultMapQ byte
	line        int
}

// NewReader creates a Reader for a pileup file with one column group per
// sample, in the given order. hasMapQ tells whether each column group has
// a fourth column with per-base mapping qualities; bases without mapping
// quality information get defaultMapQ.
func NewReader(r io.Reader, samples []string, hasMapQ bool, defaultMapQ byte) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	return &Reader{
		scanner:     scanner,
		samples:     samples,
		hasMapQ:     hasMapQ,
		defaultMapQ: defaultMapQ,
	}
}

// Read parses the next pileup line. It returns io.EOF at the end of the
// input.
func (r *Reader) Read() (*Locus, error) {
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Text()
		if len(line) == 0 {
			continue
		}
		locus, err := r.parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("pileup line %d: %v", r.line, err)
		}
		return locus, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (r *Reader) parseLine(line string) (*Locus, error) {
	stride := 3
	if r.hasMapQ {
		stride = 4
	}
	fields := strings.Split(line, "\t")
	if len(fields) != 3+stride*len(r.samples) {
		return nil, fmt.Errorf("expected %d fields, got %d", 3+stride*len(r.samples), len(fields))
	}
	pos, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return nil, err
	}
	if len(fields[2]) != 1 {
		return nil, fmt.Errorf("invalid reference base %q", fields[2])
	}
	locus := &Locus{
		Contig:  fields[0],
		Pos:     int32(pos),
		RefBase: upperBase(fields[2][0]),
		Pileup: &genotyper.Pileup{
			Contig: fields[0],
			Pos:    int32(pos),
		},
	}
	for i, sample := range r.samples {
		group := fields[3+i*stride : 3+(i+1)*stride]
		depth, err := strconv.ParseInt(group[0], 10, 32)
		if err != nil {
			return nil, err
		}
		if depth == 0 {
			continue
		}
		var mapqs string
		if r.hasMapQ {
			mapqs = group[3]
		}
		elements, err := r.parseBases(sample, locus, group[1], group[2], mapqs)
		if err != nil {
			return nil, fmt.Errorf("sample %v: %v", sample, err)
		}
		locus.Pileup.Elements = append(locus.Pileup.Elements, elements...)
	}
	return locus, nil
}

func upperBase(base byte) byte {
	if base >= 'a' && base <= 'z' {
		return base - 'a' + 'A'
	}
	return base
}

// parseBases decodes one sample's base string. Every base becomes a
// single-base read, since the pileup format does not preserve read
// identity across lines.
func (r *Reader) parseBases(sample string, locus *Locus, bases, quals, mapqs string) (elements []genotyper.PileupElement, err error) {
	var qualIndex int
	qual := func() (byte, error) {
		if qualIndex >= len(quals) {
			return 0, fmt.Errorf("not enough base qualities in %q", quals)
		}
		q := quals[qualIndex] - qualOffset
		qualIndex++
		return q, nil
	}
	mapQ := func(startMapQ byte, hasStartMapQ bool) byte {
		if r.hasMapQ && qualIndex <= len(mapqs) {
			// qualIndex has already been advanced past the current base
			return mapqs[qualIndex-1] - qualOffset
		}
		if hasStartMapQ {
			return startMapQ
		}
		return r.defaultMapQ
	}
	var startMapQ byte
	var hasStartMapQ bool
	for i := 0; i < len(bases); i++ {
		switch c := bases[i]; c {
		case '^':
			if i++; i >= len(bases) {
				return nil, fmt.Errorf("truncated read start marker in %q", bases)
			}
			startMapQ = bases[i] - qualOffset
			hasStartMapQ = true
		case '$':
			// read end marker
		case '+', '-':
			j := i + 1
			for j < len(bases) && bases[j] >= '0' && bases[j] <= '9' {
				j++
			}
			length, err := strconv.ParseInt(bases[i+1:j], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid indel length in %q", bases)
			}
			i = j + int(length) - 1
		case '>', '<':
			// reference skip; consumes a quality, produces no element
			if _, err := qual(); err != nil {
				return nil, err
			}
			hasStartMapQ = false
		case '*':
			if _, err := qual(); err != nil {
				return nil, err
			}
			read := &genotyper.Read{
				Sample: sample,
				MapQ:   mapQ(startMapQ, hasStartMapQ),
				Pos:    locus.Pos,
			}
			elements = append(elements, genotyper.PileupElement{Read: read, Deletion: true})
			hasStartMapQ = false
		default:
			var base byte
			var reverse bool
			switch {
			case c == '.':
				base = locus.RefBase
			case c == ',':
				base = locus.RefBase
				reverse = true
			case c >= 'A' && c <= 'Z':
				base = c
			case c >= 'a' && c <= 'z':
				base = upperBase(c)
				reverse = true
			default:
				return nil, fmt.Errorf("unexpected character %q in %q", c, bases)
			}
			q, err := qual()
			if err != nil {
				return nil, err
			}
			read := &genotyper.Read{
				Sample:  sample,
				MapQ:    mapQ(startMapQ, hasStartMapQ),
				Reverse: reverse,
				Pos:     locus.Pos,
				Bases:   []byte{base},
				Quals:   []byte{q},
			}
			elements = append(elements, genotyper.PileupElement{Read: read})
			hasStartMapQ = false
		}
	}
	if qualIndex != len(quals) {
		return nil, fmt.Errorf("base string %q does not match qualities %q", bases, quals)
	}
	return elements, nil
}
