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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/exascience/elcall/vcf"
)

func TestCallLoci(t *testing.T) {
	dir, err := ioutil.TempDir("", "elcall")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()
	output := filepath.Join(dir, "calls.vcf")

	vcfFile, err := vcf.Create(output, false)
	if err != nil {
		t.Fatal(err)
	}
	engine := NewEngine(DefaultConfig([]string{"s1"}))
	engine.WriteVcfHeader([]Contig{{Name: "chr1", Length: 1000}}, vcfFile)

	variantPileup := newPileup(100)
	addBases(variantPileup, "s1", "GGGGGGGGGG", 30)
	referencePileup := newPileup(101)
	addBases(referencePileup, "s1", "AAAAAAAAAA", 30)

	loci := make(chan []Locus, 1)
	loci <- []Locus{
		{Ref: testRefContext('A', 100), Pileup: variantPileup},
		{Ref: testRefContext('A', 101), Pileup: referencePileup},
	}
	close(loci)
	engine.CallLoci(loci, vcfFile)
	if err := vcfFile.Close(); err != nil {
		t.Fatal(err)
	}

	contents, err := ioutil.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	if lines[0] != vcf.FileFormatVersionLine {
		t.Error("unexpected first header line:", lines[0])
	}
	var records []string
	var columns string
	for _, line := range lines {
		if strings.HasPrefix(line, "##") {
			continue
		}
		if strings.HasPrefix(line, "#") {
			columns = line
			continue
		}
		records = append(records, line)
	}
	if !strings.HasSuffix(columns, "FORMAT\ts1") {
		t.Error("sample column missing from the header:", columns)
	}
	if len(records) != 1 {
		t.Fatal("expected 1 record, got", len(records))
	}
	if !strings.HasPrefix(records[0], "chr1\t100\t.\tA\tG\t") {
		t.Error("unexpected record:", records[0])
	}
	if !strings.Contains(records[0], "1/1") {
		t.Error("expected a homozygous alternate genotype:", records[0])
	}
}
