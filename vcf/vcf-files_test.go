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

package vcf

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/exascience/elcall/utils"
)

var (
	testDP = utils.Intern("DP")
	testGQ = utils.Intern("GQ")
)

func TestFormatVariant(t *testing.T) {
	var info utils.SmallMap
	info.Set(testDP, 20)
	var data utils.SmallMap
	data.Set(testDP, 10)
	data.Set(testGQ, 99)
	variant := &Variant{
		Chrom:          "chr1",
		Pos:            100,
		Ref:            "A",
		Alt:            []string{"G"},
		Qual:           99.5,
		Info:           info,
		GenotypeFormat: []utils.Symbol{GT, testDP, testGQ},
		GenotypeData: []Genotype{
			{GT: []int32{0, 1}, Data: data},
			{GT: []int32{-1, -1}},
		},
	}
	out, err := variant.Format(nil)
	if err != nil {
		t.Fatal(err)
	}
	expected := "chr1\t100\t.\tA\tG\t99.5\t.\tDP=20\tGT:DP:GQ\t0/1:10:99\t./.\n"
	if string(out) != expected {
		t.Errorf("expected %q, got %q", expected, out)
	}
}

func TestFormatVariantMissingFields(t *testing.T) {
	variant := &Variant{
		Chrom: "chr1",
		Pos:   100,
		Ref:   "A",
	}
	out, err := variant.Format(nil)
	if err != nil {
		t.Fatal(err)
	}
	expected := "chr1\t100\t.\tA\t.\t.\t.\t\n"
	if string(out) != expected {
		t.Errorf("expected %q, got %q", expected, out)
	}
}

func TestFormatVariantFilter(t *testing.T) {
	variant := &Variant{
		Chrom:  "chr1",
		Pos:    100,
		Ref:    "A",
		Alt:    []string{"G"},
		Qual:   10.0,
		Filter: []utils.Symbol{utils.Intern("LowQual")},
	}
	out, err := variant.Format(nil)
	if err != nil {
		t.Fatal(err)
	}
	expected := "chr1\t100\t.\tA\tG\t10\tLowQual\t\n"
	if string(out) != expected {
		t.Errorf("expected %q, got %q", expected, out)
	}
}

func TestFormatGT(t *testing.T) {
	if out := formatGT(nil, Genotype{GT: []int32{0, 1}}); string(out) != "0/1" {
		t.Error("expected 0/1, got", string(out))
	}
	if out := formatGT(nil, Genotype{Phased: true, GT: []int32{1, 0}}); string(out) != "1|0" {
		t.Error("expected 1|0, got", string(out))
	}
	if out := formatGT(nil, Genotype{GT: []int32{-1, -1}}); string(out) != "./." {
		t.Error("expected ./., got", string(out))
	}
	if out := formatGT(nil, Genotype{}); string(out) != "." {
		t.Error("expected ., got", string(out))
	}
}

func TestFormatHeader(t *testing.T) {
	header := NewHeader()
	header.Infos = []*FormatInformation{
		{
			ID:          testDP,
			Description: "Total Depth",
			Number:      1,
			Type:        Integer,
		},
	}
	header.Formats = []*FormatInformation{
		{
			ID:     GT,
			Number: 1,
			Type:   String,
		},
		{
			ID:          utils.Intern("PL"),
			Number:      NumberG,
			Type:        Integer,
			Description: "Phred-scaled likelihoods",
		},
	}
	header.Columns = append(header.Columns, "FORMAT", "s1")

	var buf bytes.Buffer
	out := bufio.NewWriter(&buf)
	if err := header.Format(out); err != nil {
		t.Fatal(err)
	}
	if err := out.Flush(); err != nil {
		t.Fatal(err)
	}
	expected := "##fileformat=VCFv4.3\n" +
		"##INFO=<ID=DP,Number=1,Type=Integer,Description=\"Total Depth\">\n" +
		"##FORMAT=<ID=GT,Number=1,Type=String>\n" +
		"##FORMAT=<ID=PL,Number=G,Type=Integer,Description=\"Phred-scaled likelihoods\">\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1\n"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}

func TestFormatString(t *testing.T) {
	var buf bytes.Buffer
	out := bufio.NewWriter(&buf)
	if err := FormatString(out, `a "quoted" \ string`); err != nil {
		t.Fatal(err)
	}
	if err := out.Flush(); err != nil {
		t.Fatal(err)
	}
	expected := `"a \"quoted\" \\ string"`
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}
