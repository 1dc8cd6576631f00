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

package fasta

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestToUpperAndN(t *testing.T) {
	pairs := map[byte]byte{
		'a': 'A', 'c': 'C', 'g': 'G', 't': 'T',
		'A': 'A', 'C': 'C', 'G': 'G', 'T': 'T',
		'n': 'N', 'r': 'N', 'Y': 'N', 'w': 'N',
	}
	for in, expected := range pairs {
		if out := ToUpperAndN(in); out != expected {
			t.Errorf("expected %v for %v, got %v", string(expected), string(in), string(out))
		}
	}
}

func TestParseFasta(t *testing.T) {
	dir, err := ioutil.TempDir("", "fasta")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()
	filename := filepath.Join(dir, "test.fasta")
	contents := ">chr1 some description\nACGTacgt\nNNRYacgt\n>chr2\nTTTT\n"
	if err := ioutil.WriteFile(filename, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	parsed := ParseFasta(filename)
	if len(parsed) != 2 {
		t.Fatal("expected 2 contigs, got", len(parsed))
	}
	if !bytes.Equal(parsed["chr1"], []byte("ACGTACGTNNNNACGT")) {
		t.Errorf("unexpected sequence for chr1: %s", parsed["chr1"])
	}
	if !bytes.Equal(parsed["chr2"], []byte("TTTT")) {
		t.Errorf("unexpected sequence for chr2: %s", parsed["chr2"])
	}
}

func TestElfastaRoundtrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "elfasta")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()
	filename := filepath.Join(dir, "test.elfasta")

	original := map[string][]byte{
		"chr1": []byte("ACGTACGTNNNNACGT"),
		"chr2": []byte("TTTT"),
		"chrM": []byte("GGGGGGGG"),
	}
	ToElfasta(original, filename)

	mapped := OpenElfasta(filename)
	defer mapped.Close()

	contigs := mapped.Contigs()
	if len(contigs) != 3 {
		t.Fatal("expected 3 contigs, got", contigs)
	}
	for i, expected := range []string{"chr1", "chr2", "chrM"} {
		if contigs[i] != expected {
			t.Error("contigs not sorted by name:", contigs)
		}
	}
	for contig, seq := range original {
		if !bytes.Equal(mapped.Seq(contig), seq) {
			t.Errorf("unexpected sequence for %v: %s", contig, mapped.Seq(contig))
		}
	}
	if mapped.Seq("chr3") != nil {
		t.Error("unexpected sequence for an unknown contig")
	}
}
