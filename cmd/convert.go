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

package cmd

import (
	"flag"
	"os"

	"github.com/exascience/elcall/fasta"
	"github.com/exascience/elcall/sites"
)

// FastaToElfastaHelp is the help string for this command.
const FastaToElfastaHelp = "fasta-to-elfasta parameters:\n" +
	"elcall fasta-to-elfasta fasta-file elfasta-file\n" +
	"[--log-path path]\n"

// FastaToElfasta implements the elcall fasta-to-elfasta command.
func FastaToElfasta() {
	var logPath string

	var flags flag.FlagSet
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	parseFlags(flags, 4, FastaToElfastaHelp)

	input := getFilename(os.Args[2], FastaToElfastaHelp)
	output := getFilename(os.Args[3], FastaToElfastaHelp)

	setLogOutput(logPath)

	fasta.ToElfasta(fasta.ParseFasta(input), output)
}

// SortElsitesHelp is the help string for this command.
const SortElsitesHelp = "sort-elsites parameters:\n" +
	"elcall sort-elsites elsites-file elsites-file\n" +
	"[--log-path path]\n"

// SortElsites implements the elcall sort-elsites command. It rewrites an
// .elsites file with the sites for each contig sorted by position.
func SortElsites() error {
	var logPath string

	var flags flag.FlagSet
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	parseFlags(flags, 4, SortElsitesHelp)

	input := getFilename(os.Args[2], SortElsitesHelp)
	output := getFilename(os.Args[3], SortElsitesHelp)

	setLogOutput(logPath)

	knownSites, err := sites.FromElsitesFile(input)
	if err != nil {
		return err
	}
	return sites.ToElsitesFile(knownSites, output)
}
