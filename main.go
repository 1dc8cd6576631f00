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

// elCall is a high-performance tool for calling single-nucleotide
// variants in aligned sequencing data.
//
// Please see https://github.com/exascience/elcall for a documentation
// of the tool, and below (and/or
// https://godoc.org/github.com/ExaScience/elcall) for the API
// documentation.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/elcall/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: call, fasta-to-elfasta, sort-elsites")
	fmt.Fprint(os.Stderr, "\n", cmd.CallHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.FastaToElfastaHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.SortElsitesHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "call":
		err = cmd.Call()
	case "fasta-to-elfasta":
		cmd.FastaToElfasta()
	case "sort-elsites":
		err = cmd.SortElsites()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Println("Unknown command:", os.Args[1])
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
