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

// Package sites implements a simple tab-separated file format for
// known variant sites with their alleles.
package sites

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/exascience/pargo/pipeline"
)

// Site is a known variant site with its reference and alternate alleles.
type Site struct {
	Pos  int32
	Ref  byte
	Alts []byte
}

// SortByPos sorts a slice of Site by position.
func SortByPos(sites []Site) {
	sort.SliceStable(sites, func(i, j int) bool {
		return sites[i].Pos < sites[j].Pos
	})
}

// Lookup returns the site at the given position, if present.
// sites must be sorted by position.
func Lookup(sites []Site, pos int32) (Site, bool) {
	for left, right := 0, len(sites)-1; left <= right; {
		mid := (left + right) / 2
		if sitePos := sites[mid].Pos; sitePos < pos {
			left = mid + 1
		} else if sitePos > pos {
			right = mid - 1
		} else {
			return sites[mid], true
		}
	}
	return Site{}, false
}

// ElsitesHeader is the header line that every .elsites file with alleles starts with.
const ElsitesHeader = "# elsites format version 1.1\n"

// ToElsitesFile stores known sites in an .elsites file.
func ToElsitesFile(sites map[string][]Site, filename string) (err error) {
	pathname, err := filepath.Abs(filename)
	if err != nil {
		return err
	}
	output, err := os.Create(pathname)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := output.Close(); nerr != nil {
			if err == nil {
				err = nerr
			}
		}
	}()
	if _, err = output.WriteString(ElsitesHeader); err != nil {
		return err
	}
	for chrom, chromSites := range sites {
		var buf []byte
		for _, site := range chromSites {
			buf = append(buf, chrom...)
			buf = append(buf, '\t')
			buf = strconv.AppendInt(buf, int64(site.Pos), 10)
			buf = append(buf, '\t', site.Ref, '\t')
			for i, alt := range site.Alts {
				if i > 0 {
					buf = append(buf, ',')
				}
				buf = append(buf, alt)
			}
			buf = append(buf, '\n')
		}
		if _, err := output.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func parseSiteLine(str string) (chrom string, site Site, err error) {
	i := 0
	for ; i < len(str); i++ {
		if str[i] == '\t' {
			break
		}
	}
	if i == 0 || i == len(str) {
		return "", site, fmt.Errorf("invalid sites line %v", str)
	}
	chrom = str[:i]
	j := i + 1
	for i = j; i < len(str); i++ {
		if str[i] == '\t' {
			break
		}
	}
	if i == j || i == len(str) {
		return "", site, fmt.Errorf("invalid sites line %v", str)
	}
	value, err := strconv.ParseInt(str[j:i], 10, 32)
	if err != nil {
		return "", site, err
	}
	site.Pos = int32(value)
	if i+2 >= len(str) || str[i+2] != '\t' {
		return "", site, fmt.Errorf("invalid sites line %v", str)
	}
	site.Ref = str[i+1]
	for k := i + 3; k < len(str); k += 2 {
		site.Alts = append(site.Alts, str[k])
		if k+1 < len(str) && str[k+1] != ',' {
			return "", site, fmt.Errorf("invalid sites line %v", str)
		}
	}
	if len(site.Alts) == 0 {
		return "", site, fmt.Errorf("invalid sites line %v", str)
	}
	return chrom, site, nil
}

// FromElsitesFile loads known sites from an .elsites file.
//
// The sites for each contig are sorted by position.
func FromElsitesFile(filename string) (sites map[string][]Site, err error) {
	pathname, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := in.Close(); nerr != nil {
			if err == nil {
				err = nerr
			}
		}
	}()
	input := bufio.NewReader(in)
	header, err := input.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if header != ElsitesHeader {
		return nil, fmt.Errorf("%v is not a .elsites file with alleles - invalid header", filename)
	}
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		strs := data.([]string)
		sites := make(map[string][]Site)
		for _, str := range strs {
			chrom, site, err := parseSiteLine(str)
			if err != nil {
				p.SetErr(err)
				return sites
			}
			sites[chrom] = append(sites[chrom], site)
		}
		return sites
	})))
	sites = make(map[string][]Site)
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		for chrom, chromSites := range data.(map[string][]Site) {
			sites[chrom] = append(sites[chrom], chromSites...)
		}
		return data
	})))
	p.Run()
	if err = p.Err(); err != nil {
		return nil, err
	}
	for _, chromSites := range sites {
		SortByPos(chromSites)
	}
	return
}
