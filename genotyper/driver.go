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
	"fmt"
	"runtime"
	"sort"

	"github.com/exascience/elcall/internal"
	"github.com/exascience/elcall/utils"
	"github.com/exascience/elcall/vcf"
	"github.com/exascience/pargo/pipeline"
	"github.com/google/uuid"
)

// Locus pairs a reference context with the pileup that covers it.
type Locus struct {
	Ref    *RefContext
	Pileup *Pileup
}

// Contig describes one reference sequence for the VCF header.
type Contig struct {
	Name   string
	Length int
}

// WriteVcfHeader writes the VCF header for the calls produced by this engine.
func (e *Engine) WriteVcfHeader(contigs []Contig, vcfFile *vcf.OutputFile) {
	vcfHeader := vcf.NewHeader()
	vcfHeader.Infos = []*vcf.FormatInformation{
		{
			ID:          DP,
			Description: "Approximate read depth; some reads may have been filtered",
			Number:      1,
			Type:        vcf.Integer,
		},
		{
			ID:          DS,
			Description: "Were any of the samples downsampled?",
			Number:      0,
			Type:        vcf.Flag,
		},
		{
			ID:          SB,
			Description: "Strand bias",
			Number:      1,
			Type:        vcf.Float,
		},
	}
	vcfHeader.Formats = []*vcf.FormatInformation{
		{
			ID:          DP,
			Description: "Approximate read depth (reads with low mapping quality or bad mates are filtered)",
			Number:      1,
			Type:        vcf.Integer,
		},
		{
			ID:          GQ,
			Description: "Genotype Quality",
			Number:      1,
			Type:        vcf.Integer,
		},
		{
			ID:          vcf.GT,
			Description: "Genotype",
			Number:      1,
			Type:        vcf.String,
		},
		{
			ID:          PL,
			Description: "Normalized, Phred-scaled likelihoods for genotypes as defined in the VCF specification",
			Number:      vcf.NumberG,
			Type:        vcf.Integer,
		},
	}
	vcfHeader.Meta["FILTER"] = []interface{}{
		&vcf.MetaInformation{
			ID:          LowQual,
			Description: "Low quality",
		},
	}
	for _, contig := range contigs {
		vcfHeader.Meta["contig"] = append(vcfHeader.Meta["contig"], interface{}(
			&vcf.MetaInformation{
				ID:     utils.Intern(contig.Name),
				Fields: utils.StringMap{"length": fmt.Sprint(contig.Length)},
			}))
	}
	vcfHeader.Meta["source"] = []interface{}{utils.ProgramName}
	vcfHeader.Meta[utils.ProgramName+"_run_id"] = []interface{}{uuid.New().String()}
	sort.Slice(vcfHeader.Formats, func(i, j int) bool {
		return *vcfHeader.Formats[i].ID < *vcfHeader.Formats[j].ID
	})
	sort.Slice(vcfHeader.Infos, func(i, j int) bool {
		return *vcfHeader.Infos[i].ID < *vcfHeader.Infos[j].ID
	})
	vcfHeader.Columns = append(vcfHeader.Columns, "FORMAT")
	vcfHeader.Columns = append(vcfHeader.Columns, e.cfg.Samples...)
	_ = vcfHeader.Format(vcfFile.Writer)
}

// CallLoci genotypes batches of loci in parallel and writes the resulting
// VCF records in order. Each worker uses its own CalculationModels; the
// engine itself is shared and immutable.
func (e *Engine) CallLoci(loci <-chan []Locus, vcfFile *vcf.OutputFile) {
	var p pipeline.Pipeline
	p.Source(pipeline.NewSingletonChan(loci))
	p.SetVariableBatchSize(1, 1)
	p.Add(
		pipeline.LimitedPar(runtime.GOMAXPROCS(0), pipeline.Receive(func(_ int, data interface{}) interface{} {
			batch := data.([]Locus)
			cm := e.NewCalculationModels()
			records := make([][]byte, 0, len(batch))
			var buf []byte
			for _, locus := range batch {
				call := cm.CalculateLikelihoodsAndGenotypes(locus.Ref, locus.Pileup)
				if call == nil || !call.ShouldEmit {
					continue
				}
				var err error
				buf, err = call.Variant.Format(buf)
				if err != nil {
					p.SetErr(err)
					return records
				}
				records = append(records, append([]byte(nil), buf...))
				buf = buf[:0]
			}
			return records
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			for _, record := range data.([][]byte) {
				_, _ = vcfFile.Write(record)
			}
			return nil
		})),
	)
	internal.RunPipeline(&p)
}
