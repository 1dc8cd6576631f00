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
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/exascience/elcall/fasta"
	"github.com/exascience/elcall/genotyper"
	"github.com/exascience/elcall/internal"
	"github.com/exascience/elcall/mpileup"
	"github.com/exascience/elcall/sites"
	"github.com/exascience/elcall/vcf"
)

// CallHelp is the help string for this command.
const CallHelp = "call parameters:\n" +
	"elcall call pileup-file vcf-file\n" +
	"--reference elfasta-or-fasta-file\n" +
	"--samples name[,name...]\n" +
	"[--heterozygosity number]\n" +
	"[--indel-heterozygosity number]\n" +
	"[--call-conf number]\n" +
	"[--emit-conf number]\n" +
	"[--min-base-qual number]\n" +
	"[--min-map-qual number]\n" +
	"[--max-mismatches number]\n" +
	"[--use-bad-mates]\n" +
	"[--max-deletion-fraction number]\n" +
	"[--max-coverage number]\n" +
	"[--downsample-to number]\n" +
	"[--no-slod]\n" +
	"[--output-mode EMIT_VARIANTS_ONLY | EMIT_ALL_CONFIDENT_SITES | EMIT_ALL_SITES]\n" +
	"[--genotyping-mode DISCOVERY | GENOTYPE_GIVEN_ALLELES]\n" +
	"[--known-sites elsites-file]\n" +
	"[--af-model EXACT | GRID_SEARCH]\n" +
	"[--mapq-column]\n" +
	"[--default-mapq number]\n" +
	"[--verbose-trace file]\n" +
	"[--nr-of-threads number]\n" +
	"[--timed]\n" +
	"[--profile prefix]\n" +
	"[--log-path path]\n"

const (
	locusBatchSize    = 512
	refContextPadding = 100
)

type reference interface {
	Seq(contig string) []byte
	Contigs() []string
}

type inMemoryFasta map[string][]byte

func (fasta inMemoryFasta) Seq(contig string) []byte {
	return fasta[contig]
}

func (fasta inMemoryFasta) Contigs() []string {
	contigs := make([]string, 0, len(fasta))
	for contig := range fasta {
		contigs = append(contigs, contig)
	}
	for i := 1; i < len(contigs); i++ {
		for j := i; j > 0 && contigs[j] < contigs[j-1]; j-- {
			contigs[j], contigs[j-1] = contigs[j-1], contigs[j]
		}
	}
	return contigs
}

func openReference(filename string) (reference, func()) {
	if filepath.Ext(filename) == ".elfasta" {
		mapped := fasta.OpenElfasta(filename)
		return mapped, mapped.Close
	}
	return inMemoryFasta(fasta.ParseFasta(filename)), func() {}
}

func parseOutputMode(s string) (genotyper.OutputMode, bool) {
	switch strings.ToUpper(s) {
	case "", "EMIT_VARIANTS_ONLY":
		return genotyper.EmitVariantsOnly, true
	case "EMIT_ALL_CONFIDENT_SITES":
		return genotyper.EmitAllConfidentSites, true
	case "EMIT_ALL_SITES":
		return genotyper.EmitAllSites, true
	default:
		return 0, false
	}
}

func parseGenotypingMode(s string) (genotyper.GenotypingMode, bool) {
	switch strings.ToUpper(s) {
	case "", "DISCOVERY":
		return genotyper.Discovery, true
	case "GENOTYPE_GIVEN_ALLELES":
		return genotyper.GenotypeGivenAlleles, true
	default:
		return 0, false
	}
}

func parseAFModel(s string) (genotyper.AFModel, bool) {
	switch strings.ToUpper(s) {
	case "", "EXACT":
		return genotyper.ExactAF, true
	case "GRID_SEARCH":
		return genotyper.GridSearchAF, true
	default:
		return 0, false
	}
}

// Call implements the elcall call command.
func Call() (err error) {
	var (
		referenceFile, samples, outputMode, genotypingMode, afModel string
		knownSitesFile, verboseTrace, logPath, profile              string
		heterozygosity, indelHeterozygosity, callConf, emitConf     float64
		maxDeletionFraction                                         float64
		minBaseQual, minMapQual, maxMismatches                      int
		maxCoverage, downsampleTo, defaultMapQ, nrOfThreads         int
		useBadMates, noSLOD, mapqColumn, timed                      bool
	)

	var flags flag.FlagSet
	flags.StringVar(&referenceFile, "reference", "", "reference sequence in the elfasta or fasta format")
	flags.StringVar(&samples, "samples", "", "comma-separated sample names, in pileup column order")
	flags.Float64Var(&heterozygosity, "heterozygosity", genotyper.DefaultHeterozygosity, "expected heterozygosity of the population")
	flags.Float64Var(&indelHeterozygosity, "indel-heterozygosity", genotyper.DefaultIndelHeterozygosity, "expected indel heterozygosity of the population")
	flags.Float64Var(&callConf, "call-conf", genotyper.DefaultCallConfidence, "minimum phred-scaled confidence to call a variant")
	flags.Float64Var(&emitConf, "emit-conf", genotyper.DefaultEmitConfidence, "minimum phred-scaled confidence to emit a variant")
	flags.IntVar(&minBaseQual, "min-base-qual", genotyper.DefaultMinBaseQual, "minimum base quality for a base to be considered")
	flags.IntVar(&minMapQual, "min-map-qual", genotyper.DefaultMinMapQ, "minimum mapping quality for a read to be considered")
	flags.IntVar(&maxMismatches, "max-mismatches", genotyper.DefaultMaxMismatches, "maximum number of mismatches within the window around a base")
	flags.BoolVar(&useBadMates, "use-bad-mates", false, "also use reads whose mates map to a different contig")
	flags.Float64Var(&maxDeletionFraction, "max-deletion-fraction", genotyper.DefaultMaxDeletionFraction, "maximum fraction of deletions in a pileup; values outside [0,1] disable this filter")
	flags.IntVar(&maxCoverage, "max-coverage", 0, "skip sites with more coverage than this; 0 disables")
	flags.IntVar(&downsampleTo, "downsample-to", 0, "downsample each sample pileup to at most this many bases; 0 disables")
	flags.BoolVar(&noSLOD, "no-slod", false, "skip the strand bias computation")
	flags.StringVar(&outputMode, "output-mode", "", "which sites to emit")
	flags.StringVar(&genotypingMode, "genotyping-mode", "", "how alternate alleles are selected")
	flags.StringVar(&knownSitesFile, "known-sites", "", "elsites file with known variant sites and their alleles")
	flags.StringVar(&afModel, "af-model", "", "the allele frequency model")
	flags.BoolVar(&mapqColumn, "mapq-column", false, "the pileup input has a mapping quality column per sample")
	flags.IntVar(&defaultMapQ, "default-mapq", 60, "mapping quality for bases without mapping quality information")
	flags.StringVar(&verboseTrace, "verbose-trace", "", "write a trace of the allele frequency posteriors to the specified file")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a CPU profile to the specified file prefix")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	parseFlags(flags, 4, CallHelp)

	input := getFilename(os.Args[2], CallHelp)
	output := getFilename(os.Args[3], CallHelp)

	setLogOutput(logPath)

	sanityChecksFailed := false
	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	if referenceFile == "" {
		log.Println("Error: Missing --reference parameter.")
		sanityChecksFailed = true
	} else if !checkExist("--reference", referenceFile) {
		sanityChecksFailed = true
	}
	if samples == "" {
		log.Println("Error: Missing --samples parameter.")
		sanityChecksFailed = true
	}
	if knownSitesFile != "" && !checkExist("--known-sites", knownSitesFile) {
		sanityChecksFailed = true
	}
	cfgOutputMode, ok := parseOutputMode(outputMode)
	if !ok {
		log.Printf("Error: Invalid --output-mode %v.\n", outputMode)
		sanityChecksFailed = true
	}
	cfgGenotypingMode, ok := parseGenotypingMode(genotypingMode)
	if !ok {
		log.Printf("Error: Invalid --genotyping-mode %v.\n", genotypingMode)
		sanityChecksFailed = true
	}
	cfgAFModel, ok := parseAFModel(afModel)
	if !ok {
		log.Printf("Error: Invalid --af-model %v.\n", afModel)
		sanityChecksFailed = true
	}
	if cfgGenotypingMode == genotyper.GenotypeGivenAlleles && knownSitesFile == "" {
		log.Println("Error: --genotyping-mode GENOTYPE_GIVEN_ALLELES requires --known-sites.")
		sanityChecksFailed = true
	}
	if nrOfThreads < 0 {
		log.Println("Error: Invalid nr-of-threads:", nrOfThreads)
		sanityChecksFailed = true
	}
	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, CallHelp)
		os.Exit(1)
	}

	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
	}

	sampleNames := strings.Split(samples, ",")

	cfg := genotyper.DefaultConfig(sampleNames)
	cfg.Heterozygosity = heterozygosity
	cfg.IndelHeterozygosity = indelHeterozygosity
	cfg.CallConfidence = callConf
	cfg.EmitConfidence = emitConf
	cfg.MinBaseQual = byte(minBaseQual)
	cfg.MinMapQ = byte(minMapQual)
	cfg.MaxMismatches = maxMismatches
	cfg.UseBadMates = useBadMates
	cfg.MaxDeletionFraction = maxDeletionFraction
	cfg.MaxCoverage = maxCoverage
	cfg.DownsampleTo = downsampleTo
	cfg.NoSLOD = noSLOD
	cfg.OutputMode = cfgOutputMode
	cfg.GenotypingMode = cfgGenotypingMode
	cfg.AFModel = cfgAFModel

	if knownSitesFile != "" {
		knownSites, err := sites.FromElsitesFile(knownSitesFile)
		if err != nil {
			return err
		}
		cfg.KnownSites = knownSites
	}

	if verboseTrace != "" {
		trace := internal.FileCreate(verboseTrace)
		defer internal.Close(trace)
		cfg.VerboseWriter = trace
	}

	log.Println("Executing command:\n", strings.Join(os.Args, " "))

	ref, closeRef := openReference(referenceFile)
	defer closeRef()

	engine := genotyper.NewEngine(cfg)

	vcfFile, err := vcf.Create(output, false)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := vcfFile.Close(); err == nil {
			err = nerr
		}
	}()

	var contigs []genotyper.Contig
	for _, contig := range ref.Contigs() {
		contigs = append(contigs, genotyper.Contig{Name: contig, Length: len(ref.Seq(contig))})
	}
	engine.WriteVcfHeader(contigs, vcfFile)

	in := internal.FileOpen(input)
	defer internal.Close(in)
	reader := mpileup.NewReader(in, sampleNames, mapqColumn, byte(defaultMapQ))

	loci := make(chan []genotyper.Locus, runtime.GOMAXPROCS(0))
	go func() {
		defer close(loci)
		batch := make([]genotyper.Locus, 0, locusBatchSize)
		for {
			locus, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				log.Panic(err)
			}
			refContext, err := makeRefContext(ref, locus)
			if err != nil {
				log.Panic(err)
			}
			batch = append(batch, genotyper.Locus{Ref: refContext, Pileup: locus.Pileup})
			if len(batch) == locusBatchSize {
				loci <- batch
				batch = make([]genotyper.Locus, 0, locusBatchSize)
			}
		}
		if len(batch) > 0 {
			loci <- batch
		}
	}()

	timedRun(timed, profile, "Calling variants.", 1, func() {
		engine.CallLoci(loci, vcfFile)
	})

	return err
}

// makeRefContext builds the reference context for a locus from the
// reference sequence, with a window around the position for the mismatch
// filter.
func makeRefContext(ref reference, locus *mpileup.Locus) (*genotyper.RefContext, error) {
	seq := ref.Seq(locus.Contig)
	if seq == nil {
		return nil, fmt.Errorf("contig %v at position %v not present in the reference", locus.Contig, locus.Pos)
	}
	if locus.Pos < 1 || int(locus.Pos) > len(seq) {
		return nil, fmt.Errorf("position %v outside of contig %v", locus.Pos, locus.Contig)
	}
	windowStart := locus.Pos - refContextPadding
	if windowStart < 1 {
		windowStart = 1
	}
	windowEnd := locus.Pos + refContextPadding
	if int(windowEnd) > len(seq) {
		windowEnd = int32(len(seq))
	}
	return &genotyper.RefContext{
		Contig:      locus.Contig,
		Pos:         locus.Pos,
		Base:        fasta.ToUpperAndN(seq[locus.Pos-1]),
		Window:      seq[windowStart-1 : windowEnd],
		WindowStart: windowStart,
	}, nil
}
