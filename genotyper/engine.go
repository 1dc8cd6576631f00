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

// Package genotyper implements a Bayesian multi-sample caller for single
// nucleotide variants based on per-sample diploid genotype likelihoods
// and a population allele frequency model.
package genotyper

import (
	"fmt"
	"io"
	"log"
	"math"

	"github.com/exascience/elcall/sites"
	"github.com/exascience/elcall/utils"
	"github.com/exascience/elcall/vcf"
)

// OutputMode determines which sites are emitted.
type OutputMode int

// The supported output modes.
const (
	// EmitVariantsOnly emits sites where a variant was called.
	EmitVariantsOnly OutputMode = iota
	// EmitAllConfidentSites also emits confident reference calls.
	EmitAllConfidentSites
	// EmitAllSites emits a record for every site with a callable reference base.
	EmitAllSites
)

// GenotypingMode determines how alternate alleles are selected.
type GenotypingMode int

// The supported genotyping modes.
const (
	// Discovery selects the alternate allele with the strongest support
	// in the pileup.
	Discovery GenotypingMode = iota
	// GenotypeGivenAlleles genotypes the alleles of a known sites file.
	GenotypeGivenAlleles
)

// GLModel selects the genotype likelihood model.
type GLModel int

// The supported genotype likelihood models.
const (
	// SnpGL computes likelihoods for single nucleotide variants.
	SnpGL GLModel = iota
	// IndelGL is reserved for insertion/deletion likelihoods.
	IndelGL
)

// AFModel selects the population allele frequency model.
type AFModel int

// The supported allele frequency models.
const (
	// ExactAF evaluates the posterior for every allele count.
	ExactAF AFModel = iota
	// GridSearchAF approximates the posterior with a greedy hill climb.
	GridSearchAF
)

// Default configuration values.
const (
	DefaultHeterozygosity      = 1e-3
	DefaultIndelHeterozygosity = 1.25e-4
	DefaultCallConfidence      = 30.0
	DefaultEmitConfidence      = 30.0
	DefaultMinBaseQual         = 17
	DefaultMinMapQ             = 20
	DefaultMaxMismatches       = 3
	DefaultMaxDeletionFraction = 0.05
)

// Config collects the parameters of the genotyping engine.
type Config struct {
	Samples []string
	// expected heterozygosity of the population
	Heterozygosity float64
	// reserved for the indel likelihood model
	IndelHeterozygosity float64
	// minimum phred-scaled confidence for calling a variant
	CallConfidence float64
	// minimum phred-scaled confidence for emitting a variant
	EmitConfidence float64
	MinBaseQual    byte
	MinMapQ        byte
	// maximum number of mismatches against the reference within the
	// mismatch window around a base
	MaxMismatches int
	UseBadMates   bool
	// fraction of deletions in a pileup above which the site is not
	// called; values outside [0,1] disable the filter
	MaxDeletionFraction float64
	// skip sites with more pileup elements than this; 0 disables
	MaxCoverage int
	// downsample each sample pileup to at most this many elements; 0 disables
	DownsampleTo int
	// skip the strand bias computation
	NoSLOD         bool
	OutputMode     OutputMode
	GenotypingMode GenotypingMode
	GLModel        GLModel
	AFModel        AFModel
	// known sites per contig, required for GenotypeGivenAlleles
	KnownSites map[string][]sites.Site
	// when set, a detailed trace of the allele frequency posteriors is
	// written here
	VerboseWriter io.Writer
}

// DefaultConfig returns a Config with default values for the given samples.
func DefaultConfig(samples []string) *Config {
	return &Config{
		Samples:             samples,
		Heterozygosity:      DefaultHeterozygosity,
		IndelHeterozygosity: DefaultIndelHeterozygosity,
		CallConfidence:      DefaultCallConfidence,
		EmitConfidence:      DefaultEmitConfidence,
		MinBaseQual:         DefaultMinBaseQual,
		MinMapQ:             DefaultMinMapQ,
		MaxMismatches:       DefaultMaxMismatches,
		MaxDeletionFraction: DefaultMaxDeletionFraction,
	}
}

// Commonly used VCF entries.
var (
	DP      = utils.Intern("DP")
	DS      = utils.Intern("DS")
	SB      = utils.Intern("SB")
	GQ      = utils.Intern("GQ")
	PL      = utils.Intern("PL")
	LowQual = utils.Intern("LowQual")
)

var noCallGT = []int32{-1, -1}

var genotypeFormat = []utils.Symbol{vcf.GT, DP, GQ, PL}

const maxGenotypeQual = 99

// Engine holds the shared, immutable state of the caller: the validated
// configuration and the allele frequency priors.
type Engine struct {
	cfg Config
	// number of chromosomes across all samples
	nChromosomes int
	log10Priors  []float64
}

// NewEngine validates the configuration and precomputes the allele
// frequency priors. It panics on invalid configurations.
func NewEngine(cfg *Config) *Engine {
	if len(cfg.Samples) == 0 {
		log.Panic("no samples configured for the genotyping engine")
	}
	if cfg.Heterozygosity <= 0 || cfg.Heterozygosity >= 1 {
		log.Panicf("invalid heterozygosity %v - must be strictly between 0 and 1", cfg.Heterozygosity)
	}
	if cfg.IndelHeterozygosity < 0 || cfg.IndelHeterozygosity >= 1 {
		log.Panicf("invalid indel heterozygosity %v", cfg.IndelHeterozygosity)
	}
	if cfg.CallConfidence < 0 || cfg.EmitConfidence < 0 {
		log.Panic("negative confidence thresholds are not supported")
	}
	if cfg.GenotypingMode == GenotypeGivenAlleles && cfg.KnownSites == nil {
		log.Panic("genotyping given alleles requires known sites")
	}
	engine := &Engine{cfg: *cfg}
	// bases that pass the base quality threshold on reads below it would
	// never contribute, so lift the mapping quality threshold accordingly
	engine.cfg.MinMapQ = maxByte(engine.cfg.MinMapQ, engine.cfg.MinBaseQual)
	engine.nChromosomes = 2 * len(cfg.Samples)
	engine.log10Priors = computeAlleleFrequencyPriors(engine.nChromosomes, cfg.Heterozygosity)
	return engine
}

// Samples returns the configured sample names.
func (e *Engine) Samples() []string {
	return e.cfg.Samples
}

// Config returns the validated configuration.
func (e *Engine) Config() *Config {
	return &e.cfg
}

// Log10Priors returns the log10 allele frequency priors, indexed by
// alternate allele count.
func (e *Engine) Log10Priors() []float64 {
	return e.log10Priors
}

func computeAlleleFrequencyPriors(nChromosomes int, heterozygosity float64) []float64 {
	priors := make([]float64, nChromosomes+1)
	var sum float64
	for i := 1; i <= nChromosomes; i++ {
		value := heterozygosity / float64(i)
		priors[i] = log10(value)
		sum += value
	}
	if sum >= 1 {
		log.Panicf("heterozygosity %v is too large for %v chromosomes", heterozygosity, nChromosomes)
	}
	priors[0] = log10(1 - sum)
	return priors
}

// VariantContext holds the per-sample genotype likelihoods for a locus,
// before genotypes are assigned.
type VariantContext struct {
	Ref *RefContext
	// the selected alternate allele; meaningless when HasAlt is false
	AltAllele byte
	HasAlt    bool
	GLs       map[string]*GenotypeLikelihoods
}

func (vc *VariantContext) orderedGLs(samples []string) (ordered []*GenotypeLikelihoods, names []string) {
	for _, sample := range samples {
		if gl, ok := vc.GLs[sample]; ok {
			ordered = append(ordered, gl)
			names = append(names, sample)
		}
	}
	return
}

// VariantCallContext is the result of genotyping one locus.
type VariantCallContext struct {
	Variant           *vcf.Variant
	Confidence        float64
	ConfidentlyCalled bool
	// whether the caller wants this record written, given the output mode
	ShouldEmit bool
	RefBase    byte
}

// CalculationModels holds the mutable per-worker scratch state of the
// engine. Each goroutine that calls into the engine must use its own
// instance.
type CalculationModels struct {
	engine     *Engine
	glModel    genotypeLikelihoodsModel
	afModel    alleleFrequencyModel
	posteriors []float64
}

// NewCalculationModels creates the scratch state for one worker.
func (e *Engine) NewCalculationModels() *CalculationModels {
	cm := &CalculationModels{
		engine:     e,
		posteriors: make([]float64, e.nChromosomes+1),
	}
	switch e.cfg.GLModel {
	case SnpGL:
		cm.glModel = &snpModel{
			minBaseQual:   e.cfg.MinBaseQual,
			minMapQ:       e.cfg.MinMapQ,
			maxMismatches: e.cfg.MaxMismatches,
			useBadMates:   e.cfg.UseBadMates,
		}
	case IndelGL:
		log.Panic("the indel likelihood model is not implemented")
	default:
		log.Panicf("unknown genotype likelihood model %v", e.cfg.GLModel)
	}
	switch e.cfg.AFModel {
	case ExactAF:
		cm.afModel = exactModel{}
	case GridSearchAF:
		cm.afModel = gridSearchModel{}
	default:
		log.Panicf("unknown allele frequency model %v", e.cfg.AFModel)
	}
	return cm
}

type readOrientation int

const (
	completeOrientation readOrientation = iota
	forwardOrientation
	reverseOrientation
)

func isValidDeletionFraction(d float64) bool {
	return d >= 0 && d <= 1
}

// CalculateLikelihoodsAndGenotypes computes a full call at a given locus.
// It returns nil when the site cannot be genotyped at all.
func (cm *CalculationModels) CalculateLikelihoodsAndGenotypes(ref *RefContext, pileup *Pileup) *VariantCallContext {
	cfg := &cm.engine.cfg
	if cfg.MaxCoverage > 0 && len(pileup.Elements) > cfg.MaxCoverage {
		return nil
	}
	stratified, downsampled, ok := cm.filteredAndStratifiedContexts(ref, pileup)
	if !ok {
		if cfg.OutputMode != EmitAllSites {
			return nil
		}
		return cm.emptyCallContext(ref)
	}
	vc := cm.calculateLikelihoods(ref, stratified, completeOrientation, 0, false)
	if vc == nil {
		return nil
	}
	return cm.calculateGenotypes(ref, stratified, downsampled, vc)
}

// CalculateLikelihoods computes per-sample genotype likelihoods at a
// given locus without assigning genotypes. When useAlt is true, the
// given alternate allele is used instead of selecting one.
func (cm *CalculationModels) CalculateLikelihoods(ref *RefContext, pileup *Pileup, alt byte, useAlt bool) *VariantContext {
	stratified, _, ok := cm.filteredAndStratifiedContexts(ref, pileup)
	if !ok {
		return nil
	}
	return cm.calculateLikelihoods(ref, stratified, completeOrientation, alt, useAlt)
}

// CalculateGenotypes assigns genotypes for a previously computed
// VariantContext.
func (cm *CalculationModels) CalculateGenotypes(ref *RefContext, pileup *Pileup, vc *VariantContext) *VariantCallContext {
	stratified, downsampled, ok := cm.filteredAndStratifiedContexts(ref, pileup)
	if !ok {
		return nil
	}
	return cm.calculateGenotypes(ref, stratified, downsampled, vc)
}

// filteredAndStratifiedContexts stratifies a pileup by sample and tests
// whether the site is callable at all.
func (cm *CalculationModels) filteredAndStratifiedContexts(ref *RefContext, pileup *Pileup) (stratified map[string][]PileupElement, downsampled, ok bool) {
	cfg := &cm.engine.cfg
	if !isRegularBase(ref.Base) {
		return nil, false, false
	}
	elements := pileup.Elements
	stratified = splitBySample(elements, cfg.Samples)
	if cfg.DownsampleTo > 0 {
		for sample, sampleElements := range stratified {
			reduced := downsampleElements(sampleElements, cfg.DownsampleTo)
			if len(reduced) < len(sampleElements) {
				stratified[sample] = reduced
				downsampled = true
			}
		}
	}
	var numDeletions, pileupSize int
	for _, sampleElements := range stratified {
		for _, e := range sampleElements {
			if e.Deletion {
				if e.Read.MapQ >= cfg.MinMapQ && (cfg.UseBadMates || !e.Read.BadMate) {
					numDeletions++
				}
			} else {
				mask := e.Read.goodBaseMask(ref, cfg.MinBaseQual, cfg.MinMapQ, cfg.MaxMismatches, cfg.UseBadMates)
				if mask.Test(uint(e.Offset)) {
					pileupSize++
				}
			}
		}
	}
	// in all-sites mode, bad pileups do not matter
	if cfg.OutputMode == EmitAllSites {
		return stratified, downsampled, true
	}
	if pileupSize == 0 {
		return nil, false, false
	}
	if isValidDeletionFraction(cfg.MaxDeletionFraction) &&
		float64(numDeletions)/float64(pileupSize+numDeletions) > cfg.MaxDeletionFraction {
		return nil, false, false
	}
	return stratified, downsampled, true
}

func orientedContexts(stratified map[string][]PileupElement, orientation readOrientation) map[string][]PileupElement {
	if orientation == completeOrientation {
		return stratified
	}
	result := make(map[string][]PileupElement, len(stratified))
	for sample, elements := range stratified {
		forward, reverse := splitByStrand(elements)
		if orientation == forwardOrientation {
			result[sample] = forward
		} else {
			result[sample] = reverse
		}
	}
	return result
}

func (cm *CalculationModels) calculateLikelihoods(ref *RefContext, stratified map[string][]PileupElement, orientation readOrientation, alt byte, useAlt bool) *VariantContext {
	cfg := &cm.engine.cfg
	contexts := orientedContexts(stratified, orientation)
	hasAlt := true
	if !useAlt {
		switch cfg.GenotypingMode {
		case GenotypeGivenAlleles:
			site, found := sites.Lookup(cfg.KnownSites[ref.Contig], ref.Pos)
			if !found || site.Ref != ref.Base {
				return nil
			}
			alt = site.Alts[0]
		default:
			var qualSum int
			alt, qualSum = cm.glModel.alternateAllele(ref, contexts)
			if qualSum == 0 {
				// all bases match the reference
				if cfg.OutputMode == EmitVariantsOnly {
					return &VariantContext{Ref: ref, GLs: map[string]*GenotypeLikelihoods{}}
				}
				// otherwise, choose any alternate allele (it doesn't really matter)
				alt = fallbackAlternateAllele(ref.Base)
			}
		}
	}
	if alt == 0 {
		hasAlt = false
	}
	return &VariantContext{
		Ref:       ref,
		AltAllele: alt,
		HasAlt:    hasAlt,
		GLs:       cm.glModel.likelihoods(ref, contexts, alt),
	}
}

func phredScaleErrorRate(errorRate float64) float64 {
	return -10 * log10(errorRate)
}

func (cm *CalculationModels) calculateGenotypes(ref *RefContext, stratified map[string][]PileupElement, downsampled bool, vc *VariantContext) *VariantCallContext {
	cfg := &cm.engine.cfg
	engine := cm.engine

	// estimate our confidence in a reference call and return
	if len(vc.GLs) == 0 {
		if cfg.OutputMode != EmitAllSites {
			return cm.estimateReferenceConfidence(ref, stratified, false, 1.0)
		}
		return cm.emptyCallContext(ref)
	}

	gls, glSamples := vc.orderedGLs(cfg.Samples)
	cm.afModel.calculate(gls, engine.log10Priors, cm.posteriors)

	// find the most likely frequency
	bestAFguess := maxElementIndex(cm.posteriors)

	// calculate p(f>0)
	normalizedPosteriors := normalizeFromLog10(cm.posteriors, valueNotCalculated)
	var sum float64
	for i := 1; i <= engine.nChromosomes; i++ {
		sum += normalizedPosteriors[i]
	}
	PofF := math.Min(sum, 1.0) // deal with precision errors

	var confidence float64
	if bestAFguess != 0 || cfg.GenotypingMode == GenotypeGivenAlleles {
		confidence = phredScaleErrorRate(normalizedPosteriors[0])
		if math.IsInf(confidence, 0) {
			confidence = -10 * cm.posteriors[0]
		}
	} else {
		confidence = phredScaleErrorRate(PofF)
		if math.IsInf(confidence, 0) {
			sum = 0
			for i := 1; i <= engine.nChromosomes; i++ {
				if cm.posteriors[i] == valueNotCalculated {
					break
				}
				sum += cm.posteriors[i]
			}
			if sum == 0 {
				confidence = 0
			} else {
				confidence = -10 * sum
			}
		}
	}

	// return a reference confidence estimate if we don't pass the
	// confidence cutoff or the most likely allele frequency is zero
	if cfg.OutputMode != EmitAllSites && !cm.passesEmitThreshold(confidence, bestAFguess) {
		// our confidence in a reference call isn't accurately estimated
		// at this point because it didn't take into account samples with
		// no data, so get a better estimate
		return cm.estimateReferenceConfidence(ref, stratified, true, 1.0-PofF)
	}

	genotypes := assignGenotypes(gls, bestAFguess)

	if cfg.VerboseWriter != nil {
		cm.printVerboseData(vc, PofF, confidence, normalizedPosteriors)
	}

	var info utils.SmallMap
	info.Set(DP, totalDepth(stratified))
	if downsampled {
		info.Set(DS, true)
	}

	// note that calculating strand bias involves overwriting the
	// posterior array, so we do that last
	if !cfg.NoSLOD && bestAFguess != 0 {
		overallLog10PofF := cm.log10PofF()

		vcForward := cm.calculateLikelihoods(ref, stratified, forwardOrientation, vc.AltAllele, true)
		forwardGLs, _ := vcForward.orderedGLs(cfg.Samples)
		cm.afModel.calculate(forwardGLs, engine.log10Priors, cm.posteriors)
		forwardLog10PofNull := cm.posteriors[0]
		forwardLog10PofF := cm.log10PofF()

		vcReverse := cm.calculateLikelihoods(ref, stratified, reverseOrientation, vc.AltAllele, true)
		reverseGLs, _ := vcReverse.orderedGLs(cfg.Samples)
		cm.afModel.calculate(reverseGLs, engine.log10Priors, cm.posteriors)
		reverseLog10PofNull := cm.posteriors[0]
		reverseLog10PofF := cm.log10PofF()

		forwardLod := forwardLog10PofF + reverseLog10PofNull - overallLog10PofF
		reverseLod := reverseLog10PofF + forwardLog10PofNull - overallLog10PofF

		// strand score is max bias between forward and reverse strands
		strandScore := math.Max(forwardLod, reverseLod) * 10
		info.Set(SB, strandScore)
	}

	variant := &vcf.Variant{
		Chrom: ref.Contig,
		Pos:   ref.Pos,
		Ref:   string(ref.Base),
		Qual:  math.Round(confidence*100) / 100,
		Info:  info,
	}
	// strip out the alternate allele if it's a ref call
	if !(bestAFguess == 0 && cfg.GenotypingMode == Discovery) && vc.HasAlt {
		variant.Alt = []string{string(vc.AltAllele)}
	}
	if !cm.passesCallThreshold(confidence) {
		variant.Filter = []utils.Symbol{LowQual}
	}
	variant.GenotypeFormat = genotypeFormat
	variant.GenotypeData = makeGenotypeData(cfg.Samples, glSamples, gls, genotypes, len(variant.Alt) > 0)

	return &VariantCallContext{
		Variant:           variant,
		Confidence:        confidence,
		ConfidentlyCalled: cm.confidentlyCalled(confidence, PofF),
		ShouldEmit:        true,
		RefBase:           ref.Base,
	}
}

// log10PofF sums the posterior over all nonzero allele counts,
// skipping entries that were not evaluated.
func (cm *CalculationModels) log10PofF() float64 {
	end := len(cm.posteriors)
	for i := 1; i < len(cm.posteriors); i++ {
		if cm.posteriors[i] == valueNotCalculated {
			end = i
			break
		}
	}
	return log10SumLog10(cm.posteriors[1:end])
}

func totalDepth(stratified map[string][]PileupElement) (depth int) {
	for _, elements := range stratified {
		for _, e := range elements {
			if !e.Deletion {
				depth++
			}
		}
	}
	return
}

func makeGenotypeData(samples, glSamples []string, gls []*GenotypeLikelihoods, genotypes []int, hasAlt bool) []vcf.Genotype {
	result := make([]vcf.Genotype, len(samples))
	index := make(map[string]int, len(glSamples))
	for i, sample := range glSamples {
		index[sample] = i
	}
	for i, sample := range samples {
		gt := &result[i]
		j, ok := index[sample]
		if !ok {
			gt.GT = noCallGT
			continue
		}
		gl := gls[j]
		altCount := genotypes[j]
		if !hasAlt {
			altCount = 0
		}
		switch altCount {
		case 0:
			gt.GT = []int32{0, 0}
		case 1:
			gt.GT = []int32{0, 1}
		default:
			gt.GT = []int32{1, 1}
		}
		pls, gq := phredScaledLikelihoods(gl.Log10Likelihoods)
		gt.Data.Set(DP, gl.Depth)
		gt.Data.Set(GQ, gq)
		gt.Data.Set(PL, []interface{}{pls[0], pls[1], pls[2]})
	}
	return result
}

// phredScaledLikelihoods converts log10 genotype likelihoods into
// normalized phred-scaled likelihoods and a genotype quality.
func phredScaledLikelihoods(likelihoods [3]float64) (pls [3]int, gq int) {
	maxValue := math.Max(likelihoods[0], math.Max(likelihoods[1], likelihoods[2]))
	for i, likelihood := range likelihoods {
		pls[i] = int(math.Round(-10 * (likelihood - maxValue)))
	}
	sorted := pls
	// Bubble sort first pass
	if sorted[0] > sorted[1] {
		sorted[0], sorted[1] = sorted[1], sorted[0]
	}
	if sorted[1] > sorted[2] {
		sorted[1], sorted[2] = sorted[2], sorted[1]
	}
	// Bubble sort second pass
	if sorted[0] > sorted[1] {
		sorted[0], sorted[1] = sorted[1], sorted[0]
	}
	gq = minInt(sorted[1]-sorted[0], maxGenotypeQual)
	return
}

// estimateReferenceConfidence estimates how confident we are that all
// samples are homozygous reference, accounting for samples without
// coverage.
func (cm *CalculationModels) estimateReferenceConfidence(ref *RefContext, stratified map[string][]PileupElement, ignoreCoveredSamples bool, initialPofRef float64) *VariantCallContext {
	if stratified == nil {
		return nil
	}
	cfg := &cm.engine.cfg
	pOfRef := initialPofRef
	theta := cfg.Heterozygosity
	for _, sample := range cfg.Samples {
		elements := stratified[sample]
		covered := len(elements) > 0
		if ignoreCoveredSamples && covered {
			continue
		}
		var depth int
		for _, e := range elements {
			if !e.Deletion {
				depth++
			}
		}
		pOfRef *= 1.0 - (theta/2.0)*binomialProbability(0, depth, 0.5)
	}
	confidence := phredScaleErrorRate(1.0 - pOfRef)
	confident := confidence >= cfg.CallConfidence
	var info utils.SmallMap
	info.Set(DP, totalDepth(stratified))
	return &VariantCallContext{
		Variant: &vcf.Variant{
			Chrom: ref.Contig,
			Pos:   ref.Pos,
			Ref:   string(ref.Base),
			Qual:  math.Round(confidence*100) / 100,
			Info:  info,
		},
		Confidence:        confidence,
		ConfidentlyCalled: confident,
		ShouldEmit: cfg.OutputMode == EmitAllSites ||
			(cfg.OutputMode == EmitAllConfidentSites && confident),
		RefBase: ref.Base,
	}
}

// emptyCallContext produces a reference call for a site without usable
// coverage, for the all-sites output mode.
func (cm *CalculationModels) emptyCallContext(ref *RefContext) *VariantCallContext {
	cfg := &cm.engine.cfg
	var info utils.SmallMap
	info.Set(DP, 0)
	variant := &vcf.Variant{
		Chrom: ref.Contig,
		Pos:   ref.Pos,
		Ref:   string(ref.Base),
		Info:  info,
	}
	if cfg.GenotypingMode == GenotypeGivenAlleles {
		site, found := sites.Lookup(cfg.KnownSites[ref.Contig], ref.Pos)
		if !found || site.Ref != ref.Base {
			return nil
		}
		variant.Alt = []string{string(site.Alts[0])}
	}
	return &VariantCallContext{
		Variant:    variant,
		ShouldEmit: true,
		RefBase:    ref.Base,
	}
}

func (cm *CalculationModels) passesEmitThreshold(confidence float64, bestAFguess int) bool {
	cfg := &cm.engine.cfg
	return (cfg.OutputMode == EmitAllConfidentSites || bestAFguess != 0) &&
		confidence >= math.Min(cfg.CallConfidence, cfg.EmitConfidence)
}

func (cm *CalculationModels) passesCallThreshold(confidence float64) bool {
	return confidence >= cm.engine.cfg.CallConfidence
}

func (cm *CalculationModels) confidentlyCalled(confidence, PofF float64) bool {
	cfg := &cm.engine.cfg
	return confidence >= cfg.CallConfidence ||
		(cfg.GenotypingMode == GenotypeGivenAlleles && phredScaleErrorRate(PofF) >= cfg.CallConfidence)
}

// printVerboseData writes a detailed trace of the allele frequency
// posteriors for one locus.
func (cm *CalculationModels) printVerboseData(vc *VariantContext, PofF, confidence float64, normalizedPosteriors []float64) {
	engine := cm.engine
	out := engine.cfg.VerboseWriter
	altAllele := "N/A"
	if vc.HasAlt {
		altAllele = string(vc.AltAllele)
	}
	for i := 0; i <= engine.nChromosomes; i++ {
		posterior := 0.0
		if cm.posteriors[i] != valueNotCalculated {
			posterior = cm.posteriors[i]
		}
		fmt.Fprintf(out, "AFINFO\t%s:%d\t%s\t%s\t%d/%d\t%s\t%s\t%s\t%s\n",
			vc.Ref.Contig, vc.Ref.Pos,
			string(vc.Ref.Base), altAllele,
			i, engine.nChromosomes,
			formatf(float64(i)/float64(engine.nChromosomes), 2),
			formatf(engine.log10Priors[i], 8),
			formatf(posterior, 8),
			formatf(normalizedPosteriors[i], 8))
	}
	fmt.Fprintln(out, "P(f>0) =", PofF)
	fmt.Fprintln(out, "Qscore =", confidence)
	fmt.Fprintln(out)
}
