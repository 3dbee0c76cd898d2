// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the splitdemux contributors.

// Package stats accumulates run-wide statistics for the construct resolver:
// total/pass/filter counters, a whitelist set of emitted canonical
// constructs, per-position barcode-index histograms, a barcode-tuple→UMI
// histogram, and per-UMI-position base composition. Statistics is owned
// exclusively by the driver during streaming (no locking: single-writer
// contract) and serializes to the sidecar files and
// run log once the driver is done.
package stats

import (
	"fmt"

	"github.com/kshedden/splitdemux/construct"
)

// Statistics accumulates run-wide counters and histograms. The zero value
// is not usable; build with New.
type Statistics struct {
	Total         int     `yaml:"total_reads"`
	Passing       int     `yaml:"passing_reads"`
	Filtered      []int   `yaml:"num_filtered"` // per barcode-position miss count, len == barcode count
	FilteredUMI   int     `yaml:"num_filtered_umi"`
	FractionPass  float64 `yaml:"fraction_passing"`
	WhitelistSize int     `yaml:"whitelist_size"`

	whitelist map[string]struct{}
	posHist   []map[int]int // per-position barcode-index -> count
	umiHist   map[string]*umiCounter
	umiComp   []baseComposition // per UMI-position base counts
	umiLen    int
}

// New creates a Statistics ready to accumulate a run over a construct with
// barcodeCount segments and UMIs of length umiLen (must be <= 16; see
// EncodeUMI in umi.go).
func New(barcodeCount, umiLen int) *Statistics {
	posHist := make([]map[int]int, barcodeCount)
	for i := range posHist {
		posHist[i] = make(map[int]int)
	}
	return &Statistics{
		Filtered:  make([]int, barcodeCount),
		whitelist: make(map[string]struct{}),
		posHist:   posHist,
		umiHist:   make(map[string]*umiCounter),
		umiComp:   make([]baseComposition, umiLen),
		umiLen:    umiLen,
	}
}

// RecordTotal increments the total-reads-seen counter.
func (s *Statistics) RecordTotal() { s.Total++ }

// RecordFiltered increments the miss counter for barcode position i.
func (s *Statistics) RecordFiltered(i int) { s.Filtered[i]++ }

// RecordFilteredUMI increments the UMI-rejection counter (too short or
// containing N).
func (s *Statistics) RecordFilteredUMI() { s.FilteredUMI++ }

// RecordPass increments the passing-reads counter and updates the
// per-position index histograms, the barcode-tuple→UMI histogram, and the
// per-position UMI base composition for one resolved read.
func (s *Statistics) RecordPass(key construct.Key, umi []byte) {
	s.Passing++
	for i, idx := range key {
		s.posHist[i][idx]++
	}
	k := key.String()
	uc, ok := s.umiHist[k]
	if !ok {
		uc = newUMICounter(key)
		s.umiHist[k] = uc
	}
	uc.add(umi)

	for i, b := range umi {
		if i >= len(s.umiComp) {
			break
		}
		s.umiComp[i].add(b)
	}
}

// RecordEmitted inserts canonical into the whitelist set of emitted
// constructs.
func (s *Statistics) RecordEmitted(canonical []byte) {
	s.whitelist[string(canonical)] = struct{}{}
}

// Finalize computes the derived scalar fields. It must be called once,
// after streaming completes and before serialization.
func (s *Statistics) Finalize() {
	total := s.Total
	if total < 1 {
		total = 1
	}
	s.FractionPass = float64(s.Passing) / float64(total)
	s.WhitelistSize = len(s.whitelist)
}

// Check validates the core invariant: passing + Σfiltered[i] + filteredUMI
// == total. It is a development/test aid, not called on the hot path.
func (s *Statistics) Check() error {
	sum := s.Passing + s.FilteredUMI
	for _, f := range s.Filtered {
		sum += f
	}
	if sum != s.Total {
		return fmt.Errorf("stats: invariant violated: passing(%d) + filtered(%v) + filteredUMI(%d) = %d != total %d",
			s.Passing, s.Filtered, s.FilteredUMI, sum, s.Total)
	}
	return nil
}
