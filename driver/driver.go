// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the splitdemux contributors.

// Package driver implements the read-pair driver: the single-threaded
// streaming pipeline that, for each (R1, R2) record pair, runs the
// construct resolver's match chain, applies the UMI policy, updates run
// statistics, and writes the canonicalized R1' record alongside the
// unchanged R2 record.
package driver

import (
	"fmt"

	"github.com/kshedden/splitdemux/construct"
	"github.com/kshedden/splitdemux/fastqio"
	"github.com/kshedden/splitdemux/stats"
)

// progressEvery / progressEveryEarly mirror the original's console logging
// cadence: frequent updates for the first 1,000 reads, then one per
// million.
const (
	progressEvery      = 1_000_000
	progressEveryEarly = 100
	progressEarlyUntil = 1_000
)

// Options configures one streaming run.
type Options struct {
	// Offset bounds the leading slack for the first barcode segment.
	Offset int
	// UMILen is the resolved UMI length (config override already applied
	// by the caller).
	UMILen int
	// UMIOffset is the number of bases to skip after the last barcode
	// before extracting the UMI.
	UMIOffset int
	// OnProgress, if non-nil, is invoked periodically with the number of
	// read pairs processed so far. It must not retain its argument.
	OnProgress func(processed int)
}

// Driver streams paired FASTQ records through the construct resolver.
type Driver struct {
	cfg  *construct.Config
	in   *fastqio.PairReader
	out  *fastqio.PairWriter
	opts Options
}

// New builds a Driver over an already-open input pair, output pair, and
// compiled Config.
func New(cfg *construct.Config, in *fastqio.PairReader, out *fastqio.PairWriter, opts Options) *Driver {
	return &Driver{cfg: cfg, in: in, out: out, opts: opts}
}

// Run streams every record pair to completion, returning the accumulated
// Statistics. It stops, without error, when either input stream ends.
func (d *Driver) Run() (*stats.Statistics, error) {
	if d.opts.UMILen > stats.MaxPackedUMILen {
		return nil, &stats.ErrUMITooLong{Len: d.opts.UMILen}
	}

	st := stats.New(d.cfg.BarcodeCount(), d.opts.UMILen)

	for idx := 0; ; idx++ {
		rec1, rec2, ok, err := d.in.Next()
		if err != nil {
			return nil, fmt.Errorf("driver: reading record pair %d: %w", idx, err)
		}
		if !ok {
			break
		}

		st.RecordTotal()
		if d.opts.OnProgress != nil && shouldReport(idx) {
			d.opts.OnProgress(idx)
		}

		if err := d.processPair(rec1, rec2, st); err != nil {
			return nil, fmt.Errorf("driver: writing record pair %d: %w", idx, err)
		}
	}

	st.Finalize()
	return st, nil
}

func shouldReport(idx int) bool {
	if idx%progressEvery == 0 {
		return true
	}
	return idx < progressEarlyUntil && idx%progressEveryEarly == 0
}

// processPair runs the match chain, UMI policy, and canonical construct
// assembly for one record pair, updating st and writing output on success.
// A filtered read updates statistics and returns nil (not an error).
func (d *Driver) processPair(rec1, rec2 fastqio.Record, st *stats.Statistics) error {
	pos, indices, ok := d.matchChain(rec1.Seq, st)
	if !ok {
		return nil
	}

	pos += d.opts.UMIOffset
	umi, end, ok := d.matchUMI(rec1.Seq, pos, st)
	if !ok {
		return nil
	}

	key := construct.Key(indices)
	canonical := d.cfg.BuildBarcode(indices)
	canonical = append(canonical, umi...)

	lc := len(canonical)
	if lc > end {
		// Defensive: the canonical construct can never be longer than
		// the matched region it was sliced from.
		st.RecordFilteredUMI()
		return nil
	}
	qualStart := end - lc
	qual := rec1.Qual[qualStart:end]

	st.RecordPass(key, umi)
	st.RecordEmitted(canonical)

	return d.out.WritePair(rec1.ID, canonical, qual, rec2)
}

// matchChain walks the segment chain in order: segment 0 searches
// [0, offset], every later segment searches [pos, pos+DefaultSegmentTolerance].
// A miss at position i records filtered[i] and aborts the chain.
func (d *Driver) matchChain(seq []byte, st *stats.Statistics) (pos int, indices []int, ok bool) {
	indices = make([]int, d.cfg.BarcodeCount())
	for i := 0; i < d.cfg.BarcodeCount(); i++ {
		tol := construct.DefaultSegmentTolerance
		if i == 0 {
			tol = d.opts.Offset
		}
		end, idx, matched := d.cfg.MatchSubsequence(seq, i, pos, tol)
		if !matched {
			st.RecordFiltered(i)
			return 0, nil, false
		}
		pos = end
		indices[i] = idx
	}
	return pos, indices, true
}

// matchUMI extracts the UMI at [pos, pos+UMILen) from seq, rejecting short
// reads and UMIs containing N.
func (d *Driver) matchUMI(seq []byte, pos int, st *stats.Statistics) (umi []byte, end int, ok bool) {
	if len(seq) < pos+d.opts.UMILen {
		st.RecordFilteredUMI()
		return nil, 0, false
	}
	umi = seq[pos : pos+d.opts.UMILen]
	for _, b := range umi {
		if b == 'N' {
			st.RecordFilteredUMI()
			return nil, 0, false
		}
	}
	return umi, pos + d.opts.UMILen, true
}
