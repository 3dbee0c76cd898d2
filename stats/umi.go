// Copyright 2026, the splitdemux contributors.

package stats

import (
	"fmt"
	"sort"

	"github.com/kshedden/splitdemux/construct"
)

// MaxPackedUMILen is the longest UMI that EncodeUMI can pack into a
// uint32 (2 bits/base, high-to-low).
const MaxPackedUMILen = 16

// ErrUMITooLong is returned when a configured or observed UMI exceeds
// MaxPackedUMILen.
type ErrUMITooLong struct{ Len int }

func (e *ErrUMITooLong) Error() string {
	return fmt.Sprintf("stats: UMI length %d exceeds the %d-base encoder limit", e.Len, MaxPackedUMILen)
}

// EncodeUMI packs umi (up to 16bp, over {A,C,G,T}) into a dense uint32: two
// bits per base, A=00 C=01 G=10 T=11, high-to-low. It is the key used for
// the dense UMI histogram.
func EncodeUMI(umi []byte) (uint32, error) {
	if len(umi) > MaxPackedUMILen {
		return 0, &ErrUMITooLong{Len: len(umi)}
	}
	var v uint32
	for _, b := range umi {
		v <<= 2
		switch b {
		case 'A':
			v |= 0
		case 'C':
			v |= 1
		case 'G':
			v |= 2
		case 'T':
			v |= 3
		default:
			return 0, fmt.Errorf("stats: invalid UMI base %q", b)
		}
	}
	return v, nil
}

// DecodeUMI reverses EncodeUMI given the original UMI length.
func DecodeUMI(v uint32, length int) []byte {
	out := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		switch v & 0x3 {
		case 0:
			out[i] = 'A'
		case 1:
			out[i] = 'C'
		case 2:
			out[i] = 'G'
		case 3:
			out[i] = 'T'
		}
		v >>= 2
	}
	return out
}

// umiCounter holds the observed UMI encodings (and their counts) for one
// Construct Key.
type umiCounter struct {
	key    construct.Key
	counts map[uint32]int
}

func newUMICounter(key construct.Key) *umiCounter {
	return &umiCounter{key: append(construct.Key(nil), key...), counts: make(map[uint32]int)}
}

func (u *umiCounter) add(umi []byte) {
	enc, err := EncodeUMI(umi)
	if err != nil {
		// The driver rejects a UMI length above MaxPackedUMILen with
		// ErrUMITooLong at the start of Run, before any read reaches
		// RecordPass, and rejects UMIs containing N; this fires on an
		// over-long UMI from another caller or a UMI byte outside ACGTN.
		panic(err)
	}
	u.counts[enc]++
}

// umiStatsRow summarizes one Construct Key's observed UMI distribution,
// matching the `_barcode_umi_stats.tsv` columns.
type umiStatsRow struct {
	PackedKey uint32
	TotalUMI  int
	UniqueUMI int
	MeanUMI   float64
	MedianUMI int
	Q25       int
	Q75       int
}

func (u *umiCounter) row() umiStatsRow {
	counts := make([]int, 0, len(u.counts))
	total := 0
	for _, c := range u.counts {
		counts = append(counts, c)
		total += c
	}
	sort.Ints(counts)
	unique := len(counts)

	row := umiStatsRow{
		PackedKey: u.key.PackedUint32(),
		TotalUMI:  total,
		UniqueUMI: unique,
	}
	if unique > 0 {
		row.MeanUMI = float64(total) / float64(unique)
		row.MedianUMI = counts[unique/2]
		row.Q25 = counts[unique/4]
		row.Q75 = counts[unique*3/4]
	}
	return row
}

// baseComposition tallies per-base counts at one UMI position.
type baseComposition struct {
	A, C, G, T, N uint64
}

func (b *baseComposition) add(base byte) {
	switch base {
	case 'A':
		b.A++
	case 'C':
		b.C++
	case 'G':
		b.G++
	case 'T':
		b.T++
	case 'N':
		b.N++
	default:
		panic(fmt.Sprintf("stats: invalid UMI base %q", base))
	}
}

func (b *baseComposition) empty() bool {
	return b.A == 0 && b.C == 0 && b.G == 0 && b.T == 0 && b.N == 0
}
