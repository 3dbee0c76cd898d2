// Copyright 2026, the splitdemux contributors.

package construct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fourSegmentSpecs returns a 4-segment fixture with effective segment
// lengths (11, 9, 11, 8).
func fourSegmentSpecs() []SegmentSpec {
	return []SegmentSpec{
		{WhitelistPath: "testdata/bc1.txt", Spacer: "ATG"},
		{WhitelistPath: "testdata/bc2.txt", Spacer: "GAG"},
		{WhitelistPath: "testdata/bc3.txt", Spacer: "TCGAG"},
		{WhitelistPath: "testdata/bc4.txt", Spacer: ""},
	}
}

func TestConfigBuildAndBarcodeCount(t *testing.T) {
	cfg, err := Build(fourSegmentSpecs(), Exact, 12, true)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.BarcodeCount())
	assert.Equal(t, 12, cfg.UMILen())

	assert.Equal(t, 11, cfg.Segment(0).Len())
	assert.Equal(t, 9, cfg.Segment(1).Len())
	assert.Equal(t, 11, cfg.Segment(2).Len())
	assert.Equal(t, 8, cfg.Segment(3).Len())
}

func TestConfigMatchSubsequenceChain(t *testing.T) {
	cfg, err := Build(fourSegmentSpecs(), Exact, 12, true)
	require.NoError(t, err)

	seq := []byte("AGAAACCAATG" + "TCTGTGGAG" + "AAAGTGTCGAG" + "CTGGGTAT" + "AAAAAAAAAAAA")

	offset := 5
	pos := 0
	var indices []int
	for i := 0; i < cfg.BarcodeCount(); i++ {
		tol := DefaultSegmentTolerance
		if i == 0 {
			tol = offset
		}
		end, idx, ok := cfg.MatchSubsequence(seq, i, pos, tol)
		require.Truef(t, ok, "segment %d failed to match", i)
		pos = end
		indices = append(indices, idx)
	}
	assert.Equal(t, []int{0, 0, 0, 0}, indices)
	assert.Equal(t, 39, pos)
}

func TestConfigBuildBarcodeLinkerIsPrefixInvariant(t *testing.T) {
	cfgLinkers, err := Build(fourSegmentSpecs(), Exact, 12, true)
	require.NoError(t, err)
	cfgNoLinkers, err := Build(fourSegmentSpecs(), Exact, 12, false)
	require.NoError(t, err)

	withLinkers := cfgLinkers.BuildBarcode([]int{0, 0, 0, 0})
	withoutLinkers := cfgNoLinkers.BuildBarcode([]int{0, 0, 0, 0})

	assert.Equal(t, []byte("AGAAACCAATGTCTGTGGAGAAAGTGTCGAGCTGGGTAT"), withLinkers)
	assert.Equal(t, []byte("AGAAACCATCTGTGAAAGTGCTGGGTAT"), withoutLinkers)

	// build_barcode(indices, linkers=false) is a prefix-at-each-segment
	// of build_barcode(indices, linkers=true): the no-linker bytes for
	// each segment must equal a prefix of that segment's with-linker
	// bytes, at the position where the segment lands in each assembly.
	var offLinker, offNoLinker int
	for i := 0; i < cfgLinkers.BarcodeCount(); i++ {
		wl, _ := cfgLinkers.Segment(i).Canonical(0, true)
		wn, _ := cfgNoLinkers.Segment(i).Canonical(0, false)
		assert.Equal(t, wn, wl[:len(wn)])
		assert.Equal(t, wl, withLinkers[offLinker:offLinker+len(wl)])
		assert.Equal(t, wn, withoutLinkers[offNoLinker:offNoLinker+len(wn)])
		offLinker += len(wl)
		offNoLinker += len(wn)
	}
}

func TestConfigGetBarcodeUnknownIndex(t *testing.T) {
	cfg, err := Build(fourSegmentSpecs(), Exact, 12, true)
	require.NoError(t, err)

	_, ok := cfg.GetBarcode(0, 99)
	assert.False(t, ok)

	b, ok := cfg.GetBarcode(0, 0)
	require.True(t, ok)
	assert.Equal(t, []byte("AGAAACCAATG"), b)
}
