// Copyright 2026, the splitdemux contributors.

package stats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kshedden/splitdemux/construct"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsInvariant(t *testing.T) {
	s := New(2, 4)
	for i := 0; i < 5; i++ {
		s.RecordTotal()
	}
	s.RecordPass(construct.Key{0, 1}, []byte("ACGT"))
	s.RecordPass(construct.Key{0, 1}, []byte("ACGA"))
	s.RecordFiltered(0)
	s.RecordFiltered(1)
	s.RecordFilteredUMI()

	require.NoError(t, s.Check())
	s.Finalize()
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Passing)
	assert.InDelta(t, 0.4, s.FractionPass, 1e-9)
}

func TestStatisticsInvariantViolation(t *testing.T) {
	s := New(1, 4)
	s.RecordTotal()
	// No pass, no filter recorded: total=1 but passing+filtered=0.
	assert.Error(t, s.Check())
}

func TestStatisticsWhitelistDedup(t *testing.T) {
	s := New(1, 4)
	s.RecordEmitted([]byte("AAAACCCC"))
	s.RecordEmitted([]byte("AAAACCCC"))
	s.RecordEmitted([]byte("GGGGTTTT"))
	s.Finalize()
	assert.Equal(t, 2, s.WhitelistSize)
}

func TestStatisticsSerializationRoundTrip(t *testing.T) {
	cfg, err := construct.Build([]construct.SegmentSpec{
		{WhitelistPath: "../construct/testdata/bc1.txt", Spacer: "ATG"},
		{WhitelistPath: "../construct/testdata/bc2.txt", Spacer: "GAG"},
	}, construct.Exact, 4, true)
	require.NoError(t, err)

	s := New(cfg.BarcodeCount(), 4)
	s.RecordTotal()
	s.RecordPass(construct.Key{0, 1}, []byte("ACGT"))
	s.RecordEmitted(cfg.BuildBarcode([]int{0, 1}))
	s.Finalize()

	dir := t.TempDir()

	wl := filepath.Join(dir, "whitelist.txt")
	require.NoError(t, s.WhitelistToFile(wl))
	data, err := os.ReadFile(wl)
	require.NoError(t, err)
	assert.Contains(t, string(data), "AGAAACCAATGGTAATCGAG\n")

	cm := filepath.Join(dir, "counts.tsv")
	require.NoError(t, s.CounterMapsToFile(cm, cfg))
	data, err = os.ReadFile(cm)
	require.NoError(t, err)
	assert.Contains(t, string(data), "0\tAGAAACCAATG\t1\n")
	assert.Contains(t, string(data), "1\tGTAATCGAG\t1\n")

	bu := filepath.Join(dir, "umi.tsv")
	require.NoError(t, s.BarcodeUMIStatsToFile(bu))
	data, err = os.ReadFile(bu)
	require.NoError(t, err)
	assert.Contains(t, string(data), "barcode,total_umi,unique_umi,mean_umi,median_umi,q25,q75\n")

	uc := filepath.Join(dir, "umicomp.tsv")
	require.NoError(t, s.UMICompositionToFile(uc))
	data, err = os.ReadFile(uc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "position,a,c,g,t,n\n")
}

func TestEncodeDecodeUMIRoundTrip(t *testing.T) {
	for _, umi := range []string{"A", "ACGT", "ACGTACGTACGTACGT", "TTTTTTTTTTTTTTTT"} {
		enc, err := EncodeUMI([]byte(umi))
		require.NoError(t, err)
		dec := DecodeUMI(enc, len(umi))
		assert.Equal(t, umi, string(dec))
	}
}

func TestEncodeUMITooLong(t *testing.T) {
	_, err := EncodeUMI(make([]byte, 17))
	require.Error(t, err)
	var tooLong *ErrUMITooLong
	assert.ErrorAs(t, err, &tooLong)
}
