// Copyright 2026, the splitdemux contributors.

package stats

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/kshedden/splitdemux/construct"
)

// WhitelistToFile writes one emitted canonical construct per line to path.
func (s *Statistics) WhitelistToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stats: creating %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	seqs := make([]string, 0, len(s.whitelist))
	for seq := range s.whitelist {
		seqs = append(seqs, seq)
	}
	sort.Strings(seqs)
	for _, seq := range seqs {
		if _, err := w.WriteString(seq); err != nil {
			return fmt.Errorf("stats: writing %s: %w", path, err)
		}
		if _, err := w.WriteString("\n"); err != nil {
			return fmt.Errorf("stats: writing %s: %w", path, err)
		}
	}
	return nil
}

// CounterMapsToFile writes the per-position barcode-index histogram as a
// tab-separated `position, barcode, count` table. cfg is used to reverse
// the barcode-local index back into its canonical bytes; a failed reverse
// lookup (should not happen in practice) is rendered as the literal
// `unknown`, never an error.
func (s *Statistics) CounterMapsToFile(path string, cfg *construct.Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stats: creating %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	if _, err := w.WriteString("position\tbarcode\tcount\n"); err != nil {
		return err
	}
	for position, hist := range s.posHist {
		indices := make([]int, 0, len(hist))
		for idx := range hist {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			barcode := "unknown"
			if b, ok := cfg.GetBarcode(position, idx); ok {
				barcode = string(b)
			}
			if _, err := fmt.Fprintf(w, "%d\t%s\t%d\n", position, barcode, hist[idx]); err != nil {
				return fmt.Errorf("stats: writing %s: %w", path, err)
			}
		}
	}
	return nil
}

// BarcodeUMIStatsToFile writes one comma-separated row per observed
// Construct Key: packed-4-index integer, total_umi, unique_umi, mean_umi,
// median_umi, q25, q75.
func (s *Statistics) BarcodeUMIStatsToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stats: creating %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	if _, err := w.WriteString("barcode,total_umi,unique_umi,mean_umi,median_umi,q25,q75\n"); err != nil {
		return err
	}

	keys := make([]string, 0, len(s.umiHist))
	for k := range s.umiHist {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		row := s.umiHist[k].row()
		if _, err := fmt.Fprintf(w, "%d,%d,%d,%.1f,%d,%d,%d\n",
			row.PackedKey, row.TotalUMI, row.UniqueUMI, row.MeanUMI, row.MedianUMI, row.Q25, row.Q75); err != nil {
			return fmt.Errorf("stats: writing %s: %w", path, err)
		}
	}
	return nil
}

// UMICompositionToFile writes one comma-separated row per UMI position:
// position, a, c, g, t, n. Positions with all-zero counts are omitted.
func (s *Statistics) UMICompositionToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stats: creating %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	if _, err := w.WriteString("position,a,c,g,t,n\n"); err != nil {
		return err
	}
	for i, b := range s.umiComp {
		if b.empty() {
			continue
		}
		if _, err := fmt.Fprintf(w, "%d,%d,%d,%d,%d,%d\n", i, b.A, b.C, b.G, b.T, b.N); err != nil {
			return fmt.Errorf("stats: writing %s: %w", path, err)
		}
	}
	return nil
}
