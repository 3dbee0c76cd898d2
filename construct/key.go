// Copyright 2026, the splitdemux contributors.

package construct

import (
	"strconv"
	"strings"
)

// Key is the ordered tuple of segment-local indices identifying one
// resolved construct. It is the authoritative identity used for the
// barcode→UMI histogram; PackedUint32 below is only a reporting
// convenience, never a uniqueness key.
type Key []int

// String renders the key as a stable, comparable map key (Go slices cannot
// be map keys directly).
func (k Key) String() string {
	var b strings.Builder
	for i, idx := range k {
		if i > 0 {
			b.WriteByte('_')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}

// PackedUint32 packs up to the first 4 indices into a 32-bit word, one
// byte per index, high-to-low. It is used only for the compact
// `_barcode_umi_stats.tsv` report column; indices beyond 4 are ignored and
// indices beyond 255 truncate, so it must never be used as a uniqueness
// key (Key.String is authoritative for that).
func (k Key) PackedUint32() uint32 {
	var padded [4]byte
	for i := 0; i < 4 && i < len(k); i++ {
		padded[i] = byte(k[i])
	}
	return uint32(padded[0])<<24 | uint32(padded[1])<<16 | uint32(padded[2])<<8 | uint32(padded[3])
}
