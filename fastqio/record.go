// Copyright 2026, the splitdemux contributors.

// Package fastqio provides the paired FASTQ reading and multi-threaded
// gzip-compressed FASTQ writing collaborators that sit outside the
// construct resolver core: reading plain or gzip-compressed FASTQ records
// and writing gzip-compressed FASTQ records via a worker-pool deflate
// backend. Nothing here resolves barcodes; it only carries bytes.
package fastqio

// Record is one FASTQ record: an identifier (without the leading '@'), the
// nucleotide sequence, and the per-base quality string. Plus/separator
// lines and the '@'/'+' prefixes are added back on write, never stored.
type Record struct {
	ID   []byte
	Seq  []byte
	Qual []byte
}
