// Copyright 2026, the splitdemux contributors.

package fastqio

import (
	"bufio"
	"fmt"
	"os"
	"runtime"

	"github.com/klauspost/pgzip"
)

// SplitThreads divides n compression threads roughly in half between R1'
// and R2 output, matching the original tool's thread-halving convention:
// 0 means "use all available cores", 1 means one thread apiece, and an odd
// remainder goes to R2.
func SplitThreads(n int) (r1Threads, r2Threads int) {
	if n == 0 {
		return SplitThreads(runtime.NumCPU())
	}
	if n == 1 {
		return 1, 1
	}
	half := n / 2
	if n%2 == 0 {
		return half, half
	}
	return half, half + 1
}

// Writer wraps a gzip-compressed FASTQ output file backed by a pgzip
// worker pool.
type Writer struct {
	file *os.File
	gz   *pgzip.Writer
	buf  *bufio.Writer
}

// NewWriter creates path and opens a pgzip writer over it using the given
// number of compression goroutines (pgzip treats <1 as "auto").
func NewWriter(path string, threads int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("fastqio: creating %s: %w", path, err)
	}
	gz := pgzip.NewWriter(f)
	if threads > 0 {
		if err := gz.SetConcurrency(1<<20, threads); err != nil {
			f.Close()
			return nil, fmt.Errorf("fastqio: configuring pgzip concurrency: %w", err)
		}
	}
	return &Writer{file: f, gz: gz, buf: bufio.NewWriter(gz)}, nil
}

// WriteRecord appends one FASTQ record (`@id`, seq, `+`, qual).
func (w *Writer) WriteRecord(id, seq, qual []byte) error {
	if _, err := w.buf.WriteString("@"); err != nil {
		return fmt.Errorf("fastqio: %w", err)
	}
	if _, err := w.buf.Write(id); err != nil {
		return fmt.Errorf("fastqio: %w", err)
	}
	if _, err := w.buf.WriteString("\n"); err != nil {
		return fmt.Errorf("fastqio: %w", err)
	}
	if _, err := w.buf.Write(seq); err != nil {
		return fmt.Errorf("fastqio: %w", err)
	}
	if _, err := w.buf.WriteString("\n+\n"); err != nil {
		return fmt.Errorf("fastqio: %w", err)
	}
	if _, err := w.buf.Write(qual); err != nil {
		return fmt.Errorf("fastqio: %w", err)
	}
	if _, err := w.buf.WriteString("\n"); err != nil {
		return fmt.Errorf("fastqio: %w", err)
	}
	return nil
}

// Close flushes the buffered writer and the gzip footer, then closes the
// underlying file. Output written before a cancellation or crash, without
// a valid gzip footer, is not guaranteed valid.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.gz.Close()
		w.file.Close()
		return fmt.Errorf("fastqio: flushing: %w", err)
	}
	if err := w.gz.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("fastqio: closing gzip stream: %w", err)
	}
	return w.file.Close()
}

// PairWriter writes R1' and R2 output, each backed by its own pgzip
// worker pool.
type PairWriter struct {
	R1, R2 *Writer
}

// NewPairWriter creates r1Path and r2Path, splitting threads between them
// via SplitThreads.
func NewPairWriter(r1Path, r2Path string, threads int) (*PairWriter, error) {
	r1Threads, r2Threads := SplitThreads(threads)
	r1, err := NewWriter(r1Path, r1Threads)
	if err != nil {
		return nil, err
	}
	r2, err := NewWriter(r2Path, r2Threads)
	if err != nil {
		r1.Close()
		return nil, err
	}
	return &PairWriter{R1: r1, R2: r2}, nil
}

// WritePair writes R1' then R2 for one pair, always in that order.
func (p *PairWriter) WritePair(r1ID, r1Seq, r1Qual []byte, r2 Record) error {
	if err := p.R1.WriteRecord(r1ID, r1Seq, r1Qual); err != nil {
		return err
	}
	return p.R2.WriteRecord(r2.ID, r2.Seq, r2.Qual)
}

// Close closes both writers, flushing their gzip footers.
func (p *PairWriter) Close() error {
	err1 := p.R1.Close()
	err2 := p.R2.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
