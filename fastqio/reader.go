// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the splitdemux contributors.

package fastqio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/pgzip"
)

// maxLineBuffer bounds the scanner's line buffer; sequencing reads and
// their quality strings are short, but identifier lines can carry long
// instrument-generated annotations.
const maxLineBuffer = 1024 * 1024

var gzipMagic = []byte{0x1f, 0x8b}

// openMaybeGzip opens path and, if its first two bytes are the gzip magic
// number, wraps it in a pgzip.Reader so gzip-compressed FASTQ input reads
// transparently alongside plain text.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fastqio: opening %s: %w", path, err)
	}
	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("fastqio: reading %s: %w", path, err)
	}
	if bytes.Equal(magic, gzipMagic) {
		gz, err := pgzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("fastqio: opening gzip stream %s: %w", path, err)
		}
		return &gzipFileCloser{Reader: gz, file: f}, nil
	}
	return &plainFileCloser{Reader: br, file: f}, nil
}

type gzipFileCloser struct {
	*pgzip.Reader
	file *os.File
}

func (g *gzipFileCloser) Close() error {
	g.Reader.Close()
	return g.file.Close()
}

type plainFileCloser struct {
	io.Reader
	file *os.File
}

func (p *plainFileCloser) Close() error { return p.file.Close() }

// reader scans one FASTQ file four lines at a time into id/seq/qual.
type reader struct {
	src     io.ReadCloser
	scanner *bufio.Scanner
}

func newReader(path string) (*reader, error) {
	src, err := openMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBuffer)
	return &reader{src: src, scanner: scanner}, nil
}

// next reads the next FASTQ record. ok is false at a clean end of stream;
// err is non-nil only on malformed input or an I/O failure.
func (r *reader) next() (rec Record, ok bool, err error) {
	var lines [4][]byte
	for i := 0; i < 4; i++ {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return Record{}, false, fmt.Errorf("fastqio: %w", err)
			}
			if i == 0 {
				return Record{}, false, nil
			}
			return Record{}, false, fmt.Errorf("fastqio: truncated FASTQ record (stopped after line %d of 4)", i)
		}
		lines[i] = append([]byte(nil), r.scanner.Bytes()...)
	}
	id := lines[0]
	if len(id) > 0 && id[0] == '@' {
		id = id[1:]
	}
	return Record{ID: id, Seq: lines[1], Qual: lines[3]}, true, nil
}

func (r *reader) Close() error { return r.src.Close() }

// PairReader streams an (R1, R2) FASTQ pair in lockstep. Termination
// occurs when either stream ends; R1/R2 length mismatch is not an error.
type PairReader struct {
	r1, r2 *reader
}

// NewPairReader opens r1Path and r2Path, transparently handling gzip
// compression on either or both.
func NewPairReader(r1Path, r2Path string) (*PairReader, error) {
	r1, err := newReader(r1Path)
	if err != nil {
		return nil, err
	}
	r2, err := newReader(r2Path)
	if err != nil {
		r1.Close()
		return nil, err
	}
	return &PairReader{r1: r1, r2: r2}, nil
}

// Next reads the next (R1, R2) record pair. ok is false once either stream
// is exhausted.
func (p *PairReader) Next() (r1, r2 Record, ok bool, err error) {
	rec1, ok1, err := p.r1.next()
	if err != nil {
		return Record{}, Record{}, false, err
	}
	rec2, ok2, err := p.r2.next()
	if err != nil {
		return Record{}, Record{}, false, err
	}
	if !ok1 || !ok2 {
		return Record{}, Record{}, false, nil
	}
	return rec1, rec2, true, nil
}

// Close releases both underlying files.
func (p *PairReader) Close() error {
	err1 := p.r1.Close()
	err2 := p.r2.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
