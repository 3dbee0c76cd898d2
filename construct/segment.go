// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the splitdemux contributors.

// Package construct implements the construct resolver: the matcher over
// barcode whitelists and the positional chain-search that locates an
// ordered run of barcode+spacer segments followed by a UMI inside an R1
// sequencing read.
package construct

import (
	"bufio"
	"fmt"
	"os"
)

const bases = "ACGT"

// MatchMode selects whether a Segment accepts only exact whitelist hits or
// also resolves unambiguous single-mismatch neighbors.
type MatchMode int

const (
	// Exact requires the probed window to equal a whitelist entry (after
	// spacer expansion) exactly.
	Exact MatchMode = iota
	// OneMismatch additionally resolves any window at Hamming distance 1
	// from a whitelist entry, provided the resolution is unambiguous.
	OneMismatch
)

// ErrAmbiguousWhitelist is returned when two distinct whitelist entries
// produce the same effective (word+spacer) sequence after spacer wildcard
// expansion. This is a build-time failure, never a runtime one.
type ErrAmbiguousWhitelist struct {
	Seq string
	A   int
	B   int
}

func (e *ErrAmbiguousWhitelist) Error() string {
	return fmt.Sprintf("ambiguous whitelist: effective sequence %q claimed by entries %d and %d", e.Seq, e.A, e.B)
}

// Segment is a single barcode position: a whitelist of equal-length DNA
// words, an optional trailing spacer, and a precompiled lookup table built
// once at load time and never mutated during streaming.
type Segment struct {
	words  []string // whitelist, in file order; index is the segment-local index
	spacer string   // literal spacer text (may contain N wildcards), kept for canonical reconstruction
	mode   MatchMode

	wordLen int
	effLen  int
	index   map[string]int
}

// Len returns the effective segment length: the whitelist word length plus
// the spacer length, if any.
func (s *Segment) Len() int { return s.effLen }

// WordLen returns the whitelist word length alone, excluding any spacer.
func (s *Segment) WordLen() int { return s.wordLen }

// NewSegment builds a Segment from an in-memory whitelist and optional
// spacer. All words must share one length. spacer may be empty (no
// spacer) or a string over {A,C,G,T,N} where N marks a wildcard position.
func NewSegment(words []string, spacer string, mode MatchMode) (*Segment, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("construct: empty whitelist")
	}
	wordLen := len(words[0])
	for _, w := range words {
		if len(w) != wordLen {
			return nil, fmt.Errorf("construct: whitelist words have mixed lengths (%d vs %d)", len(w), wordLen)
		}
		if !validDNA(w) {
			return nil, fmt.Errorf("construct: whitelist word %q contains non-ACGT bytes", w)
		}
	}
	if !validSpacer(spacer) {
		return nil, fmt.Errorf("construct: spacer %q contains bytes outside ACGTN", spacer)
	}

	s := &Segment{
		words:   append([]string(nil), words...),
		spacer:  spacer,
		mode:    mode,
		wordLen: wordLen,
		effLen:  wordLen + len(spacer),
		index:   make(map[string]int, len(words)*2),
	}

	// Step 1-2: enumerate effective forms (word + spacer wildcard
	// expansion) and insert the exact keys. A collision here is fatal:
	// two distinct whitelist entries cannot share an effective sequence.
	for j, w := range words {
		for _, eff := range expandSpacer(w, spacer) {
			if owner, ok := s.index[eff]; ok && owner != j {
				return nil, &ErrAmbiguousWhitelist{Seq: eff, A: owner, B: j}
			}
			s.index[eff] = j
		}
	}

	// Step 3: in one-mismatch mode, expand every Hamming-1 neighbor of
	// every exact key and insert it unless a different owner already
	// claims that key. Exact matches always win because they were
	// inserted first; ambiguous neighbors are silently dropped, never a
	// build error.
	if mode == OneMismatch {
		exact := make(map[string]int, len(s.index))
		for k, v := range s.index {
			exact[k] = v
		}
		ambiguous := make(map[string]bool)
		for seq, owner := range exact {
			for _, nb := range hammingOneNeighbors(seq) {
				if _, isExact := exact[nb]; isExact || ambiguous[nb] {
					continue
				}
				if existing, ok := s.index[nb]; ok {
					if existing != owner {
						delete(s.index, nb)
						ambiguous[nb] = true
					}
					continue
				}
				s.index[nb] = owner
			}
		}
	}

	return s, nil
}

// NewSegmentFromFile loads a whitelist as one word per line from path, and
// builds a Segment with the given spacer and mode.
func NewSegmentFromFile(path, spacer string, mode MatchMode) (*Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("construct: opening whitelist %s: %w", path, err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("construct: reading whitelist %s: %w", path, err)
	}
	return NewSegment(words, spacer, mode)
}

// Lookup probes the index table for a window of exactly Len() bytes.
// Any byte outside {A,C,G,T} is an immediate miss, since such a window can
// never be a key in the table.
func (s *Segment) Lookup(window []byte) (int, bool) {
	if len(window) != s.effLen {
		return 0, false
	}
	if !validDNABytes(window) {
		return 0, false
	}
	idx, ok := s.index[string(window)]
	return idx, ok
}

// MatchInRange slides the Len()-byte window over seq[lo:hi] (inclusive of
// lo, the window's start position ranges over lo..hi) and returns the
// first hit's end position and segment-local index. It returns ok=false if
// no position in range yields a hit, including when the window would run
// past the end of seq.
func (s *Segment) MatchInRange(seq []byte, lo, hi int) (end int, idx int, ok bool) {
	for p := lo; p <= hi; p++ {
		if p+s.effLen > len(seq) {
			break
		}
		if i, found := s.Lookup(seq[p : p+s.effLen]); found {
			return p + s.effLen, i, true
		}
	}
	return 0, 0, false
}

// Canonical returns the canonical bytes for whitelist index idx: just the
// whitelist word if withLinker is false, or the word followed by the
// literal spacer text (wildcard N bytes passed through as-is) if true.
func (s *Segment) Canonical(idx int, withLinker bool) ([]byte, bool) {
	if idx < 0 || idx >= len(s.words) {
		return nil, false
	}
	if !withLinker || s.spacer == "" {
		return []byte(s.words[idx]), true
	}
	out := make([]byte, 0, s.wordLen+len(s.spacer))
	out = append(out, s.words[idx]...)
	out = append(out, s.spacer...)
	return out, true
}

// WhitelistSize returns the number of whitelist entries (the segment-local
// index domain is [0, WhitelistSize())).
func (s *Segment) WhitelistSize() int { return len(s.words) }

func validDNA(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

func validDNABytes(b []byte) bool {
	for _, c := range b {
		switch c {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

func validSpacer(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T', 'N':
		default:
			return false
		}
	}
	return true
}

// expandSpacer concatenates word with every concrete instantiation of
// spacer's wildcard (N) positions, returning the Cartesian product. With no
// spacer or no N in the spacer, it returns a single element.
func expandSpacer(word, spacer string) []string {
	if spacer == "" {
		return []string{word}
	}
	variants := []string{""}
	for i := 0; i < len(spacer); i++ {
		c := spacer[i]
		var next []string
		if c == 'N' {
			for _, v := range variants {
				for _, b := range bases {
					next = append(next, v+string(b))
				}
			}
		} else {
			for _, v := range variants {
				next = append(next, v+string(c))
			}
		}
		variants = next
	}
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = word + v
	}
	return out
}

// hammingOneNeighbors returns every distinct sequence at Hamming distance
// exactly 1 from seq over the {A,C,G,T} alphabet.
func hammingOneNeighbors(seq string) []string {
	out := make([]string, 0, len(seq)*3)
	buf := []byte(seq)
	for i := 0; i < len(buf); i++ {
		orig := buf[i]
		for _, b := range bases {
			if byte(b) == orig {
				continue
			}
			buf[i] = byte(b)
			out = append(out, string(buf))
		}
		buf[i] = orig
	}
	return out
}
