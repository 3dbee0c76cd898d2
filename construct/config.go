// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the splitdemux contributors.

package construct

import "fmt"

// DefaultSegmentTolerance is the number of bases past the previous
// segment's end position that a segment after the first may drift, to
// absorb minor upstream insertion/spacer flexibility. It is protocol
// specific and not yet exposed per-segment.
const DefaultSegmentTolerance = 2

// SegmentSpec names one barcode whitelist file and its (possibly empty)
// trailing spacer, in the order segments appear in the physical construct.
type SegmentSpec struct {
	WhitelistPath string
	Spacer        string
}

// Config holds the ordered chain of Segments that make up one construct,
// the UMI length, and whether canonical output includes spacer linkers.
// Config exclusively owns its Segments; it is read-only after Build.
type Config struct {
	segments   []*Segment
	umiLen     int
	emitLinker bool
}

// Build compiles specs, in order, into a Config. mode applies uniformly to
// every segment (the source protocol does not support per-segment
// tolerance). umiLen is the caller-supplied default; it is overridden by
// whatever non-zero value the configuration document specifies (see
// yamlconfig.Load).
func Build(specs []SegmentSpec, mode MatchMode, umiLen int, emitLinker bool) (*Config, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("construct: at least one barcode segment is required")
	}
	segments := make([]*Segment, len(specs))
	for i, sp := range specs {
		seg, err := NewSegmentFromFile(sp.WhitelistPath, sp.Spacer, mode)
		if err != nil {
			return nil, fmt.Errorf("construct: building segment %d: %w", i, err)
		}
		segments[i] = seg
	}
	return &Config{segments: segments, umiLen: umiLen, emitLinker: emitLinker}, nil
}

// BarcodeCount returns k, the number of barcode segments in the chain.
func (c *Config) BarcodeCount() int { return len(c.segments) }

// UMILen returns the UMI length passed to Build. yamlconfig.Load passes the
// document's parameters.umi_len when it is set and the caller's default
// otherwise, so no further fallback is applied to this value.
func (c *Config) UMILen() int { return c.umiLen }

// Segment returns the i'th Segment, for callers (statistics reporting)
// that need direct access to a segment's reverse lookup.
func (c *Config) Segment(i int) *Segment { return c.segments[i] }

// MatchSubsequence delegates to segment i's MatchInRange with window start
// positions pos..pos+offset; each probed window is that segment's
// effective length. offset of 0 restricts the search to the exact
// position pos.
func (c *Config) MatchSubsequence(seq []byte, i, pos, offset int) (end, idx int, ok bool) {
	if i < 0 || i >= len(c.segments) {
		panic(fmt.Sprintf("construct: invalid segment index %d", i))
	}
	seg := c.segments[i]
	return seg.MatchInRange(seq, pos, pos+offset)
}

// BuildBarcode concatenates, in segment order, each segment's canonical
// bytes for indices[i]. If a spacer contains wildcard N positions and
// emitLinker is true, those N bytes are passed through literally in the
// output; downstream consumers of the canonical construct must tolerate
// them.
func (c *Config) BuildBarcode(indices []int) []byte {
	if len(indices) != len(c.segments) {
		panic(fmt.Sprintf("construct: expected %d indices, got %d", len(c.segments), len(indices)))
	}
	var out []byte
	for i, idx := range indices {
		b, ok := c.segments[i].Canonical(idx, c.emitLinker)
		if !ok {
			panic(fmt.Sprintf("construct: invalid barcode index %d for segment %d", idx, i))
		}
		out = append(out, b...)
	}
	return out
}

// GetBarcode returns the canonical bytes for whitelist index idx within
// segment position, or ("", false) if the index is out of range. Used for
// reverse lookup when rendering per-position counter reports.
func (c *Config) GetBarcode(position, idx int) ([]byte, bool) {
	if position < 0 || position >= len(c.segments) {
		return nil, false
	}
	return c.segments[position].Canonical(idx, c.emitLinker)
}
