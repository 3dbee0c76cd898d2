// Copyright 2026, the splitdemux contributors.

// Package yamlconfig loads the run's barcode/spacer configuration document
// and compiles it into a construct.Config. The on-disk `barcodes`/`spacers`
// maps must use the key format `bc1`..`bcN`, sorted numerically, so that
// segment order is explicit rather than incidental map iteration order (see
// DESIGN.md for the latent ordering bug this avoids).
package yamlconfig

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/kshedden/splitdemux/construct"
	"gopkg.in/yaml.v3"
)

var bcKeyPattern = regexp.MustCompile(`^bc([1-9][0-9]*)$`)

// ErrConfigParse wraps any failure to decode or validate the configuration
// document.
type ErrConfigParse struct{ Err error }

func (e *ErrConfigParse) Error() string { return fmt.Sprintf("yamlconfig: %v", e.Err) }
func (e *ErrConfigParse) Unwrap() error { return e.Err }

// document mirrors the recognized top-level YAML keys.
type document struct {
	Barcodes   map[string]string   `yaml:"barcodes"`
	Spacers    map[string]string   `yaml:"spacers"`
	Parameters *parametersDocument `yaml:"parameters"`
}

type parametersDocument struct {
	UMILen int `yaml:"umi_len"`
}

// Options carries the run-level knobs that are orthogonal to the document
// itself: matcher tolerance and canonical-output linker policy.
type Options struct {
	Mode       construct.MatchMode
	EmitLinker bool
	// DefaultUMILen is used when the document's parameters.umi_len is
	// absent or zero.
	DefaultUMILen int
}

// Load reads path, validates the bcN key convention, and compiles the
// ordered segment chain into a construct.Config.
func Load(path string, opts Options) (*construct.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ErrConfigParse{Err: fmt.Errorf("reading %s: %w", path, err)}
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ErrConfigParse{Err: fmt.Errorf("parsing %s: %w", path, err)}
	}
	if len(doc.Barcodes) == 0 {
		return nil, &ErrConfigParse{Err: fmt.Errorf("%s: no barcodes configured", path)}
	}

	order, err := orderedKeys(doc.Barcodes)
	if err != nil {
		return nil, &ErrConfigParse{Err: err}
	}
	for k := range doc.Spacers {
		if _, ok := doc.Barcodes[k]; !ok {
			return nil, &ErrConfigParse{Err: fmt.Errorf("spacer key %q has no matching bc<N> barcode key", k)}
		}
	}

	specs := make([]construct.SegmentSpec, len(order))
	for i, key := range order {
		specs[i] = construct.SegmentSpec{
			WhitelistPath: doc.Barcodes[key],
			Spacer:        doc.Spacers[key], // zero value "" if absent: no spacer for that segment
		}
	}

	umiLen := opts.DefaultUMILen
	if doc.Parameters != nil && doc.Parameters.UMILen > 0 {
		umiLen = doc.Parameters.UMILen
	}

	cfg, err := construct.Build(specs, opts.Mode, umiLen, opts.EmitLinker)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// orderedKeys validates that every key in m matches `bc<N>` and returns
// the keys sorted by N ascending. Any other key shape is rejected outright
// rather than silently falling back to map iteration order.
func orderedKeys(m map[string]string) ([]string, error) {
	type numbered struct {
		key string
		n   int
	}
	nums := make([]numbered, 0, len(m))
	for k := range m {
		match := bcKeyPattern.FindStringSubmatch(k)
		if match == nil {
			return nil, fmt.Errorf("barcode key %q does not match the required bc<N> format", k)
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("barcode key %q: %w", k, err)
		}
		nums = append(nums, numbered{key: k, n: n})
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i].n < nums[j].n })

	seen := make(map[int]bool, len(nums))
	keys := make([]string, len(nums))
	for i, nb := range nums {
		if seen[nb.n] {
			return nil, fmt.Errorf("duplicate barcode index bc%d", nb.n)
		}
		seen[nb.n] = true
		if nb.n != i+1 {
			return nil, fmt.Errorf("barcode keys must be contiguous starting at bc1 (missing bc%d)", i+1)
		}
		keys[i] = nb.key
	}
	return keys, nil
}
