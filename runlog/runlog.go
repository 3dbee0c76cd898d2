// Copyright 2026, the splitdemux contributors.

// Package runlog defines the run-level YAML log emitted at the end of a
// splitdemux invocation: parameters, resolved file paths, the finalized
// Statistics, and timing.
package runlog

import (
	"fmt"
	"os"

	"github.com/kshedden/splitdemux/stats"
	"gopkg.in/yaml.v3"
)

// Parameters records the resolved run configuration.
type Parameters struct {
	RunID          string `yaml:"run_id"`
	Offset         int    `yaml:"offset"`
	UMILen         int    `yaml:"umi_len"`
	UMIOffset      int    `yaml:"umi_offset"`
	ExactMatching  bool   `yaml:"exact_matching"`
	WriteLinkers   bool   `yaml:"write_linkers"`
	SplitdemuxVers string `yaml:"splitdemux_version"`
}

// FileIO records the resolved input/output paths.
type FileIO struct {
	ReadPathR1    string `yaml:"readpath_r1"`
	ReadPathR2    string `yaml:"readpath_r2"`
	WritePathR1   string `yaml:"writepath_r1"`
	WritePathR2   string `yaml:"writepath_r2"`
	WhitelistPath string `yaml:"whitelist_path"`
}

// Timing records when the run started and how long it took.
type Timing struct {
	Timestamp   string  `yaml:"timestamp"`
	ElapsedTime float64 `yaml:"elapsed_time"`
}

// Log is the complete run record written to `<prefix>_log.yaml`.
type Log struct {
	Parameters Parameters        `yaml:"parameters"`
	FileIO     FileIO            `yaml:"file_io"`
	Statistics *stats.Statistics `yaml:"statistics"`
	Timing     Timing            `yaml:"timing"`
}

// Render returns the log as a YAML document.
func (l *Log) Render() ([]byte, error) {
	out, err := yaml.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("runlog: marshaling: %w", err)
	}
	return out, nil
}

// WriteFile writes the log to path.
func (l *Log) WriteFile(path string) error {
	out, err := l.Render()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("runlog: writing %s: %w", path, err)
	}
	return nil
}
