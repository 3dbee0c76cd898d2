// Copyright 2026, the splitdemux contributors.

// splitdemux demultiplexes paired-end sequencing reads produced by a
// split-pool combinatorial-indexing protocol. Each R1 read carries a
// concatenated barcode+UMI construct; splitdemux locates it, resolves each
// barcode segment against a configured whitelist (exactly or with
// one-mismatch tolerance), and emits a canonicalized R1 alongside the
// unmodified R2, plus a set of run statistics sidecar files.
//
// Typical invocation:
//
//	splitdemux -i reads_R1.fastq.gz -I reads_R2.fastq.gz -c barcodes.yaml -p run1
//
// The configuration document passed with -c (barcodes.yaml above) holds an
// ordered `bc1`..`bcN` map of whitelist file paths, a parallel `spacers`
// map, and an optional `parameters.umi_len` override.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "splitdemux: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := new(cliOptions)

	cmd := &cobra.Command{
		Use:     "splitdemux",
		Short:   "Demultiplex split-pool combinatorial-indexing reads",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrchestrator(opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.r1, "r1", "i", "", "input FASTQ path for R1 (required)")
	flags.StringVarP(&opts.r2, "r2", "I", "", "input FASTQ path for R2 (required)")
	flags.StringVarP(&opts.prefix, "prefix", "p", "splitdemux", "output file prefix")
	flags.IntVarP(&opts.threads, "threads", "t", 1, "gzip compression threads (0 = all cores)")
	flags.IntVarP(&opts.offset, "offset", "s", 5, "leading slack, in bases, for the first barcode")
	flags.StringVarP(&opts.config, "config", "c", "", "YAML barcode/spacer configuration path (required)")
	flags.IntVarP(&opts.umiLen, "umi-len", "u", 12, "UMI length, overridden by the config file if present")
	flags.IntVar(&opts.umiOffset, "umi-offset", 0, "bases to skip after the last barcode before the UMI")
	flags.BoolVarP(&opts.exact, "exact", "x", false, "use exact matching instead of one-mismatch")
	flags.BoolVarP(&opts.linkers, "linkers", "l", false, "include spacers in emitted constructs")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "do not write the run summary to stderr")
	flags.StringVarP(&opts.logLevel, "loglevel", "e", "info", "log level recorded in the run log (error, warn, info, debug, trace); messages are not filtered by it")
	flags.BoolVar(&opts.profile, "profile", false, "capture a CPU profile for the run")

	cobra.CheckErr(cmd.MarkFlagRequired("r1"))
	cobra.CheckErr(cmd.MarkFlagRequired("r2"))
	cobra.CheckErr(cmd.MarkFlagRequired("config"))

	return cmd
}

// cliOptions mirrors the command-line flag surface registered in newRootCmd.
type cliOptions struct {
	r1, r2    string
	prefix    string
	threads   int
	offset    int
	config    string
	umiLen    int
	umiOffset int
	exact     bool
	linkers   bool
	quiet     bool
	logLevel  string
	profile   bool
}
