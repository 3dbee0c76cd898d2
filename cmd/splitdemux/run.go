// Copyright 2026, the splitdemux contributors.

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/kshedden/splitdemux/construct"
	"github.com/kshedden/splitdemux/driver"
	"github.com/kshedden/splitdemux/fastqio"
	"github.com/kshedden/splitdemux/runlog"
	"github.com/kshedden/splitdemux/yamlconfig"
	"github.com/pkg/profile"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// runOrchestrator wires every package together: it loads the configuration,
// opens the FASTQ streams, runs the driver, and serializes the statistics
// sidecar files and run log. It is the only place in splitdemux that knows
// about all of the other packages at once.
func runOrchestrator(opts *cliOptions) error {
	start := time.Now()
	runID := uuid.NewString()

	logFile, err := os.Create(opts.prefix + "_run.log")
	if err != nil {
		return fmt.Errorf("splitdemux: opening run log: %w", err)
	}
	defer logFile.Close()
	logger := log.New(logFile, "", log.Ltime)
	logger.Printf("splitdemux run %s starting, loglevel=%s", runID, opts.logLevel)

	if opts.profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	mode := construct.OneMismatch
	if opts.exact {
		mode = construct.Exact
	}

	logger.Printf("loading configuration from %s", opts.config)
	cfg, err := yamlconfig.Load(opts.config, yamlconfig.Options{
		Mode:          mode,
		EmitLinker:    opts.linkers,
		DefaultUMILen: opts.umiLen,
	})
	if err != nil {
		return fmt.Errorf("splitdemux: %w", err)
	}
	logger.Printf("compiled %d barcode segments", cfg.BarcodeCount())

	in, err := fastqio.NewPairReader(opts.r1, opts.r2)
	if err != nil {
		return fmt.Errorf("splitdemux: opening input reads: %w", err)
	}
	defer in.Close()

	r1Out := opts.prefix + "_R1.fq.gz"
	r2Out := opts.prefix + "_R2.fq.gz"
	out, err := fastqio.NewPairWriter(r1Out, r2Out, opts.threads)
	if err != nil {
		return fmt.Errorf("splitdemux: opening output writers: %w", err)
	}

	var bar *mpb.Bar
	var p *mpb.Progress
	if !opts.quiet {
		p = mpb.New(mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
		bar = p.AddBar(0,
			mpb.PrependDecorators(
				decor.Name("reads processed: ", decor.WC{W: len("reads processed: "), C: decor.DindentRight}),
			),
			mpb.AppendDecorators(
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
		)
	}

	d := driver.New(cfg, in, out, driver.Options{
		Offset:    opts.offset,
		UMILen:    cfg.UMILen(),
		UMIOffset: opts.umiOffset,
		OnProgress: func(processed int) {
			logger.Printf("processed %d read pairs", processed)
			if bar != nil {
				bar.SetCurrent(int64(processed))
			}
		},
	})

	st, runErr := d.Run()
	closeErr := out.Close()
	if bar != nil {
		if runErr == nil {
			bar.SetCurrent(int64(st.Total))
		}
		p.Wait()
	}
	if runErr != nil {
		return fmt.Errorf("splitdemux: %w", runErr)
	}
	if closeErr != nil {
		return fmt.Errorf("splitdemux: closing output: %w", closeErr)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	logger.Printf("heap in use after run: %d bytes", mem.HeapInuse)

	if err := st.Check(); err != nil {
		logger.Printf("warning: %v", err)
	}

	whitelistPath := opts.prefix + "_whitelist.txt"
	counterPath := opts.prefix + "_barcode_position_counts.tsv"
	umiStatsPath := opts.prefix + "_barcode_umi_stats.tsv"
	umiCompPath := opts.prefix + "_umi_composition_stats.tsv"

	if err := st.WhitelistToFile(whitelistPath); err != nil {
		return fmt.Errorf("splitdemux: %w", err)
	}
	if err := st.CounterMapsToFile(counterPath, cfg); err != nil {
		return fmt.Errorf("splitdemux: %w", err)
	}
	if err := st.BarcodeUMIStatsToFile(umiStatsPath); err != nil {
		return fmt.Errorf("splitdemux: %w", err)
	}
	if err := st.UMICompositionToFile(umiCompPath); err != nil {
		return fmt.Errorf("splitdemux: %w", err)
	}

	r1Abs, _ := filepath.Abs(opts.r1)
	r2Abs, _ := filepath.Abs(opts.r2)

	runLog := &runlog.Log{
		Parameters: runlog.Parameters{
			RunID:          runID,
			Offset:         opts.offset,
			UMILen:         cfg.UMILen(),
			UMIOffset:      opts.umiOffset,
			ExactMatching:  opts.exact,
			WriteLinkers:   opts.linkers,
			SplitdemuxVers: version,
		},
		FileIO: runlog.FileIO{
			ReadPathR1:    r1Abs,
			ReadPathR2:    r2Abs,
			WritePathR1:   r1Out,
			WritePathR2:   r2Out,
			WhitelistPath: whitelistPath,
		},
		Statistics: st,
		Timing: runlog.Timing{
			Timestamp:   start.Format(time.RFC3339),
			ElapsedTime: time.Since(start).Seconds(),
		},
	}
	if err := runLog.WriteFile(opts.prefix + "_log.yaml"); err != nil {
		return fmt.Errorf("splitdemux: %w", err)
	}

	logger.Printf("run %s complete: %d/%d reads passing (%.2f%%), elapsed %s",
		runID, st.Passing, st.Total, 100*st.FractionPass, time.Since(start).Round(time.Millisecond))

	if !opts.quiet {
		fmt.Fprintf(os.Stderr, "%d/%d reads passing (%.2f%%)\n", st.Passing, st.Total, 100*st.FractionPass)
	}
	return nil
}
