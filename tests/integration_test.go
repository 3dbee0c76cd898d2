// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the splitdemux contributors.

// Package tests runs splitdemux end to end against fixture scenarios
// described in testdata/scenarios.toml, the way the original tool's test.go
// drove its own tests.toml fixtures.
package tests

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/kshedden/splitdemux/construct"
	"github.com/kshedden/splitdemux/driver"
	"github.com/kshedden/splitdemux/fastqio"
	"github.com/kshedden/splitdemux/yamlconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenario describes one end-to-end run: an input read pair, a barcode
// configuration, and the expected totals and emitted-whitelist fixture.
type scenario struct {
	Name              string `toml:"name"`
	Base              string `toml:"base"`
	Config            string `toml:"config"`
	R1                string `toml:"r1"`
	R2                string `toml:"r2"`
	Offset            int    `toml:"offset"`
	Exact             bool   `toml:"exact"`
	ExpectedTotal     int    `toml:"expected_total"`
	ExpectedPassing   int    `toml:"expected_passing"`
	ExpectedWhitelist string `toml:"expected_whitelist"`
}

type scenarioDoc struct {
	Scenario []scenario `toml:"scenario"`
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()
	raw, err := os.ReadFile("testdata/scenarios.toml")
	require.NoError(t, err)
	var doc scenarioDoc
	_, err = toml.Decode(string(raw), &doc)
	require.NoError(t, err)
	require.NotEmpty(t, doc.Scenario)
	return doc.Scenario
}

func TestScenarios(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			runScenario(t, sc)
		})
	}
}

func runScenario(t *testing.T, sc scenario) {
	t.Helper()

	mode := construct.OneMismatch
	if sc.Exact {
		mode = construct.Exact
	}
	cfg, err := yamlconfig.Load(filepath.Join(sc.Base, sc.Config), yamlconfig.Options{
		Mode:          mode,
		EmitLinker:    false,
		DefaultUMILen: 12,
	})
	require.NoError(t, err)

	in, err := fastqio.NewPairReader(filepath.Join(sc.Base, sc.R1), filepath.Join(sc.Base, sc.R2))
	require.NoError(t, err)
	defer in.Close()

	dir := t.TempDir()
	out, err := fastqio.NewPairWriter(filepath.Join(dir, "R1.fastq.gz"), filepath.Join(dir, "R2.fastq.gz"), 1)
	require.NoError(t, err)

	d := driver.New(cfg, in, out, driver.Options{Offset: sc.Offset, UMILen: cfg.UMILen()})
	st, err := d.Run()
	require.NoError(t, err)
	require.NoError(t, out.Close())
	require.NoError(t, st.Check())

	assert.Equal(t, sc.ExpectedTotal, st.Total, "scenario %s: total reads", sc.Name)
	assert.Equal(t, sc.ExpectedPassing, st.Passing, "scenario %s: passing reads", sc.Name)

	got := filepath.Join(dir, "whitelist.txt")
	require.NoError(t, st.WhitelistToFile(got))
	assertSameLines(t, got, filepath.Join(sc.Base, sc.ExpectedWhitelist))
}

// assertSameLines compares two files line by line, the way the original
// tool's compare() did, but reporting through testify instead of panicking.
func assertSameLines(t *testing.T, got, want string) {
	t.Helper()

	gf, err := os.Open(got)
	require.NoError(t, err)
	defer gf.Close()
	wf, err := os.Open(want)
	require.NoError(t, err)
	defer wf.Close()

	gs := bufio.NewScanner(gf)
	ws := bufio.NewScanner(wf)
	for {
		gHas := gs.Scan()
		wHas := ws.Scan()
		if gHas != wHas {
			assert.Fail(t, "files have different numbers of lines", "%s vs %s", got, want)
			return
		}
		if !gHas {
			break
		}
		assert.Equal(t, ws.Text(), gs.Text())
	}
	require.NoError(t, gs.Err())
	require.NoError(t, ws.Err())
}
